package workspace

import (
	"os"

	"github.com/mxkacsa/jsonla/jsonl"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
)

// Spill drains result into a new file under the session's scratch
// directory, registers it as a derived dataset under name, and moves
// current to it. The write is atomic — temp file then rename — so a
// derived dataset is written exactly once and never left half-written.
func (s *Session) Spill(name string, result relation.Relation) (*Dataset, error) {
	if _, exists := s.datasets[name]; exists {
		return nil, jsonlaerr.New(jsonlaerr.PipelineError, "workspace: dataset %q already exists", name)
	}
	finalPath := s.nextSpillPath(name)
	tmpPath := finalPath + ".tmp"

	w, err := jsonl.Create(tmpPath)
	if err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: spill: create %s", tmpPath)
	}
	var rowCount int64
	for {
		rec, ok, err := result.Next()
		if err != nil {
			w.Close()
			os.Remove(tmpPath)
			return nil, err
		}
		if !ok {
			break
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			os.Remove(tmpPath)
			return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: spill: write")
		}
		rowCount++
	}
	if err := w.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: spill: close")
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: spill: rename")
	}

	info, err := os.Stat(finalPath)
	var size int64
	if err == nil {
		size = info.Size()
	}

	ds := &Dataset{Name: name, Kind: Derived, Path: finalPath, RowCount: &rowCount, SizeBytes: size}
	s.datasets[name] = ds
	s.current = name
	return ds, nil
}
