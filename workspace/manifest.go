package workspace

import (
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mxkacsa/jsonla/jsonlaerr"
)

// ManifestEntry is one dataset's durable record within the manifest
// sidecar — a smaller, binary-encoded shadow of Dataset kept alongside
// the scratch directory so a crashed session's derived files can be
// identified and cleaned up by name instead of guessed at from the
// directory listing.
type ManifestEntry struct {
	Name      string `msgpack:"name"`
	Kind      uint8  `msgpack:"kind"`
	Path      string `msgpack:"path"`
	RowCount  int64  `msgpack:"row_count"`
	HasRows   bool   `msgpack:"has_row_count"`
	SizeBytes int64  `msgpack:"size_bytes"`
}

// Manifest is the full sidecar payload: the dataset registry snapshot
// plus the current pointer at the time it was written.
type Manifest struct {
	Current  string          `msgpack:"current"`
	Datasets []ManifestEntry `msgpack:"datasets"`
}

const manifestFileName = "manifest.msgpack"

func (s *Session) manifestPath() string {
	return filepath.Join(s.scratchDir, manifestFileName)
}

// WriteManifest serializes the current dataset registry to a msgpack
// sidecar file in the scratch directory (temp file + rename, the same
// atomic-write discipline Spill uses). It runs only when called; the
// REPL and the other cmd/jsonla commands do not call it.
func (s *Session) WriteManifest() error {
	m := Manifest{Current: s.current}
	for _, ds := range s.Datasets() {
		entry := ManifestEntry{
			Name:      ds.Name,
			Kind:      uint8(ds.Kind),
			Path:      ds.Path,
			SizeBytes: ds.SizeBytes,
		}
		if ds.RowCount != nil {
			entry.RowCount = *ds.RowCount
			entry.HasRows = true
		}
		m.Datasets = append(m.Datasets, entry)
	}

	data, err := msgpack.Marshal(m)
	if err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: marshal manifest")
	}
	path := s.manifestPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: write manifest")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: rename manifest")
	}
	return nil
}

// ReadManifest loads a manifest previously written by WriteManifest from
// a scratch directory, without requiring a live Session — used to
// inspect or recover datasets left behind by a crashed REPL process.
func ReadManifest(scratchDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(scratchDir, manifestFileName))
	if err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: read manifest")
	}
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: unmarshal manifest")
	}
	return &m, nil
}
