// Package workspace implements the interactive session core: a named
// dataset registry with a current pointer and a session scratch
// directory. One session struct owns the registry plus whatever
// mutable state the current dataset needs; there is no internal
// locking, since a session is driven by a single caller at a time.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mxkacsa/jsonla/jsonl"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/schema"
	"github.com/mxkacsa/jsonla/value"
)

// Kind distinguishes a dataset loaded from a file from one produced by an
// operator within the session.
type Kind uint8

const (
	Source Kind = iota
	Derived
)

// Dataset describes one named relation in a session.
type Dataset struct {
	Name       string
	Kind       Kind
	Path       string
	RowCount   *int64 // nil until a counting pass has cached it
	SizeBytes  int64
	SchemaHint *schema.Schema // nil until schema infer has been run and cached
}

// Session owns the dataset registry, the current pointer, and the
// session's scratch directory for spilled derived datasets. A Session
// is a plain owned value, never a global singleton.
type Session struct {
	datasets   map[string]*Dataset
	current    string
	scratchDir string
	spillSeq   int
}

// Open creates a Session with its own scratch directory under base (a
// parent directory such as os.TempDir()). The scratch directory is
// removed on normal exit; remnants left by a crash are safe since
// names are session-scoped.
func Open(base, sessionID string) (*Session, error) {
	dir := filepath.Join(base, "jsonla-"+sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: create scratch dir")
	}
	return &Session{
		datasets:   make(map[string]*Dataset),
		scratchDir: dir,
	}, nil
}

// Close removes the session's scratch directory.
func (s *Session) Close() error {
	return os.RemoveAll(s.scratchDir)
}

// ScratchDir returns the session's scratch directory.
func (s *Session) ScratchDir() string { return s.scratchDir }

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load registers path as a source dataset under name (the file stem by
// default), makes it current, and errors on a name collision.
func (s *Session) Load(path, name string) (*Dataset, error) {
	if name == "" {
		name = stemOf(path)
	}
	if _, exists := s.datasets[name]; exists {
		return nil, jsonlaerr.New(jsonlaerr.PipelineError, "workspace: dataset %q already exists", name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: load %s", path)
	}
	ds := &Dataset{Name: name, Kind: Source, Path: path, SizeBytes: info.Size()}
	s.datasets[name] = ds
	s.current = name
	return ds, nil
}

// Cd moves the current pointer to name.
func (s *Session) Cd(name string) error {
	if _, ok := s.datasets[name]; !ok {
		return jsonlaerr.New(jsonlaerr.PipelineError, "workspace: no such dataset %q", name)
	}
	s.current = name
	return nil
}

// Pwd returns the current dataset's name, or "" if none is set.
func (s *Session) Pwd() string { return s.current }

// Current returns the current Dataset.
func (s *Session) Current() (*Dataset, error) {
	if s.current == "" {
		return nil, jsonlaerr.New(jsonlaerr.PipelineError, "workspace: no current dataset")
	}
	return s.datasets[s.current], nil
}

// Get returns the named dataset.
func (s *Session) Get(name string) (*Dataset, error) {
	ds, ok := s.datasets[name]
	if !ok {
		return nil, jsonlaerr.New(jsonlaerr.PipelineError, "workspace: no such dataset %q", name)
	}
	return ds, nil
}

// Datasets lists all datasets in lexical order by name.
func (s *Session) Datasets() []*Dataset {
	names := make([]string, 0, len(s.datasets))
	for n := range s.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Dataset, len(names))
	for i, n := range names {
		out[i] = s.datasets[n]
	}
	return out
}

// Open returns a Relation reading the dataset's backing file from the
// start.
func (s *Session) Open(name string) (relation.Relation, error) {
	ds, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return jsonl.Open(ds.Path)
}

// Ls streams the first limit records of the named dataset (or current if
// name is "").
func (s *Session) Ls(name string, limit int) (relation.Relation, error) {
	if name == "" {
		cur, err := s.Current()
		if err != nil {
			return nil, err
		}
		name = cur.Name
	}
	r, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	return relation.Take(r, limit), nil
}

// Summary is info()'s report: row count (cached on the Dataset after the
// first call), byte size, the set of top-level keys observed up to
// sampleBound records, and a preview record.
type Summary struct {
	Name      string
	RowCount  int64
	SizeBytes int64
	TopKeys   []string
	Preview   value.Record
	HasRows   bool
}

const defaultSampleBound = 1000

// Info reports on the named dataset (or current if name is ""), storing
// the row count on the Dataset (Dataset.RowCount). Every call reads the
// whole file again; the stored count does not shortcut a repeated call.
func (s *Session) Info(name string) (*Summary, error) {
	if name == "" {
		cur, err := s.Current()
		if err != nil {
			return nil, err
		}
		name = cur.Name
	}
	ds, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	r, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	keySet := make(map[string]bool)
	var keys []string
	var preview value.Record
	hasRows := false
	var count int64
	for {
		rec, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		count++
		if count == 1 {
			preview = rec
			hasRows = true
		}
		if count <= defaultSampleBound && rec.IsObject() {
			for _, k := range rec.Object().Keys() {
				if !keySet[k] {
					keySet[k] = true
					keys = append(keys, k)
				}
			}
		}
	}
	ds.RowCount = &count
	sort.Strings(keys)

	return &Summary{
		Name:      name,
		RowCount:  count,
		SizeBytes: ds.SizeBytes,
		TopKeys:   keys,
		Preview:   preview,
		HasRows:   hasRows,
	}, nil
}

// Save copies the file backing the current dataset to path without
// registering it.
func (s *Session) Save(path string) error {
	cur, err := s.Current()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cur.Path)
	if err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: save: read %s", cur.Path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "workspace: save: write %s", path)
	}
	return nil
}

func (s *Session) nextSpillPath(name string) string {
	s.spillSeq++
	return filepath.Join(s.scratchDir, fmt.Sprintf("%s_%d.jsonl", name, s.spillSeq))
}
