package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

func writeTempJSONL(t *testing.T, dir, name string, rows []value.Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	for _, r := range rows {
		data, err := value.AppendJSON(nil, r, false)
		if err != nil {
			t.Fatalf("append json: %v", err)
		}
		data = append(data, '\n')
		if _, err := f.Write(data); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return path
}

func TestLoadCdPwdDatasets(t *testing.T) {
	tmp := t.TempDir()
	sess, err := Open(tmp, "t1")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer sess.Close()

	rows := []value.Record{func() value.Record { r := value.NewRecord(); r.Set("a", value.Int(1)); return r }()}
	path := writeTempJSONL(t, tmp, "events.jsonl", rows)

	ds, err := sess.Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Name != "events" {
		t.Errorf("expected default name 'events', got %q", ds.Name)
	}
	if sess.Pwd() != "events" {
		t.Errorf("expected current = events, got %q", sess.Pwd())
	}

	_, err = sess.Load(path, "events")
	if err == nil {
		t.Fatal("expected name collision error")
	}

	names := sess.Datasets()
	if len(names) != 1 || names[0].Name != "events" {
		t.Fatalf("unexpected datasets: %+v", names)
	}
}

func TestSpillRegistersDerivedAndMovesCurrent(t *testing.T) {
	tmp := t.TempDir()
	sess, err := Open(tmp, "t2")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	rows := []value.Record{func() value.Record { r := value.NewRecord(); r.Set("a", value.Int(1)); return r }()}
	path := writeTempJSONL(t, tmp, "src.jsonl", rows)
	if _, err := sess.Load(path, "src"); err != nil {
		t.Fatalf("load: %v", err)
	}

	ds, err := sess.Spill("derived1", relation.FromSlice(rows))
	if err != nil {
		t.Fatalf("spill: %v", err)
	}
	if ds.Kind != Derived {
		t.Errorf("expected derived kind")
	}
	if sess.Pwd() != "derived1" {
		t.Errorf("expected current to move to derived1, got %q", sess.Pwd())
	}
	if _, err := os.Stat(ds.Path); err != nil {
		t.Errorf("expected spilled file to exist: %v", err)
	}
}

func TestInfoCachesRowCount(t *testing.T) {
	tmp := t.TempDir()
	sess, err := Open(tmp, "t3")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	rows := []value.Record{
		func() value.Record { r := value.NewRecord(); r.Set("a", value.Int(1)); return r }(),
		func() value.Record { r := value.NewRecord(); r.Set("b", value.Int(2)); return r }(),
	}
	path := writeTempJSONL(t, tmp, "data.jsonl", rows)
	ds, err := sess.Load(path, "data")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	summary, err := sess.Info("data")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if summary.RowCount != 2 {
		t.Errorf("expected row count 2, got %d", summary.RowCount)
	}
	if ds.RowCount == nil || *ds.RowCount != 2 {
		t.Errorf("expected cached row count on dataset")
	}
	if len(summary.TopKeys) != 2 {
		t.Errorf("expected top keys [a,b], got %v", summary.TopKeys)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	sess, err := Open(tmp, "t4")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	rows := []value.Record{func() value.Record { r := value.NewRecord(); r.Set("a", value.Int(1)); return r }()}
	path := writeTempJSONL(t, tmp, "d.jsonl", rows)
	if _, err := sess.Load(path, "d"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := sess.WriteManifest(); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := ReadManifest(sess.ScratchDir())
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if m.Current != "d" {
		t.Errorf("expected current 'd', got %q", m.Current)
	}
	if len(m.Datasets) != 1 || m.Datasets[0].Name != "d" {
		t.Fatalf("unexpected manifest datasets: %+v", m.Datasets)
	}
}
