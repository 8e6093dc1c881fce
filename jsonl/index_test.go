package jsonl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLazyIndexRandomAccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	content := "{\"a\":1}\n{\"a\":2}\n\n{\"a\":3}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	idx := NewLazyIndex(path, 2)
	n, err := idx.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}

	rec, err := idx.At(2)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := rec.Get("a")
	if v.Int() != 3 {
		t.Fatalf("expected a=3 at index 2, got %v", v)
	}

	rec0, err := idx.At(0)
	if err != nil {
		t.Fatal(err)
	}
	v0, _ := rec0.Get("a")
	if v0.Int() != 1 {
		t.Fatalf("expected a=1 at index 0, got %v", v0)
	}
}
