package jsonl

import (
	"strings"
	"testing"

	"github.com/mxkacsa/jsonla/value"
)

func TestReaderSkipsBlankLines(t *testing.T) {
	r := New(strings.NewReader("{\"a\":1}\n\n{\"a\":2}\n"), "test")
	var got []int64
	for {
		rec, ok, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		v, _ := rec.Get("a")
		got = append(got, v.Int())
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestReaderFatalOnBadLine(t *testing.T) {
	r := New(strings.NewReader("{\"a\":1}\nnot json\n{\"a\":2}\n"), "test")
	_, _, _ = r.Next()
	_, ok, err := r.Next()
	if err == nil || ok {
		t.Fatal("expected a fatal parse error on line 2")
	}
}

func TestReaderLenientSkipsBadLines(t *testing.T) {
	r := New(strings.NewReader("{\"a\":1}\nnot json\n{\"a\":2}\n"), "test", Lenient())
	var got []int64
	for {
		rec, ok, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		v, _ := rec.Get("a")
		got = append(got, v.Int())
	}
	if len(got) != 2 || r.Skipped() != 1 {
		t.Fatalf("got %v, skipped=%d", got, r.Skipped())
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	rec := value.NewRecord()
	rec.Set("b", value.Int(2))
	rec.Set("a", value.Int(1))
	if err := w.Write(rec); err != nil {
		t.Fatal(err)
	}
	w.Flush()
	if sb.String() != `{"b":2,"a":1}`+"\n" {
		t.Fatalf("expected insertion order, got %q", sb.String())
	}
}

func TestWriterSortKeys(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb, SortKeys())
	rec := value.NewRecord()
	rec.Set("b", value.Int(2))
	rec.Set("a", value.Int(1))
	w.Write(rec)
	w.Flush()
	if sb.String() != `{"a":1,"b":2}`+"\n" {
		t.Fatalf("expected sorted keys, got %q", sb.String())
	}
}
