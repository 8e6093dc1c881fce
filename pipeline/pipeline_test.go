package pipeline

import (
	"testing"

	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

func intRows(vals ...int64) []value.Record {
	out := make([]value.Record, len(vals))
	for i, v := range vals {
		r := value.NewRecord()
		r.Set("v", value.Int(v))
		out[i] = r
	}
	return out
}

func TestChainPreservesOrder(t *testing.T) {
	rows := intRows(1, 2, 3)
	c := NewChain(Eager)
	c.Then(func(r relation.Relation) (relation.Relation, error) {
		return relation.Take(r, 2), nil
	}).Then(func(r relation.Relation) (relation.Relation, error) {
		return relation.Skip(r, 1), nil
	})
	out, err := c.Run(relation.FromSlice(rows))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	result, err := relation.Collect(out)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 row (take 2 then skip 1), got %d", len(result))
	}
	v, _ := result[0].Get("v")
	if v.Int() != 2 {
		t.Fatalf("expected v=2, got %d", v.Int())
	}
}

func TestBatchThenFlattenRoundTrips(t *testing.T) {
	rows := intRows(1, 2, 3, 4, 5)
	c := NewChain(Eager)
	c.Then(Batch(2)).Then(Flatten())
	out, err := c.Run(relation.FromSlice(rows))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	result, err := relation.Collect(out)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(result) != 5 {
		t.Fatalf("expected 5 rows after batch+flatten round trip, got %d", len(result))
	}
	for i, want := range []int64{1, 2, 3, 4, 5} {
		v, _ := result[i].Get("v")
		if v.Int() != want {
			t.Errorf("row %d = %d, want %d", i, v.Int(), want)
		}
	}
}

func TestBatchGroupsIntoFixedSizeArrays(t *testing.T) {
	rows := intRows(1, 2, 3)
	out, err := Batch(2)(relation.FromSlice(rows))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	result, err := relation.Collect(out)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 batches (2+1), got %d", len(result))
	}
	first, _ := result[0].Get("_batch")
	if len(first.Items()) != 2 {
		t.Fatalf("expected first batch to have 2 items, got %d", len(first.Items()))
	}
	second, _ := result[1].Get("_batch")
	if len(second.Items()) != 1 {
		t.Fatalf("expected last batch to have 1 item, got %d", len(second.Items()))
	}
}

func TestLazyModeDoesNotPrematurelyDrain(t *testing.T) {
	rows := intRows(1, 2, 3)
	c := NewChain(Lazy)
	out, err := c.Run(relation.FromSlice(rows))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rec, ok, err := out.Next()
	if err != nil || !ok {
		t.Fatalf("expected first record available lazily: ok=%v err=%v", ok, err)
	}
	v, _ := rec.Get("v")
	if v.Int() != 1 {
		t.Fatalf("expected v=1, got %d", v.Int())
	}
}
