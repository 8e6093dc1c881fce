package plan

import (
	"testing"

	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

func TestClassifyStreamWhenAllStreaming(t *testing.T) {
	steps := []Step{{Name: "select", Kind: relation.KindStreaming}, {Name: "project", Kind: relation.KindStreaming}}
	res, err := Classify(steps, Options{})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Mode != ModeStream {
		t.Fatalf("expected ModeStream, got %v", res.Mode)
	}
}

func TestClassifyMaterializeWhenSortPresent(t *testing.T) {
	steps := []Step{{Name: "sort", Kind: relation.KindMaterializing}}
	res, err := Classify(steps, Options{})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Mode != ModeMaterialize {
		t.Fatalf("expected ModeMaterialize, got %v", res.Mode)
	}
}

func TestClassifyWindowedWithSort(t *testing.T) {
	steps := []Step{{Name: "sort", Kind: relation.KindMaterializing}}
	res, err := Classify(steps, Options{Window: 2})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Mode != ModeWindowed || res.Window != 2 {
		t.Fatalf("expected ModeWindowed/2, got %v/%d", res.Mode, res.Window)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected an approximation warning")
	}
}

func TestClassifyRejectsWindowedJoin(t *testing.T) {
	steps := []Step{{Name: "join", Kind: relation.KindMaterializing}}
	_, err := Classify(steps, Options{Window: 2})
	if err == nil {
		t.Fatalf("expected windowed join to be rejected")
	}
}

func TestClassifyStreamFallsBackWithWarning(t *testing.T) {
	steps := []Step{{Name: "sort", Kind: relation.KindMaterializing}}
	res, err := Classify(steps, Options{RequestStream: true})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Mode != ModeMaterialize {
		t.Fatalf("expected fallback to ModeMaterialize, got %v", res.Mode)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a fallback warning")
	}
}

// Input [4,2,6,1,3,5] with window=2 produces per-window sorted batches
// concatenated, not a global sort: [2,4,1,6,3,5].
func TestRunWindowedSortApproximation(t *testing.T) {
	vals := []int64{4, 2, 6, 1, 3, 5}
	rows := make([]value.Record, len(vals))
	for i, v := range vals {
		r := value.NewRecord()
		r.Set("v", value.Int(v))
		rows[i] = r
	}
	src := relation.FromSlice(rows)
	sortOp := func(batch relation.Relation) (relation.Relation, error) {
		return relation.Sort(batch, []relation.SortKey{{Path: "v"}})
	}
	out, err := RunWindowed(src, 2, sortOp)
	if err != nil {
		t.Fatalf("run windowed: %v", err)
	}
	rows2, err := relation.Collect(out)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []int64{2, 4, 1, 6, 3, 5}
	if len(rows2) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows2))
	}
	for i, w := range want {
		v, _ := rows2[i].Get("v")
		if v.Int() != w {
			t.Errorf("row %d = %d, want %d", i, v.Int(), w)
		}
	}
}
