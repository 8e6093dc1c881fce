package group

import (
	"testing"

	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

func rec(pairs ...any) value.Record {
	r := value.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return r
}

// group_by(k) | aggregate(count) yields one record per distinct k with
// count == bucket size.
func TestGroupThenAggregateEquivalence(t *testing.T) {
	rows := []value.Record{
		rec("k", value.String("a")),
		rec("k", value.String("b")),
		rec("k", value.String("a")),
		rec("k", value.String("a")),
	}
	grouped, err := By(FromPlain(relation.FromSlice(rows)), []string{"k"})
	if err != nil {
		t.Fatalf("group_by: %v", err)
	}
	out, err := Aggregate(grouped, []AggSpec{{OutputName: "count", Fn: "count"}}, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	recs, err := relation.Collect(out)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 distinct groups, got %d", len(recs))
	}
	counts := map[string]int64{}
	for _, r := range recs {
		k, _ := r.Get("k")
		c, _ := r.Get("count")
		counts[k.Str()] = c.Int()
	}
	if counts["a"] != 3 || counts["b"] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestChainedGroupByAggregate(t *testing.T) {
	rows := []value.Record{
		rec("region", value.String("N"), "product", value.String("W"), "amount", value.Int(10)),
		rec("region", value.String("N"), "product", value.String("W"), "amount", value.Int(5)),
		rec("region", value.String("N"), "product", value.String("G"), "amount", value.Int(7)),
		rec("region", value.String("S"), "product", value.String("W"), "amount", value.Int(3)),
	}
	g1, err := By(FromPlain(relation.FromSlice(rows)), []string{"region"})
	if err != nil {
		t.Fatalf("group_by region: %v", err)
	}
	g2, err := By(g1, []string{"product"})
	if err != nil {
		t.Fatalf("group_by product: %v", err)
	}
	out, err := Aggregate(g2, []AggSpec{
		{OutputName: "total", Fn: "sum", ArgPath: "amount"},
		{OutputName: "count", Fn: "count"},
	}, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	recs, err := relation.Collect(out)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 (region,product) groups, got %d", len(recs))
	}
	for _, r := range recs {
		region, _ := r.Get("region")
		product, _ := r.Get("product")
		total, _ := r.Get("total")
		count, _ := r.Get("count")
		if region.Str() == "N" && product.Str() == "W" {
			if total.Int() != 15 || count.Int() != 2 {
				t.Errorf("N/W: total=%d count=%d, want 15/2", total.Int(), count.Int())
			}
		}
		if _, hasMeta := r.Get("_groups"); hasMeta {
			t.Fatalf("aggregated output must not carry _groups metadata")
		}
	}
}

func TestChainedGroupsAppendNotRewrite(t *testing.T) {
	rows := []value.Record{rec("a", value.String("x"), "b", value.String("y"))}
	g1, err := By(FromPlain(relation.FromSlice(rows)), []string{"a"})
	if err != nil {
		t.Fatalf("group_by a: %v", err)
	}
	g2, err := By(g1, []string{"b"})
	if err != nil {
		t.Fatalf("group_by b: %v", err)
	}
	grec, ok, err := g2.Next()
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	if len(grec.Info.Groups) != 2 {
		t.Fatalf("expected 2 group entries, got %d", len(grec.Info.Groups))
	}
	if grec.Info.Groups[0].Field != "a" || grec.Info.Groups[1].Field != "b" {
		t.Fatalf("expected groups in [a,b] order, got %+v", grec.Info.Groups)
	}
}

func TestToRecordFromRecordRoundTrip(t *testing.T) {
	rows := []value.Record{rec("k", value.String("a")), rec("k", value.String("a"))}
	grouped, err := By(FromPlain(relation.FromSlice(rows)), []string{"k"})
	if err != nil {
		t.Fatalf("group_by: %v", err)
	}
	gr, ok, err := grouped.Next()
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	serialized := ToRecord(gr)
	if _, has := serialized.Get("_group_size"); !has {
		t.Fatalf("expected _group_size in serialized record")
	}
	restored, ok := FromRecord(serialized)
	if !ok {
		t.Fatalf("expected FromRecord to find metadata")
	}
	if restored.Info.Size != gr.Info.Size || restored.Info.Index != gr.Info.Index {
		t.Fatalf("round-trip metadata mismatch: got %+v, want %+v", restored.Info, gr.Info)
	}
	if _, has := restored.Rec.Get("_groups"); has {
		t.Fatalf("restored record should have _group* keys stripped")
	}
}
