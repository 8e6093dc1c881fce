package main

import (
	"reflect"
	"testing"

	"github.com/mxkacsa/jsonla/group"
	"github.com/mxkacsa/jsonla/schema"
)

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a, b ,c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitCSV = %v, want %v", got, want)
	}
	if splitCSV("") != nil {
		t.Errorf("splitCSV(\"\") should be nil")
	}
}

func TestSplitPair(t *testing.T) {
	l, r, err := splitPair("from=to", "=")
	if err != nil {
		t.Fatalf("splitPair: %v", err)
	}
	if l != "from" || r != "to" {
		t.Errorf("splitPair = (%q, %q)", l, r)
	}
	if _, _, err := splitPair("no-separator", "="); err == nil {
		t.Error("expected error for missing separator")
	}
}

func TestParseAggSpec(t *testing.T) {
	cases := []struct {
		in   string
		want group.AggSpec
	}{
		{"count=total", group.AggSpec{OutputName: "total", Fn: "count"}},
		{"sum:salary=total", group.AggSpec{OutputName: "total", Fn: "sum", ArgPath: "salary"}},
		{"sum:amount=total:zero", group.AggSpec{OutputName: "total", Fn: "sum", ArgPath: "amount", ZeroDefault: true}},
	}
	for _, c := range cases {
		got, err := parseAggSpec(c.in)
		if err != nil {
			t.Fatalf("parseAggSpec(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseAggSpec(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestSchemaToJSONSchema(t *testing.T) {
	s := &schema.Schema{
		Fields: map[string]*schema.FieldObservation{
			"a": {Types: map[string]bool{"integer": true, "null": true}, Required: true},
			"b": {Types: map[string]bool{"string": true}, Required: false},
		},
	}
	doc := schemaToJSONSchema(s)
	props := doc["properties"].(map[string]any)
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	required := doc["required"].([]string)
	if len(required) != 1 || required[0] != "a" {
		t.Errorf("expected only 'a' required, got %v", required)
	}
}
