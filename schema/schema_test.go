package schema

import (
	"testing"

	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// [{"a":1}, {"a":null}, {"a":2,"b":"x"}] -> a required with types
// {integer, null}; b optional with type {string}.
func TestInferSchemaScenario(t *testing.T) {
	r1 := value.NewRecord()
	r1.Set("a", value.Int(1))
	r2 := value.NewRecord()
	r2.Set("a", value.Null())
	r3 := value.NewRecord()
	r3.Set("a", value.Int(2))
	r3.Set("b", value.String("x"))

	sch, err := Infer(relation.FromSlice([]value.Record{r1, r2, r3}))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	a, ok := sch.Fields["a"]
	if !ok {
		t.Fatalf("expected field a")
	}
	if !a.Required {
		t.Errorf("expected a to be required")
	}
	if !a.Types["integer"] || !a.Types["null"] {
		t.Errorf("expected a types {integer,null}, got %v", a.Types)
	}
	b, ok := sch.Fields["b"]
	if !ok {
		t.Fatalf("expected field b")
	}
	if b.Required {
		t.Errorf("expected b to be optional")
	}
	if !b.Types["string"] || len(b.Types) != 1 {
		t.Errorf("expected b types {string}, got %v", b.Types)
	}
}

func TestInferSchemaRecursesNestedObjects(t *testing.T) {
	r := value.NewRecord()
	inner := value.NewRecord()
	inner.Set("id", value.Int(1))
	r.Set("user", inner)

	sch, err := Infer(relation.FromSlice([]value.Record{r}))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	user := sch.Fields["user"]
	if user == nil || user.Children == nil {
		t.Fatalf("expected nested children for user")
	}
	if _, ok := user.Children["id"]; !ok {
		t.Fatalf("expected user.id in nested children")
	}
}

func TestInferSchemaUnionsArrayElementSchemas(t *testing.T) {
	r := value.NewRecord()
	r.Set("tags", value.Array([]value.Value{value.String("a"), value.Int(1)}))

	sch, err := Infer(relation.FromSlice([]value.Record{r}))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	tags := sch.Fields["tags"]
	if tags == nil || tags.Items == nil {
		t.Fatalf("expected tags.Items union schema")
	}
	if !tags.Items.Types["string"] || !tags.Items.Types["integer"] {
		t.Fatalf("expected union {string,integer}, got %v", tags.Items.Types)
	}
}
