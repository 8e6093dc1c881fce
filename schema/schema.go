// Package schema implements schema inference: deriving a
// JSON-Schema-style description of a relation's observed shape. Unlike
// a compile-time, reflection-derived Go-struct schema, this one is
// built at runtime by observing actual records.
package schema

import (
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// FieldObservation is what Infer learned about one path: the set of JSON
// types observed there, whether it was required (present, even if null,
// in every record at this level), its nested field table (if any
// occurrence was an object), and the union schema of its elements (if
// any occurrence was an array).
type FieldObservation struct {
	Types    map[string]bool
	Required bool
	Children map[string]*FieldObservation
	Items    *FieldObservation
}

// Schema is the top-level inferred description: one FieldObservation per
// top-level field name.
type Schema struct {
	Fields map[string]*FieldObservation
}

// jsonType names a Value's shape the way JSON Schema's "type" keyword
// does — integer and number are kept distinct rather than unified under
// a single "number" type.
func jsonType(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindBool:
		return "boolean"
	case value.KindInt:
		return "integer"
	case value.KindFloat:
		return "number"
	case value.KindString:
		return "string"
	case value.KindArray:
		return "array"
	case value.KindObject:
		return "object"
	default:
		return "unknown"
	}
}

type fieldAcc struct {
	types        map[string]bool
	presentCount int
	objOccur     []value.Value
	arrItems     []value.Value
}

// Infer reads all of src and returns its inferred Schema. Materializing:
// the whole relation is read to determine which fields are required
// across every record.
func Infer(src relation.Relation) (*Schema, error) {
	rows, err := relation.Collect(src)
	if err != nil {
		return nil, err
	}
	return &Schema{Fields: buildFields(rows)}, nil
}

// buildFields observes the field set of objs (a set of object Values all
// considered at the same nesting level) and returns each field's
// observation, recursing into object- and array-typed fields.
func buildFields(objs []value.Value) map[string]*FieldObservation {
	acc := make(map[string]*fieldAcc)
	n := 0
	for _, rec := range objs {
		if !rec.IsObject() {
			continue
		}
		n++
		for _, k := range rec.Object().Keys() {
			v, _ := rec.Get(k)
			fa := acc[k]
			if fa == nil {
				fa = &fieldAcc{types: make(map[string]bool)}
				acc[k] = fa
			}
			fa.presentCount++
			fa.types[jsonType(v)] = true
			switch v.Kind() {
			case value.KindObject:
				fa.objOccur = append(fa.objOccur, v)
			case value.KindArray:
				fa.arrItems = append(fa.arrItems, v.Items()...)
			}
		}
	}

	out := make(map[string]*FieldObservation, len(acc))
	for k, fa := range acc {
		fo := &FieldObservation{
			Types:    fa.types,
			Required: fa.presentCount == n,
		}
		if len(fa.objOccur) > 0 {
			fo.Children = buildFields(fa.objOccur)
		}
		if len(fa.arrItems) > 0 {
			fo.Items = buildItemSchema(fa.arrItems)
		}
		out[k] = fo
	}
	return out
}

// buildItemSchema unions the element schemas of an array field.
func buildItemSchema(items []value.Value) *FieldObservation {
	types := make(map[string]bool)
	var objItems []value.Value
	for _, it := range items {
		types[jsonType(it)] = true
		if it.IsObject() {
			objItems = append(objItems, it)
		}
	}
	fo := &FieldObservation{Types: types}
	if len(objItems) > 0 {
		fo.Children = buildFields(objItems)
	}
	return fo
}
