package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mxkacsa/jsonla/schema"
)

// typeSpec resolves a FieldObservation into a Go type expression plus any
// nested struct bodies it needs emitted alongside the field. This is the
// one place the inference result commits to a concrete Go representation
// instead of staying JSON-Schema-generic.
func typeSpec(fo *schema.FieldObservation, nestedName string) (typ string, nested []namedStruct) {
	nonNull := make([]string, 0, len(fo.Types))
	hasNull := false
	for t := range fo.Types {
		if t == "null" {
			hasNull = true
			continue
		}
		nonNull = append(nonNull, t)
	}
	sort.Strings(nonNull)

	base := "any"
	switch {
	case len(nonNull) == 0:
		base = "any"
	case len(nonNull) == 1:
		switch nonNull[0] {
		case "integer":
			base = "int64"
		case "number":
			base = "float64"
		case "string":
			base = "string"
		case "boolean":
			base = "bool"
		case "object":
			if fo.Children != nil {
				body, children := structBody(fo.Children, nestedName)
				nested = append(nested, namedStruct{Name: nestedName, Body: body})
				nested = append(nested, children...)
				base = nestedName
			} else {
				base = "map[string]any"
			}
		case "array":
			elemName := nestedName + "Item"
			elemType := "any"
			if fo.Items != nil {
				elemType, nested = typeSpec(fo.Items, elemName)
			}
			base = "[]" + elemType
		default:
			base = "any"
		}
	default:
		base = "any"
	}

	if base != "any" && hasNull && !strings.HasPrefix(base, "[]") && !strings.HasPrefix(base, "map[") {
		base = "*" + base
	}
	if !fo.Required && base != "any" && !strings.HasPrefix(base, "*") && !strings.HasPrefix(base, "[]") && !strings.HasPrefix(base, "map[") {
		base = "*" + base
	}
	return base, nested
}

type namedStruct struct {
	Name string
	Body string
}

func structBody(fields map[string]*schema.FieldObservation, parentName string) (string, []namedStruct) {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	var nested []namedStruct
	for _, name := range names {
		fo := fields[name]
		fieldName := exportedName(name)
		childName := parentName + fieldName
		typ, children := typeSpec(fo, childName)
		nested = append(nested, children...)
		jsonTag := name
		if !fo.Required {
			jsonTag += ",omitempty"
		}
		fmt.Fprintf(&b, "\t%s %s `json:\"%s\"`\n", fieldName, typ, jsonTag)
	}
	return b.String(), nested
}

func exportedName(field string) string {
	parts := strings.FieldsFunc(field, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}

// GenerateGo renders s as a Go struct named typeName in package pkg,
// emitting one nested struct type per observed object-typed field, so
// the inferred schema can be consumed as compilable Go types instead of
// just a description.
func GenerateGo(s *schema.Schema, pkg, typeName string) []byte {
	body, nested := structBody(s.Fields, typeName)

	var out strings.Builder
	fmt.Fprintf(&out, "package %s\n\n", pkg)
	fmt.Fprintf(&out, "type %s struct {\n%s}\n", typeName, body)
	for _, n := range nested {
		fmt.Fprintf(&out, "\ntype %s struct {\n%s}\n", n.Name, n.Body)
	}
	return []byte(out.String())
}
