package main

import (
	"strings"
	"testing"

	"github.com/mxkacsa/jsonla/schema"
)

func TestExportedName(t *testing.T) {
	cases := map[string]string{
		"user_id":  "UserId",
		"a.b.c":    "ABC",
		"name":     "Name",
		"":         "Field",
		"-weird--": "Weird",
	}
	for in, want := range cases {
		if got := exportedName(in); got != want {
			t.Errorf("exportedName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTypeSpecScalar(t *testing.T) {
	fo := &schema.FieldObservation{Types: map[string]bool{"integer": true}, Required: true}
	typ, nested := typeSpec(fo, "RootAge")
	if typ != "int64" {
		t.Errorf("typ = %q, want int64", typ)
	}
	if len(nested) != 0 {
		t.Errorf("expected no nested structs, got %v", nested)
	}
}

func TestTypeSpecOptionalNullable(t *testing.T) {
	fo := &schema.FieldObservation{Types: map[string]bool{"string": true, "null": true}, Required: false}
	typ, _ := typeSpec(fo, "RootName")
	if typ != "*string" {
		t.Errorf("typ = %q, want *string", typ)
	}
}

func TestTypeSpecNestedObject(t *testing.T) {
	fo := &schema.FieldObservation{
		Types:    map[string]bool{"object": true},
		Required: true,
		Children: map[string]*schema.FieldObservation{
			"street": {Types: map[string]bool{"string": true}, Required: true},
		},
	}
	typ, nested := typeSpec(fo, "RootAddress")
	if typ != "RootAddress" {
		t.Errorf("typ = %q, want RootAddress", typ)
	}
	if len(nested) != 1 || nested[0].Name != "RootAddress" {
		t.Fatalf("expected one nested struct named RootAddress, got %v", nested)
	}
	if !strings.Contains(nested[0].Body, "Street string") {
		t.Errorf("nested body missing Street field: %q", nested[0].Body)
	}
}

func TestGenerateGoEmitsRootAndNested(t *testing.T) {
	s := &schema.Schema{
		Fields: map[string]*schema.FieldObservation{
			"id": {Types: map[string]bool{"integer": true}, Required: true},
			"address": {
				Types:    map[string]bool{"object": true},
				Required: false,
				Children: map[string]*schema.FieldObservation{
					"city": {Types: map[string]bool{"string": true}, Required: true},
				},
			},
		},
	}
	out := string(GenerateGo(s, "models", "User"))
	if !strings.Contains(out, "package models") {
		t.Errorf("missing package clause: %q", out)
	}
	if !strings.Contains(out, "type User struct") {
		t.Errorf("missing root struct: %q", out)
	}
	if !strings.Contains(out, "type UserAddress struct") {
		t.Errorf("missing nested struct: %q", out)
	}
	if !strings.Contains(out, `json:"id"`) {
		t.Errorf("missing json tag for id: %q", out)
	}
}
