package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/schema"
	"github.com/mxkacsa/jsonla/value"
)

func cmdSchema(args []string) error {
	if len(args) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "schema: expected 'infer' or 'validate'")
	}
	switch args[0] {
	case "infer":
		return cmdSchemaInfer(args[1:])
	case "validate":
		return cmdSchemaValidate(args[1:])
	default:
		return jsonlaerr.New(jsonlaerr.UsageError, "schema: unknown subcommand %q", args[0])
	}
}

func cmdSchemaInfer(args []string) error {
	fs := flag.NewFlagSet("schema infer", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	fs.Parse(args)

	file := positional(fs.Args())
	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	inferred, err := schema.Infer(src)
	if err != nil {
		return err
	}

	doc := schemaToJSONSchema(inferred)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "schema infer: marshal")
	}
	// schema infer emits one JSON document, not JSONL.
	return writeSchemaDoc(*output, data)
}

func writeSchemaDoc(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// schemaToJSONSchema converts the inferred runtime Schema into a
// JSON-Schema-shaped document for display.
func schemaToJSONSchema(s *schema.Schema) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": fieldsToProperties(s.Fields),
		"required":   requiredNames(s.Fields),
	}
}

func fieldsToProperties(fields map[string]*schema.FieldObservation) map[string]any {
	out := make(map[string]any, len(fields))
	for name, fo := range fields {
		out[name] = observationToJSONSchema(fo)
	}
	return out
}

func observationToJSONSchema(fo *schema.FieldObservation) map[string]any {
	doc := map[string]any{"type": sortedTypeNames(fo.Types)}
	if fo.Children != nil {
		doc["properties"] = fieldsToProperties(fo.Children)
		doc["required"] = requiredNames(fo.Children)
	}
	if fo.Items != nil {
		doc["items"] = observationToJSONSchema(fo.Items)
	}
	return doc
}

func sortedTypeNames(types map[string]bool) []string {
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

func requiredNames(fields map[string]*schema.FieldObservation) []string {
	var out []string
	for name, fo := range fields {
		if fo.Required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// cmdSchemaValidate validates every record of FILE against SCHEMA using
// an external JSON Schema validator library rather than a hand-rolled
// validator.
func cmdSchemaValidate(args []string) error {
	fs := flag.NewFlagSet("schema validate", flag.ExitOnError)
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 1 {
		return jsonlaerr.New(jsonlaerr.UsageError, "schema validate: SCHEMA FILE is required")
	}
	schemaPath := rest[0]
	file := positional(rest[1:])

	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "schema validate: read %s", schemaPath)
	}
	var js jsonschema.Schema
	if err := json.Unmarshal(raw, &js); err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "schema validate: parse %s", schemaPath)
	}
	resolved, err := js.Resolve(nil)
	if err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "schema validate: resolve %s", schemaPath)
	}

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	defer src.Close()

	var lineNo int
	var failures int
	for {
		rec, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		lineNo++
		if err := resolved.Validate(recordToNative(rec)); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "jsonla: record %d: %v\n", lineNo, err)
		}
	}
	if failures > 0 {
		return jsonlaerr.New(jsonlaerr.EvalError, "schema validate: %d of %d records failed validation", failures, lineNo)
	}
	return nil
}

func recordToNative(rec value.Record) any {
	switch rec.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return rec.Bool()
	case value.KindInt:
		return rec.Int()
	case value.KindFloat:
		return rec.Float()
	case value.KindString:
		return rec.Str()
	case value.KindArray:
		items := rec.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = recordToNative(it)
		}
		return out
	case value.KindObject:
		out := make(map[string]any, rec.Object().Len())
		for _, k := range rec.Object().Keys() {
			v, _ := rec.Get(k)
			out[k] = recordToNative(v)
		}
		return out
	default:
		return nil
	}
}
