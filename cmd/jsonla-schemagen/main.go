// Command jsonla-schemagen infers a Go struct definition from a sample
// JSONL file: the inferred schema is advisory JSON-Schema-style data on
// its own, but a generated Go type lets downstream code consume it with
// the compiler's help instead of untyped maps.
//
// Usage:
//
//	jsonla-schemagen -input users.jsonl -type User -package models -go user_gen.go
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/tools/imports"

	"github.com/mxkacsa/jsonla/jsonl"
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/schema"
)

var (
	inputFile   = flag.String("input", "", "input JSONL file (required)")
	goOutput    = flag.String("go", "", "Go output file (required)")
	packageName = flag.String("package", "models", "generated package name")
	typeName    = flag.String("type", "Record", "generated root struct name")
	sampleLimit = flag.Int("sample", 0, "limit inference to the first N records (0 = all)")
)

func main() {
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "jsonla-schemagen: -input flag is required")
		flag.Usage()
		os.Exit(2)
	}
	if *goOutput == "" {
		fmt.Fprintln(os.Stderr, "jsonla-schemagen: -go flag is required")
		flag.Usage()
		os.Exit(2)
	}

	r, err := jsonl.Open(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsonla-schemagen: cannot open input file: %v\n", err)
		os.Exit(3)
	}
	var src relation.Relation = r
	if *sampleLimit > 0 {
		src = relation.Take(r, *sampleLimit)
	}

	inferred, err := schema.Infer(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsonla-schemagen: schema inference failed: %v\n", err)
		os.Exit(4)
	}

	code := GenerateGo(inferred, *packageName, *typeName)
	formatted, err := imports.Process(*goOutput, code, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsonla-schemagen: formatting generated code: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*goOutput, formatted, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "jsonla-schemagen: cannot write Go output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated: %s\n", *goOutput)
}
