package main

import (
	"strings"

	"github.com/mxkacsa/jsonla/jsonl"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
)

// openInput opens path (or stdin for "-"/"") as a Relation, optionally in
// lenient parse mode.
func openInput(path string, lenient bool) (relation.Relation, error) {
	var opts []jsonl.Option
	if lenient {
		opts = append(opts, jsonl.Lenient())
	}
	return jsonl.Open(path, opts...)
}

// writeOutput drains r to outputPath (stdout for "-"/""), closing r when
// done.
func writeOutput(r relation.Relation, outputPath string, sortKeys bool) error {
	defer r.Close()
	var wopts []jsonl.WriterOption
	if sortKeys {
		wopts = append(wopts, jsonl.SortKeys())
	}
	w, err := jsonl.Create(outputPath, wopts...)
	if err != nil {
		return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "create output %s", outputPath)
	}
	for {
		rec, ok, err := r.Next()
		if err != nil {
			w.Close()
			return err
		}
		if !ok {
			break
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "write output")
		}
	}
	return w.Close()
}

// positional pulls the file argument a subcommand accepts after its
// flags: the file is read from stdin when it is "-" or omitted. Returns
// "" (stdin) if none was given.
func positional(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// splitCSV splits a comma-separated flag value, trimming whitespace
// around each element and dropping empty elements.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitPair(s, sep string) (string, string, error) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return "", "", jsonlaerr.New(jsonlaerr.UsageError, "expected %q in %q", sep, s)
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):]), nil
}
