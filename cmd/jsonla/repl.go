package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mxkacsa/jsonla/expr"
	"github.com/mxkacsa/jsonla/group"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/schema"
	"github.com/mxkacsa/jsonla/workspace"
)

// cmdRepl enters workspace mode: a line-oriented session over a
// workspace.Session. Every operator line has the shape
// `<verb> <output-name> <rest...>` for unary operators and
// `<verb> <other-dataset> <output-name> <rest...>` for binary ones — the
// other dataset and the spill target are both plain registered names.
func cmdRepl(args []string) error {
	var initial string
	if len(args) > 0 {
		initial = args[0]
	}

	sess, err := workspace.Open(os.TempDir(), fmt.Sprintf("%d", os.Getpid()))
	if err != nil {
		return err
	}
	defer sess.Close()

	if initial != "" {
		if _, err := sess.Load(initial, ""); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for {
		if sess.Pwd() != "" {
			fmt.Fprintf(os.Stdout, "%s> ", sess.Pwd())
		} else {
			fmt.Fprint(os.Stdout, "jsonla> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			runShellOut(line[1:])
			continue
		}
		if err := replDispatch(sess, line); err != nil {
			fail(err)
			continue
		}
	}
	return nil
}

func runShellOut(command string) {
	c := exec.Command("sh", "-c", command)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "jsonla: !%s: %v\n", command, err)
	}
}

func replDispatch(sess *workspace.Session, line string) error {
	fields := strings.Fields(line)
	verb := fields[0]
	rest := fields[1:]

	switch verb {
	case "load":
		if len(rest) == 0 {
			return jsonlaerr.New(jsonlaerr.UsageError, "load: PATH is required")
		}
		name := ""
		if len(rest) > 1 {
			name = rest[1]
		}
		ds, err := sess.Load(rest[0], name)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "loaded %s (%s)\n", ds.Name, ds.Path)
		return nil
	case "cd":
		if len(rest) == 0 {
			return jsonlaerr.New(jsonlaerr.UsageError, "cd: NAME is required")
		}
		return sess.Cd(rest[0])
	case "pwd":
		fmt.Fprintln(os.Stdout, sess.Pwd())
		return nil
	case "datasets":
		for _, ds := range sess.Datasets() {
			marker := " "
			if ds.Name == sess.Pwd() {
				marker = "*"
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", marker, ds.Name)
		}
		return nil
	case "info":
		name := ""
		if len(rest) > 0 {
			name = rest[0]
		}
		summary, err := sess.Info(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %d rows, %d bytes, keys=%v\n",
			summary.Name, summary.RowCount, summary.SizeBytes, summary.TopKeys)
		return nil
	case "ls":
		name := ""
		limit := 10
		if len(rest) > 0 {
			name = rest[0]
		}
		if len(rest) > 1 {
			if n, err := strconv.Atoi(rest[1]); err == nil {
				limit = n
			}
		}
		r, err := sess.Ls(name, limit)
		if err != nil {
			return err
		}
		return writeOutput(r, "-", false)
	case "save":
		if len(rest) == 0 {
			return jsonlaerr.New(jsonlaerr.UsageError, "save: PATH is required")
		}
		return sess.Save(rest[0])
	case "select":
		return replUnary(sess, rest, func(src relation.Relation, argStr string) (relation.Relation, error) {
			prog, err := expr.Compile(argStr)
			if err != nil {
				return nil, err
			}
			return relation.Select(src, prog, true), nil
		})
	case "project":
		return replUnary(sess, rest, func(src relation.Relation, argStr string) (relation.Relation, error) {
			fields, err := relation.ParseProjectFields(splitCSV(argStr))
			if err != nil {
				return nil, err
			}
			return relation.Project(src, fields, relation.Nested, false), nil
		})
	case "rename":
		return replUnary(sess, rest, func(src relation.Relation, argStr string) (relation.Relation, error) {
			var pairs []relation.RenamePair
			for _, m := range splitCSV(argStr) {
				from, to, err := splitPair(m, "=")
				if err != nil {
					return nil, err
				}
				pairs = append(pairs, relation.RenamePair{From: from, To: to})
			}
			return relation.Rename(src, pairs)
		})
	case "distinct":
		return replUnary(sess, rest, func(src relation.Relation, _ string) (relation.Relation, error) {
			return relation.Distinct(src), nil
		})
	case "sort":
		return replUnary(sess, rest, func(src relation.Relation, argStr string) (relation.Relation, error) {
			var keys []relation.SortKey
			for _, k := range splitCSV(argStr) {
				d := strings.HasPrefix(k, "-")
				k = strings.TrimPrefix(strings.TrimPrefix(k, "-"), "+")
				keys = append(keys, relation.SortKey{Path: k, Desc: d})
			}
			return relation.Sort(src, keys)
		})
	case "union", "intersection", "difference", "product":
		return replBinary(sess, verb, rest)
	case "join":
		return replJoin(sess, rest)
	case "groupby":
		return replGroupBy(sess, rest)
	case "schema":
		if len(rest) > 0 && rest[0] == "infer" {
			name := ""
			if len(rest) > 1 {
				name = rest[1]
			}
			r, err := sess.Open(firstNonEmpty(name, sess.Pwd()))
			if err != nil {
				return err
			}
			inferred, err := schema.Infer(r)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(schemaToJSONSchema(inferred), "", "  ")
			if err != nil {
				return jsonlaerr.Wrap(jsonlaerr.PipelineError, err, "schema infer: marshal")
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}
		return jsonlaerr.New(jsonlaerr.UsageError, "schema: expected 'infer'")
	case "quit", "exit":
		os.Exit(0)
		return nil
	default:
		return jsonlaerr.New(jsonlaerr.UsageError, "unknown command %q", verb)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// replUnary runs a single-input operator over current, spilling the
// result to outputName and moving current to it.
func replUnary(sess *workspace.Session, rest []string, op func(src relation.Relation, argStr string) (relation.Relation, error)) error {
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "expected an output dataset name")
	}
	outName := rest[0]
	argStr := strings.Join(rest[1:], " ")

	src, err := sess.Open(sess.Pwd())
	if err != nil {
		return err
	}
	out, err := op(src, argStr)
	if err != nil {
		src.Close()
		return err
	}
	_, err = sess.Spill(outName, out)
	return err
}

func replBinary(sess *workspace.Session, verb string, rest []string) error {
	if len(rest) < 2 {
		return jsonlaerr.New(jsonlaerr.UsageError, "%s: OTHER OUTPUT required", verb)
	}
	other, outName := rest[0], rest[1]
	a, err := sess.Open(sess.Pwd())
	if err != nil {
		return err
	}
	b, err := sess.Open(other)
	if err != nil {
		a.Close()
		return err
	}
	var out relation.Relation
	switch verb {
	case "union":
		out = relation.Union(a, b)
	case "intersection":
		out, err = relation.Intersection(a, b)
	case "difference":
		out, err = relation.Difference(a, b)
	case "product":
		out, err = relation.Product(a, b)
	}
	if err != nil {
		a.Close()
		b.Close()
		return err
	}
	_, err = sess.Spill(outName, out)
	return err
}

func replJoin(sess *workspace.Session, rest []string) error {
	if len(rest) < 3 {
		return jsonlaerr.New(jsonlaerr.UsageError, "join: OTHER OUTPUT --on l=r[,l=r...] [--mode MODE] required")
	}
	other, outName := rest[0], rest[1]
	on := ""
	mode := "inner"
	for i := 2; i < len(rest); i++ {
		switch {
		case rest[i] == "--on" && i+1 < len(rest):
			on = rest[i+1]
			i++
		case rest[i] == "--mode" && i+1 < len(rest):
			mode = rest[i+1]
			i++
		}
	}
	if on == "" {
		return jsonlaerr.New(jsonlaerr.UsageError, "join: --on is required")
	}
	var pairs []relation.PathPair
	for _, p := range splitCSV(on) {
		l, r, err := splitPair(p, "=")
		if err != nil {
			return err
		}
		pairs = append(pairs, relation.PathPair{LPath: l, RPath: r})
	}
	var jm relation.JoinMode
	switch mode {
	case "inner":
		jm = relation.JoinInner
	case "left":
		jm = relation.JoinLeft
	case "right":
		jm = relation.JoinRight
	case "outer":
		jm = relation.JoinOuter
	default:
		return jsonlaerr.New(jsonlaerr.UsageError, "join: unknown --mode %q", mode)
	}

	a, err := sess.Open(sess.Pwd())
	if err != nil {
		return err
	}
	b, err := sess.Open(other)
	if err != nil {
		a.Close()
		return err
	}
	out, err := relation.Join(a, b, pairs, jm, "")
	if err != nil {
		a.Close()
		b.Close()
		return err
	}
	_, err = sess.Spill(outName, out)
	return err
}

func replGroupBy(sess *workspace.Session, rest []string) error {
	if len(rest) < 2 {
		return jsonlaerr.New(jsonlaerr.UsageError, "groupby: KEY OUTPUT required")
	}
	keyStr, outName := rest[0], rest[1]
	var aggSpecs []string
	for i := 2; i < len(rest); i++ {
		if rest[i] == "--agg" && i+1 < len(rest) {
			aggSpecs = append(aggSpecs, rest[i+1])
			i++
		}
	}

	src, err := sess.Open(sess.Pwd())
	if err != nil {
		return err
	}
	grouped, err := group.By(group.FromPlain(src), splitCSV(keyStr))
	if err != nil {
		return err
	}

	var out relation.Relation
	if len(aggSpecs) == 0 {
		out = &groupToRecords{g: grouped}
	} else {
		specs, err := parseAggSpecs(aggSpecs)
		if err != nil {
			return err
		}
		out, err = group.Aggregate(grouped, specs, group.DefaultRegistry())
		if err != nil {
			return err
		}
	}
	_, err = sess.Spill(outName, out)
	return err
}
