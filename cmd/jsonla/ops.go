package main

import (
	"flag"
	"strings"

	"github.com/mxkacsa/jsonla/expr"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
)

func cmdSelect(args []string) error {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	lenient := fs.Bool("lenient", false, "drop rows that fail to evaluate instead of aborting")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	jmespath := fs.Bool("jmespath", false, "use the advanced JMESPath query sub-language")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "select: EXPR is required")
	}
	exprSrc := rest[0]
	file := positional(rest[1:])

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}

	var out relation.Relation
	if *jmespath {
		prog, err := expr.CompileJMESPath(exprSrc)
		if err != nil {
			src.Close()
			return err
		}
		out = relation.SelectJMESPath(src, prog, !*lenient)
	} else {
		prog, err := expr.Compile(exprSrc)
		if err != nil {
			src.Close()
			return err
		}
		out = relation.Select(src, prog, !*lenient)
	}
	return writeOutput(out, *output, *sortKeys)
}

func cmdProject(args []string) error {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	flatten := fs.Bool("flatten", false, "force dotted string keys instead of nesting bare paths")
	emitNull := fs.Bool("emit-null", false, "emit explicit null for absent projected paths instead of omitting the key")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "project: FIELDS is required")
	}
	fieldList := splitCSV(rest[0])
	file := positional(rest[1:])

	fields, err := relation.ParseProjectFields(fieldList)
	if err != nil {
		return err
	}

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	nest := relation.Nested
	if *flatten {
		nest = relation.Flat
	}
	out := relation.Project(src, fields, nest, *emitNull)
	return writeOutput(out, *output, *sortKeys)
}

func cmdRename(args []string) error {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "rename: MAP is required")
	}
	var pairs []relation.RenamePair
	for _, m := range splitCSV(rest[0]) {
		from, to, err := splitPair(m, "=")
		if err != nil {
			return jsonlaerr.Wrap(jsonlaerr.UsageError, err, "rename: invalid pair %q", m)
		}
		pairs = append(pairs, relation.RenamePair{From: from, To: to})
	}
	file := positional(rest[1:])

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	out, err := relation.Rename(src, pairs)
	if err != nil {
		src.Close()
		return err
	}
	return writeOutput(out, *output, *sortKeys)
}

func cmdDistinct(args []string) error {
	fs := flag.NewFlagSet("distinct", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	fs.Parse(args)

	file := positional(fs.Args())
	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	return writeOutput(relation.Distinct(src), *output, *sortKeys)
}

func cmdSort(args []string) error {
	fs := flag.NewFlagSet("sort", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	desc := fs.Bool("desc", false, "default every key to descending order")
	window := fs.Int("window", 0, "run sort per fixed-size window instead of globally (approximate, not a global sort)")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "sort: KEYS is required")
	}
	var keys []relation.SortKey
	for _, k := range splitCSV(rest[0]) {
		d := *desc
		if strings.HasPrefix(k, "-") {
			d = true
			k = k[1:]
		} else if strings.HasPrefix(k, "+") {
			k = k[1:]
		}
		keys = append(keys, relation.SortKey{Path: k, Desc: d})
	}
	file := positional(rest[1:])

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}

	if *window > 0 {
		out, err := planWindowedSort(src, keys, *window)
		if err != nil {
			return err
		}
		return writeOutput(out, *output, *sortKeys)
	}

	out, err := relation.Sort(src, keys)
	if err != nil {
		src.Close()
		return err
	}
	return writeOutput(out, *output, *sortKeys)
}

func cmdUnion(args []string) error        { return binarySetOp("union", args, relationUnion) }
func cmdIntersection(args []string) error { return binarySetOp("intersection", args, relationIntersection) }
func cmdDifference(args []string) error   { return binarySetOp("difference", args, relation.Difference) }
func cmdProduct(args []string) error      { return binarySetOp("product", args, relation.Product) }

func relationUnion(a, b relation.Relation) (relation.Relation, error) {
	return relation.Union(a, b), nil
}

func relationIntersection(a, b relation.Relation) (relation.Relation, error) {
	return relation.Intersection(a, b)
}

// binarySetOp implements the union/intersection/difference/product
// commands, which all share the `CMD A B` shape.
func binarySetOp(name string, args []string, op func(a, b relation.Relation) (relation.Relation, error)) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 2 {
		return jsonlaerr.New(jsonlaerr.UsageError, "%s: two input datasets A B are required", name)
	}
	a, err := openInput(rest[0], *parseLenient)
	if err != nil {
		return err
	}
	b, err := openInput(rest[1], *parseLenient)
	if err != nil {
		a.Close()
		return err
	}
	out, err := op(a, b)
	if err != nil {
		a.Close()
		b.Close()
		return err
	}
	return writeOutput(out, *output, *sortKeys)
}

func cmdJoin(args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	on := fs.String("on", "", "comma-separated l_path=r_path equi-join key pairs (required)")
	mode := fs.String("mode", "inner", "inner|left|right|outer")
	rightPrefix := fs.String("right-prefix", "", "prefix applied to every right-side key instead of overwriting on collision")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 2 {
		return jsonlaerr.New(jsonlaerr.UsageError, "join: two input datasets A B are required")
	}
	if *on == "" {
		return jsonlaerr.New(jsonlaerr.UsageError, "join: --on is required")
	}
	var pairs []relation.PathPair
	for _, p := range splitCSV(*on) {
		l, r, err := splitPair(p, "=")
		if err != nil {
			return jsonlaerr.Wrap(jsonlaerr.UsageError, err, "join: invalid --on pair %q", p)
		}
		pairs = append(pairs, relation.PathPair{LPath: l, RPath: r})
	}
	var jm relation.JoinMode
	switch *mode {
	case "inner":
		jm = relation.JoinInner
	case "left":
		jm = relation.JoinLeft
	case "right":
		jm = relation.JoinRight
	case "outer":
		jm = relation.JoinOuter
	default:
		return jsonlaerr.New(jsonlaerr.UsageError, "join: unknown --mode %q", *mode)
	}

	a, err := openInput(rest[0], *parseLenient)
	if err != nil {
		return err
	}
	b, err := openInput(rest[1], *parseLenient)
	if err != nil {
		a.Close()
		return err
	}
	out, err := relation.Join(a, b, pairs, jm, *rightPrefix)
	if err != nil {
		a.Close()
		b.Close()
		return err
	}
	return writeOutput(out, *output, *sortKeys)
}
