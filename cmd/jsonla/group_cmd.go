package main

import (
	"flag"
	"strings"

	"github.com/mxkacsa/jsonla/group"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// aggFlags collects repeated -agg flags into a string slice, the
// standard flag.Value idiom for repeatable flags.
type aggFlags []string

func (a *aggFlags) String() string { return strings.Join(*a, ",") }
func (a *aggFlags) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// parseAggSpec parses one aggregation instruction of the form
// `fn[:argpath]=output[:zero]`, e.g. `sum:salary=total`,
// `count=row_count`, `sum:amount=total:zero`.
func parseAggSpec(s string) (group.AggSpec, error) {
	left, right, err := splitPair(s, "=")
	if err != nil {
		return group.AggSpec{}, jsonlaerr.Wrap(jsonlaerr.UsageError, err, "invalid aggregation spec %q", s)
	}
	fn, argPath := left, ""
	if idx := strings.Index(left, ":"); idx >= 0 {
		fn = left[:idx]
		argPath = left[idx+1:]
	}
	output, opts := right, ""
	if idx := strings.Index(right, ":"); idx >= 0 {
		output = right[:idx]
		opts = right[idx+1:]
	}
	return group.AggSpec{
		OutputName:  output,
		Fn:          fn,
		ArgPath:     argPath,
		ZeroDefault: opts == "zero",
	}, nil
}

func parseAggSpecs(specs []string) ([]group.AggSpec, error) {
	out := make([]group.AggSpec, 0, len(specs))
	for _, s := range specs {
		spec, err := parseAggSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// groupToRecords flattens a group.Relation's metadata back into plain
// records via group.ToRecord, the serialization boundary for group_by's
// metadata-only output mode.
type groupToRecords struct{ g group.Relation }

func (r *groupToRecords) Next() (value.Record, bool, error) {
	rec, ok, err := r.g.Next()
	if err != nil || !ok {
		return value.Record{}, ok, err
	}
	return group.ToRecord(rec), true, nil
}
func (r *groupToRecords) Close() error { return r.g.Close() }

// recordsToGroup is agg's input adapter: it recovers group.Record
// metadata from the reserved `_group*` keys a prior group_by pass wrote.
type recordsToGroup struct{ src relation.Relation }

func (r *recordsToGroup) Next() (group.Record, bool, error) {
	rec, ok, err := r.src.Next()
	if err != nil || !ok {
		return group.Record{}, ok, err
	}
	gr, ok := group.FromRecord(rec)
	if !ok {
		return group.Record{}, false, jsonlaerr.New(jsonlaerr.PipelineError, "agg: record carries no _group metadata; run groupby first")
	}
	return gr, true, nil
}
func (r *recordsToGroup) Close() error { return r.src.Close() }

func cmdGroupBy(args []string) error {
	fs := flag.NewFlagSet("groupby", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	var aggSpecs aggFlags
	fs.Var(&aggSpecs, "agg", "aggregation spec fn[:argpath]=output[:zero] (repeatable); omit to emit group metadata instead")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "groupby: KEY is required")
	}
	keys := splitCSV(rest[0])
	file := positional(rest[1:])

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	grouped, err := group.By(group.FromPlain(src), keys)
	if err != nil {
		src.Close()
		return err
	}

	if len(aggSpecs) == 0 {
		return writeOutput(&groupToRecords{g: grouped}, *output, *sortKeys)
	}

	specs, err := parseAggSpecs(aggSpecs)
	if err != nil {
		return err
	}
	out, err := group.Aggregate(grouped, specs, group.DefaultRegistry())
	if err != nil {
		return err
	}
	return writeOutput(out, *output, *sortKeys)
}

func cmdAgg(args []string) error {
	fs := flag.NewFlagSet("agg", flag.ExitOnError)
	output := fs.String("output", "-", "output file (- for stdout)")
	parseLenient := fs.Bool("lenient-parse", false, "skip malformed input lines instead of aborting")
	sortKeys := fs.Bool("sort-keys", false, "emit object keys sorted")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		return jsonlaerr.New(jsonlaerr.UsageError, "agg: SPEC is required")
	}
	specs, err := parseAggSpecs(splitCSV(rest[0]))
	if err != nil {
		return err
	}
	file := positional(rest[1:])

	src, err := openInput(file, *parseLenient)
	if err != nil {
		return err
	}
	out, err := group.Aggregate(&recordsToGroup{src: src}, specs, group.DefaultRegistry())
	if err != nil {
		return err
	}
	return writeOutput(out, *output, *sortKeys)
}
