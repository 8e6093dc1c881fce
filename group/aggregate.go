package group

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// Aggregator is one single-pass collector over the values observed at an
// aggregation spec's path within a group. New aggregation functions are
// added by registering a (collector, finalizer) factory under a name,
// not by extending a fixed switch statement.
type Aggregator interface {
	// Collect is called once per record in the group, with the value at
	// the spec's path and whether it was present at all.
	Collect(v value.Value, present bool)
	// Finalize returns the aggregated value and whether it is present
	// (false means the output field is omitted, e.g. an empty sum).
	Finalize() (value.Value, bool)
}

// Factory constructs a fresh Aggregator instance for one group.
type Factory func() Aggregator

// Registry is a name -> Factory table, guarded by a sync.RWMutex for
// concurrent Register/Get/List access.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Factory)}
}

// Register adds fn under name, replacing any previous entry — unlike the
// node registry this is meant to support overriding a built-in.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Get looks up name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// List returns the registered names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// defaultRegistry holds the built-in aggregators.
var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("count", func() Aggregator { return &countAgg{} })
	defaultRegistry.Register("sum", func() Aggregator { return &sumAgg{} })
	defaultRegistry.Register("avg", func() Aggregator { return &avgAgg{} })
	defaultRegistry.Register("min", func() Aggregator { return &minMaxAgg{min: true} })
	defaultRegistry.Register("max", func() Aggregator { return &minMaxAgg{min: false} })
	defaultRegistry.Register("list", func() Aggregator { return &listAgg{} })
	defaultRegistry.Register("first", func() Aggregator { return &firstLastAgg{first: true} })
	defaultRegistry.Register("last", func() Aggregator { return &firstLastAgg{first: false} })
	defaultRegistry.Register("unique", func() Aggregator { return &uniqueAgg{} })
	defaultRegistry.Register("median", func() Aggregator { return &medianAgg{} })
	defaultRegistry.Register("mode", func() Aggregator { return &modeAgg{} })
	defaultRegistry.Register("std", func() Aggregator { return &stdAgg{} })
	defaultRegistry.Register("concat", func() Aggregator { return &concatAgg{} })
}

// DefaultRegistry returns the shared built-in aggregator table, exposed so
// callers (the CLI's agg subcommand) can register custom aggregators
// before building an AggSpec pipeline.
func DefaultRegistry() *Registry { return defaultRegistry }

// AggSpec is one (output_name, agg_fn, arg_path?) aggregation instruction.
// ArgPath is empty for zero-arg aggregators (count). ZeroDefault opts
// sum into defaulting an empty group to 0 instead of leaving the field
// absent.
type AggSpec struct {
	OutputName  string
	Fn          string
	ArgPath     string
	ZeroDefault bool
}

type countAgg struct{ n int }

func (a *countAgg) Collect(value.Value, bool) { a.n++ }
func (a *countAgg) Finalize() (value.Value, bool) {
	return value.Int(int64(a.n)), true
}

type sumAgg struct {
	sum      float64
	any      bool
	allInt   bool
	isInt    bool
	zeroOpts bool
}

func (a *sumAgg) Collect(v value.Value, present bool) {
	if !present || !v.IsNumber() {
		return
	}
	if !a.any {
		a.allInt = true
	}
	if !v.IsInt() {
		a.allInt = false
	}
	a.sum += v.Float()
	a.any = true
}
func (a *sumAgg) Finalize() (value.Value, bool) {
	if !a.any {
		if a.zeroOpts {
			return value.Int(0), true
		}
		return value.Value{}, false
	}
	if a.allInt {
		return value.Int(int64(a.sum)), true
	}
	return value.Float(a.sum), true
}

type avgAgg struct {
	sum float64
	n   int
}

func (a *avgAgg) Collect(v value.Value, present bool) {
	if !present || !v.IsNumber() {
		return
	}
	a.sum += v.Float()
	a.n++
}
func (a *avgAgg) Finalize() (value.Value, bool) {
	if a.n == 0 {
		return value.Value{}, false
	}
	return value.Float(a.sum / float64(a.n)), true
}

type minMaxAgg struct {
	min  bool
	val  value.Value
	any  bool
}

func (a *minMaxAgg) Collect(v value.Value, present bool) {
	if !present || !v.IsNumber() {
		return
	}
	if !a.any {
		a.val = v
		a.any = true
		return
	}
	c := value.Compare(v, a.val)
	if (a.min && c < 0) || (!a.min && c > 0) {
		a.val = v
	}
}
func (a *minMaxAgg) Finalize() (value.Value, bool) {
	if !a.any {
		return value.Value{}, false
	}
	return a.val, true
}

type listAgg struct{ items []value.Value }

func (a *listAgg) Collect(v value.Value, present bool) {
	if !present {
		return
	}
	a.items = append(a.items, v)
}
func (a *listAgg) Finalize() (value.Value, bool) {
	return value.Array(a.items), true
}

type firstLastAgg struct {
	first bool
	val   value.Value
	any   bool
}

func (a *firstLastAgg) Collect(v value.Value, present bool) {
	if !present {
		return
	}
	if a.first && a.any {
		return
	}
	a.val = v
	a.any = true
}
func (a *firstLastAgg) Finalize() (value.Value, bool) {
	if !a.any {
		return value.Value{}, false
	}
	return a.val, true
}

type uniqueAgg struct{ items []value.Value }

func (a *uniqueAgg) Collect(v value.Value, present bool) {
	if !present {
		return
	}
	for _, it := range a.items {
		if value.Equal(it, v) {
			return
		}
	}
	a.items = append(a.items, v)
}
func (a *uniqueAgg) Finalize() (value.Value, bool) {
	return value.Array(a.items), true
}

type medianAgg struct{ vals []float64 }

func (a *medianAgg) Collect(v value.Value, present bool) {
	if !present || !v.IsNumber() {
		return
	}
	a.vals = append(a.vals, v.Float())
}
func (a *medianAgg) Finalize() (value.Value, bool) {
	if len(a.vals) == 0 {
		return value.Value{}, false
	}
	sorted := append([]float64(nil), a.vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return value.Float(sorted[n/2]), true
	}
	return value.Float((sorted[n/2-1] + sorted[n/2]) / 2), true
}

type modeAgg struct {
	counts []value.Value
	freq   []int
}

func (a *modeAgg) Collect(v value.Value, present bool) {
	if !present {
		return
	}
	for i, c := range a.counts {
		if value.Equal(c, v) {
			a.freq[i]++
			return
		}
	}
	a.counts = append(a.counts, v)
	a.freq = append(a.freq, 1)
}
func (a *modeAgg) Finalize() (value.Value, bool) {
	if len(a.counts) == 0 {
		return value.Value{}, false
	}
	best := 0
	for i := 1; i < len(a.counts); i++ {
		if a.freq[i] > a.freq[best] {
			best = i
		}
	}
	return a.counts[best], true
}

type stdAgg struct{ vals []float64 }

func (a *stdAgg) Collect(v value.Value, present bool) {
	if !present || !v.IsNumber() {
		return
	}
	a.vals = append(a.vals, v.Float())
}
func (a *stdAgg) Finalize() (value.Value, bool) {
	n := len(a.vals)
	if n == 0 {
		return value.Value{}, false
	}
	var mean float64
	for _, x := range a.vals {
		mean += x
	}
	mean /= float64(n)
	var variance float64
	for _, x := range a.vals {
		d := x - mean
		variance += d * d
	}
	variance /= float64(n)
	return value.Float(math.Sqrt(variance)), true
}

type concatAgg struct{ parts []string }

func (a *concatAgg) Collect(v value.Value, present bool) {
	if !present {
		return
	}
	a.parts = append(a.parts, stringOf(v))
}
func (a *concatAgg) Finalize() (value.Value, bool) {
	if len(a.parts) == 0 {
		return value.Value{}, false
	}
	return value.String(strings.Join(a.parts, "")), true
}

func stringOf(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return v.Str()
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int())
	case value.KindFloat:
		return fmt.Sprintf("%g", v.Float())
	case value.KindBool:
		return fmt.Sprintf("%t", v.Bool())
	case value.KindNull:
		return ""
	default:
		return ""
	}
}

type aggBucket struct {
	groups []GroupKey
	fields []string
	recs   []Record
}

// Aggregate collapses a group-annotated relation into one record per
// innermost group. Grouping-key paths become flattened top-level keys
// (the dotted string verbatim, never nested); `_group*` metadata never
// appears in the output. All records must carry the same grouping
// field-name sequence, or aggregation fails as a pipeline-fatal error.
// Materializing: the whole input is read to assemble complete per-group
// aggregator state before any output record can be emitted.
func Aggregate(src Relation, specs []AggSpec, reg *Registry) (relation.Relation, error) {
	if reg == nil {
		reg = defaultRegistry
	}
	factories := make([]Factory, len(specs))
	for i, s := range specs {
		fn, ok := reg.Get(s.Fn)
		if !ok {
			return nil, jsonlaerr.New(jsonlaerr.PipelineError, "aggregate: unknown aggregation function %q", s.Fn)
		}
		factories[i] = fn
	}

	var order []*aggBucket
	index := make(map[uint64][]*aggBucket)
	var fieldSeq []string
	haveSeq := false

	for {
		rec, ok, err := src.Next()
		if err != nil {
			src.Close()
			return nil, err
		}
		if !ok {
			break
		}
		seq := make([]string, len(rec.Info.Groups))
		for i, g := range rec.Info.Groups {
			seq[i] = g.Field
		}
		if !haveSeq {
			fieldSeq = seq
			haveSeq = true
		} else if !stringsEqual(fieldSeq, seq) {
			src.Close()
			return nil, jsonlaerr.New(jsonlaerr.PipelineError,
				"aggregate: inconsistent _groups field sequence across records")
		}

		keyTuple := make([]value.Value, len(rec.Info.Groups))
		for i, g := range rec.Info.Groups {
			keyTuple[i] = g.Value
		}
		h := value.TupleHash(keyTuple)
		var b *aggBucket
		for _, cand := range index[h] {
			if groupKeysEqual(cand.groups, rec.Info.Groups) {
				b = cand
				break
			}
		}
		if b == nil {
			b = &aggBucket{groups: rec.Info.Groups, fields: seq}
			index[h] = append(index[h], b)
			order = append(order, b)
		}
		b.recs = append(b.recs, rec)
	}
	if err := src.Close(); err != nil {
		return nil, err
	}

	out := make([]value.Record, 0, len(order))
	for _, b := range order {
		aggs := make([]Aggregator, len(specs))
		for i, s := range specs {
			aggs[i] = factories[i]()
			if sa, ok := aggs[i].(*sumAgg); ok {
				sa.zeroOpts = s.ZeroDefault
			}
		}
		for _, rec := range b.recs {
			for i, s := range specs {
				if s.Fn == "count" {
					aggs[i].Collect(value.Value{}, true)
					continue
				}
				v, present := value.GetPath(rec.Rec, s.ArgPath)
				aggs[i].Collect(v, present)
			}
		}
		outRec := value.NewRecord()
		for _, g := range b.groups {
			value.SetFlatKey(outRec, g.Field, g.Value)
		}
		for i, s := range specs {
			v, present := aggs[i].Finalize()
			if present {
				outRec.Set(s.OutputName, v)
			}
		}
		out = append(out, outRec)
	}
	return relation.FromSlice(out), nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func groupKeysEqual(a, b []GroupKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Field != b[i].Field || !value.Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}
