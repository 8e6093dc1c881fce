package relation

import (
	"fmt"

	"github.com/mxkacsa/jsonla/expr"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/value"
)

// Select emits each input record for which program is truthy, preserving
// order and duplicates. Streaming: O(1) memory.
func Select(src Relation, program *expr.Program, strict bool) Relation {
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				rec, ok, err := src.Next()
				if err != nil || !ok {
					return rec, ok, err
				}
				keep, err := program.EvalBool(rec)
				if err != nil {
					if strict {
						return value.Value{}, false, err
					}
					continue // lenient: drop the row; no count of dropped rows is kept
				}
				if keep {
					return rec, true, nil
				}
			}
		},
		close: src.Close,
	}
}

// SelectJMESPath is select's advanced-query form, backed by a JMESPath
// expression instead of the built-in expression language.
func SelectJMESPath(src Relation, program *expr.JMESPathProgram, strict bool) Relation {
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				rec, ok, err := src.Next()
				if err != nil || !ok {
					return rec, ok, err
				}
				keep, err := program.EvalBool(rec)
				if err != nil {
					if strict {
						return value.Value{}, false, err
					}
					continue
				}
				if keep {
					return rec, true, nil
				}
			}
		},
		close: src.Close,
	}
}

// RenamePair is one (from_path -> to_path) mapping for Rename.
type RenamePair struct {
	From string
	To   string
}

// Rename applies a set of (from_path -> to_path) mappings. A source may
// appear at most once; collisions in the target key are a PipelineError.
func Rename(src Relation, pairs []RenamePair) (Relation, error) {
	seenFrom := make(map[string]bool, len(pairs))
	seenTo := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if seenFrom[p.From] {
			return nil, jsonlaerr.New(jsonlaerr.PipelineError, "rename: source path %q used more than once", p.From)
		}
		seenFrom[p.From] = true
		if seenTo[p.To] {
			return nil, jsonlaerr.New(jsonlaerr.PipelineError, "rename: target key %q collides", p.To)
		}
		seenTo[p.To] = true
	}
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			rec, ok, err := src.Next()
			if err != nil || !ok {
				return rec, ok, err
			}
			out := value.NewRecord()
			moved := make(map[string]bool, len(pairs))
			for _, p := range pairs {
				v, ok := value.GetPath(rec, p.From)
				if ok {
					value.SetFlatKey(out, p.To, v)
				}
				moved[p.From] = true
			}
			if rec.IsObject() {
				for _, k := range rec.Object().Keys() {
					if moved[k] {
						continue
					}
					v, _ := rec.Get(k)
					value.SetFlatKey(out, k, v)
				}
			}
			return out, true, nil
		},
		close: src.Close,
	}, nil
}

// ExplodeEmptyPolicy controls what Explode does when the target path is
// absent or not an array.
type ExplodeEmptyPolicy uint8

const (
	// ExplodePassThrough passes the record through unchanged, emitting a
	// CapabilityWarning. This is the default.
	ExplodePassThrough ExplodeEmptyPolicy = iota
	// ExplodeDrop emits zero records for a non-array/absent path.
	ExplodeDrop
)

// Explode emits one record per element of the array at path, replacing
// the value at path with that element.
func Explode(src Relation, path string, policy ExplodeEmptyPolicy, onWarning func(jsonlaerr.Warning)) Relation {
	var pending []value.Record
	var pendingIdx int
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				if pendingIdx < len(pending) {
					rec := pending[pendingIdx]
					pendingIdx++
					return rec, true, nil
				}
				rec, ok, err := src.Next()
				if err != nil || !ok {
					return rec, ok, err
				}
				v, found := value.GetPath(rec, path)
				if !found || !v.IsArray() {
					switch policy {
					case ExplodeDrop:
						continue
					default:
						if onWarning != nil {
							onWarning(jsonlaerr.Warning{Message: fmt.Sprintf("explode: %q is absent or not an array; passing record through unchanged", path)})
						}
						return rec, true, nil
					}
				}
				items := v.Items()
				pending = pending[:0]
				pendingIdx = 0
				for _, item := range items {
					clone := rec.Clone()
					if err := value.SetPath(clone, path, item); err != nil {
						return value.Value{}, false, err
					}
					pending = append(pending, clone)
				}
				if len(pending) == 0 {
					continue
				}
			}
		},
		close: src.Close,
	}
}

// Union concatenates lhs then rhs with no deduplication: this is
// multiset union, not set union.
func Union(lhs, rhs Relation) Relation {
	onLeft := true
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			if onLeft {
				rec, ok, err := lhs.Next()
				if err != nil {
					return rec, ok, err
				}
				if ok {
					return rec, true, nil
				}
				onLeft = false
			}
			return rhs.Next()
		},
		close: func() error {
			err1 := lhs.Close()
			err2 := rhs.Close()
			if err1 != nil {
				return err1
			}
			return err2
		},
	}
}

// Take yields at most n records then reports exhaustion, exercising
// early termination: the source is closed as soon as n have been
// produced or the source itself is exhausted.
func Take(src Relation, n int) Relation {
	count := 0
	closed := false
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			if count >= n {
				if !closed {
					closed = true
					src.Close()
				}
				return value.Value{}, false, nil
			}
			rec, ok, err := src.Next()
			if err != nil || !ok {
				return rec, ok, err
			}
			count++
			if count >= n {
				closed = true
				src.Close()
			}
			return rec, true, nil
		},
		close: func() error {
			if closed {
				return nil
			}
			closed = true
			return src.Close()
		},
	}
}

// Skip discards the first n records then streams the rest.
func Skip(src Relation, n int) Relation {
	skipped := false
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			if !skipped {
				skipped = true
				for i := 0; i < n; i++ {
					_, ok, err := src.Next()
					if err != nil {
						return value.Value{}, false, err
					}
					if !ok {
						break
					}
				}
			}
			return src.Next()
		},
		close: src.Close,
	}
}

// MapFunc transforms one record into another (or signals an error).
type MapFunc func(value.Record) (value.Record, error)

// Map streams with a host-language callback, used by the pipeline
// composer.
func Map(src Relation, fn MapFunc) Relation {
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			rec, ok, err := src.Next()
			if err != nil || !ok {
				return rec, ok, err
			}
			out, err := fn(rec)
			if err != nil {
				return value.Value{}, false, err
			}
			return out, true, nil
		},
		close: src.Close,
	}
}

// FilterFunc decides whether to keep a record.
type FilterFunc func(value.Record) (bool, error)

// Filter streams with a host-language predicate callback.
func Filter(src Relation, fn FilterFunc) Relation {
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				rec, ok, err := src.Next()
				if err != nil || !ok {
					return rec, ok, err
				}
				keep, err := fn(rec)
				if err != nil {
					return value.Value{}, false, err
				}
				if keep {
					return rec, true, nil
				}
			}
		},
		close: src.Close,
	}
}
