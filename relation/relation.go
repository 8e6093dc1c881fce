// Package relation implements the operator core: a pull-based iterator
// protocol over Relations (finite or lazy multisets of Records) plus
// the streaming, bounded-stateful, and materializing operators defined
// over it.
package relation

import "github.com/mxkacsa/jsonla/value"

// Relation is a pull iterator over Records. Next returns (rec, true, nil)
// for each record in turn and (zero, false, nil) once exhausted; an error
// aborts iteration. Close releases any held resources (file handles,
// buffers) and must be safe to call multiple times. Dropping a Relation
// without exhausting it (early termination, e.g. Take) must still Close
// it to release upstream resources.
type Relation interface {
	Next() (value.Record, bool, error)
	Close() error
}

// OpKind tags every operator with its memory-discipline class, used by
// the planner to choose an execution mode.
type OpKind uint8

const (
	KindStreaming OpKind = iota
	KindBoundedStateful
	KindMaterializing
)

// Kinder is implemented by operator constructors that want to advertise
// their class to the Planner without the Planner needing a type switch
// over every concrete operator type.
type Kinder interface {
	OpKind() OpKind
}

// sliceRelation adapts a pre-materialized slice to the Relation
// interface, used by materializing operators to hand off their buffered
// result and by tests.
type sliceRelation struct {
	items []value.Record
	pos   int
}

// FromSlice returns a Relation over an already-materialized slice.
func FromSlice(items []value.Record) Relation {
	return &sliceRelation{items: items}
}

func (s *sliceRelation) Next() (value.Record, bool, error) {
	if s.pos >= len(s.items) {
		return value.Value{}, false, nil
	}
	rec := s.items[s.pos]
	s.pos++
	return rec, true, nil
}

func (s *sliceRelation) Close() error { return nil }

// Collect drains r into a slice, closing r afterward. Used by
// materializing operators and by callers that need the whole relation in
// memory (e.g. workspace's info()).
func Collect(r Relation) ([]value.Record, error) {
	defer r.Close()
	var out []value.Record
	for {
		rec, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

// funcRelation adapts a next function (and an optional close function)
// to Relation, used by every streaming operator below.
type funcRelation struct {
	next  func() (value.Record, bool, error)
	close func() error
}

func (f *funcRelation) Next() (value.Record, bool, error) { return f.next() }
func (f *funcRelation) Close() error {
	if f.close != nil {
		return f.close()
	}
	return nil
}
