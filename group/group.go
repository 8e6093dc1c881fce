// Package group implements the grouping engine: bucketing records by a
// key tuple, annotating each with its place in the grouping hierarchy,
// and collapsing groups into aggregated records. Metadata travels as an
// out-of-band side channel in-process, and is only ever flattened into
// the reserved `_group*` record keys at a serialization boundary
// (ToRecord/FromRecord).
package group

import (
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// GroupKey is one (field, value) pair in a record's grouping hierarchy.
type GroupKey struct {
	Field string
	Value value.Value
}

// Info is the metadata group_by attaches to a record: its full grouping
// hierarchy in order, the size of its innermost group, and its 0-based
// position within that group.
type Info struct {
	Groups []GroupKey
	Size   int
	Index  int
}

// Record pairs a plain Value record with its grouping metadata.
type Record struct {
	Rec  value.Record
	Info Info
}

// Relation is a pull iterator over grouped records, the group-aware
// counterpart of relation.Relation.
type Relation interface {
	Next() (Record, bool, error)
	Close() error
}

type funcRelation struct {
	next  func() (Record, bool, error)
	close func() error
}

func (f *funcRelation) Next() (Record, bool, error) { return f.next() }
func (f *funcRelation) Close() error {
	if f.close != nil {
		return f.close()
	}
	return nil
}

// FromPlain wraps an ungrouped relation with empty grouping metadata, the
// entry point before the first group_by in a pipeline.
func FromPlain(src relation.Relation) Relation {
	return &funcRelation{
		next: func() (Record, bool, error) {
			rec, ok, err := src.Next()
			if err != nil || !ok {
				return Record{}, ok, err
			}
			return Record{Rec: rec, Info: Info{}}, true, nil
		},
		close: src.Close,
	}
}

type bucket struct {
	key     []value.Value
	records []Record
}

// By buckets src by the tuple of get_path(record, k) for k in keys: one
// pass to bucket, one pass to emit in first-seen bucket order with
// input order preserved within each bucket. Each record's Info.Groups
// gains one new entry per key, appended after any entries already
// present, so chaining group_by calls accumulates a grouping
// hierarchy instead of replacing it. Materializing: the whole input
// must be seen before the first bucket can be emitted.
func By(src Relation, keys []string) (Relation, error) {
	if len(keys) == 0 {
		return nil, jsonlaerr.New(jsonlaerr.PipelineError, "group_by: at least one key is required")
	}
	index := make(map[uint64][]*bucket)
	var order []*bucket

	for {
		rec, ok, err := src.Next()
		if err != nil {
			src.Close()
			return nil, err
		}
		if !ok {
			break
		}
		prior := rec.Info.Groups
		tuple := make([]value.Value, len(prior), len(prior)+len(keys))
		for i, g := range prior {
			tuple[i] = g.Value
		}
		for _, k := range keys {
			v, found := value.GetPath(rec.Rec, k)
			if !found {
				v = value.Null()
			}
			tuple = append(tuple, v)
		}
		h := value.TupleHash(tuple)
		var b *bucket
		for _, cand := range index[h] {
			if tupleEqual(cand.key, tuple) {
				b = cand
				break
			}
		}
		if b == nil {
			b = &bucket{key: tuple}
			index[h] = append(index[h], b)
			order = append(order, b)
		}
		b.records = append(b.records, rec)
	}
	if err := src.Close(); err != nil {
		return nil, err
	}

	var out []Record
	for _, b := range order {
		size := len(b.records)
		for i, rec := range b.records {
			groups := make([]GroupKey, len(rec.Info.Groups), len(rec.Info.Groups)+len(keys))
			copy(groups, rec.Info.Groups)
			for j, k := range keys {
				groups = append(groups, GroupKey{Field: k, Value: b.key[len(b.key)-len(keys)+j]})
			}
			out = append(out, Record{
				Rec:  rec.Rec,
				Info: Info{Groups: groups, Size: size, Index: i},
			})
		}
	}
	pos := 0
	return &funcRelation{
		next: func() (Record, bool, error) {
			if pos >= len(out) {
				return Record{}, false, nil
			}
			rec := out[pos]
			pos++
			return rec, true, nil
		},
		close: func() error { return nil },
	}, nil
}

func tupleEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

const (
	keyGroups     = "_groups"
	keyGroupSize  = "_group_size"
	keyGroupIndex = "_group_index"
)

// ToRecord flattens grouping metadata into the reserved `_group*` keys on
// a cloned copy of r.Rec, for crossing a serialization boundary such as a
// shell pipe between processes.
func ToRecord(r Record) value.Record {
	out := r.Rec.Clone()
	groups := make([]value.Value, len(r.Info.Groups))
	for i, g := range r.Info.Groups {
		o := value.NewObject()
		o.Set("field", value.String(g.Field))
		o.Set("value", g.Value)
		groups[i] = value.FromObject(o)
	}
	out.Set(keyGroups, value.Array(groups))
	out.Set(keyGroupSize, value.Int(int64(r.Info.Size)))
	out.Set(keyGroupIndex, value.Int(int64(r.Info.Index)))
	return out
}

// FromRecord reconstructs a Record from a plain record carrying
// `_group*` metadata keys, the inverse of ToRecord. ok is false if rec
// carries no grouping metadata at all (an ungrouped record).
func FromRecord(rec value.Record) (Record, bool) {
	groupsVal, ok := rec.Get(keyGroups)
	if !ok {
		return Record{}, false
	}
	var groups []GroupKey
	for _, item := range groupsVal.Items() {
		field, _ := item.Get("field")
		val, _ := item.Get("value")
		groups = append(groups, GroupKey{Field: field.Str(), Value: val})
	}
	size, _ := rec.Get(keyGroupSize)
	index, _ := rec.Get(keyGroupIndex)

	clean := rec.Clone()
	clean.Object().Delete(keyGroups)
	clean.Object().Delete(keyGroupSize)
	clean.Object().Delete(keyGroupIndex)

	return Record{
		Rec:  clean,
		Info: Info{Groups: groups, Size: int(size.Int()), Index: int(index.Int())},
	}, true
}
