package relation

import (
	"sort"

	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/value"
)

// PathPair is one (l_path, r_path) equi-join key pair, i.e. the
// `on=[(l,r)]` signature rather than a pair-of-scalars form.
type PathPair struct {
	LPath, RPath string
}

// JoinMode selects which side's unmatched rows are still emitted.
type JoinMode uint8

const (
	JoinInner JoinMode = iota
	JoinLeft
	JoinRight
	JoinOuter
)

type rightEntry struct {
	rec     value.Record
	tuple   []value.Value
	matched bool
}

// Join builds a hash index over the right side keyed by the tuple of
// r_path values (coerced through Value equality rules), then probes it
// once per left record. Right keys overwrite left ones on collision
// unless rightPrefix is non-empty, in which case every merged
// right-side key is prefixed with it. Materializing: requires the
// whole right side in memory, O(|right|).
func Join(left, right Relation, on []PathPair, mode JoinMode, rightPrefix string) (Relation, error) {
	rightRecs, err := Collect(right)
	if err != nil {
		return nil, err
	}

	index := make(map[uint64][]*rightEntry)
	entries := make([]*rightEntry, len(rightRecs))
	for i, rec := range rightRecs {
		tuple := extractTuple(rec, on, false)
		e := &rightEntry{rec: rec, tuple: tuple}
		entries[i] = e
		h := value.TupleHash(tuple)
		index[h] = append(index[h], e)
	}

	var pending []value.Record
	pendingIdx := 0
	leftDone := false
	emittedOuterTail := false

	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				if pendingIdx < len(pending) {
					rec := pending[pendingIdx]
					pendingIdx++
					return rec, true, nil
				}
				if leftDone {
					if (mode == JoinRight || mode == JoinOuter) && !emittedOuterTail {
						emittedOuterTail = true
						pending = pending[:0]
						pendingIdx = 0
						for _, e := range entries {
							if !e.matched {
								pending = append(pending, mergeJoin(value.Value{}, e.rec, rightPrefix))
							}
						}
						continue
					}
					return value.Value{}, false, nil
				}
				rec, ok, err := left.Next()
				if err != nil {
					return value.Value{}, false, err
				}
				if !ok {
					leftDone = true
					continue
				}
				ltuple := extractTuple(rec, on, true)
				h := value.TupleHash(ltuple)
				var matches []*rightEntry
				for _, e := range index[h] {
					if tupleEqual(e.tuple, ltuple) {
						matches = append(matches, e)
					}
				}
				pending = pending[:0]
				pendingIdx = 0
				if len(matches) == 0 {
					if mode == JoinLeft || mode == JoinOuter {
						pending = append(pending, mergeJoin(rec, value.Value{}, rightPrefix))
					}
					continue
				}
				for _, m := range matches {
					m.matched = true
					pending = append(pending, mergeJoin(rec, m.rec, rightPrefix))
				}
				continue
			}
		},
		close: func() error {
			return left.Close()
		},
	}, nil
}

func extractTuple(rec value.Record, on []PathPair, left bool) []value.Value {
	tuple := make([]value.Value, len(on))
	for i, p := range on {
		path := p.RPath
		if left {
			path = p.LPath
		}
		v, ok := value.GetPath(rec, path)
		if !ok {
			v = value.Null()
		}
		tuple[i] = v
	}
	return tuple
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

// mergeJoin merges a left and right record (either may be nil for outer
// rows). Right keys overwrite left ones on collision unless prefix is
// set, in which case right keys are written as prefix+key.
func mergeJoin(left, right value.Record, prefix string) value.Record {
	out := value.NewRecord()
	if left.IsObject() {
		for _, k := range left.Object().Keys() {
			v, _ := left.Get(k)
			out.Set(k, v)
		}
	}
	if right.IsObject() {
		for _, k := range right.Object().Keys() {
			v, _ := right.Get(k)
			key := k
			if prefix != "" {
				key = prefix + k
			}
			out.Set(key, v)
		}
	}
	return out
}

// bucketCount counts occurrences of each structurally-distinct value
// (record) in a relation, grouped by hash with linear-scan collision
// resolution — the same policy Distinct and Join use.
func bucketCount(recs []value.Record) map[uint64][]*countedRec {
	buckets := make(map[uint64][]*countedRec)
	for _, rec := range recs {
		h := value.Hash(rec)
		bucket := buckets[h]
		found := false
		for _, c := range bucket {
			if value.Equal(c.rec, rec) {
				c.count++
				found = true
				break
			}
		}
		if !found {
			buckets[h] = append(bucket, &countedRec{rec: rec, count: 1})
		}
	}
	return buckets
}

type countedRec struct {
	rec   value.Record
	count int
}

// Intersection emits min(count_a, count_b) copies of each record common
// to both a and b (multiset intersection). Materializing: both sides
// must be fully counted.
func Intersection(a, b Relation) (Relation, error) {
	aRecs, err := Collect(a)
	if err != nil {
		return nil, err
	}
	bRecs, err := Collect(b)
	if err != nil {
		return nil, err
	}
	bBuckets := bucketCount(bRecs)

	var out []value.Record
	for _, rec := range aRecs {
		h := value.Hash(rec)
		for _, c := range bBuckets[h] {
			if value.Equal(c.rec, rec) && c.count > 0 {
				out = append(out, rec)
				c.count--
				break
			}
		}
	}
	return FromSlice(out), nil
}

// Difference emits max(0, count_a - count_b) copies of each record in a
// (multiset difference). Materializing.
func Difference(a, b Relation) (Relation, error) {
	aRecs, err := Collect(a)
	if err != nil {
		return nil, err
	}
	bRecs, err := Collect(b)
	if err != nil {
		return nil, err
	}
	bBuckets := bucketCount(bRecs)

	var out []value.Record
	for _, rec := range aRecs {
		h := value.Hash(rec)
		consumed := false
		for _, c := range bBuckets[h] {
			if value.Equal(c.rec, rec) && c.count > 0 {
				c.count--
				consumed = true
				break
			}
		}
		if !consumed {
			out = append(out, rec)
		}
	}
	return FromSlice(out), nil
}

// Product emits the cartesian product of a and b: for each r_a in a, for
// each r_b in b, the merged record. Materializing: the right side (b)
// is buffered so it can be replayed once per left row.
func Product(a, b Relation) (Relation, error) {
	bRecs, err := Collect(b)
	if err != nil {
		return nil, err
	}
	bi := 0
	var curA value.Record
	haveA := false
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				if !haveA {
					rec, ok, err := a.Next()
					if err != nil || !ok {
						return rec, ok, err
					}
					curA = rec
					haveA = true
					bi = 0
				}
				if bi >= len(bRecs) {
					haveA = false
					continue
				}
				merged := mergeJoin(curA, bRecs[bi], "")
				bi++
				return merged, true, nil
			}
		},
		close: a.Close,
	}, nil
}

// SortKey is one dotted-path sort key with its own direction.
type SortKey struct {
	Path string
	Desc bool
}

// Sort stably sorts the whole input by keys in declaration order.
// Materializing: O(|input|).
func Sort(src Relation, keys []SortKey) (Relation, error) {
	if len(keys) == 0 {
		return nil, jsonlaerr.New(jsonlaerr.PipelineError, "sort: at least one key is required")
	}
	recs, err := Collect(src)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, k := range keys {
			vi, oki := value.GetPath(recs[i], k.Path)
			vj, okj := value.GetPath(recs[j], k.Path)
			if !oki {
				vi = value.Null()
			}
			if !okj {
				vj = value.Null()
			}
			c := value.Compare(vi, vj)
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return FromSlice(recs), nil
}
