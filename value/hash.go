package value

import (
	"hash/maphash"
	"math"
	"sort"
)

// seed is fixed for the process lifetime: Hash values are only ever
// compared within a single run (distinct/intersection/difference bucket
// keys), never persisted or compared across processes.
var seed = maphash.MakeSeed()

// tag bytes for the canonical encoding: type tag followed by payload.
const (
	tagNull byte = iota
	tagBool
	tagNumber // ints and floats unify: canonical encoding is the float64 bit pattern
	tagString
	tagArray
	tagObject
)

// Hash returns a stable structural hash of v: equal Values (per Equal)
// always hash equal. Integers and floats that are numerically equal hash
// identically because both encode through their float64 representation.
func Hash(v Value) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	writeHash(&h, v)
	return h.Sum64()
}

func writeHash(h *maphash.Hash, v Value) {
	switch v.kind {
	case KindNull:
		h.WriteByte(tagNull)
	case KindBool:
		h.WriteByte(tagBool)
		if v.b {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case KindInt, KindFloat:
		h.WriteByte(tagNumber)
		var buf [8]byte
		f := v.Float()
		if f == 0 {
			f = 0 // -0.0 compares Equal to 0, so it must hash the same
		}
		bits := math.Float64bits(f)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	case KindString:
		h.WriteByte(tagString)
		h.WriteString(v.s)
	case KindArray:
		h.WriteByte(tagArray)
		for _, it := range v.arr {
			writeHash(h, it)
		}
	case KindObject:
		h.WriteByte(tagObject)
		keys := v.obj.SortedKeys()
		sort.Strings(keys)
		for _, k := range keys {
			h.WriteString(k)
			val, _ := v.obj.Get(k)
			writeHash(h, val)
		}
	}
}

// TupleHash hashes an ordered tuple of Values, used as the join-index
// key (the tuple of r_path values coerced through Value equality).
func TupleHash(vals []Value) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	for _, v := range vals {
		writeHash(&h, v)
	}
	return h.Sum64()
}
