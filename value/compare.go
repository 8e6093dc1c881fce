package value

// Equal implements structural equality with integer/float unification:
// an integer n equals a float f iff f == n exactly. NaN never equals
// anything, including itself.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.Float(), b.Float()
		if af != af || bf != bf { // NaN
			return false
		}
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.Keys() {
			av, _ := a.obj.Get(k)
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// typeRank gives the fixed cross-type sort order:
// null < boolean < number < string < array < object.
func typeRank(v Value) int {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	default:
		return 6
	}
}

// Compare returns -1, 0, or 1: numbers, strings, and booleans
// (false<true) order natively; cross-type pairs order by typeRank;
// arrays/objects order lexicographically by elements/keys.
func Compare(a, b Value) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindBool:
		return cmpBool(a.b, b.b)
	case KindInt, KindFloat:
		return cmpFloat(a.Float(), b.Float())
	case KindString:
		return cmpString(a.s, b.s)
	case KindArray:
		n := len(a.arr)
		if len(b.arr) < n {
			n = len(b.arr)
		}
		for i := 0; i < n; i++ {
			if c := Compare(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(a.arr), len(b.arr))
	case KindObject:
		ak, bk := a.obj.SortedKeys(), b.obj.SortedKeys()
		n := len(ak)
		if len(bk) < n {
			n = len(bk)
		}
		for i := 0; i < n; i++ {
			if c := cmpString(ak[i], bk[i]); c != 0 {
				return c
			}
			av, _ := a.obj.Get(ak[i])
			bv, _ := b.obj.Get(bk[i])
			if c := Compare(av, bv); c != 0 {
				return c
			}
		}
		return cmpInt(len(ak), len(bk))
	default:
		return 0
	}
}

// Less reports whether a sorts before b.
func Less(a, b Value) bool { return Compare(a, b) < 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
