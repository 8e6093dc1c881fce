package value

import "testing"

func TestGetPathNested(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"user":{"profile":{"city":"NYC"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := GetPath(rec, "user.profile.city")
	if !ok || got.Str() != "NYC" {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func TestGetPathAbsentThroughNonObject(t *testing.T) {
	rec, _ := ParseRecord([]byte(`{"a":1}`))
	_, ok := GetPath(rec, "a.b")
	if ok {
		t.Fatal("expected absent when descending through a non-object")
	}
}

func TestSetFlatKeyDoesNotNest(t *testing.T) {
	rec := NewRecord()
	SetFlatKey(rec, "a.b", Int(1))
	if _, ok := rec.Get("a"); ok {
		t.Fatal("SetFlatKey must not create a nested 'a' object")
	}
	v, ok := rec.Get("a.b")
	if !ok || v.Int() != 1 {
		t.Fatalf("expected literal key a.b = 1, got %v", v)
	}
}

func TestEqualIntFloatUnification(t *testing.T) {
	if !Equal(Int(1), Float(1.0)) {
		t.Fatal("int 1 must equal float 1.0")
	}
	if Equal(Int(1), Float(1.5)) {
		t.Fatal("int 1 must not equal float 1.5")
	}
}

func TestEqualNaNNeverEqual(t *testing.T) {
	nan := Float(nanValue())
	if Equal(nan, nan) {
		t.Fatal("NaN must never equal, even itself")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestCompareTypeRank(t *testing.T) {
	vals := []Value{FromObject(NewObject()), Array(nil), String("x"), Int(1), Bool(true), Null()}
	for i := 1; i < len(vals); i++ {
		if !Less(vals[i], vals[i-1]) {
			t.Fatalf("expected %v < %v by type rank", vals[i], vals[i-1])
		}
	}
}

func TestCompareBoolFalseLessThanTrue(t *testing.T) {
	if !Less(Bool(false), Bool(true)) {
		t.Fatal("false must sort before true")
	}
}

func TestHashStableAcrossKeyOrder(t *testing.T) {
	a := NewRecord()
	a.Set("x", Int(1))
	a.Set("y", Int(2))

	b := NewRecord()
	b.Set("y", Int(2))
	b.Set("x", Int(1))

	if Hash(a) != Hash(b) {
		t.Fatal("hash must be independent of object key insertion order")
	}
}

func TestHashIntFloatUnification(t *testing.T) {
	if Hash(Int(3)) != Hash(Float(3.0)) {
		t.Fatal("int 3 and float 3.0 must hash identically")
	}
}

func TestParseRecordRejectsNonObjectTopLevel(t *testing.T) {
	if _, err := ParseRecord([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("expected error for non-object top-level JSONL value")
	}
}

func TestRoundTrip(t *testing.T) {
	src := []byte(`{"a":1,"b":"x","c":[1,2,3],"d":{"e":true},"f":null}`)
	rec, err := ParseRecord(src)
	if err != nil {
		t.Fatal(err)
	}
	out, err := AppendJSON(nil, rec, false)
	if err != nil {
		t.Fatal(err)
	}
	rec2, err := ParseRecord(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v (encoded: %s)", err, out)
	}
	if !Equal(rec, rec2) {
		t.Fatalf("round trip mismatch: %s vs %s", src, out)
	}
}
