package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ParseJSON decodes a single JSON value from data, preserving object key
// insertion order (encoding/json's default map decoding would not).
// Numbers without a fractional/exponent part decode as KindInt; all
// others decode as KindFloat.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if dec.More() {
		return Value{}, fmt.Errorf("value: trailing data after JSON value")
	}
	return v, nil
}

// ParseRecord decodes a single JSONL line. The top-level value must be
// an object; anything else is a parse error.
func ParseRecord(data []byte) (Record, error) {
	v, err := ParseJSON(data)
	if err != nil {
		return Value{}, err
	}
	if !v.IsObject() {
		return Value{}, fmt.Errorf("value: top-level JSONL value must be an object, got %s", v.Kind())
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t)
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("value: unexpected delimiter %q", t)
		}
	default:
		return Value{}, fmt.Errorf("value: unsupported JSON token %T", tok)
	}
}

func numberValue(n json.Number) (Value, error) {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("value: invalid number %q: %w", n.String(), err)
	}
	return Float(f), nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("value: object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return Value{}, err
	}
	return FromObject(obj), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var items []Value
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, val)
	}
	if _, err := dec.Token(); err != nil { // consume closing ']'
		return Value{}, err
	}
	return Array(items), nil
}

// AppendJSON appends v's minimal-escaping JSON encoding to dst.
// sortKeys selects sorted-keys mode; otherwise insertion order is used.
func AppendJSON(dst []byte, v Value, sortKeys bool) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...), nil
	case KindBool:
		if v.b {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case KindInt:
		return strconv.AppendInt(dst, v.i, 10), nil
	case KindFloat:
		return appendFloat(dst, v.f), nil
	case KindString:
		return appendJSONString(dst, v.s), nil
	case KindArray:
		dst = append(dst, '[')
		for i, it := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = AppendJSON(dst, it, sortKeys)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case KindObject:
		dst = append(dst, '{')
		keys := v.obj.Keys()
		if sortKeys {
			keys = v.obj.SortedKeys()
		}
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSONString(dst, k)
			dst = append(dst, ':')
			val, _ := v.obj.Get(k)
			var err error
			dst, err = AppendJSON(dst, val, sortKeys)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	default:
		return nil, fmt.Errorf("value: cannot encode kind %v", v.kind)
	}
}

// appendFloat emits the shortest round-trippable representation,
// falling back to a .0 suffix for integral floats so they remain
// distinguishable from KindInt on re-parse by convention.
func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...) // JSON has no NaN/Inf literal
	}
	out := strconv.AppendFloat(dst, f, 'g', -1, 64)
	for _, c := range out[len(dst):] {
		if c == '.' || c == 'e' || c == 'E' {
			return out
		}
	}
	return append(out, '.', '0')
}

func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if r < 0x20 {
				dst = append(dst, []byte(fmt.Sprintf("\\u%04x", r))...)
			} else {
				dst = append(dst, string(r)...)
			}
		}
	}
	return append(dst, '"')
}
