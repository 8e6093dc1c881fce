package expr

import (
	"github.com/jmespath/go-jmespath"
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/value"
)

// JMESPathProgram is a compiled advanced-query expression, the opt-in
// sub-language behind `select --jmespath`. Backed by
// github.com/jmespath/go-jmespath, the reference JMESPath engine.
type JMESPathProgram struct {
	compiled *jmespath.JMESPath
	src      string
}

// CompileJMESPath parses src as a JMESPath expression.
func CompileJMESPath(src string) (*JMESPathProgram, error) {
	compiled, err := jmespath.Compile(src)
	if err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.ExpressionError, err, "invalid jmespath expression %q", src)
	}
	return &JMESPathProgram{compiled: compiled, src: src}, nil
}

// Source returns the original expression text.
func (p *JMESPathProgram) Source() string { return p.src }

// EvalBool evaluates the program against rec and reports whether the
// result is truthy: non-nil, non-false, non-empty-string,
// non-empty-array/object, non-zero-length — matching JMESPath's own
// truthiness rules rather than the filter sub-language's
// absent-comparison rules; the two sub-languages keep separate
// semantics.
func (p *JMESPathProgram) EvalBool(rec value.Record) (bool, error) {
	native := toNative(rec)
	out, err := p.compiled.Search(native)
	if err != nil {
		return false, jsonlaerr.Wrap(jsonlaerr.EvalError, err, "jmespath evaluation failed")
	}
	return jmespathTruthy(out), nil
}

func jmespathTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// toNative converts a value.Value tree into the plain
// map[string]any/[]any/... shape go-jmespath expects.
func toNative(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindInt:
		return float64(v.Int()) // JMESPath/JSON numbers are untyped; unify on float64
	case value.KindFloat:
		return v.Float()
	case value.KindString:
		return v.Str()
	case value.KindArray:
		items := v.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = toNative(it)
		}
		return out
	case value.KindObject:
		obj := v.Object()
		out := make(map[string]any, obj.Len())
		for _, k := range obj.Keys() {
			val, _ := obj.Get(k)
			out[k] = toNative(val)
		}
		return out
	default:
		return nil
	}
}
