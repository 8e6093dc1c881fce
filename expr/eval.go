package expr

import (
	"fmt"

	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/value"
)

// Program is a parsed, cached filter/arithmetic expression: parsed to an
// AST once, then evaluated against as many records as needed. Evaluating
// it against a record allocates no new records.
type Program struct {
	root node
	src  string
}

// Compile parses src into a reusable Program.
func Compile(src string) (*Program, error) {
	root, err := parseExpr(src)
	if err != nil {
		return nil, err
	}
	return &Program{root: root, src: src}, nil
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.src }

// result is an evaluated expression value that additionally tracks
// Absent, distinct from value.Null().
type result struct {
	absent bool
	val    value.Value
}

func present(v value.Value) result { return result{val: v} }

var absentResult = result{absent: true}

// Eval evaluates the program against rec. Truthy is only meaningful for
// boolean-shaped results (select's contract); callers that need a plain
// boolean should use EvalBool.
func (p *Program) Eval(rec value.Record) (value.Value, error) {
	r, err := evalNode(p.root, rec)
	if err != nil {
		return value.Value{}, err
	}
	if r.absent {
		return value.Value{}, nil // absent serializes like null to callers that don't care
	}
	return r.val, nil
}

// EvalBool evaluates the program and reports whether the result is
// boolean true, as used by select. Absent and non-boolean results count
// as false; they are not reported as errors.
func (p *Program) EvalBool(rec value.Record) (bool, error) {
	r, err := evalNode(p.root, rec)
	if err != nil {
		return false, err
	}
	return truthy(r), nil
}

func truthy(r result) bool {
	if r.absent {
		return false
	}
	if r.val.IsBool() {
		return r.val.Bool()
	}
	return false
}

func evalNode(n node, rec value.Record) (result, error) {
	switch t := n.(type) {
	case litNode:
		return evalLit(t.val), nil
	case pathNode:
		v, ok := value.GetPathTokens(rec, t.tokens)
		if !ok {
			return absentResult, nil
		}
		return present(v), nil
	case unaryNode:
		return evalUnary(t, rec)
	case binaryNode:
		return evalBinary(t, rec)
	case callNode:
		return evalCall(t, rec)
	default:
		return result{}, fmt.Errorf("expr: unknown node type %T", n)
	}
}

func evalLit(l literal) result {
	switch l.kind {
	case litNull:
		return present(value.Null())
	case litBool:
		return present(value.Bool(l.b))
	case litNumber:
		if l.isI {
			return present(value.Int(l.i))
		}
		return present(value.Float(l.n))
	case litString:
		return present(value.String(l.s))
	default:
		return present(value.Null())
	}
}

func evalUnary(n unaryNode, rec value.Record) (result, error) {
	inner, err := evalNode(n.expr, rec)
	if err != nil {
		return result{}, err
	}
	switch n.op {
	case "not":
		return present(value.Bool(!truthy(inner))), nil
	case "-":
		if inner.absent || !inner.val.IsNumber() {
			return result{}, jsonlaerr.New(jsonlaerr.EvalError, "unary '-' requires a number")
		}
		if inner.val.IsInt() {
			return present(value.Int(-inner.val.Int())), nil
		}
		return present(value.Float(-inner.val.Float())), nil
	default:
		return result{}, fmt.Errorf("expr: unknown unary operator %q", n.op)
	}
}

func evalBinary(n binaryNode, rec value.Record) (result, error) {
	switch n.op {
	case "and":
		left, err := evalNode(n.left, rec)
		if err != nil {
			return result{}, err
		}
		if !truthy(left) {
			return present(value.Bool(false)), nil
		}
		right, err := evalNode(n.right, rec)
		if err != nil {
			return result{}, err
		}
		return present(value.Bool(truthy(right))), nil
	case "or":
		left, err := evalNode(n.left, rec)
		if err != nil {
			return result{}, err
		}
		if truthy(left) {
			return present(value.Bool(true)), nil
		}
		right, err := evalNode(n.right, rec)
		if err != nil {
			return result{}, err
		}
		return present(value.Bool(truthy(right))), nil
	}

	left, err := evalNode(n.left, rec)
	if err != nil {
		return result{}, err
	}
	right, err := evalNode(n.right, rec)
	if err != nil {
		return result{}, err
	}

	switch n.op {
	case "==":
		return present(value.Bool(evalEquals(left, right))), nil
	case "!=":
		return present(value.Bool(!evalEquals(left, right))), nil
	case "<", "<=", ">", ">=":
		return evalOrderCmp(n.op, left, right)
	case "+", "-", "*", "/", "%":
		return evalArith(n.op, left, right)
	default:
		return result{}, fmt.Errorf("expr: unknown binary operator %q", n.op)
	}
}

// evalEquals implements the absent comparison rule: absent == null is
// true; any other comparison with absent is false.
func evalEquals(a, b result) bool {
	if a.absent && b.absent {
		return true
	}
	if a.absent {
		return b.val.IsNull()
	}
	if b.absent {
		return a.val.IsNull()
	}
	return value.Equal(a.val, b.val)
}

func evalOrderCmp(op string, a, b result) (result, error) {
	if a.absent || b.absent {
		return present(value.Bool(false)), nil
	}
	c := value.Compare(a.val, b.val)
	var b2 bool
	switch op {
	case "<":
		b2 = c < 0
	case "<=":
		b2 = c <= 0
	case ">":
		b2 = c > 0
	case ">=":
		b2 = c >= 0
	}
	return present(value.Bool(b2)), nil
}

func evalArith(op string, a, b result) (result, error) {
	if a.absent || b.absent || !a.val.IsNumber() || !b.val.IsNumber() {
		return result{}, jsonlaerr.New(jsonlaerr.EvalError, "arithmetic %q requires two numbers", op)
	}
	bothInt := a.val.IsInt() && b.val.IsInt()
	if op == "/" || op == "%" {
		if b.val.Float() == 0 {
			return result{}, jsonlaerr.New(jsonlaerr.EvalError, "division by zero")
		}
	}
	if bothInt {
		ai, bi := a.val.Int(), b.val.Int()
		switch op {
		case "+":
			return present(value.Int(ai + bi)), nil
		case "-":
			return present(value.Int(ai - bi)), nil
		case "*":
			return present(value.Int(ai * bi)), nil
		case "%":
			return present(value.Int(ai % bi)), nil
		case "/":
			return present(value.Float(float64(ai) / float64(bi))), nil
		}
	}
	af, bf := a.val.Float(), b.val.Float()
	switch op {
	case "+":
		return present(value.Float(af + bf)), nil
	case "-":
		return present(value.Float(af - bf)), nil
	case "*":
		return present(value.Float(af * bf)), nil
	case "/":
		return present(value.Float(af / bf)), nil
	case "%":
		return present(value.Float(modFloat(af, bf))), nil
	}
	return result{}, fmt.Errorf("expr: unreachable arithmetic operator %q", op)
}

func modFloat(a, b float64) float64 {
	for a >= b {
		a -= b
	}
	return a
}

func evalCall(n callNode, rec value.Record) (result, error) {
	fn, ok := lookupBuiltin(n.name)
	if !ok {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "unknown function %q", n.name)
	}
	args := make([]result, len(n.args))
	for i, a := range n.args {
		r, err := evalNode(a, rec)
		if err != nil {
			return result{}, err
		}
		args[i] = r
	}
	return fn(args)
}
