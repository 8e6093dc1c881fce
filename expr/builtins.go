package expr

import (
	"math"
	"strings"
	"sync"

	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/value"
)

// builtinFunc evaluates a call's already-evaluated arguments.
type builtinFunc func(args []result) (result, error)

// registry is the fixed, small function table for the filter
// sub-language: there is deliberately no function to read files, spawn
// processes, or capture arbitrary state. It is a mutex-guarded
// map[string]builtinFunc with register/get/Names.
type registry struct {
	mu    sync.RWMutex
	funcs map[string]builtinFunc
}

var builtins = newRegistry()

func newRegistry() *registry {
	return &registry{funcs: make(map[string]builtinFunc)}
}

func (r *registry) register(name string, fn builtinFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *registry) get(name string) (builtinFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered builtin function names, for tooling such
// as a REPL's tab completion to drive off of.
func Names() []string {
	builtins.mu.RLock()
	defer builtins.mu.RUnlock()
	names := make([]string, 0, len(builtins.funcs))
	for n := range builtins.funcs {
		names = append(names, n)
	}
	return names
}

func lookupBuiltin(name string) (builtinFunc, bool) {
	return builtins.get(name)
}

func init() {
	builtins.register("lower", fnLower)
	builtins.register("upper", fnUpper)
	builtins.register("startswith", fnStartsWith)
	builtins.register("endswith", fnEndsWith)
	builtins.register("contains", fnContains)
	builtins.register("length", fnLength)
	builtins.register("coalesce", fnCoalesce)
	builtins.register("abs", fnAbs)
	builtins.register("round", fnRound)
}

func argString(r result, fn string, idx int) (string, error) {
	if r.absent || !r.val.IsString() {
		return "", jsonlaerr.New(jsonlaerr.EvalError, "%s: argument %d must be a string", fn, idx)
	}
	return r.val.Str(), nil
}

func fnLower(args []result) (result, error) {
	if len(args) != 1 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "lower takes exactly 1 argument")
	}
	s, err := argString(args[0], "lower", 1)
	if err != nil {
		return result{}, err
	}
	return present(value.String(strings.ToLower(s))), nil
}

func fnUpper(args []result) (result, error) {
	if len(args) != 1 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "upper takes exactly 1 argument")
	}
	s, err := argString(args[0], "upper", 1)
	if err != nil {
		return result{}, err
	}
	return present(value.String(strings.ToUpper(s))), nil
}

func fnStartsWith(args []result) (result, error) {
	if len(args) != 2 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "startswith takes exactly 2 arguments")
	}
	s, err := argString(args[0], "startswith", 1)
	if err != nil {
		return result{}, err
	}
	prefix, err := argString(args[1], "startswith", 2)
	if err != nil {
		return result{}, err
	}
	return present(value.Bool(strings.HasPrefix(s, prefix))), nil
}

func fnEndsWith(args []result) (result, error) {
	if len(args) != 2 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "endswith takes exactly 2 arguments")
	}
	s, err := argString(args[0], "endswith", 1)
	if err != nil {
		return result{}, err
	}
	suffix, err := argString(args[1], "endswith", 2)
	if err != nil {
		return result{}, err
	}
	return present(value.Bool(strings.HasSuffix(s, suffix))), nil
}

func fnContains(args []result) (result, error) {
	if len(args) != 2 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "contains takes exactly 2 arguments")
	}
	if args[0].absent {
		return present(value.Bool(false)), nil
	}
	switch args[0].val.Kind() {
	case value.KindString:
		sub, err := argString(args[1], "contains", 2)
		if err != nil {
			return result{}, err
		}
		return present(value.Bool(strings.Contains(args[0].val.Str(), sub))), nil
	case value.KindArray:
		if args[1].absent {
			return present(value.Bool(false)), nil
		}
		for _, item := range args[0].val.Items() {
			if value.Equal(item, args[1].val) {
				return present(value.Bool(true)), nil
			}
		}
		return present(value.Bool(false)), nil
	default:
		return result{}, jsonlaerr.New(jsonlaerr.EvalError, "contains: first argument must be a string or array")
	}
}

func fnLength(args []result) (result, error) {
	if len(args) != 1 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "length takes exactly 1 argument")
	}
	if args[0].absent {
		return absentResult, nil
	}
	switch args[0].val.Kind() {
	case value.KindString:
		return present(value.Int(int64(len([]rune(args[0].val.Str()))))), nil
	case value.KindArray:
		return present(value.Int(int64(len(args[0].val.Items())))), nil
	case value.KindObject:
		return present(value.Int(int64(args[0].val.Object().Len()))), nil
	default:
		return result{}, jsonlaerr.New(jsonlaerr.EvalError, "length: argument must be a string, array, or object")
	}
}

func fnCoalesce(args []result) (result, error) {
	for _, a := range args {
		if a.absent {
			continue
		}
		if a.val.IsNull() {
			continue
		}
		return a, nil
	}
	if len(args) > 0 {
		return args[len(args)-1], nil
	}
	return absentResult, nil
}

func fnAbs(args []result) (result, error) {
	if len(args) != 1 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "abs takes exactly 1 argument")
	}
	if args[0].absent || !args[0].val.IsNumber() {
		return result{}, jsonlaerr.New(jsonlaerr.EvalError, "abs: argument must be a number")
	}
	if args[0].val.IsInt() {
		n := args[0].val.Int()
		if n < 0 {
			n = -n
		}
		return present(value.Int(n)), nil
	}
	return present(value.Float(math.Abs(args[0].val.Float()))), nil
}

func fnRound(args []result) (result, error) {
	if len(args) != 1 {
		return result{}, jsonlaerr.New(jsonlaerr.ExpressionError, "round takes exactly 1 argument")
	}
	if args[0].absent || !args[0].val.IsNumber() {
		return result{}, jsonlaerr.New(jsonlaerr.EvalError, "round: argument must be a number")
	}
	return present(value.Int(int64(math.Round(args[0].val.Float())))), nil
}
