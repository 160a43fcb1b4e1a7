package expr

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUnbound is returned when an expression has free variables that are
// not supplied.
var ErrUnbound = errors.New("expr: unbound variable")

// Func is a compiled single-variable expression.
type Func func(float64) float64

// Compile turns e into a closure over the variable name. Every other free
// variable is an error. Domain errors (log of a negative number, division
// by zero) show up as NaN or Inf in the returned values.
func Compile(e Expr, name string) (Func, error) {
	var extra []string
	for v := range Vars(e) {
		if v != name {
			extra = append(extra, v)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: %s", ErrUnbound, strings.Join(extra, ", "))
	}
	return compile(e), nil
}

func compile(e Expr) Func {
	switch n := e.(type) {
	case Num:
		v := n.V
		return func(float64) float64 { return v }
	case Var:
		return func(x float64) float64 { return x }
	case Neg:
		inner := compile(n.X)
		return func(x float64) float64 { return -inner(x) }
	case Call:
		fn := builtins[n.Fn].eval
		arg := compile(n.Arg)
		return func(x float64) float64 { return fn(arg(x)) }
	case Binary:
		l, r := compile(n.L), compile(n.R)
		switch n.Op {
		case '+':
			return func(x float64) float64 { return l(x) + r(x) }
		case '-':
			return func(x float64) float64 { return l(x) - r(x) }
		case '*':
			return func(x float64) float64 { return l(x) * r(x) }
		case '/':
			return func(x float64) float64 { return l(x) / r(x) }
		default:
			return func(x float64) float64 { return pow(l(x), r(x)) }
		}
	}
	return func(float64) float64 { return math.NaN() }
}

// Eval evaluates e with the given variable bindings.
func Eval(e Expr, env map[string]float64) (float64, error) {
	switch n := e.(type) {
	case Num:
		return n.V, nil
	case Var:
		v, ok := env[n.Name]
		if !ok {
			return math.NaN(), fmt.Errorf("%w: %s", ErrUnbound, n.Name)
		}
		return v, nil
	case Neg:
		v, err := Eval(n.X, env)
		return -v, err
	case Call:
		v, err := Eval(n.Arg, env)
		if err != nil {
			return math.NaN(), err
		}
		return builtins[n.Fn].eval(v), nil
	case Binary:
		l, err := Eval(n.L, env)
		if err != nil {
			return math.NaN(), err
		}
		r, err := Eval(n.R, env)
		if err != nil {
			return math.NaN(), err
		}
		switch n.Op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			return l / r, nil
		default:
			return pow(l, r), nil
		}
	}
	return math.NaN(), fmt.Errorf("expr: unknown node %T", e)
}

// pow extends math.Pow with real odd roots of negative numbers, so that
// x**(1/3) is defined for x < 0.
func pow(base, exp float64) float64 {
	v := math.Pow(base, exp)
	if math.IsNaN(v) && base < 0 && exp != 0 {
		if inv := 1 / exp; inv == math.Trunc(inv) && math.Mod(inv, 2) != 0 {
			return -math.Pow(-base, exp)
		}
	}
	return v
}
