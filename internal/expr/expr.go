// Package expr is a small symbolic expression kernel for real functions of
// one or more named variables.
//
// Expressions are immutable trees built from numbers, variables, unary
// negation, the binary operators + - * / and ** (power), and calls to a fixed
// set of elementary functions:
//
//   - [Parse]: text to tree, using govaluate for lexing and syntax checks
//   - [Expr.Diff]: symbolic differentiation with respect to a variable
//   - [Expr.Sub]: substitution of a variable by another expression
//   - [Compile]: a tree over a single variable to a func(float64) float64
//
// # Example
//
//	f, _ := expr.Parse("x**3/3 - 2*x**2 + 4*x")
//	df := expr.Derivative(f, "x")
//	eval, _ := expr.Compile(df, "x")
//	eval(0.5) // 2.25
package expr

import (
	"math"
	"strconv"
)

// Expr is a symbolic expression. Implementations are immutable values.
type Expr interface {
	// Diff returns the unsimplified derivative with respect to name.
	Diff(name string) Expr
	// Sub replaces every occurrence of the variable name by v.
	Sub(name string, v Expr) Expr
	Simplify() Expr
	String() string
	prec() int
}

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

type Num struct{ V float64 }

type Var struct{ Name string }

type Neg struct{ X Expr }

// Binary is an operator node. Op is one of '+', '-', '*', '/', '^'.
type Binary struct {
	Op   byte
	L, R Expr
}

// Call applies a builtin function to a single argument.
type Call struct {
	Fn  string
	Arg Expr
}

func Const(v float64) Expr           { return Num{V: v} }
func Variable(name string) Expr      { return Var{Name: name} }
func Negate(x Expr) Expr             { return Neg{X: x} }
func Add(l, r Expr) Expr             { return Binary{Op: '+', L: l, R: r} }
func Subtract(l, r Expr) Expr        { return Binary{Op: '-', L: l, R: r} }
func Mul(l, r Expr) Expr             { return Binary{Op: '*', L: l, R: r} }
func Div(l, r Expr) Expr             { return Binary{Op: '/', L: l, R: r} }
func Pow(l, r Expr) Expr             { return Binary{Op: '^', L: l, R: r} }
func Apply(fn string, arg Expr) Expr { return Call{Fn: fn, Arg: arg} }

// Derivative returns the simplified derivative of e with respect to name.
func Derivative(e Expr, name string) Expr {
	return e.Diff(name).Simplify()
}

func (n Num) Sub(string, Expr) Expr { return n }
func (n Num) Simplify() Expr        { return n }

func (n Num) String() string {
	switch {
	case math.IsInf(n.V, 1):
		return "oo"
	case math.IsInf(n.V, -1):
		return "-oo"
	}
	return strconv.FormatFloat(n.V, 'f', -1, 64)
}

func (n Num) prec() int {
	if n.V < 0 {
		return precUnary
	}
	return precAtom
}

func (v Var) Sub(name string, with Expr) Expr {
	if v.Name == name {
		return with
	}
	return v
}

func (v Var) Simplify() Expr { return v }
func (v Var) String() string { return v.Name }
func (v Var) prec() int      { return precAtom }

func (n Neg) Sub(name string, v Expr) Expr { return Neg{X: n.X.Sub(name, v)} }
func (n Neg) prec() int                    { return precUnary }

func (n Neg) String() string {
	return "-" + wrap(n.X, n.X.prec() < precUnary || leadsWithMinus(n.X))
}

func (b Binary) Sub(name string, v Expr) Expr {
	return Binary{Op: b.Op, L: b.L.Sub(name, v), R: b.R.Sub(name, v)}
}

func (b Binary) prec() int {
	switch b.Op {
	case '+', '-':
		return precSum
	case '*', '/':
		return precProduct
	default:
		return precPower
	}
}

func (b Binary) String() string {
	p := b.prec()
	var left, right bool
	if b.Op == '^' {
		// right associative
		left = b.L.prec() <= p
		right = b.R.prec() < p
	} else {
		left = b.L.prec() < p
		right = b.R.prec() < p || (b.R.prec() == p && (b.Op == '-' || b.Op == '/'))
	}
	// govaluate lexes runs of symbols as one token, so "*-" must not occur
	if b.Op != '+' && b.Op != '-' && leadsWithMinus(b.R) {
		right = true
	}

	op := string(b.Op)
	switch b.Op {
	case '^':
		op = "**"
	case '+', '-':
		op = " " + op + " "
	}
	return wrap(b.L, left) + op + wrap(b.R, right)
}

func (c Call) Sub(name string, v Expr) Expr { return Call{Fn: c.Fn, Arg: c.Arg.Sub(name, v)} }
func (c Call) String() string               { return c.Fn + "(" + c.Arg.String() + ")" }
func (c Call) prec() int                    { return precAtom }

func leadsWithMinus(e Expr) bool {
	switch n := e.(type) {
	case Num:
		return n.V < 0
	case Neg:
		return true
	case Binary:
		p := n.prec()
		if n.L.prec() < p || (n.Op == '^' && n.L.prec() == p) {
			return false
		}
		return leadsWithMinus(n.L)
	}
	return false
}

func wrap(e Expr, parens bool) string {
	if parens {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Vars returns the set of free variable names in e.
func Vars(e Expr) map[string]struct{} {
	out := make(map[string]struct{})
	collectVars(e, out)
	return out
}

func collectVars(e Expr, out map[string]struct{}) {
	switch n := e.(type) {
	case Var:
		out[n.Name] = struct{}{}
	case Neg:
		collectVars(n.X, out)
	case Binary:
		collectVars(n.L, out)
		collectVars(n.R, out)
	case Call:
		collectVars(n.Arg, out)
	}
}

// DependsOn reports whether name occurs free in e.
func DependsOn(e Expr, name string) bool {
	_, ok := Vars(e)[name]
	return ok
}

func isNum(e Expr, v float64) bool {
	n, ok := e.(Num)
	return ok && n.V == v
}
