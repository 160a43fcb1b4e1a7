package expr

import "math"

func (n Neg) Simplify() Expr {
	x := n.X.Simplify()
	switch v := x.(type) {
	case Num:
		return Num{V: -v.V}
	case Neg:
		return v.X
	}
	return Neg{X: x}
}

func (c Call) Simplify() Expr {
	arg := c.Arg.Simplify()
	if n, ok := arg.(Num); ok {
		if bi, ok := builtins[c.Fn]; ok {
			if v := bi.eval(n.V); !math.IsNaN(v) && !math.IsInf(v, 0) {
				return Num{V: v}
			}
		}
	}
	return Call{Fn: c.Fn, Arg: arg}
}

func (b Binary) Simplify() Expr {
	l, r := b.L.Simplify(), b.R.Simplify()

	if ln, ok := l.(Num); ok {
		if rn, ok := r.(Num); ok {
			if v, ok := fold(b.Op, ln.V, rn.V); ok {
				return Num{V: v}
			}
		}
	}

	switch b.Op {
	case '+':
		switch {
		case isNum(l, 0):
			return r
		case isNum(r, 0):
			return l
		}
		if neg, ok := r.(Neg); ok {
			return Binary{Op: '-', L: l, R: neg.X}
		}
	case '-':
		switch {
		case isNum(r, 0):
			return l
		case isNum(l, 0):
			return Neg{X: r}.Simplify()
		}
		if neg, ok := r.(Neg); ok {
			return Binary{Op: '+', L: l, R: neg.X}
		}
	case '*':
		switch {
		case isNum(l, 0), isNum(r, 0):
			return Num{V: 0}
		case isNum(l, 1):
			return r
		case isNum(r, 1):
			return l
		case isNum(l, -1):
			return Neg{X: r}.Simplify()
		case isNum(r, -1):
			return Neg{X: l}.Simplify()
		}
		// keep numeric coefficients on the left and merge them
		if _, ok := r.(Num); ok {
			l, r = r, l
		}
		if ln, ok := l.(Num); ok {
			if rb, ok := r.(Binary); ok && rb.Op == '*' {
				if inner, ok := rb.L.(Num); ok {
					return Binary{Op: '*', L: Num{V: ln.V * inner.V}, R: rb.R}.Simplify()
				}
			}
		}
	case '/':
		switch {
		case isNum(r, 1):
			return l
		case isNum(l, 0) && !isNum(r, 0):
			return Num{V: 0}
		}
	case '^':
		switch {
		case isNum(r, 0), isNum(l, 1):
			return Num{V: 1}
		case isNum(r, 1):
			return l
		}
	}
	return Binary{Op: b.Op, L: l, R: r}
}

func fold(op byte, a, b float64) (float64, bool) {
	var v float64
	switch op {
	case '+':
		v = a + b
	case '-':
		v = a - b
	case '*':
		v = a * b
	case '/':
		if b == 0 {
			return 0, false
		}
		v = a / b
	case '^':
		v = math.Pow(a, b)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
