package expr

func (n Num) Diff(string) Expr { return Const(0) }

func (v Var) Diff(name string) Expr {
	if v.Name == name {
		return Const(1)
	}
	return Const(0)
}

func (n Neg) Diff(name string) Expr { return Negate(n.X.Diff(name)) }

func (b Binary) Diff(name string) Expr {
	dl, dr := b.L.Diff(name), b.R.Diff(name)
	switch b.Op {
	case '+':
		return Add(dl, dr)
	case '-':
		return Subtract(dl, dr)
	case '*':
		return Add(Mul(dl, b.R), Mul(b.L, dr))
	case '/':
		return Div(Subtract(Mul(dl, b.R), Mul(b.L, dr)), Pow(b.R, Const(2)))
	}

	// power rule, specialised on which side depends on name
	switch {
	case !DependsOn(b.R, name):
		return Mul(Mul(b.R, Pow(b.L, Subtract(b.R, Const(1)))), dl)
	case !DependsOn(b.L, name):
		return Mul(Mul(b, Apply("log", b.L)), dr)
	default:
		return Mul(b, Add(Mul(dr, Apply("log", b.L)), Div(Mul(b.R, dl), b.L)))
	}
}

func (c Call) Diff(name string) Expr {
	bi, ok := builtins[c.Fn]
	if !ok {
		return Const(0)
	}
	return Mul(bi.deriv(c.Arg), c.Arg.Diff(name))
}
