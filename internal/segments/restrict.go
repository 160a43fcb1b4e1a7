package segments

import (
	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/oracle"
)

// Restrict substitutes x = u_x + t(v_x - u_x)/|uv| and
// y = u_y + t(v_y - u_y)/|uv| into f, giving f along seg as a function of
// the arc length t.
func Restrict(engine oracle.Engine, f expr.Expr, xVar, yVar, t string, seg Segment) expr.Expr {
	l := seg.Length()
	along := func(from, to float64) expr.Expr {
		return expr.Add(expr.Const(from), expr.Mul(expr.Const((to-from)/l), expr.Variable(t))).Simplify()
	}
	g := engine.Substitute(f, xVar, along(seg.U.X, seg.V.X))
	return engine.Substitute(g, yVar, along(seg.U.Y, seg.V.Y))
}

// freshName picks a parameter name that does not occur in f.
func freshName(f expr.Expr) string {
	vars := expr.Vars(f)
	name := "t"
	for {
		if _, taken := vars[name]; !taken {
			return name
		}
		name += "_"
	}
}
