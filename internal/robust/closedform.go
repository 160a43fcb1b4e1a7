package robust

import (
	"fmt"
	"math"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/oracle"
)

// ClosedForm runs Algorithm 2. The candidate bounds are f' at the right end
// of the concave stretch where f' > 0 and -f' at the left end of the stretch
// where f' < 0. Each inflection point t whose tilted function f - f'(t)·x is
// not quasiconvex can tighten the result to |f'(t)|.
func (an *Analyzer) ClosedForm(f expr.Expr, x string, a, b float64) (Index, error) {
	if err := checkDomain(a, b); err != nil {
		return 0, err
	}
	fail := func(phase string, err error) error {
		return &ComputationError{Algorithm: "closed-form", Phase: phase, Wrapped: err}
	}

	dom := interval.Closed(a, b)
	convex, err := an.engine.IsConvex(f, x, interval.Of(dom))
	if err != nil {
		return 0, fail("initial", err)
	}
	if convex {
		return Unbounded, nil
	}

	df := an.engine.Differentiate(f, x)
	d2f := an.engine.Differentiate(df, x)
	inner := interval.Of(dom.Interior())

	concave, err := an.engine.Solve(oracle.Less(d2f), x, inner)
	if err != nil {
		return 0, fail("concavity", err)
	}

	var candidates []float64
	rising, err := an.engine.Solve(oracle.Greater(df), x, concave)
	if err != nil {
		return 0, fail("candidates", err)
	}
	if !rising.IsEmpty() {
		v, err := an.edgeSlope(df, x, concave, rising.Sup(), edgeTol(a, b))
		if err != nil {
			return 0, fail("candidates", err)
		}
		candidates = append(candidates, v)
	}
	falling, err := an.engine.Solve(oracle.Greater(expr.Negate(df)), x, concave)
	if err != nil {
		return 0, fail("candidates", err)
	}
	if !falling.IsEmpty() {
		v, err := an.edgeSlope(df, x, concave, falling.Inf(), edgeTol(a, b))
		if err != nil {
			return 0, fail("candidates", err)
		}
		candidates = append(candidates, -v)
	}
	an.logger.Debug("closed-form candidates", "f", f, "concave", concave, "candidates", candidates)

	if len(candidates) == 0 {
		return NonRobust, nil
	}
	diamond := candidates[0]
	for _, c := range candidates[1:] {
		diamond = math.Min(diamond, c)
	}
	if math.Abs(diamond) <= an.engine.ZeroTolerance() {
		return NonRobust, nil
	}

	inflections, err := an.engine.Solve(oracle.Zero(d2f), x, inner)
	if err != nil {
		return 0, fail("inflection", err)
	}
	pts, ok := inflections.Points()
	if !ok {
		return 0, fail("inflection", fmt.Errorf("%w: f'' vanishes on %v", ErrIndeterminate, inflections))
	}

	sf := diamond
	for _, t := range pts {
		slope, err := an.engine.EvaluateAt(df, x, t)
		if err != nil {
			return 0, fail("inflection", err)
		}
		tilted := expr.Subtract(f, expr.Mul(expr.Const(slope), expr.Variable(x))).Simplify()
		qc, err := an.isQuasiconvex(tilted, x, dom)
		if err != nil {
			return 0, fail("inflection", err)
		}
		an.logger.Debug("inflection tested", "t", t, "slope", slope, "quasiconvex", qc)
		if !qc {
			sf = math.Min(sf, math.Abs(slope))
		}
	}
	return Index(sf), nil
}

// edgeSlope returns f' at p, an edge of a sign region of f' inside the
// concave set. An edge strictly inside a concave component is a sign change
// of the continuous f', so the slope there is exactly zero. The numeric
// boundary stops just short of it and would leave a value of order Tol.
func (an *Analyzer) edgeSlope(df expr.Expr, x string, concave interval.Set, p, eps float64) (float64, error) {
	for _, c := range concave.Intervals() {
		if p > c.Lo+eps && p < c.Hi-eps {
			return 0, nil
		}
	}
	return an.engine.EvaluateAt(df, x, p)
}

func edgeTol(a, b float64) float64 {
	return 1e-9 * math.Max(1, b-a)
}
