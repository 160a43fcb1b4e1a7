package robust

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/oracle"
	"gonum.org/v1/gonum/floats/scalar"
)

// Analyzer runs the index algorithms against a calculus engine.
type Analyzer struct {
	engine oracle.Engine
	logger *slog.Logger
}

// New creates an Analyzer. A nil logger discards output.
func New(engine oracle.Engine, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{engine: engine, logger: logger}
}

func (an *Analyzer) Engine() oracle.Engine { return an.engine }

// LevelSet returns L(α) = {x ∈ [a, b] : |f'(x)| <= α}.
func (an *Analyzer) LevelSet(f expr.Expr, x string, a, b, alpha float64) (interval.Set, error) {
	if err := checkDomain(a, b); err != nil {
		return interval.Empty(), err
	}
	return an.levelSet(an.engine.Differentiate(f, x), x, interval.Closed(a, b), alpha)
}

func (an *Analyzer) levelSet(df expr.Expr, x string, dom interval.Interval, alpha float64) (interval.Set, error) {
	rel := oracle.LessOrEqual(expr.Subtract(expr.Apply("abs", df), expr.Const(alpha)))
	return an.engine.Solve(rel, x, interval.Of(dom))
}

// IsQuasiconvex reports whether f decreases then increases on [a, b]
// around its lowest critical point. Monotone functions are quasiconvex
// without any critical point being solved for.
func (an *Analyzer) IsQuasiconvex(f expr.Expr, x string, a, b float64) (bool, error) {
	if err := checkDomain(a, b); err != nil {
		return false, err
	}
	return an.isQuasiconvex(f, x, interval.Closed(a, b))
}

func (an *Analyzer) isQuasiconvex(f expr.Expr, x string, dom interval.Interval) (bool, error) {
	for _, kind := range []oracle.Monotonicity{oracle.Decreasing, oracle.Increasing} {
		ok, err := an.engine.IsMonotone(f, x, dom, kind)
		if err != nil {
			return false, fmt.Errorf("monotonicity of %v: %w", f, err)
		}
		if ok {
			return true, nil
		}
	}

	crit, err := an.engine.Solve(oracle.Zero(an.engine.Differentiate(f, x)), x, interval.Of(dom))
	if err != nil {
		return false, fmt.Errorf("critical points of %v: %w", f, err)
	}
	if crit.IsEmpty() {
		return false, nil
	}
	pts, ok := crit.Points()
	if !ok {
		return false, fmt.Errorf("%w: critical points of %v form %v", ErrIndeterminate, f, crit)
	}

	xmin, err := an.lowest(f, x, pts)
	if err != nil {
		return false, err
	}
	left, right := dom.Split(xmin)

	dec, err := an.engine.IsMonotone(f, x, left, oracle.Decreasing)
	if err != nil || !dec {
		return false, err
	}
	return an.engine.IsMonotone(f, x, right, oracle.Increasing)
}

// lowest picks the point with the smallest f value. pts is ascending, so
// values equal within the engine tolerance, absolute or relative, resolve to the leftmost point.
func (an *Analyzer) lowest(f expr.Expr, x string, pts []float64) (float64, error) {
	tol := an.engine.ZeroTolerance()
	best, bestVal := math.NaN(), math.Inf(1)
	for _, p := range pts {
		v, err := an.engine.EvaluateAt(f, x, p)
		if err != nil {
			return 0, fmt.Errorf("evaluate %v at %g: %w", f, p, err)
		}
		if math.IsNaN(best) || (v < bestVal && !scalar.EqualWithinAbsOrRel(v, bestVal, tol, tol)) {
			best, bestVal = p, v
		}
	}
	return best, nil
}
