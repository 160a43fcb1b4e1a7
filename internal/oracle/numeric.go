package oracle

import (
	"fmt"
	"math"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	DefaultSamples     = 1024
	DefaultTolerance   = 1e-9
	DefaultRootTol     = 1e-12
	DefaultMaxRootIter = 200
)

// Settings tunes the numeric engine.
type Settings struct {
	Samples     int     // grid intervals per domain component
	Tol         float64 // sign tolerance on function values
	RootTol     float64 // width at which boundary refinement stops
	MaxRootIter int
}

func DefaultSettings() Settings {
	return Settings{
		Samples:     DefaultSamples,
		Tol:         DefaultTolerance,
		RootTol:     DefaultRootTol,
		MaxRootIter: DefaultMaxRootIter,
	}
}

// Numeric is an Engine backed by symbolic differentiation and sampled
// solving. It holds no mutable state and is safe for concurrent use.
type Numeric struct {
	s Settings
}

func NewNumeric(s Settings) *Numeric {
	d := DefaultSettings()
	if s.Samples < 2 {
		s.Samples = d.Samples
	}
	if s.Tol <= 0 {
		s.Tol = d.Tol
	}
	if s.RootTol <= 0 {
		s.RootTol = d.RootTol
	}
	if s.MaxRootIter <= 0 {
		s.MaxRootIter = d.MaxRootIter
	}
	return &Numeric{s: s}
}

func (n *Numeric) Settings() Settings { return n.s }

func (n *Numeric) ZeroTolerance() float64 { return n.s.Tol }

func (n *Numeric) Differentiate(f expr.Expr, x string) expr.Expr {
	return expr.Derivative(f, x)
}

func (n *Numeric) Substitute(f expr.Expr, x string, v expr.Expr) expr.Expr {
	return f.Sub(x, v).Simplify()
}

func (n *Numeric) EvaluateAt(f expr.Expr, x string, p float64) (float64, error) {
	fn, err := expr.Compile(f, x)
	if err != nil {
		return math.NaN(), err
	}
	s := &sampler{fn: fn}
	v := s.at(p)
	return v, s.err
}

func (n *Numeric) IsMonotone(f expr.Expr, x string, dom interval.Interval, kind Monotonicity) (bool, error) {
	if dom.IsEmpty() || dom.IsPoint() {
		return true, nil
	}
	df, err := expr.Compile(n.Differentiate(f, x), x)
	if err != nil {
		return false, err
	}

	s := &sampler{fn: df}
	// look for the most offending derivative value
	g := s.at
	if kind == Decreasing {
		g = func(t float64) float64 { return -s.at(t) }
	}
	ok := n.allAbove(g, dom)
	if s.err != nil {
		return false, s.err
	}
	return ok, nil
}

func (n *Numeric) IsConvex(f expr.Expr, x string, domain interval.Set) (bool, error) {
	if domain.IsEmpty() {
		return true, nil
	}
	d2, err := expr.Compile(n.Differentiate(n.Differentiate(f, x), x), x)
	if err != nil {
		return false, err
	}

	s := &sampler{fn: d2}
	for _, comp := range domain.Intervals() {
		if !n.allAbove(s.at, comp) {
			return false, s.err
		}
		if s.err != nil {
			return false, s.err
		}
	}
	return true, nil
}

// allAbove reports whether g >= -Tol everywhere on comp, sampling the grid
// and probing every sampled local minimum.
func (n *Numeric) allAbove(g func(float64) float64, comp interval.Interval) bool {
	if comp.IsPoint() {
		return g(comp.Lo) >= -n.s.Tol
	}
	xs := n.grid(comp)
	vs := make([]float64, len(xs))
	for i, x := range xs {
		vs[i] = g(x)
		if !(vs[i] >= -n.s.Tol) {
			return false
		}
	}
	for i := 1; i < len(xs)-1; i++ {
		if vs[i] < vs[i-1] && vs[i] <= vs[i+1] {
			_, v := goldenMin(g, xs[i-1], xs[i+1], n.s.RootTol, n.s.MaxRootIter)
			if v < -n.s.Tol {
				return false
			}
		}
	}
	return true
}

// grid samples comp uniformly. Open ends are nudged inwards so that
// functions undefined at an excluded endpoint can still be sampled.
func (n *Numeric) grid(comp interval.Interval) []float64 {
	xs := floats.Span(make([]float64, n.s.Samples+1), comp.Lo, comp.Hi)
	nudge := (comp.Hi - comp.Lo) * 1e-9
	if comp.LoOpen {
		xs[0] += nudge
	}
	if comp.HiOpen {
		xs[len(xs)-1] -= nudge
	}
	return xs
}

func (n *Numeric) satisfies(op Op, v float64) bool {
	switch op {
	case LT:
		return v < -n.s.Tol
	case LE:
		return v <= n.s.Tol
	case GT:
		return v > n.s.Tol
	case GE:
		return v >= -n.s.Tol
	default:
		return math.Abs(v) <= n.s.Tol
	}
}

func (n *Numeric) Solve(rel Relation, x string, domain interval.Set) (interval.Set, error) {
	fn, err := expr.Compile(rel.Expr, x)
	if err != nil {
		return interval.Empty(), err
	}
	s := &sampler{fn: fn}
	pred := func(v float64) bool { return n.satisfies(rel.Op, v) }

	var parts []interval.Interval
	for _, comp := range domain.Intervals() {
		var found []interval.Interval
		switch {
		case comp.IsPoint():
			if pred(s.at(comp.Lo)) {
				found = []interval.Interval{comp}
			}
		case rel.Op == EQ:
			found = n.roots(s, comp)
		default:
			found = n.runs(s, rel.Op, pred, comp)
		}
		if s.err != nil {
			return interval.Empty(), fmt.Errorf("solve %v on %v: %w", rel, comp, s.err)
		}
		for _, p := range found {
			parts = append(parts, p.Intersect(comp))
		}
	}
	return interval.NewSet(parts...), nil
}

// runs collects the maximal stretches of comp on which pred holds.
func (n *Numeric) runs(s *sampler, op Op, pred func(float64) bool, comp interval.Interval) []interval.Interval {
	xs := n.grid(comp)
	vs := make([]float64, len(xs))
	sat := make([]bool, len(xs))
	for i, x := range xs {
		vs[i] = s.at(x)
		sat[i] = pred(vs[i])
	}
	if s.err != nil {
		return nil
	}

	edge := func(in, out float64) float64 {
		return boundary(s, pred, in, out, n.s.RootTol, n.s.MaxRootIter)
	}
	mk := func(lo, hi float64, loInner, hiInner bool) interval.Interval {
		return interval.Interval{
			Lo: lo, Hi: hi,
			LoOpen: loInner && op.strict(),
			HiOpen: hiInner && op.strict(),
		}
	}

	var out []interval.Interval
	for i := 0; i < len(xs); {
		if !sat[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(xs) && sat[j+1] {
			j++
		}
		lo, hi := comp.Lo, comp.Hi
		if i > 0 {
			lo = edge(xs[i], xs[i-1])
		}
		if j < len(xs)-1 {
			hi = edge(xs[j], xs[j+1])
		}
		out = append(out, mk(lo, hi, i > 0, j < len(xs)-1))
		i = j + 1
	}

	// narrow dips between samples that never reached a grid point
	towards := func(t float64) float64 { return s.at(t) }
	if op == GT || op == GE {
		towards = func(t float64) float64 { return -s.at(t) }
	}
	for i := 1; i < len(xs)-1; i++ {
		if sat[i-1] || sat[i] || sat[i+1] {
			continue
		}
		w := towards(xs[i])
		if w >= towards(xs[i-1]) || w > towards(xs[i+1]) {
			continue
		}
		xm, _ := goldenMin(towards, xs[i-1], xs[i+1], n.s.RootTol, n.s.MaxRootIter)
		if !pred(s.at(xm)) {
			continue
		}
		out = append(out, mk(edge(xm, xs[i-1]), edge(xm, xs[i+1]), true, true))
	}
	return out
}

// roots locates the zeros of s on comp. A stretch of near-zero samples
// covering the whole component is returned as an interval; every other
// zero is collapsed to a single point.
func (n *Numeric) roots(s *sampler, comp interval.Interval) []interval.Interval {
	xs := n.grid(comp)
	vs := make([]float64, len(xs))
	zero := make([]bool, len(xs))
	for i, x := range xs {
		vs[i] = s.at(x)
		zero[i] = math.Abs(vs[i]) <= n.s.Tol
	}
	if s.err != nil {
		return nil
	}

	allZero := true
	for _, z := range zero {
		allZero = allZero && z
	}
	if allZero {
		return []interval.Interval{comp}
	}

	abs := func(t float64) float64 { return math.Abs(s.at(t)) }
	negative := func(v float64) bool { return v < 0 }
	positive := func(v float64) bool { return v > 0 }

	crossing := func(a, b float64, va float64) float64 {
		if va < 0 {
			return boundary(s, negative, a, b, n.s.RootTol, n.s.MaxRootIter)
		}
		return boundary(s, positive, a, b, n.s.RootTol, n.s.MaxRootIter)
	}

	var pts []float64
	for i := 0; i < len(xs); {
		if zero[i] {
			j := i
			for j+1 < len(xs) && zero[j+1] {
				j++
			}
			lo, hi := i, j
			if lo > 0 {
				lo--
			}
			if hi < len(xs)-1 {
				hi++
			}
			if !zero[lo] && !zero[hi] && vs[lo]*vs[hi] < 0 {
				pts = append(pts, crossing(xs[lo], xs[hi], vs[lo]))
			} else {
				xm, _ := goldenMin(abs, xs[lo], xs[hi], n.s.RootTol, n.s.MaxRootIter)
				pts = append(pts, xm)
			}
			i = j + 1
			continue
		}
		if i+1 < len(xs) && !zero[i+1] && vs[i]*vs[i+1] < 0 {
			pts = append(pts, crossing(xs[i], xs[i+1], vs[i]))
		}
		if i > 0 && i+1 < len(xs) && !zero[i-1] && !zero[i+1] &&
			vs[i]*vs[i-1] > 0 && vs[i]*vs[i+1] > 0 &&
			math.Abs(vs[i]) < math.Abs(vs[i-1]) && math.Abs(vs[i]) <= math.Abs(vs[i+1]) {
			// tangential touch between samples
			xm, v := goldenMin(abs, xs[i-1], xs[i+1], n.s.RootTol, n.s.MaxRootIter)
			if v <= n.s.Tol {
				pts = append(pts, xm)
			}
		}
		i++
	}

	out := make([]interval.Interval, 0, len(pts))
	for _, p := range dedupe(pts, 1e3*n.s.RootTol) {
		out = append(out, interval.Point(p))
	}
	return out
}

func dedupe(pts []float64, eps float64) []float64 {
	if len(pts) == 0 {
		return nil
	}
	sorted := make([]float64, len(pts))
	copy(sorted, pts)
	floats.Argsort(sorted, make([]int, len(sorted)))

	out := []float64{sorted[0]}
	for _, p := range sorted[1:] {
		if !scalar.EqualWithinAbs(p, out[len(out)-1], eps) {
			out = append(out, p)
		}
	}
	return out
}
