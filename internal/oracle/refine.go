package oracle

import (
	"fmt"
	"math"

	"github.com/san-kum/robustidx/internal/expr"
)

const invPhi = 0.6180339887498949 // (sqrt(5) - 1) / 2

// sampler evaluates a compiled expression and remembers the first
// non-finite value it sees. Callers check err once they are done.
type sampler struct {
	fn  expr.Func
	err error
}

func (s *sampler) at(x float64) float64 {
	v := s.fn(x)
	if (math.IsNaN(v) || math.IsInf(v, 0)) && s.err == nil {
		s.err = fmt.Errorf("%w: non-finite value %v at %g", ErrIndeterminate, v, x)
	}
	return v
}

// boundary narrows the gap between a point where pred holds (in) and one
// where it does not (out) and returns the last point known to satisfy it.
func boundary(s *sampler, pred func(float64) bool, in, out, tol float64, maxIter int) float64 {
	for i := 0; i < maxIter && math.Abs(out-in) > tol; i++ {
		mid := in + (out-in)/2
		if pred(s.at(mid)) {
			in = mid
		} else {
			out = mid
		}
	}
	return in
}

// goldenMin locates a local minimum of g on [a, b] by golden-section
// search and returns its position and value.
func goldenMin(g func(float64) float64, a, b, tol float64, maxIter int) (float64, float64) {
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	gc, gd := g(c), g(d)
	for i := 0; i < maxIter && math.Abs(b-a) > tol; i++ {
		if gc <= gd {
			b, d, gd = d, c, gc
			c = b - invPhi*(b-a)
			gc = g(c)
		} else {
			a, c, gc = c, d, gd
			d = a + invPhi*(b-a)
			gd = g(d)
		}
	}
	x := a + (b-a)/2
	return x, g(x)
}
