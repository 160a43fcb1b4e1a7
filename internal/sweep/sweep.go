// Package sweep checks Algorithm 1 against Algorithm 2 over a range of step
// sizes. For functions where both are well defined the search result should
// approach the closed form as γ shrinks, staying within γ of it.
package sweep

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/robust"
)

// Point is the search outcome for one step size.
type Point struct {
	Gamma   float64
	Index   robust.Index
	Gap     float64 // |Index - closed form|, +Inf when only one side is infinite
	Within  bool    // Gap <= Gamma
	Elapsed time.Duration
	Err     error
}

type Report struct {
	ClosedForm robust.Index
	Points     []Point
}

// Converged reports whether every successful search landed within its step
// of the closed form.
func (r *Report) Converged() bool {
	for _, p := range r.Points {
		if p.Err == nil && !p.Within {
			return false
		}
	}
	return true
}

// Sweep runs Algorithm 1 for each γ using base for the other settings.
type Sweep struct {
	analyzer *robust.Analyzer
	base     robust.SearchSettings
}

func New(an *robust.Analyzer, base robust.SearchSettings) *Sweep {
	return &Sweep{analyzer: an, base: base}
}

func (s *Sweep) Run(ctx context.Context, f expr.Expr, x string, a, b float64, gammas []float64) (*Report, error) {
	if len(gammas) == 0 {
		return nil, fmt.Errorf("%w: no step sizes to sweep", robust.ErrInvalidSettings)
	}
	for _, g := range gammas {
		cfg := s.base
		cfg.Gamma = g
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	closed, err := s.analyzer.ClosedForm(f, x, a, b)
	if err != nil {
		return nil, fmt.Errorf("closed form: %w", err)
	}

	rep := &Report{ClosedForm: closed, Points: make([]Point, 0, len(gammas))}
	for _, g := range gammas {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		cfg := s.base
		cfg.Gamma = g

		start := time.Now()
		sf, err := s.analyzer.Search(ctx, f, x, a, b, cfg)
		p := Point{Gamma: g, Index: sf, Elapsed: time.Since(start), Err: err}
		if err == nil {
			p.Gap = Gap(sf, closed)
			p.Within = p.Gap <= g+1e-9
		}
		rep.Points = append(rep.Points, p)
	}
	return rep, nil
}

// Gap is the distance between two indices. Equal infinities are 0 apart.
func Gap(a, b robust.Index) float64 {
	if a.IsFinite() && b.IsFinite() {
		return math.Abs(float64(a - b))
	}
	if a == b {
		return 0
	}
	return math.Inf(1)
}

// Geometric returns n step sizes start, start*factor, start*factor^2, ...
func Geometric(start, factor float64, n int) []float64 {
	out := make([]float64, n)
	g := start
	for i := range out {
		out[i] = g
		g *= factor
	}
	return out
}
