package robust

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
)

const (
	DefaultGamma         = 1e-2
	DefaultZmin          = 1e-323
	DefaultMaxIterations = 10000
)

// SearchSettings tunes Algorithm 1.
type SearchSettings struct {
	Gamma         float64 `yaml:"gamma" json:"gamma"`   // step size, > 0
	Zmin          float64 `yaml:"zmin" json:"zmin"`     // shrink floor, > 0
	Alpha0        float64 `yaml:"alpha0" json:"alpha0"` // starting offset, >= 0
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
}

func DefaultSearchSettings() SearchSettings {
	return SearchSettings{
		Gamma:         DefaultGamma,
		Zmin:          DefaultZmin,
		MaxIterations: DefaultMaxIterations,
	}
}

func (s SearchSettings) Validate() error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch {
	case !finite(s.Gamma) || s.Gamma <= 0:
		return fmt.Errorf("%w: gamma must be positive, got %g", ErrInvalidSettings, s.Gamma)
	case !finite(s.Zmin) || s.Zmin <= 0:
		return fmt.Errorf("%w: zmin must be positive, got %g", ErrInvalidSettings, s.Zmin)
	case !finite(s.Alpha0) || s.Alpha0 < 0:
		return fmt.Errorf("%w: alpha0 must be non-negative, got %g", ErrInvalidSettings, s.Alpha0)
	case s.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidSettings, s.MaxIterations)
	}
	return nil
}

// Search runs Algorithm 1. Starting from α = α0 + γ it grows α while f is
// convex on L(α) and returns the last bound that held. If the first step
// already fails it shrinks α until convexity holds, returning -oo once α
// drops to zmin or below. Every bound is computed as α0 + kγ so that long
// runs do not accumulate rounding.
func (an *Analyzer) Search(ctx context.Context, f expr.Expr, x string, a, b float64, s SearchSettings) (Index, error) {
	if err := checkDomain(a, b); err != nil {
		return 0, err
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}

	dom := interval.Closed(a, b)
	convex, err := an.engine.IsConvex(f, x, interval.Of(dom))
	if err != nil {
		return 0, &ComputationError{Algorithm: "search", Phase: "initial", Wrapped: err}
	}
	if convex {
		an.logger.Debug("convex on full domain", "f", f, "domain", dom)
		return Unbounded, nil
	}

	df := an.engine.Differentiate(f, x)
	alphaAt := func(k int) float64 { return s.Alpha0 + float64(k)*s.Gamma }

	iter := 0
	step := func(phase string, k int) (bool, error) {
		alpha := alphaAt(k)
		fail := func(err error) error {
			return &ComputationError{Algorithm: "search", Phase: phase, Alpha: alpha, Iteration: iter, Wrapped: err}
		}
		if err := ctx.Err(); err != nil {
			return false, fail(err)
		}
		if iter >= s.MaxIterations {
			return false, fail(ErrSearchNonConvergent)
		}
		iter++

		level, err := an.levelSet(df, x, dom, alpha)
		if err != nil {
			return false, fail(err)
		}
		ok, err := an.engine.IsConvex(f, x, level)
		if err != nil {
			return false, fail(err)
		}
		an.logger.Debug("level set tested", "phase", phase, "alpha", alpha, "level", level, "convex", ok)
		return ok, nil
	}

	k := 1
	grew := false
	for {
		ok, err := step("growth", k)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		grew = true
		k++
	}
	if grew {
		return Index(alphaAt(k - 1)), nil
	}

	for {
		k--
		alpha := alphaAt(k)
		if alpha <= s.Zmin {
			an.logger.Debug("shrink reached zmin", "alpha", alpha, "zmin", s.Zmin)
			return NonRobust, nil
		}
		ok, err := step("shrink", k)
		if err != nil {
			return 0, err
		}
		if ok {
			return Index(alpha), nil
		}
	}
}
