package robust

import (
	"errors"
	"fmt"

	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/oracle"
)

// Domain errors for index computations.
var (
	// ErrDegenerateInput indicates an inverted or non-finite interval.
	ErrDegenerateInput = fmt.Errorf("robust: degenerate input (%w)", interval.ErrDegenerate)

	// ErrIndeterminate indicates the engine could not decide a question.
	ErrIndeterminate = oracle.ErrIndeterminate

	// ErrSearchNonConvergent indicates Algorithm 1 ran out of iterations
	// before the level-set convexity flipped or α reached zmin.
	ErrSearchNonConvergent = errors.New("robust: search exceeded iteration limit")

	// ErrInvalidSettings indicates a search step or threshold out of range.
	ErrInvalidSettings = errors.New("robust: invalid search settings")
)

// ComputationError wraps an error with the algorithm state it occurred in.
type ComputationError struct {
	Algorithm string
	Phase     string
	Alpha     float64
	Iteration int
	Wrapped   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s (%s phase, alpha=%g, iteration %d): %v",
		e.Algorithm, e.Phase, e.Alpha, e.Iteration, e.Wrapped)
}

func (e *ComputationError) Unwrap() error {
	return e.Wrapped
}

func checkDomain(a, b float64) error {
	if err := interval.Validate(a, b); err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerateInput, err)
	}
	return nil
}
