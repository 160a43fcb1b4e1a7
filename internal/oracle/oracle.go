// Package oracle defines the calculus engine the robustness algorithms are
// written against, and a numeric implementation of it.
//
// The algorithms only orchestrate engine calls and interpret the returned
// solution sets; they never differentiate, solve or test convexity
// themselves. [Engine] is that contract. [Numeric] satisfies it with exact
// symbolic differentiation from package expr and sampled root finding for
// everything that would need a computer algebra system.
//
// # Numeric semantics
//
// Sign decisions use an absolute tolerance Tol: a value v counts as negative
// only when v < -Tol, as non-positive when v <= Tol, and as zero when
// |v| <= Tol. Solution sets are located by sampling each domain component
// on a uniform grid, refining boundaries by bisection and probing local
// extrema between samples with golden-section search. Any NaN or Inf met
// while evaluating is reported as ErrIndeterminate instead of being read as
// false.
package oracle

import (
	"errors"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
)

// ErrIndeterminate means the engine could not decide a question: an
// evaluation produced NaN or Inf, or a solution set that had to be finite
// was not.
var ErrIndeterminate = errors.New("oracle: indeterminate")

// Op is a comparison against zero.
type Op int

const (
	LT Op = iota // expr < 0
	LE           // expr <= 0
	GT           // expr > 0
	GE           // expr >= 0
	EQ           // expr = 0
)

func (o Op) String() string {
	switch o {
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case EQ:
		return "="
	}
	return "?"
}

func (o Op) strict() bool { return o == LT || o == GT }

// Relation is the statement "Expr Op 0".
type Relation struct {
	Expr expr.Expr
	Op   Op
}

func Less(e expr.Expr) Relation           { return Relation{Expr: e, Op: LT} }
func LessOrEqual(e expr.Expr) Relation    { return Relation{Expr: e, Op: LE} }
func Greater(e expr.Expr) Relation        { return Relation{Expr: e, Op: GT} }
func GreaterOrEqual(e expr.Expr) Relation { return Relation{Expr: e, Op: GE} }
func Zero(e expr.Expr) Relation           { return Relation{Expr: e, Op: EQ} }

func (r Relation) String() string {
	return r.Expr.String() + " " + r.Op.String() + " 0"
}

type Monotonicity int

const (
	Increasing Monotonicity = iota
	Decreasing
)

func (m Monotonicity) String() string {
	if m == Decreasing {
		return "decreasing"
	}
	return "increasing"
}

// Engine is the calculus collaborator used by the robustness algorithms.
// Implementations must be safe for concurrent use.
type Engine interface {
	Differentiate(f expr.Expr, x string) expr.Expr
	// Solve returns the subset of domain where rel holds.
	Solve(rel Relation, x string, domain interval.Set) (interval.Set, error)
	IsMonotone(f expr.Expr, x string, dom interval.Interval, kind Monotonicity) (bool, error)
	// IsConvex reports whether f'' >= 0 on every point of domain. The empty
	// set is vacuously convex.
	IsConvex(f expr.Expr, x string, domain interval.Set) (bool, error)
	Substitute(f expr.Expr, x string, v expr.Expr) expr.Expr
	EvaluateAt(f expr.Expr, x string, p float64) (float64, error)
	// ZeroTolerance is the magnitude below which values count as zero.
	ZeroTolerance() float64
}
