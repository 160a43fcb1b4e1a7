package metrics

import (
	"sync/atomic"
	"time"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/oracle"
)

// Engine decorates an oracle.Engine with call metrics. Besides feeding the
// prometheus collectors it keeps its own counters so a single run can
// report how many engine calls it needed.
type Engine struct {
	next oracle.Engine

	solves    atomic.Int64
	monotone  atomic.Int64
	convex    atomic.Int64
	evaluates atomic.Int64
}

var _ oracle.Engine = (*Engine)(nil)

func Instrument(e oracle.Engine) *Engine {
	return &Engine{next: e}
}

func track(op string, counter *atomic.Int64, start time.Time, err error) {
	counter.Add(1)
	oracleCalls.WithLabelValues(op).Inc()
	oracleLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		oracleErrors.WithLabelValues(op).Inc()
	}
}

func (e *Engine) Differentiate(f expr.Expr, x string) expr.Expr {
	return e.next.Differentiate(f, x)
}

func (e *Engine) Solve(rel oracle.Relation, x string, domain interval.Set) (interval.Set, error) {
	start := time.Now()
	set, err := e.next.Solve(rel, x, domain)
	track("solve", &e.solves, start, err)
	return set, err
}

func (e *Engine) IsMonotone(f expr.Expr, x string, dom interval.Interval, kind oracle.Monotonicity) (bool, error) {
	start := time.Now()
	ok, err := e.next.IsMonotone(f, x, dom, kind)
	track("is_monotone", &e.monotone, start, err)
	return ok, err
}

func (e *Engine) IsConvex(f expr.Expr, x string, domain interval.Set) (bool, error) {
	start := time.Now()
	ok, err := e.next.IsConvex(f, x, domain)
	track("is_convex", &e.convex, start, err)
	return ok, err
}

func (e *Engine) Substitute(f expr.Expr, x string, v expr.Expr) expr.Expr {
	return e.next.Substitute(f, x, v)
}

func (e *Engine) EvaluateAt(f expr.Expr, x string, p float64) (float64, error) {
	start := time.Now()
	v, err := e.next.EvaluateAt(f, x, p)
	track("evaluate", &e.evaluates, start, err)
	return v, err
}

func (e *Engine) ZeroTolerance() float64 { return e.next.ZeroTolerance() }

// Calls returns the number of calls this engine has served per operation.
func (e *Engine) Calls() map[string]int64 {
	return map[string]int64{
		"solve":       e.solves.Load(),
		"is_monotone": e.monotone.Load(),
		"is_convex":   e.convex.Load(),
		"evaluate":    e.evaluates.Load(),
	}
}

// Total is the sum of Calls.
func (e *Engine) Total() int64 {
	var n int64
	for _, v := range e.Calls() {
		n += v
	}
	return n
}
