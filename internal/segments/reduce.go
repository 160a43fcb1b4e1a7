package segments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/robust"
	"golang.org/x/sync/errgroup"
)

// MaxExponent caps m; 2^12 points already mean over eight million segments.
const MaxExponent = 12

type Settings struct {
	M       int                   `yaml:"m" json:"m"`
	Workers int                   `yaml:"workers" json:"workers"` // <= 0 uses runtime.NumCPU()
	Search  robust.SearchSettings `yaml:"search" json:"search"`
}

func DefaultSettings() Settings {
	return Settings{M: 3, Search: robust.DefaultSearchSettings()}
}

func (s Settings) Validate() error {
	if s.M < 0 || s.M > MaxExponent {
		return fmt.Errorf("%w: m must be in [0, %d], got %d", robust.ErrInvalidSettings, MaxExponent, s.M)
	}
	return s.Search.Validate()
}

// SegmentResult is the outcome of one segment. Evaluated is false for
// segments skipped after a non-robust segment was found.
type SegmentResult struct {
	ID        int
	Segment   Segment
	Length    float64
	Index     robust.Index
	Err       error
	Evaluated bool
	Elapsed   time.Duration
}

// Result aggregates a reduction run.
type Result struct {
	M        int
	Points   []Point
	Segments []SegmentResult // enumeration order
	// Index is the minimum over successful segments, +oo when there is none.
	Index          robust.Index
	Evaluated      int
	Failed         int
	ShortCircuited bool
	Elapsed        time.Duration
}

// Defined reports whether at least one segment produced an index.
func (r *Result) Defined() bool { return r.Evaluated > r.Failed }

// Indices lists the indices of successful segments in enumeration order.
func (r *Result) Indices() []robust.Index {
	out := make([]robust.Index, 0, r.Evaluated)
	for _, s := range r.Segments {
		if s.Evaluated && s.Err == nil {
			out = append(out, s.Index)
		}
	}
	return out
}

// Err joins the per-segment failures.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Segments {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("segment %d %v: %w", s.ID, s.Segment, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Reducer runs Algorithm 3.
type Reducer struct {
	analyzer *robust.Analyzer
	logger   *slog.Logger
	observe  func(SegmentResult)
}

type Option func(*Reducer)

// WithObserver registers fn to be called once per evaluated segment. fn is
// called from worker goroutines and must be safe for concurrent use.
func WithObserver(fn func(SegmentResult)) Option {
	return func(r *Reducer) { r.observe = fn }
}

func NewReducer(an *robust.Analyzer, logger *slog.Logger, opts ...Option) *Reducer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Reducer{analyzer: an, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce computes the index of f(xVar, yVar) on rect as the minimum over
// all boundary segments. Segment failures are recorded on the segment and
// do not stop the others; the returned error is reserved for invalid input
// and cancellation of ctx.
func (r *Reducer) Reduce(ctx context.Context, f expr.Expr, xVar, yVar string, rect Rect, s Settings) (*Result, error) {
	if err := rect.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if xVar == yVar {
		return nil, fmt.Errorf("%w: variables must differ, got %q twice", robust.ErrInvalidSettings, xVar)
	}
	for v := range expr.Vars(f) {
		if v != xVar && v != yVar {
			return nil, fmt.Errorf("%w: %s", expr.ErrUnbound, v)
		}
	}

	start := time.Now()
	pts := Boundary(rect, s.M)
	segs := Enumerate(pts)
	res := &Result{
		M:        s.M,
		Points:   pts,
		Segments: make([]SegmentResult, len(segs)),
		Index:    robust.Unbounded,
	}
	for i, seg := range segs {
		res.Segments[i] = SegmentResult{ID: i, Segment: seg, Length: seg.Length()}
	}
	if len(segs) == 0 {
		r.logger.Info("no segments to evaluate", "m", s.M)
		return res, nil
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	param := freshName(f)
	r.logger.Debug("reducing", "f", f, "rect", rect, "m", s.M, "segments", len(segs), "workers", workers)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var g errgroup.Group
	g.SetLimit(workers)
	for i, seg := range segs {
		if runCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}
			sr := r.evaluate(runCtx, f, xVar, yVar, param, seg, s.Search)
			if sr.Err != nil && runCtx.Err() != nil && errors.Is(sr.Err, context.Canceled) {
				return nil
			}
			sr.ID = i
			sr.Evaluated = true
			res.Segments[i] = sr
			if r.observe != nil {
				r.observe(sr)
			}
			if sr.Err != nil {
				r.logger.Warn("segment failed", "segment", i, "u", seg.U, "v", seg.V, "error", sr.Err)
			} else if sr.Index < 0 {
				stop()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}
	for _, sr := range res.Segments {
		if !sr.Evaluated {
			continue
		}
		res.Evaluated++
		if sr.Err != nil {
			res.Failed++
			continue
		}
		res.Index = robust.Min(res.Index, sr.Index)
	}
	res.ShortCircuited = res.Evaluated < len(segs)
	res.Elapsed = time.Since(start)
	r.logger.Debug("reduced", "index", res.Index, "evaluated", res.Evaluated, "failed", res.Failed,
		"short_circuited", res.ShortCircuited, "elapsed", res.Elapsed)
	return res, nil
}

// evaluate runs Algorithm 1 on f restricted to seg, parametrised by arc
// length t in [0, |uv|].
func (r *Reducer) evaluate(ctx context.Context, f expr.Expr, xVar, yVar, t string, seg Segment, s robust.SearchSettings) SegmentResult {
	start := time.Now()
	length := seg.Length()
	sr := SegmentResult{Segment: seg, Length: length}

	g := Restrict(r.analyzer.Engine(), f, xVar, yVar, t, seg)
	sr.Index, sr.Err = r.analyzer.Search(ctx, g, t, 0, length, s)
	sr.Elapsed = time.Since(start)
	return sr
}
