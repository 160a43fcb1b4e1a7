package metrics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/oracle"
	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/segments"
)

func TestInstrumentCountsCalls(t *testing.T) {
	e := Instrument(oracle.NewNumeric(oracle.DefaultSettings()))
	solvesBefore := testutil.ToFloat64(oracleCalls.WithLabelValues("solve"))
	errorsBefore := testutil.ToFloat64(oracleErrors.WithLabelValues("evaluate"))

	f := expr.MustParse("x**2 - 0.25")
	if _, err := e.Solve(oracle.Zero(f), "x", interval.Of(interval.Closed(-1, 1))); err != nil {
		t.Fatal(err)
	}
	if _, err := e.EvaluateAt(expr.MustParse("log(x)"), "x", -1); err == nil {
		t.Fatal("expected evaluation of log(-1) to fail")
	}

	if got := testutil.ToFloat64(oracleCalls.WithLabelValues("solve")) - solvesBefore; got != 1 {
		t.Errorf("solve counter advanced by %v, want 1", got)
	}
	if got := testutil.ToFloat64(oracleErrors.WithLabelValues("evaluate")) - errorsBefore; got != 1 {
		t.Errorf("evaluate error counter advanced by %v, want 1", got)
	}
	calls := e.Calls()
	if calls["solve"] != 1 || calls["evaluate"] != 1 || e.Total() != 2 {
		t.Errorf("unexpected per-engine calls %v", calls)
	}
}

func TestInstrumentedAnalyzer(t *testing.T) {
	e := Instrument(oracle.NewNumeric(oracle.DefaultSettings()))
	an := robust.New(e, nil)

	ok, err := an.IsQuasiconvex(expr.MustParse("x**3"), "x", -1, 1)
	if err != nil || !ok {
		t.Fatalf("IsQuasiconvex = %v, %v", ok, err)
	}
	if e.Calls()["solve"] != 0 {
		t.Errorf("monotone function should not need solving, got %v", e.Calls())
	}
	if e.Calls()["is_monotone"] == 0 {
		t.Error("expected monotonicity checks to be counted")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		idx  robust.Index
		err  error
		want string
	}{
		{robust.Unbounded, nil, "unbounded"},
		{robust.NonRobust, nil, "non_robust"},
		{0.5, nil, "finite"},
		{0, errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.idx, tt.err); got != tt.want {
			t.Errorf("Outcome(%v, %v) = %q, want %q", tt.idx, tt.err, got, tt.want)
		}
	}
}

func TestObserveRunAndSegment(t *testing.T) {
	before := testutil.ToFloat64(indexRuns.WithLabelValues("closed_form", "finite"))
	ObserveRun("closed_form", 1, nil, time.Millisecond)
	if got := testutil.ToFloat64(indexRuns.WithLabelValues("closed_form", "finite")) - before; got != 1 {
		t.Errorf("runs counter advanced by %v, want 1", got)
	}

	before = testutil.ToFloat64(segmentResults.WithLabelValues("non_robust"))
	ObserveSegment(segments.SegmentResult{Index: robust.NonRobust, Evaluated: true})
	if got := testutil.ToFloat64(segmentResults.WithLabelValues("non_robust")) - before; got != 1 {
		t.Errorf("segment counter advanced by %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	ObserveRun("search", robust.Unbounded, nil, time.Millisecond)
	path := filepath.Join(t.TempDir(), "robustidx.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "robustidx_index_runs_total") {
		t.Error("textfile is missing the runs counter")
	}
}

func TestSegmentStats(t *testing.T) {
	s := NewSegmentStats()
	for _, sr := range []segments.SegmentResult{
		{Index: robust.Unbounded, Evaluated: true},
		{Index: 0.4, Evaluated: true, Elapsed: 2 * time.Second},
		{Index: 0.6, Evaluated: true},
		{Index: robust.NonRobust, Evaluated: true},
		{Err: robust.ErrIndeterminate, Evaluated: true},
		{Index: robust.NonRobust},
	} {
		s.Observe(sr)
	}

	if s.Evaluated() != 5 || s.Failed() != 1 || s.NonRobust() != 1 || s.Unbounded() != 1 {
		t.Errorf("unexpected tallies: evaluated %d failed %d non-robust %d unbounded %d",
			s.Evaluated(), s.Failed(), s.NonRobust(), s.Unbounded())
	}
	if math.Abs(s.Value()-0.75) > 1e-12 {
		t.Errorf("robust fraction = %v, want 0.75", s.Value())
	}
	if math.Abs(s.MeanFinite()-0.5) > 1e-12 {
		t.Errorf("mean finite = %v, want 0.5", s.MeanFinite())
	}
	if s.Slowest() != 2 {
		t.Errorf("slowest = %v, want 2", s.Slowest())
	}

	s.Reset()
	if s.Evaluated() != 0 || s.Value() != 1.0 || !math.IsNaN(s.MeanFinite()) {
		t.Error("expected empty stats after reset")
	}
	if s.Name() != "segments" {
		t.Errorf("name lost on reset: %q", s.Name())
	}
}
