package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/segments"
)

const namespace = "robustidx"

var (
	// oracleCalls counts engine calls. Labels: op
	oracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "oracle",
		Name:      "calls_total",
		Help:      "Total calculus engine calls by operation",
	}, []string{"op"})

	// oracleErrors counts engine calls that returned an error. Labels: op
	oracleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "oracle",
		Name:      "errors_total",
		Help:      "Total failed calculus engine calls by operation",
	}, []string{"op"})

	// oracleLatency measures engine call latency. Labels: op
	oracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "oracle",
		Name:      "call_duration_seconds",
		Help:      "Calculus engine call latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"op"})

	// indexRuns counts index computations. Labels: algorithm, outcome
	indexRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "runs_total",
		Help:      "Total robustness index computations by algorithm and outcome",
	}, []string{"algorithm", "outcome"})

	// indexDuration measures index computation time. Labels: algorithm
	indexDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "duration_seconds",
		Help:      "Robustness index computation time in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}, []string{"algorithm"})

	// segmentResults counts evaluated boundary segments. Labels: outcome
	segmentResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "segments",
		Name:      "evaluated_total",
		Help:      "Total boundary segments evaluated by outcome",
	}, []string{"outcome"})

	// segmentDuration measures the per-segment search time.
	segmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "segments",
		Name:      "duration_seconds",
		Help:      "Per-segment search time in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Outcome classifies a computation for the outcome label.
func Outcome(idx robust.Index, err error) string {
	switch {
	case err != nil:
		return "error"
	case idx.IsUnbounded():
		return "unbounded"
	case idx.IsNonRobust():
		return "non_robust"
	}
	return "finite"
}

// ObserveRun records one index computation.
func ObserveRun(algorithm string, idx robust.Index, err error, elapsed time.Duration) {
	indexRuns.WithLabelValues(algorithm, Outcome(idx, err)).Inc()
	indexDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}

// ObserveSegment records one evaluated segment. It matches the observer
// signature expected by segments.WithObserver.
func ObserveSegment(sr segments.SegmentResult) {
	segmentResults.WithLabelValues(Outcome(sr.Index, sr.Err)).Inc()
	segmentDuration.Observe(sr.Elapsed.Seconds())
}

// WriteTextfile dumps the default registry in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
