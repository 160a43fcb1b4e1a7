package metrics

import (
	"math"

	"github.com/san-kum/robustidx/internal/segments"
)

// SegmentStats accumulates per-segment outcomes of a reduction run.
type SegmentStats struct {
	name       string
	evaluated  int
	failed     int
	unbounded  int
	nonRobust  int
	finiteSum  float64
	finiteSeen int
	slowest    float64
}

func NewSegmentStats() *SegmentStats {
	return &SegmentStats{name: "segments"}
}

func (s *SegmentStats) Name() string { return s.name }

func (s *SegmentStats) Observe(sr segments.SegmentResult) {
	if !sr.Evaluated {
		return
	}
	s.evaluated++
	s.slowest = math.Max(s.slowest, sr.Elapsed.Seconds())
	switch {
	case sr.Err != nil:
		s.failed++
	case sr.Index.IsUnbounded():
		s.unbounded++
	case sr.Index.IsNonRobust():
		s.nonRobust++
	default:
		s.finiteSum += sr.Index.Float64()
		s.finiteSeen++
	}
}

// ObserveAll feeds every segment of res.
func (s *SegmentStats) ObserveAll(res *segments.Result) {
	for _, sr := range res.Segments {
		s.Observe(sr)
	}
}

// Value is the fraction of successful segments that are not non-robust.
func (s *SegmentStats) Value() float64 {
	ok := s.evaluated - s.failed
	if ok == 0 {
		return 1.0
	}
	return float64(ok-s.nonRobust) / float64(ok)
}

// MeanFinite averages the finite segment indices, NaN when there are none.
func (s *SegmentStats) MeanFinite() float64 {
	if s.finiteSeen == 0 {
		return math.NaN()
	}
	return s.finiteSum / float64(s.finiteSeen)
}

func (s *SegmentStats) Evaluated() int   { return s.evaluated }
func (s *SegmentStats) Failed() int      { return s.failed }
func (s *SegmentStats) Unbounded() int   { return s.unbounded }
func (s *SegmentStats) NonRobust() int   { return s.nonRobust }
func (s *SegmentStats) Slowest() float64 { return s.slowest }

func (s *SegmentStats) Reset() {
	*s = SegmentStats{name: s.name}
}
