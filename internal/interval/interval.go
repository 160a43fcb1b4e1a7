package interval

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrDegenerate reports bounds that do not describe a usable interval.
var ErrDegenerate = errors.New("interval: degenerate bounds")

// Interval is a real range whose ends may independently be open or closed.
// The zero value is the closed degenerate interval [0, 0].
type Interval struct {
	Lo, Hi         float64
	LoOpen, HiOpen bool
}

func Closed(a, b float64) Interval { return Interval{Lo: a, Hi: b} }

func Open(a, b float64) Interval { return Interval{Lo: a, Hi: b, LoOpen: true, HiOpen: true} }

func Point(p float64) Interval { return Interval{Lo: p, Hi: p} }

// Validate rejects inverted or non-finite bounds before any computation
// touches them. a == b is accepted as a single point.
func Validate(a, b float64) error {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return fmt.Errorf("%w: non-finite bounds [%g, %g]", ErrDegenerate, a, b)
	}
	if a > b {
		return fmt.Errorf("%w: lower bound %g exceeds upper bound %g", ErrDegenerate, a, b)
	}
	return nil
}

func (i Interval) IsEmpty() bool {
	if math.IsNaN(i.Lo) || math.IsNaN(i.Hi) || i.Lo > i.Hi {
		return true
	}
	if i.Lo == i.Hi {
		return i.LoOpen || i.HiOpen
	}
	return false
}

func (i Interval) IsPoint() bool {
	return !i.IsEmpty() && i.Lo == i.Hi
}

func (i Interval) Length() float64 {
	if i.IsEmpty() {
		return 0
	}
	return i.Hi - i.Lo
}

func (i Interval) Contains(x float64) bool {
	if i.IsEmpty() {
		return false
	}
	if x < i.Lo || x > i.Hi {
		return false
	}
	if x == i.Lo && i.LoOpen {
		return false
	}
	if x == i.Hi && i.HiOpen {
		return false
	}
	return true
}

// Closure returns the interval with both ends closed.
func (i Interval) Closure() Interval {
	return Interval{Lo: i.Lo, Hi: i.Hi}
}

// Interior returns the interval with both ends open.
func (i Interval) Interior() Interval {
	return Interval{Lo: i.Lo, Hi: i.Hi, LoOpen: true, HiOpen: true}
}

func (i Interval) Intersect(o Interval) Interval {
	out := i
	switch {
	case o.Lo > out.Lo:
		out.Lo, out.LoOpen = o.Lo, o.LoOpen
	case o.Lo == out.Lo:
		out.LoOpen = out.LoOpen || o.LoOpen
	}
	switch {
	case o.Hi < out.Hi:
		out.Hi, out.HiOpen = o.Hi, o.HiOpen
	case o.Hi == out.Hi:
		out.HiOpen = out.HiOpen || o.HiOpen
	}
	return out
}

// Split cuts the interval at x into [Lo, x] and [x, Hi]. Both halves are
// closed at x; the outer ends keep their openness.
func (i Interval) Split(x float64) (Interval, Interval) {
	left := Interval{Lo: i.Lo, Hi: x, LoOpen: i.LoOpen}
	right := Interval{Lo: x, Hi: i.Hi, HiOpen: i.HiOpen}
	return left, right
}

func (i Interval) String() string {
	if i.IsEmpty() {
		return "∅"
	}
	if i.IsPoint() {
		return "{" + formatBound(i.Lo) + "}"
	}
	lo, hi := "[", "]"
	if i.LoOpen {
		lo = "("
	}
	if i.HiOpen {
		hi = ")"
	}
	return lo + formatBound(i.Lo) + ", " + formatBound(i.Hi) + hi
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "oo"
	case math.IsInf(v, -1):
		return "-oo"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
