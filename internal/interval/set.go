package interval

import (
	"math"
	"sort"
	"strings"
)

// Set is a sorted union of pairwise disjoint, non-empty intervals. Isolated
// points are stored as degenerate closed intervals. Solution sets returned
// by the oracle use this type.
type Set struct {
	parts []Interval
}

func Empty() Set { return Set{} }

func Of(i Interval) Set { return NewSet(i) }

// NewSet normalizes parts: empties are dropped, the rest sorted and
// overlapping or touching parts merged.
func NewSet(parts ...Interval) Set {
	kept := make([]Interval, 0, len(parts))
	for _, p := range parts {
		if !p.IsEmpty() {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return Set{}
	}

	sort.SliceStable(kept, func(a, b int) bool {
		if kept[a].Lo != kept[b].Lo {
			return kept[a].Lo < kept[b].Lo
		}
		return !kept[a].LoOpen && kept[b].LoOpen
	})

	merged := []Interval{kept[0]}
	for _, p := range kept[1:] {
		last := &merged[len(merged)-1]
		if p.Lo > last.Hi || (p.Lo == last.Hi && p.LoOpen && last.HiOpen) {
			merged = append(merged, p)
			continue
		}
		switch {
		case p.Hi > last.Hi:
			last.Hi, last.HiOpen = p.Hi, p.HiOpen
		case p.Hi == last.Hi:
			last.HiOpen = last.HiOpen && p.HiOpen
		}
	}
	return Set{parts: merged}
}

func (s Set) IsEmpty() bool { return len(s.parts) == 0 }

// Len is the number of disjoint components.
func (s Set) Len() int { return len(s.parts) }

func (s Set) Intervals() []Interval {
	out := make([]Interval, len(s.parts))
	copy(out, s.parts)
	return out
}

// Inf is +Inf for the empty set.
func (s Set) Inf() float64 {
	if s.IsEmpty() {
		return math.Inf(1)
	}
	return s.parts[0].Lo
}

// Sup is -Inf for the empty set.
func (s Set) Sup() float64 {
	if s.IsEmpty() {
		return math.Inf(-1)
	}
	return s.parts[len(s.parts)-1].Hi
}

// IsFinite reports whether every component is a single point.
func (s Set) IsFinite() bool {
	for _, p := range s.parts {
		if !p.IsPoint() {
			return false
		}
	}
	return true
}

// Points lists the elements of a finite set in ascending order. ok is false
// when some component is a proper interval.
func (s Set) Points() (pts []float64, ok bool) {
	if !s.IsFinite() {
		return nil, false
	}
	pts = make([]float64, len(s.parts))
	for i, p := range s.parts {
		pts[i] = p.Lo
	}
	return pts, true
}

func (s Set) Contains(x float64) bool {
	for _, p := range s.parts {
		if p.Contains(x) {
			return true
		}
	}
	return false
}

func (s Set) Intersect(i Interval) Set {
	out := make([]Interval, 0, len(s.parts))
	for _, p := range s.parts {
		out = append(out, p.Intersect(i))
	}
	return NewSet(out...)
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "∅"
	}
	parts := make([]string, len(s.parts))
	for i, p := range s.parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ∪ ")
}
