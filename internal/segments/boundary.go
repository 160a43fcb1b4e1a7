package segments

import (
	"fmt"
	"math"

	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/robust"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Rect is the axis-aligned domain [Xmin, Xmax] x [Ymin, Ymax].
type Rect struct {
	Xmin float64 `yaml:"xmin" json:"xmin"`
	Xmax float64 `yaml:"xmax" json:"xmax"`
	Ymin float64 `yaml:"ymin" json:"ymin"`
	Ymax float64 `yaml:"ymax" json:"ymax"`
}

// Validate requires both sides to have positive length.
func (r Rect) Validate() error {
	for _, side := range [][2]float64{{r.Xmin, r.Xmax}, {r.Ymin, r.Ymax}} {
		if err := interval.Validate(side[0], side[1]); err != nil {
			return fmt.Errorf("%w: %v", robust.ErrDegenerateInput, err)
		}
		if side[0] == side[1] {
			return fmt.Errorf("%w: rectangle %v has an empty side", robust.ErrDegenerateInput, r)
		}
	}
	return nil
}

func (r Rect) Width() float64     { return r.Xmax - r.Xmin }
func (r Rect) Height() float64    { return r.Ymax - r.Ymin }
func (r Rect) Perimeter() float64 { return 2 * (r.Width() + r.Height()) }

// At walks the boundary by arc length s from (Xmin, Ymin) through
// (Xmax, Ymin), (Xmax, Ymax) and (Xmin, Ymax). s wraps modulo the perimeter.
func (r Rect) At(s float64) Point {
	w, h := r.Width(), r.Height()
	s = math.Mod(s, r.Perimeter())
	if s < 0 {
		s += r.Perimeter()
	}
	switch {
	case s < w:
		return Point{r.Xmin + s, r.Ymin}
	case s < w+h:
		return Point{r.Xmax, r.Ymin + (s - w)}
	case s < 2*w+h:
		return Point{r.Xmax - (s - w - h), r.Ymax}
	default:
		return Point{r.Xmin, r.Ymax - (s - 2*w - h)}
	}
}

// Boundary returns 2^m boundary points spaced evenly by arc length, starting
// at (Xmin, Ymin).
func Boundary(r Rect, m int) []Point {
	n := 1 << m
	step := r.Perimeter() / float64(n)
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = r.At(float64(i) * step)
	}
	return pts
}

// Segment joins two boundary points.
type Segment struct {
	U Point `json:"u"`
	V Point `json:"v"`
}

func (s Segment) Length() float64 { return math.Hypot(s.V.X-s.U.X, s.V.Y-s.U.Y) }

func (s Segment) String() string { return s.U.String() + "-" + s.V.String() }

// Enumerate lists every pair (i < j) of points in lexicographic order.
func Enumerate(pts []Point) []Segment {
	segs := make([]Segment, 0, Pairs(len(pts)))
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			segs = append(segs, Segment{U: pts[i], V: pts[j]})
		}
	}
	return segs
}

// Pairs is the number of segments between n points, n(n-1)/2.
func Pairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
