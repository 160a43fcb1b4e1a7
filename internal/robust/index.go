package robust

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Index is a robustness index: a finite non-negative bound or ±∞.
type Index float64

var (
	// Unbounded means f is convex on the whole interval.
	Unbounded = Index(math.Inf(1))
	// NonRobust means no positive bound makes f convex.
	NonRobust = Index(math.Inf(-1))
)

func (i Index) Float64() float64 { return float64(i) }

func (i Index) IsUnbounded() bool { return math.IsInf(float64(i), 1) }

func (i Index) IsNonRobust() bool { return math.IsInf(float64(i), -1) }

func (i Index) IsFinite() bool {
	return !math.IsInf(float64(i), 0) && !math.IsNaN(float64(i))
}

// Min returns the smaller of two indices.
func Min(a, b Index) Index {
	if b < a {
		return b
	}
	return a
}

func (i Index) String() string {
	switch {
	case i.IsUnbounded():
		return "oo"
	case i.IsNonRobust():
		return "-oo"
	}
	return strconv.FormatFloat(float64(i), 'f', -1, 64)
}

func (i Index) MarshalText() ([]byte, error) {
	if math.IsNaN(float64(i)) {
		return nil, fmt.Errorf("robust: cannot marshal NaN index")
	}
	return []byte(i.String()), nil
}

func (i *Index) UnmarshalText(text []byte) error {
	idx, err := ParseIndex(string(text))
	if err != nil {
		return err
	}
	*i = idx
	return nil
}

// ParseIndex reads the notation produced by String. "inf" and "+oo" are
// accepted as well.
func ParseIndex(s string) (Index, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oo", "+oo", "inf", "+inf":
		return Unbounded, nil
	case "-oo", "-inf":
		return NonRobust, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("robust: invalid index %q", s)
	}
	return Index(v), nil
}
