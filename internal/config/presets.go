package config

import (
	"sort"

	"github.com/san-kum/robustidx/internal/segments"
)

// Preset is a named problem with the settings it is usually run with.
type Preset struct {
	Description string
	Problem     ProblemConfig
	Gamma       float64 // 0 keeps the configured step
	M           int     // 0 keeps the configured exponent
}

var Presets = map[string]Preset{
	"alg1-example": {
		Description: "Search example on [0, 1] with a coarse step",
		Problem:     ProblemConfig{Expr: "x**3/3 - 2*x**2 + 2*x", Var: "x", A: 0, B: 1},
		Gamma:       0.1,
	},
	"alg2-example": {
		Description: "Closed-form example on [0, 1], index 1",
		Problem:     ProblemConfig{Expr: "x**3/3 - 2*x**2 + 4*x", Var: "x", A: 0, B: 1},
	},
	"f7": {
		Description: "log(x^2 + 2y^2) on the square [1, 2] x [1, 2]",
		Problem: ProblemConfig{
			Expr: "log(x**2 + 2*y**2)", XVar: "x", YVar: "y",
			Rect: segments.Rect{Xmin: 1, Xmax: 2, Ymin: 1, Ymax: 2},
		},
		M: 3,
	},
	"paraboloid": {
		Description: "Convex bowl on the unit square, index oo",
		Problem: ProblemConfig{
			Expr: "x**2 + y**2", XVar: "x", YVar: "y",
			Rect: segments.Rect{Xmin: 0, Xmax: 1, Ymin: 0, Ymax: 1},
		},
		M: 2,
	},
	"cap": {
		Description: "Concave cap on [-1, 1], not quasiconvex",
		Problem:     ProblemConfig{Expr: "-x**2", Var: "x", A: -1, B: 1},
	},
}

// GetPreset returns the default config with the named preset applied, or
// nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.ApplyTo(cfg)
	return cfg
}

// ApplyTo overlays the preset on cfg. Variable names left empty keep the
// configured ones.
func (p Preset) ApplyTo(cfg *Config) {
	prob := p.Problem
	if prob.Var == "" {
		prob.Var = cfg.Problem.Var
	}
	if prob.XVar == "" {
		prob.XVar = cfg.Problem.XVar
	}
	if prob.YVar == "" {
		prob.YVar = cfg.Problem.YVar
	}
	if prob.Rect == (segments.Rect{}) {
		prob.Rect = cfg.Problem.Rect
	}
	if prob.A == 0 && prob.B == 0 {
		prob.A, prob.B = cfg.Problem.A, cfg.Problem.B
	}
	cfg.Problem = prob
	if p.Gamma > 0 {
		cfg.Search.Gamma = p.Gamma
	}
	if p.M > 0 {
		cfg.Segments.M = p.M
	}
}

// ListPresets returns the preset names in alphabetical order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
