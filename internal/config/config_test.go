package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"testing"

	"github.com/san-kum/robustidx/internal/robust"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ROBUSTIDX_GAMMA", "ROBUSTIDX_ZMIN", "ROBUSTIDX_ALPHA0", "ROBUSTIDX_MAX_ITERATIONS",
		"ROBUSTIDX_M", "ROBUSTIDX_WORKERS", "ROBUSTIDX_SAMPLES", "ROBUSTIDX_TOLERANCE",
		"ROBUSTIDX_LOG_LEVEL", "ROBUSTIDX_LOG_FORMAT", "ROBUSTIDX_DATA_DIR",
		"ROBUSTIDX_METRICS_FILE", "ROBUSTIDX_SAVE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Problem.Var != "x" {
		t.Errorf("expected var x, got %q", cfg.Problem.Var)
	}
	if cfg.Search.Gamma != 1e-2 {
		t.Errorf("expected gamma 0.01, got %v", cfg.Search.Gamma)
	}
	if cfg.Search.Zmin != 1e-323 {
		t.Errorf("expected zmin 1e-323, got %v", cfg.Search.Zmin)
	}
	if cfg.Search.Alpha0 != 0 {
		t.Errorf("expected alpha0 0, got %v", cfg.Search.Alpha0)
	}
	if cfg.Search.MaxIterations != robust.DefaultMaxIterations {
		t.Errorf("expected max iterations %d, got %d", robust.DefaultMaxIterations, cfg.Search.MaxIterations)
	}
	if cfg.Segments.M != DefaultM {
		t.Errorf("expected m %d, got %d", DefaultM, cfg.Segments.M)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "robustidx.yaml")
	err := os.WriteFile(path, []byte(`
problem:
  expr: "x**2 - y"
  rect: {xmin: -1, xmax: 1, ymin: 0, ymax: 2}
search:
  gamma: 0.05
segments:
  m: 4
logging:
  level: debug
  format: json
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("ROBUSTIDX_WORKERS", "3")
	t.Setenv("ROBUSTIDX_ZMIN", "1e-12")
	t.Setenv("ROBUSTIDX_M", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Problem.Expr != "x**2 - y" {
		t.Errorf("expected expr from file, got %q", cfg.Problem.Expr)
	}
	if cfg.Problem.Rect.Xmin != -1 || cfg.Problem.Rect.Ymax != 2 {
		t.Errorf("rect not loaded: %+v", cfg.Problem.Rect)
	}
	if cfg.Search.Gamma != 0.05 {
		t.Errorf("expected gamma 0.05, got %v", cfg.Search.Gamma)
	}
	if cfg.Search.Zmin != 1e-12 {
		t.Errorf("expected zmin from env, got %v", cfg.Search.Zmin)
	}
	// unset keys keep defaults
	if cfg.Search.MaxIterations != robust.DefaultMaxIterations {
		t.Errorf("expected default max iterations, got %d", cfg.Search.MaxIterations)
	}
	// unparsable env values are ignored
	if cfg.Segments.M != 4 {
		t.Errorf("expected m 4, got %d", cfg.Segments.M)
	}
	if cfg.Segments.Workers != 3 {
		t.Errorf("expected workers from env, got %d", cfg.Segments.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json format, got %q", cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("search: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := GetPreset("f7")
	if cfg == nil {
		t.Fatal("f7 preset missing")
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero gamma", func(c *Config) { c.Search.Gamma = 0 }},
		{"negative m", func(c *Config) { c.Segments.M = -1 }},
		{"huge m", func(c *Config) { c.Segments.M = 13 }},
		{"one sample", func(c *Config) { c.Oracle.Samples = 1 }},
		{"zero tolerance", func(c *Config) { c.Oracle.Tolerance = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("alg1-example")
	if cfg == nil {
		t.Fatal("alg1-example preset missing")
	}
	if cfg.Problem.Expr != "x**3/3 - 2*x**2 + 2*x" {
		t.Errorf("unexpected expr %q", cfg.Problem.Expr)
	}
	if cfg.Search.Gamma != 0.1 {
		t.Errorf("expected gamma 0.1, got %v", cfg.Search.Gamma)
	}
	if cfg.Problem.B != 1 {
		t.Errorf("expected b 1, got %v", cfg.Problem.B)
	}

	cfg = GetPreset("f7")
	if cfg == nil {
		t.Fatal("f7 preset missing")
	}
	if m := cfg.SegmentSettings().M; m != 3 {
		t.Errorf("expected m 3, got %d", m)
	}
	if cfg.Problem.Rect.Xmin != 1 {
		t.Errorf("expected xmin 1, got %v", cfg.Problem.Rect.Xmin)
	}
	if cfg.Problem.YVar != "y" {
		t.Errorf("expected y var, got %q", cfg.Problem.YVar)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	for _, want := range []string{"alg1-example", "alg2-example", "f7"} {
		if !slices.Contains(names, want) {
			t.Errorf("preset %q not listed", want)
		}
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("presets not sorted: %v", names)
	}
}

func TestOracleSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oracle.Samples = 64
	s := cfg.OracleSettings()
	if s.Samples != 64 {
		t.Errorf("expected 64 samples, got %d", s.Samples)
	}
	if s.Tol != cfg.Oracle.Tolerance {
		t.Errorf("expected tol %v, got %v", cfg.Oracle.Tolerance, s.Tol)
	}
}
