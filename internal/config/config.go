package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/robustidx/internal/oracle"
	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/segments"
)

const (
	DefaultVar      = "x"
	DefaultYVar     = "y"
	DefaultM        = 3
	DefaultDataDir  = "runs"
	DefaultLogLevel = "info"
)

type Config struct {
	Problem  ProblemConfig         `yaml:"problem"`
	Search   robust.SearchSettings `yaml:"search"`
	Segments SegmentsConfig        `yaml:"segments"`
	Oracle   OracleConfig          `yaml:"oracle"`
	Logging  LoggingConfig         `yaml:"logging"`
	Storage  StorageConfig         `yaml:"storage"`
	Metrics  MetricsConfig         `yaml:"metrics"`
}

// ProblemConfig names the function and its domain. A and B bound the 1D
// commands; Rect is used by the segment reduction.
type ProblemConfig struct {
	Expr string        `yaml:"expr"`
	Var  string        `yaml:"var"`
	A    float64       `yaml:"a"`
	B    float64       `yaml:"b"`
	XVar string        `yaml:"x_var"`
	YVar string        `yaml:"y_var"`
	Rect segments.Rect `yaml:"rect"`
}

type SegmentsConfig struct {
	M       int `yaml:"m"`
	Workers int `yaml:"workers"`
}

type OracleConfig struct {
	Samples           int     `yaml:"samples"`
	Tolerance         float64 `yaml:"tolerance"`
	RootTolerance     float64 `yaml:"root_tolerance"`
	MaxRootIterations int     `yaml:"max_root_iterations"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	Save    bool   `yaml:"save"`
}

type MetricsConfig struct {
	File string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem: ProblemConfig{
			Var:  DefaultVar,
			A:    0,
			B:    1,
			XVar: DefaultVar,
			YVar: DefaultYVar,
			Rect: segments.Rect{Xmin: 0, Xmax: 1, Ymin: 0, Ymax: 1},
		},
		Search:   robust.DefaultSearchSettings(),
		Segments: SegmentsConfig{M: DefaultM},
		Oracle: OracleConfig{
			Samples:           oracle.DefaultSamples,
			Tolerance:         oracle.DefaultTolerance,
			RootTolerance:     oracle.DefaultRootTol,
			MaxRootIterations: oracle.DefaultMaxRootIter,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: "text"},
		Storage: StorageConfig{DataDir: DefaultDataDir},
	}
}

// Load reads path over the defaults and applies ROBUSTIDX_* environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func applyEnv(cfg *Config) {
	envFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envFloat("ROBUSTIDX_GAMMA", &cfg.Search.Gamma)
	envFloat("ROBUSTIDX_ZMIN", &cfg.Search.Zmin)
	envFloat("ROBUSTIDX_ALPHA0", &cfg.Search.Alpha0)
	envInt("ROBUSTIDX_MAX_ITERATIONS", &cfg.Search.MaxIterations)
	envInt("ROBUSTIDX_M", &cfg.Segments.M)
	envInt("ROBUSTIDX_WORKERS", &cfg.Segments.Workers)
	envInt("ROBUSTIDX_SAMPLES", &cfg.Oracle.Samples)
	envFloat("ROBUSTIDX_TOLERANCE", &cfg.Oracle.Tolerance)
	envString("ROBUSTIDX_LOG_LEVEL", &cfg.Logging.Level)
	envString("ROBUSTIDX_LOG_FORMAT", &cfg.Logging.Format)
	envString("ROBUSTIDX_DATA_DIR", &cfg.Storage.DataDir)
	envString("ROBUSTIDX_METRICS_FILE", &cfg.Metrics.File)
	if v := os.Getenv("ROBUSTIDX_SAVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Save = b
		}
	}
}

func (c *Config) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.SegmentSettings().Validate(); err != nil {
		return err
	}
	if c.Oracle.Samples < 2 {
		return fmt.Errorf("oracle samples must be at least 2, got %d", c.Oracle.Samples)
	}
	if c.Oracle.Tolerance <= 0 || c.Oracle.RootTolerance <= 0 {
		return fmt.Errorf("oracle tolerances must be positive")
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (want json or text)", c.Logging.Format)
	}
	return nil
}

func (c *Config) OracleSettings() oracle.Settings {
	return oracle.Settings{
		Samples:     c.Oracle.Samples,
		Tol:         c.Oracle.Tolerance,
		RootTol:     c.Oracle.RootTolerance,
		MaxRootIter: c.Oracle.MaxRootIterations,
	}
}

func (c *Config) SegmentSettings() segments.Settings {
	return segments.Settings{M: c.Segments.M, Workers: c.Segments.Workers, Search: c.Search}
}

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q: %w", l.Level, err)
	}
	return lvl, nil
}
