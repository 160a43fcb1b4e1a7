package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/robustidx/internal/config"
	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/metrics"
	"github.com/san-kum/robustidx/internal/oracle"
	"github.com/san-kum/robustidx/internal/report"
	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/segments"
	"github.com/san-kum/robustidx/internal/storage"
)

// app carries what every computing command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *metrics.Engine
	analyzer *robust.Analyzer
	store    *storage.Store
	out      *report.Printer
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	engine := metrics.Instrument(oracle.NewNumeric(cfg.OracleSettings()))
	return &app{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		analyzer: robust.New(engine, logger),
		store:    storage.New(cfg.Storage.DataDir),
		out:      report.New(cmd.OutOrStdout()),
	}, nil
}

// loadConfig layers defaults, the config file, ROBUSTIDX_* variables, the
// preset and finally explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.ApplyTo(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("save") {
		cfg.Storage.Save = save
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = metricsFile
	}
	if flags.Changed("samples") {
		cfg.Oracle.Samples = samples
	}
	if flags.Changed("tol") {
		cfg.Oracle.Tolerance = tolerance
	}

	if flags.Changed("var") {
		cfg.Problem.Var = variable
	}
	if flags.Changed("a") {
		cfg.Problem.A = a
	}
	if flags.Changed("b") {
		cfg.Problem.B = b
	}

	if flags.Changed("gamma") {
		cfg.Search.Gamma = gamma
	}
	if flags.Changed("zmin") {
		cfg.Search.Zmin = zmin
	}
	if flags.Changed("alpha0") {
		cfg.Search.Alpha0 = alpha0
	}
	if flags.Changed("max-iter") {
		cfg.Search.MaxIterations = maxIter
	}

	if flags.Changed("vars") {
		if len(vars) != 2 {
			return nil, fmt.Errorf("--vars wants two names, got %d", len(vars))
		}
		cfg.Problem.XVar, cfg.Problem.YVar = vars[0], vars[1]
	}
	rect := &cfg.Problem.Rect
	if flags.Changed("xmin") {
		rect.Xmin = xmin
	}
	if flags.Changed("xmax") {
		rect.Xmax = xmax
	}
	if flags.Changed("ymin") {
		rect.Ymin = ymin
	}
	if flags.Changed("ymax") {
		rect.Ymax = ymax
	}
	if flags.Changed("m") {
		cfg.Segments.M = exponent
	}
	if flags.Changed("workers") {
		cfg.Segments.Workers = workers
	}
	return cfg, nil
}

func newLogger(lc config.LoggingConfig) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

// function parses the expression argument, falling back to the configured one.
func (ap *app) function(args []string) (expr.Expr, error) {
	src := ap.cfg.Problem.Expr
	if len(args) > 0 {
		src = args[0]
	}
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("no expression given (pass one or use --preset/--config)")
	}
	f, err := expr.Parse(src)
	if err != nil {
		return nil, err
	}
	ap.cfg.Problem.Expr = src
	return f, nil
}

func (ap *app) metadata(command string, f expr.Expr, names []string, elapsed time.Duration, err error) storage.RunMetadata {
	meta := storage.RunMetadata{
		Command:     command,
		Expr:        f.String(),
		Vars:        names,
		Search:      ap.cfg.Search,
		Elapsed:     elapsed.Seconds(),
		OracleCalls: ap.engine.Calls(),
	}
	if err != nil {
		meta.Error = err.Error()
	}
	return meta
}

func (ap *app) interval() *storage.Interval {
	return &storage.Interval{A: ap.cfg.Problem.A, B: ap.cfg.Problem.B}
}

// result prints the common tail of a computation. Errors are left to main.
func (ap *app) result(idx robust.Index, err error, elapsed time.Duration) {
	if err == nil {
		ap.out.Index("index", idx)
	}
	ap.out.Elapsed(elapsed)
	ap.out.Calls(ap.engine.Calls())
}

// finish stores the run and flushes metrics as configured, then hands back
// the computation error.
func (ap *app) finish(meta storage.RunMetadata, segs []storage.SegmentRecord, runErr error) error {
	if ap.cfg.Storage.Save {
		if err := ap.store.Init(); err != nil {
			return err
		}
		id, err := ap.store.Save(meta, segs)
		if err != nil {
			return err
		}
		ap.out.Field("run id", id)
	}
	if path := ap.cfg.Metrics.File; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			ap.logger.Warn("metrics write failed", "path", path, "error", err)
		}
	}
	return runErr
}

func (ap *app) reducer() *segments.Reducer {
	return segments.NewReducer(ap.analyzer, ap.logger, segments.WithObserver(metrics.ObserveSegment))
}
