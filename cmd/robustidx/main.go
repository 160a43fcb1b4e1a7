package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/robustidx/internal/config"
	"github.com/san-kum/robustidx/internal/report"
)

var (
	dataDir     string
	configFile  string
	preset      string
	save        bool
	logLevel    string
	logFormat   string
	metricsFile string
	samples     int
	tolerance   float64

	variable string
	a, b     float64

	gamma    float64
	zmin     float64
	alpha0   float64
	maxIter  int
	gammas   []float64
	steps    int
	factor   float64
	vars     []string
	xmin     float64
	xmax     float64
	ymin     float64
	ymax     float64
	exponent int
	workers  int
	limit    int
	asJSON   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		report.New(os.Stderr).Error(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "robustidx",
		Short:         "robustness index of quasiconvex functions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset problem")
	pf.BoolVar(&save, "save", false, "store the run under the data directory")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	pf.StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	pf.IntVar(&samples, "samples", 0, "oracle samples per interval")
	pf.Float64Var(&tolerance, "tol", 0, "oracle zero tolerance")

	searchCmd := &cobra.Command{
		Use:   "search [expr]",
		Short: "robustness index by level-set search",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSearch,
	}
	addIntervalFlags(searchCmd)
	addSearchFlags(searchCmd)

	closedCmd := &cobra.Command{
		Use:   "closed [expr]",
		Short: "robustness index in closed form",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runClosedForm,
	}
	addIntervalFlags(closedCmd)

	quasiCmd := &cobra.Command{
		Use:   "quasiconvex [expr]",
		Short: "check quasiconvexity on an interval",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runQuasiconvex,
	}
	addIntervalFlags(quasiCmd)

	segmentsCmd := &cobra.Command{
		Use:   "segments [expr]",
		Short: "lower bound for a two-variable function over boundary segments",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSegments,
	}
	addSearchFlags(segmentsCmd)
	segmentsCmd.Flags().StringSliceVar(&vars, "vars", []string{config.DefaultVar, config.DefaultYVar}, "variable names x,y")
	segmentsCmd.Flags().Float64Var(&xmin, "xmin", 0, "rectangle x lower bound")
	segmentsCmd.Flags().Float64Var(&xmax, "xmax", 1, "rectangle x upper bound")
	segmentsCmd.Flags().Float64Var(&ymin, "ymin", 0, "rectangle y lower bound")
	segmentsCmd.Flags().Float64Var(&ymax, "ymax", 1, "rectangle y upper bound")
	segmentsCmd.Flags().IntVar(&exponent, "m", config.DefaultM, "boundary holds 2^m points")
	segmentsCmd.Flags().IntVar(&workers, "workers", 0, "parallel segment searches (0 = all CPUs)")
	segmentsCmd.Flags().IntVar(&limit, "limit", 32, "max segment rows to print (0 = all)")

	compareCmd := &cobra.Command{
		Use:   "compare [expr]",
		Short: "compare the search against the closed form over several steps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCompare,
	}
	addIntervalFlags(compareCmd)
	addSearchFlags(compareCmd)
	compareCmd.Flags().Float64SliceVar(&gammas, "gammas", nil, "explicit step sizes")
	compareCmd.Flags().IntVar(&steps, "steps", 4, "number of geometric steps when --gammas is unset")
	compareCmd.Flags().Float64Var(&factor, "factor", 0.5, "geometric step ratio")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(searchCmd, closedCmd, quasiCmd, segmentsCmd, compareCmd, listCmd, showCmd, presetsCmd)
	return rootCmd
}

func addIntervalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&variable, "var", config.DefaultVar, "variable name")
	cmd.Flags().Float64Var(&a, "a", 0, "interval lower bound")
	cmd.Flags().Float64Var(&b, "b", 1, "interval upper bound")
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&gamma, "gamma", 0, "level step")
	cmd.Flags().Float64Var(&zmin, "zmin", 0, "lower limit for shrinking alpha")
	cmd.Flags().Float64Var(&alpha0, "alpha0", 0, "initial level")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "search iteration cap")
}
