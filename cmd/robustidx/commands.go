package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/robustidx/internal/metrics"
	"github.com/san-kum/robustidx/internal/report"
	"github.com/san-kum/robustidx/internal/storage"
	"github.com/san-kum/robustidx/internal/sweep"
)

func runSearch(cmd *cobra.Command, args []string) error {
	ap, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := ap.function(args)
	if err != nil {
		return err
	}
	p := ap.cfg.Problem
	ap.out.Title("search %s on [%g, %g], gamma %g", f, p.A, p.B, ap.cfg.Search.Gamma)

	start := time.Now()
	idx, err := ap.analyzer.Search(cmd.Context(), f, p.Var, p.A, p.B, ap.cfg.Search)
	elapsed := time.Since(start)
	metrics.ObserveRun("search", idx, err, elapsed)
	ap.result(idx, err, elapsed)

	meta := ap.metadata("search", f, []string{p.Var}, elapsed, err)
	meta.Interval = ap.interval()
	meta.Index = idx
	return ap.finish(meta, nil, err)
}

func runClosedForm(cmd *cobra.Command, args []string) error {
	ap, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := ap.function(args)
	if err != nil {
		return err
	}
	p := ap.cfg.Problem
	ap.out.Title("closed form %s on [%g, %g]", f, p.A, p.B)

	start := time.Now()
	idx, err := ap.analyzer.ClosedForm(f, p.Var, p.A, p.B)
	elapsed := time.Since(start)
	metrics.ObserveRun("closed_form", idx, err, elapsed)
	ap.result(idx, err, elapsed)

	meta := ap.metadata("closed", f, []string{p.Var}, elapsed, err)
	meta.Interval = ap.interval()
	meta.Index = idx
	return ap.finish(meta, nil, err)
}

func runQuasiconvex(cmd *cobra.Command, args []string) error {
	ap, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := ap.function(args)
	if err != nil {
		return err
	}
	p := ap.cfg.Problem
	ap.out.Title("quasiconvexity of %s on [%g, %g]", f, p.A, p.B)

	start := time.Now()
	ok, err := ap.analyzer.IsQuasiconvex(f, p.Var, p.A, p.B)
	elapsed := time.Since(start)
	if err == nil {
		ap.out.Quasiconvex(ok)
	}
	ap.out.Elapsed(elapsed)
	ap.out.Calls(ap.engine.Calls())

	meta := ap.metadata("quasiconvex", f, []string{p.Var}, elapsed, err)
	meta.Interval = ap.interval()
	if err == nil {
		meta.Quasiconvex = &ok
	}
	return ap.finish(meta, nil, err)
}

func runSegments(cmd *cobra.Command, args []string) error {
	ap, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := ap.function(args)
	if err != nil {
		return err
	}
	p := ap.cfg.Problem
	r := p.Rect
	s := ap.cfg.SegmentSettings()
	ap.out.Title("segments %s on [%g, %g] x [%g, %g], m %d", f, r.Xmin, r.Xmax, r.Ymin, r.Ymax, s.M)

	res, err := ap.reducer().Reduce(cmd.Context(), f, p.XVar, p.YVar, r, s)
	if res == nil {
		return err
	}
	if err == nil {
		err = res.Err()
	}
	metrics.ObserveRun("segments", res.Index, err, res.Elapsed)
	if perr := ap.out.Segments(res, limit); perr != nil {
		return perr
	}
	ap.out.Elapsed(res.Elapsed)

	stats := metrics.NewSegmentStats()
	stats.ObserveAll(res)
	meta := ap.metadata("segments", f, []string{p.XVar, p.YVar}, res.Elapsed, err)
	meta.Rect = &r
	meta.M = s.M
	meta.Index = res.Index
	meta.Metrics = map[string]float64{
		"robust_fraction": stats.Value(),
		"slowest_seconds": stats.Slowest(),
		"unbounded":       float64(stats.Unbounded()),
		"non_robust":      float64(stats.NonRobust()),
	}
	if mean := stats.MeanFinite(); !math.IsNaN(mean) {
		meta.Metrics["mean_finite"] = mean
	}
	return ap.finish(meta, storage.RecordsFrom(res.Segments), err)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ap, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := ap.function(args)
	if err != nil {
		return err
	}
	ladder := gammas
	if len(ladder) == 0 {
		ladder = sweep.Geometric(ap.cfg.Search.Gamma, factor, stepCount())
	}
	p := ap.cfg.Problem
	ap.out.Title("compare %s on [%g, %g] over %d steps", f, p.A, p.B, len(ladder))

	start := time.Now()
	rep, err := sweep.New(ap.analyzer, ap.cfg.Search).Run(cmd.Context(), f, p.Var, p.A, p.B, ladder)
	elapsed := time.Since(start)
	if rep != nil {
		if perr := ap.out.Sweep(rep); perr != nil {
			return perr
		}
	}
	ap.out.Elapsed(elapsed)

	meta := ap.metadata("compare", f, []string{p.Var}, elapsed, err)
	meta.Interval = ap.interval()
	if rep != nil {
		meta.Index = rep.ClosedForm
		meta.Metrics = map[string]float64{}
		for _, pt := range rep.Points {
			if pt.Err == nil && !math.IsInf(pt.Gap, 0) {
				meta.Metrics[fmt.Sprintf("gap_%g", pt.Gamma)] = pt.Gap
			}
		}
	}
	return ap.finish(meta, nil, err)
}

func stepCount() int {
	if steps < 1 {
		return 1
	}
	return steps
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.Storage.DataDir).List()
	if err != nil {
		return err
	}
	return report.New(cmd.OutOrStdout()).Runs(runs)
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.Storage.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	segs, err := st.LoadSegments(runID)
	if err != nil {
		return err
	}

	if asJSON {
		return storage.WriteJSON(cmd.OutOrStdout(), *meta, segs)
	}
	return report.New(cmd.OutOrStdout()).Run(meta, segs)
}

func listPresets(cmd *cobra.Command, args []string) error {
	return report.New(cmd.OutOrStdout()).Presets()
}
