// Package report renders computation results for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/san-kum/robustidx/internal/config"
	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/segments"
	"github.com/san-kum/robustidx/internal/storage"
	"github.com/san-kum/robustidx/internal/sweep"
)

type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer { return &Printer{w: w} }

func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.w, Title.Render(fmt.Sprintf(format, args...)))
}

// Field prints an aligned "label: value" line.
func (p *Printer) Field(label, value string) {
	fmt.Fprintf(p.w, "%s %s\n", Label.Render(fmt.Sprintf("%-12s", label+":")), value)
}

func (p *Printer) Index(label string, idx robust.Index) {
	p.Field(label, FormatIndex(idx))
}

func (p *Printer) Quasiconvex(ok bool) {
	if ok {
		p.Field("quasiconvex", UnboundedStyle.Render("yes"))
		return
	}
	p.Field("quasiconvex", NonRobustStyle.Render("no"))
}

func (p *Printer) Error(err error) {
	p.Field("error", FailureStyle.Render(err.Error()))
}

func (p *Printer) Elapsed(d time.Duration) {
	p.Field("elapsed", Subtle.Render(d.Round(time.Microsecond).String()))
}

// Calls prints engine call counts in a stable order.
func (p *Printer) Calls(calls map[string]int64) {
	ops := make([]string, 0, len(calls))
	for op := range calls {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		p.Field(op, strconv.FormatInt(calls[op], 10))
	}
}

func (p *Printer) header(cols string) *tabwriter.Writer {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cols)
	return w
}

// Segments prints the reduction summary followed by a per-segment table.
// limit caps the table rows; 0 prints all of them.
func (p *Printer) Segments(res *segments.Result, limit int) error {
	p.Field("points", strconv.Itoa(len(res.Points)))
	p.Field("segments", fmt.Sprintf("%d (evaluated %d, failed %d)", len(res.Segments), res.Evaluated, res.Failed))
	switch {
	case !res.Defined():
		p.Field("index", Subtle.Render("undefined (no segment produced an index)"))
	case res.Failed > 0:
		ok := res.Evaluated - res.Failed
		p.Field("bound", fmt.Sprintf("%s %s", FormatIndex(res.Index),
			FailureStyle.Render(fmt.Sprintf("(over %d successful segments only)", ok))))
	default:
		p.Index("index", res.Index)
	}
	if res.ShortCircuited {
		p.Field("note", Subtle.Render("stopped early at a non-robust segment"))
	}
	if len(res.Segments) == 0 {
		return nil
	}

	fmt.Fprintln(p.w)
	w := p.header("ID\tU\tV\tLENGTH\tINDEX\tTIME\tERROR")
	for i, sr := range res.Segments {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "...\t%d more\t\t\t\t\t\n", len(res.Segments)-limit)
			break
		}
		idx, elapsed := "-", "-"
		if sr.Evaluated {
			idx = sr.Index.String()
			elapsed = sr.Elapsed.Round(time.Microsecond).String()
		}
		msg := ""
		if sr.Err != nil {
			idx, msg = "!", sr.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%v\t%v\t%.4f\t%s\t%s\t%s\n", sr.ID, sr.Segment.U, sr.Segment.V, sr.Length, idx, elapsed, msg)
	}
	return w.Flush()
}

// Sweep prints a γ-sweep against the closed form.
func (p *Printer) Sweep(rep *sweep.Report) error {
	p.Index("closed form", rep.ClosedForm)
	w := p.header("GAMMA\tSEARCH\tGAP\tWITHIN\tTIME")
	for _, pt := range rep.Points {
		if pt.Err != nil {
			fmt.Fprintf(w, "%g\t!\t-\t-\t%s\n", pt.Gamma, pt.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%s\t%.3g\t%t\t%s\n", pt.Gamma, pt.Index, pt.Gap, pt.Within, pt.Elapsed.Round(time.Microsecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if rep.Converged() {
		p.Field("converged", UnboundedStyle.Render("yes"))
	} else {
		p.Field("converged", NonRobustStyle.Render("no"))
	}
	return nil
}

func (p *Printer) Runs(runs []storage.RunMetadata) error {
	if len(runs) == 0 {
		fmt.Fprintln(p.w, "no runs found")
		return nil
	}
	w := p.header("ID\tCOMMAND\tEXPR\tINDEX\tTIME")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Command,
			run.Expr,
			run.Index,
			run.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

// Run prints stored metadata and its segment rows.
func (p *Printer) Run(meta *storage.RunMetadata, segs []storage.SegmentRecord) error {
	p.Title("run %s", meta.ID)
	p.Field("command", meta.Command)
	p.Field("expr", meta.Expr)
	if meta.Interval != nil {
		p.Field("interval", fmt.Sprintf("[%g, %g]", meta.Interval.A, meta.Interval.B))
	}
	if meta.Rect != nil {
		r := meta.Rect
		p.Field("rect", fmt.Sprintf("[%g, %g] x [%g, %g]", r.Xmin, r.Xmax, r.Ymin, r.Ymax))
		p.Field("m", strconv.Itoa(meta.M))
	}
	p.Field("gamma", strconv.FormatFloat(meta.Search.Gamma, 'g', -1, 64))
	if meta.Quasiconvex != nil {
		p.Quasiconvex(*meta.Quasiconvex)
	} else {
		p.Index("index", meta.Index)
	}
	if meta.Error != "" {
		p.Field("error", FailureStyle.Render(meta.Error))
	}
	p.Field("elapsed", fmt.Sprintf("%.3fs", meta.Elapsed))
	p.Field("timestamp", meta.Timestamp.Format(time.RFC3339))
	if len(segs) == 0 {
		return nil
	}

	fmt.Fprintln(p.w)
	w := p.header("ID\tU\tV\tLENGTH\tINDEX\tERROR")
	for _, r := range segs {
		idx := "-"
		if r.Evaluated {
			idx = r.Index.String()
		}
		fmt.Fprintf(w, "%d\t%v\t%v\t%.4f\t%s\t%s\n", r.ID, r.Segment.U, r.Segment.V, r.Length, idx, r.Error)
	}
	return w.Flush()
}

func (p *Printer) Presets() error {
	w := p.header("NAME\tEXPR\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		pr := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, pr.Problem.Expr, pr.Description)
	}
	return w.Flush()
}
