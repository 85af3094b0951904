// Package pipeline runs the batch jobs. A run loads every input the requested jobs need before anything
// is computed, so a missing file stops the run before any artifact is written. Each job then computes
// its results, prints its report and writes its artifacts. The optional sinks (warehouse, bucket) run
// last.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/census"
	"github.com/invertedv/censusdf/chart"
	"github.com/invertedv/censusdf/config"
	"github.com/invertedv/censusdf/export"
	"github.com/invertedv/censusdf/publish"
	"github.com/invertedv/censusdf/report"
	"github.com/invertedv/censusdf/trend"
	"github.com/invertedv/censusdf/warehouse"
)

// Job names.
const (
	Births    = "births"
	Fertility = "fertility"
	Under5    = "under5"
	All       = "all"
)

type job struct {
	need census.Need
	run  func(r *runner) error
}

var (
	jobs = map[string]job{
		Births:    {need: census.Need{Typology: true, Components: true, CurrentAgeSexOnly: true}, run: births},
		Fertility: {need: census.Need{Typology: true, Components: true, AgeSex: true}, run: fertility},
		Under5:    {need: census.Need{CurrentAgeSexOnly: true}, run: under5},
	}

	// order "all" runs the jobs in
	jobOrder = []string{Births, Fertility, Under5}
)

// Jobs resolves a job name to the jobs it runs. "all" runs every job; files two jobs share are left as
// the later job wrote them.
func Jobs(name string) ([]string, error) {
	if name == All {
		return slices.Clone(jobOrder), nil
	}

	if _, ok := jobs[name]; !ok {
		return nil, fmt.Errorf("unknown job %q, want one of %v or %s", name, jobOrder, All)
	}

	return []string{name}, nil
}

// runner carries the state shared by the jobs of one run.
type runner struct {
	cfg *config.Config
	src *census.Sources
	rep *report.Reporter
	out *export.Writer

	series []warehouse.Series
}

// Run executes job with cfg, printing the report to out.
func Run(ctx context.Context, cfg *config.Config, job string, out io.Writer) error {
	names, e := Jobs(job)
	if e != nil {
		return e
	}

	var need census.Need
	for _, n := range names {
		jn := jobs[n].need
		need.Typology = need.Typology || jn.Typology
		need.Components = need.Components || jn.Components
		need.AgeSex = need.AgeSex || jn.AgeSex
		need.CurrentAgeSexOnly = need.CurrentAgeSexOnly || jn.CurrentAgeSexOnly
	}

	src, e := census.LoadSources(cfg, need)
	if e != nil {
		return e
	}

	if e := ctx.Err(); e != nil {
		return e
	}

	w, e := export.NewWriter(cfg.Output.Dir)
	if e != nil {
		return e
	}

	r := &runner{cfg: cfg, src: src, rep: report.New(out, cfg.Categories), out: w}
	for _, n := range names {
		if e := ctx.Err(); e != nil {
			return e
		}

		log.Printf("running %s", n)
		if e := jobs[n].run(r); e != nil {
			return fmt.Errorf("%s: %w", n, e)
		}
	}

	if cfg.Warehouse.Enabled() && len(r.series) > 0 {
		if e := warehouse.Save(ctx, cfg.Warehouse, r.series...); e != nil {
			return e
		}
	}

	if cfg.Publish.Enabled() {
		keys, e := publish.Upload(ctx, cfg.Publish, w.Written()...)
		if e != nil {
			return e
		}

		log.Printf("published %d files to %s", len(keys), cfg.Publish.Bucket)
	}

	return nil
}

// *********** helpers ***********

// baseYear is the year of the current vintage's estimates base, the first year in its code table.
func (r *runner) baseYear() int {
	v, _ := r.cfg.Vintage(r.cfg.Current)
	return v.YearCodes.Years()[0]
}

func (r *runner) period() string {
	return fmt.Sprintf("April %d - July %d", r.baseYear(), r.cfg.LatestYear)
}

func (r *runner) ageSex() *d.DF {
	return r.src.AgeSex[r.cfg.Current]
}

// addSeries queues s for the warehouse, replacing a queued series of the same metric.
func (r *runner) addSeries(s ...warehouse.Series) {
	for _, x := range s {
		if ind := slices.IndexFunc(r.series, func(q warehouse.Series) bool { return q.Metric == x.Metric }); ind >= 0 {
			r.series[ind] = x
			continue
		}

		r.series = append(r.series, x)
	}
}

// chart writes a line chart of g if charts are on.
func (r *runner) chart(name, title, yLabel string, g trend.Grouped) error {
	if !r.cfg.Output.Charts {
		return nil
	}

	wt, e := chart.Lines(g, title, yLabel)
	if e != nil {
		return e
	}

	if e := r.out.WriteTo(name, wt); e != nil {
		return e
	}

	r.rep.Exported(name, "")

	return nil
}

// typology prints the number of counties of each category.
func (r *runner) typology() {
	counts := make(map[string]int)
	lt := r.src.Typology.Column(census.Locale)
	for row := 0; row < lt.Len(); row++ {
		if !lt.IsNA(row) {
			counts[lt.ElementString(row)]++
		}
	}

	r.rep.Typology(r.src.Typology.RowCount(), counts)
}

func byChange(c trend.CountyChange) *float64 {
	return trend.Value(float64(c.Change))
}

func byPctChange(c trend.CountyChange) *float64 {
	return c.PctChange
}

// detail prints the focus-category county summary shared by the births and fertility jobs.
func (r *runner) detail(rows []trend.CountyChange, tot trend.Totals) {
	focus := r.cfg.Focus
	r.rep.Section(fmt.Sprintf("%s COUNTIES DETAIL", strings.ToUpper(focus)))
	r.rep.Aggregate(strings.ToLower(focus)+" counties", len(rows), tot)
	r.rep.Declines("Largest under-5 declines (absolute):", trend.TopN(rows, r.cfg.TopN, byChange, true))
}
