package pipeline

import (
	"fmt"
	"strings"

	"github.com/invertedv/censusdf/export"
	"github.com/invertedv/censusdf/report"
	"github.com/invertedv/censusdf/trend"
	"github.com/invertedv/censusdf/warehouse"
)

// birthResults is everything the births job publishes.
type birthResults struct {
	series   []trend.Point
	changes  []trend.RateChange
	under5   []trend.Under5Change
	counties []trend.BirthCounty
	nation   trend.Totals
}

// rateRef locates the components table carrying year's birth rates.
func (r *runner) rateRef(year int) trend.RateRef {
	v, ok := r.cfg.VintageFor(year)
	if !ok {
		return trend.RateRef{Year: year}
	}

	return trend.RateRef{Table: r.src.Components[v.Name], Year: year}
}

func (r *runner) computeBirths() (*birthResults, error) {
	cfg := r.cfg

	var sources []trend.RateSource
	for _, v := range cfg.Vintages {
		sources = append(sources, trend.RateSource{Table: r.src.Components[v.Name], Years: v.Years})
	}

	res := &birthResults{series: trend.BirthRateSeries(sources, cfg.Categories)}
	res.changes = trend.SpanChanges(res.series, cfg.Categories, cfg.RateChange.From, cfg.RateChange.To)

	ageSex, base, latest := r.ageSex(), cfg.BaseCode(), cfg.LatestCode()
	res.under5 = trend.Under5ByCategory(ageSex, cfg.Categories, base, latest)
	res.nation = trend.Nationwide(ageSex, base, latest)

	var e error
	if res.counties, e = trend.LargeUrbanBirths(ageSex, cfg.Focus, base, latest, r.rateRef(cfg.RateChange.From),
		r.rateRef(cfg.RateChange.To)); e != nil {
		return nil, e
	}

	return res, nil
}

func births(r *runner) error {
	res, e := r.computeBirths()
	if e != nil {
		return e
	}

	r.reportBirths(res)

	return r.exportBirths(res)
}

func (r *runner) reportBirths(res *birthResults) {
	cfg, rep := r.cfg, r.rep
	rep.Banner("BIRTH RATE ANALYSIS", "Counties grouped by urbanization typology")
	r.typology()

	rep.RateChanges(fmt.Sprintf("Birth rate changes %d-%d by county type:", cfg.RateChange.From, cfg.RateChange.To),
		res.changes)
	rep.Under5(fmt.Sprintf("Under-5 population changes by county type (%s):", r.period()), res.under5)

	rows := report.Changes(res.counties)
	r.detail(rows, trend.CountyTotals(res.counties))
	rep.PctDeclines("Largest under-5 declines (percentage):", trend.TopN(rows, cfg.TopN, byPctChange, true))
	rep.BirthRateDeclines(fmt.Sprintf("Largest birth rate declines (%d-%d):", cfg.RateChange.From, cfg.RateChange.To),
		trend.TopN(res.counties, cfg.TopN, func(c trend.BirthCounty) *float64 { return c.RatePctChange }, true))
}

func (r *runner) exportBirths(res *birthResults) error {
	cfg, w, rep := r.cfg, r.out, r.rep
	by, ly := r.baseYear(), cfg.LatestYear
	grouped := trend.ByCategory(res.series, cfg.Categories)
	rateChanges := export.RateChanges(res.changes)
	under5 := export.Under5(res.under5, by, ly)

	rep.Section("EXPORTING DATA")

	if e := w.JSON("birth_rate_ts.json", export.BirthRates(res.series), false); e != nil {
		return e
	}
	rep.Exported("birth_rate_ts.json", fmt.Sprintf("%d records", len(res.series)))

	if e := w.JS("birth_rate_ts.js", "birthRateTS", export.Series(grouped)); e != nil {
		return e
	}
	rep.Exported("birth_rate_ts.js", "")

	if e := w.JSON("under5_by_type.json", under5, false); e != nil {
		return e
	}
	rep.Exported("under5_by_type.json", "")

	if e := w.JSON("birth_rate_change.json", rateChanges, false); e != nil {
		return e
	}
	rep.Exported("birth_rate_change.json", "")

	if e := w.JS("county_data_embed.js", "countyData", export.BirthCountyMap(res.counties)); e != nil {
		return e
	}
	rep.Exported("county_data_embed.js", fmt.Sprintf("%d %s counties", len(res.counties), strings.ToLower(cfg.Focus)))

	summary := export.Summary(cfg.Focus,
		export.Totals(len(res.counties), trend.CountyTotals(res.counties), by, ly),
		export.Totals(-1, res.nation, by, ly),
		export.Block("birth_rate_change", rateChanges),
		export.Block("under5_by_type", under5))
	if e := w.JSON("summary_stats.json", summary, true); e != nil {
		return e
	}
	rep.Exported("summary_stats.json", "")

	if e := r.chart("birth_rate_ts.png", "Birth rate by county type", "Births per 1,000 residents", grouped); e != nil {
		return e
	}

	r.addSeries(warehouse.Series{Metric: warehouse.BirthRate, Points: res.series},
		warehouse.Under5Series(res.under5, by, ly))

	return nil
}
