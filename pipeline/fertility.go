package pipeline

import (
	"fmt"
	"strings"

	"github.com/invertedv/censusdf/export"
	"github.com/invertedv/censusdf/report"
	"github.com/invertedv/censusdf/trend"
	"github.com/invertedv/censusdf/warehouse"
)

type fertilityResults struct {
	series   []trend.FertilityPoint
	changes  []trend.RateChange
	under5   []trend.Under5Change
	counties []trend.FertilityCounty
	nation   trend.Totals

	// first year of the county fertility view
	firstYear int
}

func (r *runner) computeFertility() (*fertilityResults, error) {
	cfg := r.cfg

	var sources []trend.FertilitySource
	for _, v := range cfg.Vintages {
		sources = append(sources, trend.FertilitySource{
			Births: r.src.Components[v.Name],
			AgeSex: r.src.AgeSex[v.Name],
			Codes:  v.YearCodes,
			Years:  v.Years,
		})
	}

	res := &fertilityResults{series: trend.FertilitySeries(sources, cfg.Categories)}
	rates := trend.Rates(res.series)
	for _, cat := range cfg.Categories {
		if rc, ok := trend.FirstLastChange(rates, cat); ok {
			res.changes = append(res.changes, rc)
		}
	}

	ageSex, base, latest := r.ageSex(), cfg.BaseCode(), cfg.LatestCode()
	res.under5 = trend.Under5ByCategory(ageSex, cfg.Categories, base, latest)
	res.nation = trend.Nationwide(ageSex, base, latest)

	cur, _ := cfg.Vintage(cfg.Current)
	res.firstYear = cur.Years.From

	var e error
	if res.counties, e = trend.LargeUrbanFertility(ageSex, r.src.Components[cfg.Current], cfg.Focus, base, latest,
		res.firstYear, cfg.LatestYear); e != nil {
		return nil, e
	}

	return res, nil
}

func fertility(r *runner) error {
	res, e := r.computeFertility()
	if e != nil {
		return e
	}

	r.reportFertility(res)

	return r.exportFertility(res)
}

func (r *runner) reportFertility(res *fertilityResults) {
	cfg, rep := r.cfg, r.rep
	rep.Banner("FERTILITY RATE ANALYSIS", "Births per 1,000 women aged 15-49, counties grouped by urbanization typology")
	r.typology()

	rep.Heading("Fertility rates by county type:")
	rep.FertilityPoints(res.series)

	rep.Section("FERTILITY RATE SUMMARY BY COUNTY TYPE")
	rep.FertilitySummary(res.changes)

	rep.Section("UNDER-5 POPULATION CHANGES")
	rep.Under5(fmt.Sprintf("By county type (%s):", r.period()), res.under5)

	rows := report.Changes(res.counties)
	r.detail(rows, trend.CountyTotals(res.counties))

	latest := func(c trend.FertilityCounty) *float64 { return c.RateLatest }
	rep.FertilityRanks(fmt.Sprintf("Lowest fertility rates %d:", cfg.LatestYear),
		trend.TopN(res.counties, cfg.TopN, latest, true))
	rep.FertilityRanks(fmt.Sprintf("Highest fertility rates %d:", cfg.LatestYear),
		trend.TopN(res.counties, cfg.TopN, latest, false))
}

func (r *runner) exportFertility(res *fertilityResults) error {
	cfg, w, rep := r.cfg, r.out, r.rep
	by, ly := r.baseYear(), cfg.LatestYear
	grouped := trend.ByCategory(trend.Rates(res.series), cfg.Categories)
	series := export.Series(grouped)
	under5 := export.Under5(res.under5, by, ly)

	rep.Section("EXPORTING DATA")

	if e := w.JSON("fertility_rate_ts.json", export.FertilityRates(res.series), false); e != nil {
		return e
	}
	rep.Exported("fertility_rate_ts.json", fmt.Sprintf("%d records", len(res.series)))

	if e := w.JS("fertility_rate_ts.js", "fertilityRateTS", series); e != nil {
		return e
	}
	rep.Exported("fertility_rate_ts.js", "")

	if e := w.JSON("under5_by_type.json", under5, false); e != nil {
		return e
	}
	rep.Exported("under5_by_type.json", "")

	if e := w.JS("county_data_embed.js", "countyData", export.FertilityCountyMap(res.counties)); e != nil {
		return e
	}
	rep.Exported("county_data_embed.js", fmt.Sprintf("%d %s counties", len(res.counties), strings.ToLower(cfg.Focus)))

	first, latest := trend.PooledFertility(res.counties)
	focus := export.Totals(len(res.counties), trend.CountyTotals(res.counties), by, ly).
		Add(export.YearKey("avg_fertility", res.firstYear), first).
		Add(export.YearKey("avg_fertility", ly), latest)

	summary := export.Summary(cfg.Focus, focus, export.Totals(-1, res.nation, by, ly),
		export.Block("fertility_by_type", series),
		export.Block("under5_by_type", under5))
	if e := w.JSON("summary_stats.json", summary, true); e != nil {
		return e
	}
	rep.Exported("summary_stats.json", "")

	if e := r.chart("fertility_rate_ts.png", "Fertility rate by county type", "Births per 1,000 women 15-49",
		grouped); e != nil {
		return e
	}

	r.addSeries(warehouse.FertilitySeries(res.series)...)
	r.addSeries(warehouse.Under5Series(res.under5, by, ly))

	return nil
}
