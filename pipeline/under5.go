package pipeline

import (
	"fmt"

	"github.com/invertedv/censusdf/census"
	"github.com/invertedv/censusdf/export"
	"github.com/invertedv/censusdf/report"
	"github.com/invertedv/censusdf/trend"
)

// under5 reports the under-5 change of every county at or above the population threshold.
func under5(r *runner) error {
	cfg, rep := r.cfg, r.rep
	ageSex, base, latest := r.ageSex(), cfg.BaseCode(), cfg.LatestCode()

	counties := 0
	if yr := ageSex.Column(census.Year); yr != nil {
		for row := 0; row < yr.Len(); row++ {
			if x, ok := yr.ElementFloat(row); ok && int(x) == base {
				counties++
			}
		}
	}

	majors, e := trend.MajorCounties(ageSex, base, latest, cfg.MajorThreshold)
	if e != nil {
		return e
	}

	df, e := export.MajorDF(majors, r.baseYear(), cfg.LatestYear)
	if e != nil {
		return e
	}

	rows := report.Changes(majors)
	rep.Line("Total counties in data: %d", counties)
	rep.Line("Major counties (pop >= %d): %d", cfg.MajorThreshold, len(majors))

	rep.Section(fmt.Sprintf("UNDER-5 POPULATION CHANGES IN MAJOR U.S. COUNTIES (%s)", r.period()))
	rep.Line("Definition: major counties have population >= %d at the estimates base", cfg.MajorThreshold)
	rep.Aggregate("major counties", len(majors), trend.CountyTotals(majors))

	n := cfg.MajorTopN
	rep.Declines(fmt.Sprintf("TOP %d COUNTIES WITH LARGEST ABSOLUTE DECLINE IN UNDER-5 POPULATION:", n),
		trend.TopN(rows, n, byChange, true))
	rep.PctDeclines(fmt.Sprintf("TOP %d COUNTIES WITH LARGEST PERCENTAGE DECLINE IN UNDER-5 POPULATION:", n),
		trend.TopN(rows, n, byPctChange, true))

	var gainers []trend.CountyChange
	for _, c := range rows {
		if c.Change > 0 {
			gainers = append(gainers, c)
		}
	}
	rep.Gainers(fmt.Sprintf("COUNTIES THAT GAINED UNDER-5 POPULATION (%d counties):", len(gainers)),
		trend.TopN(gainers, n, byChange, false))

	rep.Section("EXPORTING DATA")
	if e := r.out.JSON("county_changes.json", export.Records(df), true); e != nil {
		return e
	}
	rep.Exported("county_changes.json", fmt.Sprintf("%d counties", df.RowCount()))

	if e := r.out.CSV("county_changes.csv", df); e != nil {
		return e
	}
	rep.Exported("county_changes.csv", "")

	if !cfg.Output.Workbook {
		return nil
	}

	if e := r.out.XLSX("county_changes.xlsx", "county_changes", df); e != nil {
		return e
	}
	rep.Exported("county_changes.xlsx", "")

	return nil
}
