// Package trend computes the per-category series and county detail published by the pipeline.
//
// Rates are always pooled across the counties of a category: a birth rate is the population-weighted
// mean of the county rates and a fertility rate is total births over total women aged 15-49. A point
// whose inputs are missing, or whose denominator is zero, is left out of a series rather than reported
// as zero.
package trend

import (
	"math"

	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/census"
	"github.com/invertedv/censusdf/config"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	ratePrefix   = "RBIRTH"
	popPrefix    = "POPESTIMATE"
	birthsPrefix = "BIRTHS"

	// decimal places of published values
	ratePlaces   = 2
	changePlaces = 1
)

// Point is one (category, year) value of a series.
type Point struct {
	Category string
	Year     int
	Value    float64
}

// FertilityPoint is a fertility rate with the totals it was computed from.
type FertilityPoint struct {
	Point
	Births float64
	Women  float64
}

// RateSource is a components table and the calendar years it contributes to the birth-rate series.
type RateSource struct {
	Table *d.DF
	Years config.Span
}

// FertilitySource pairs a vintage's components table with its age/sex table. AgeSex may be nil when the
// vintage's age/sex file is absent, in which case the vintage adds no points.
type FertilitySource struct {
	Births *d.DF
	AgeSex *d.DF
	Codes  config.YearCodes
	Years  config.Span
}

// inCategory returns a row filter selecting rows of df whose locale_type is category. It returns nil if df
// has no locale_type column.
func inCategory(df *d.DF, category string) func(int) bool {
	lt := df.Column(census.Locale)
	if lt == nil {
		return nil
	}

	return func(r int) bool {
		return !lt.IsNA(r) && lt.ElementString(r) == category
	}
}

// atCode returns a row filter selecting rows of an age/sex table with YEAR == code.
func atCode(df *d.DF, code int) func(int) bool {
	yr := df.Column(census.Year)
	if yr == nil {
		return nil
	}

	return func(r int) bool {
		x, ok := yr.ElementFloat(r)
		return ok && int(x) == code
	}
}

func both(a, b func(int) bool) func(int) bool {
	return func(r int) bool { return a(r) && b(r) }
}

// sumWhere totals the non-null values of col over the rows keep accepts. The count is the number of
// rows that contributed.
func sumWhere(col *d.Col, keep func(int) bool) (total float64, n int) {
	for r := 0; r < col.Len(); r++ {
		if keep != nil && !keep(r) {
			continue
		}

		if x, ok := col.ElementFloat(r); ok {
			total += x
			n++
		}
	}

	return total, n
}

// WeightedRate is the population-weighted mean of rateCol over the rows of df in category whose rate and
// population are both present. It returns false if either column is absent or the population is zero.
func WeightedRate(df *d.DF, category, rateCol, popCol string) (float64, bool) {
	if !df.HasColumns(census.Locale, rateCol, popCol) {
		return 0, false
	}

	keep := inCategory(df, category)
	rate, pop := df.Column(rateCol), df.Column(popCol)

	var x, w []float64
	for r := 0; r < df.RowCount(); r++ {
		if !keep(r) {
			continue
		}

		xr, ok1 := rate.ElementFloat(r)
		wr, ok2 := pop.ElementFloat(r)
		if !ok1 || !ok2 {
			continue
		}

		x, w = append(x, xr), append(w, wr)
	}

	if len(w) == 0 || floats.Sum(w) == 0 {
		return 0, false
	}

	m := stat.Mean(x, w)
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, false
	}

	return m, true
}

// BirthRateSeries returns the weighted birth rate (RBIRTH<year> weighted by POPESTIMATE<year>) of each
// category for each year of each source, rounded to two places. Points are ordered by category, then
// source, then year.
func BirthRateSeries(sources []RateSource, categories []string) []Point {
	var out []Point
	for _, cat := range categories {
		for _, src := range sources {
			if src.Table == nil {
				continue
			}

			for year := src.Years.From; year <= src.Years.To; year++ {
				rate, ok := WeightedRate(src.Table, cat, census.RateCol(ratePrefix, year), census.RateCol(popPrefix, year))
				if !ok {
					continue
				}

				out = append(out, Point{Category: cat, Year: year, Value: d.Round(rate, ratePlaces)})
			}
		}
	}

	return out
}

// FertilityRate is births per 1,000 women aged 15-49 in category for year: BIRTHS<year> summed over the
// category's counties in births, divided by WOMEN_15_49 summed over the category's rows of ageSex at the
// YEAR code codes assigns to year. It returns false if the births column or the code is missing, if
// ageSex has no rows at that code, or if there are no women.
func FertilityRate(births, ageSex *d.DF, category string, year int, codes config.YearCodes) (FertilityPoint, bool) {
	bc := census.RateCol(birthsPrefix, year)
	if births == nil || ageSex == nil || !births.HasColumns(census.Locale, bc) ||
		!ageSex.HasColumns(census.Locale, census.Year, census.Women1549) {
		return FertilityPoint{}, false
	}

	code, ok := codes.Code(year)
	if !ok {
		return FertilityPoint{}, false
	}

	totBirths, _ := sumWhere(births.Column(bc), inCategory(births, category))
	women, n := sumWhere(ageSex.Column(census.Women1549), both(inCategory(ageSex, category), atCode(ageSex, code)))
	if n == 0 || women <= 0 {
		return FertilityPoint{}, false
	}

	return FertilityPoint{
		Point:  Point{Category: category, Year: year, Value: d.Round(totBirths/women*1000, ratePlaces)},
		Births: totBirths,
		Women:  women,
	}, true
}

// FertilitySeries computes FertilityRate for every category and every year of each source, ordered by
// category, then source, then year.
func FertilitySeries(sources []FertilitySource, categories []string) []FertilityPoint {
	var out []FertilityPoint
	for _, cat := range categories {
		for _, src := range sources {
			if src.AgeSex == nil {
				continue
			}

			for year := src.Years.From; year <= src.Years.To; year++ {
				if fp, ok := FertilityRate(src.Births, src.AgeSex, cat, year, src.Codes); ok {
					out = append(out, fp)
				}
			}
		}
	}

	return out
}

// Rates drops the totals from a fertility series.
func Rates(fps []FertilityPoint) []Point {
	out := make([]Point, len(fps))
	for ind, fp := range fps {
		out[ind] = fp.Point
	}

	return out
}

// Totals is a before/after count with its change.
type Totals struct {
	Start     int
	End       int
	Change    int
	PctChange *float64
}

// Under5Change is Totals for one category.
type Under5Change struct {
	Category string
	Totals
}

func newTotals(start, end float64) Totals {
	s, e := int(math.Round(start)), int(math.Round(end))
	return Totals{Start: s, End: e, Change: e - s, PctChange: PctChange(start, end, changePlaces)}
}

// Under5ByCategory totals UNDER5_TOT at the base and latest YEAR codes for each category.
func Under5ByCategory(ageSex *d.DF, categories []string, baseCode, latestCode int) []Under5Change {
	u5 := ageSex.Column(census.Under5)
	out := make([]Under5Change, 0, len(categories))
	for _, cat := range categories {
		var start, end float64
		if u5 != nil && ageSex.HasColumns(census.Locale, census.Year) {
			keep := inCategory(ageSex, cat)
			start, _ = sumWhere(u5, both(keep, atCode(ageSex, baseCode)))
			end, _ = sumWhere(u5, both(keep, atCode(ageSex, latestCode)))
		}

		out = append(out, Under5Change{Category: cat, Totals: newTotals(start, end)})
	}

	return out
}

// Nationwide totals UNDER5_TOT at the base and latest YEAR codes over every row, classified or not.
func Nationwide(ageSex *d.DF, baseCode, latestCode int) Totals {
	u5 := ageSex.Column(census.Under5)
	if u5 == nil || !ageSex.HasColumns(census.Year) {
		return newTotals(0, 0)
	}

	start, _ := sumWhere(u5, atCode(ageSex, baseCode))
	end, _ := sumWhere(u5, atCode(ageSex, latestCode))

	return newTotals(start, end)
}
