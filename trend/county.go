package trend

import (
	"math"
	"slices"

	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/census"
)

const (
	baseSuffix   = "_base"
	latestSuffix = "_latest"

	majorPlaces = 2
)

// CountyChange is a county's population and under-5 count at the base and latest estimates.
type CountyChange struct {
	FIPS   string
	State  string
	County string

	PopStart    int
	PopEnd      int
	Under5Start int
	Under5End   int
	Change      int
	PctChange   *float64
}

// Base returns the shared county fields of a detail row.
func (c CountyChange) Base() CountyChange {
	return c
}

// BirthCounty adds birth rates in two years to a CountyChange. Rates are nil where the components tables
// have no value for the county.
type BirthCounty struct {
	CountyChange

	RateStart     *float64
	RateEnd       *float64
	RatePctChange *float64
}

// FertilityCounty adds the women 15-49 counts and fertility rates to a CountyChange.
type FertilityCounty struct {
	CountyChange

	WomenStart int
	WomenEnd   int

	BirthsFirst  *float64
	BirthsLatest *float64

	RateFirst     *float64
	RateLatest    *float64
	RatePctChange *float64
}

// MajorCounty adds the total population change to a CountyChange.
type MajorCounty struct {
	CountyChange

	PopChange    int
	PopPctChange *float64
}

// RateRef locates a year's birth-rate column: the components table carrying it and the year.
type RateRef struct {
	Table *d.DF
	Year  int
}

// pairYears merges the base-code and latest-code rows of ageSex on FIPS. keepBase and keepLatest select
// rows at each code; extra names further per-row columns to carry from both. Non-key columns carry the
// _base and _latest suffixes. Counties missing from either side are dropped.
func pairYears(ageSex *d.DF, keepBase, keepLatest func(int) bool, baseCode, latestCode int,
	extra ...string) (*d.DF, error) {
	need := append([]string{census.FIPS, census.StateName, census.CountyName, census.Year, census.PopEst,
		census.Under5}, extra...)
	if _, e := ageSex.KeepColumns(need...); e != nil {
		return nil, e
	}

	base := ageSex.Where(both(keepBase, atCode(ageSex, baseCode)))
	latest := ageSex.Where(both(keepLatest, atCode(ageSex, latestCode)))

	base, e := base.KeepColumns(append([]string{census.FIPS, census.StateName, census.CountyName, census.PopEst,
		census.Under5}, extra...)...)
	if e != nil {
		return nil, e
	}

	latest, e = latest.KeepColumns(append([]string{census.FIPS, census.PopEst, census.Under5}, extra...)...)
	if e != nil {
		return nil, e
	}

	return d.Merge(base, latest, census.FIPS, d.Inner, [2]string{baseSuffix, latestSuffix})
}

// value returns element r of column name as a float; NaN if the column is absent or the value is null.
func value(df *d.DF, name string, r int) float64 {
	c := df.Column(name)
	if c == nil {
		return math.NaN()
	}

	if x, ok := c.ElementFloat(r); ok {
		return x
	}

	return math.NaN()
}

func optional(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}

	return &x
}

func count(x float64) int {
	if math.IsNaN(x) {
		return 0
	}

	return int(math.Round(x))
}

func countyChange(df *d.DF, r, places int) CountyChange {
	u0, u4 := value(df, census.Under5+baseSuffix, r), value(df, census.Under5+latestSuffix, r)
	cc := CountyChange{
		FIPS:        df.Column(census.FIPS).ElementString(r),
		State:       df.Column(census.StateName).ElementString(r),
		County:      df.Column(census.CountyName).ElementString(r),
		PopStart:    count(value(df, census.PopEst+baseSuffix, r)),
		PopEnd:      count(value(df, census.PopEst+latestSuffix, r)),
		Under5Start: count(u0),
		Under5End:   count(u4),
		PctChange:   PctChange(u0, u4, places),
	}
	cc.Change = cc.Under5End - cc.Under5Start

	return cc
}

// attachRate left-joins ref's RBIRTH<year> column onto df as name. If the table or column is missing the
// new column is all null.
func attachRate(df *d.DF, ref RateRef, name string) (*d.DF, error) {
	col := census.RateCol(ratePrefix, ref.Year)
	if ref.Table == nil || !ref.Table.HasColumns(census.FIPS, col) {
		v := d.MakeVector(d.DTfloat, df.RowCount())
		for r := 0; r < v.Len(); r++ {
			v.SetNA(r)
		}

		c, e := d.NewCol(name, v, d.DTfloat)
		if e != nil {
			return nil, e
		}

		out := df.Copy()

		return out, out.AppendColumn(c, true)
	}

	out, e := d.LeftJoin(df, ref.Table, census.FIPS, census.FIPS, col)
	if e != nil {
		return nil, e
	}

	return out, out.Rename(col, name)
}

// LargeUrbanBirths pairs the base and latest age/sex rows of the counties in category and adds each
// county's birth rate in the years of from and to.
func LargeUrbanBirths(ageSex *d.DF, category string, baseCode, latestCode int, from, to RateRef) ([]BirthCounty, error) {
	keep := inCategory(ageSex, category)
	if keep == nil {
		return nil, nil
	}

	df, e := pairYears(ageSex, keep, keep, baseCode, latestCode)
	if e != nil {
		return nil, e
	}

	if df, e = attachRate(df, from, "rate_start"); e != nil {
		return nil, e
	}

	if df, e = attachRate(df, to, "rate_end"); e != nil {
		return nil, e
	}

	out := make([]BirthCounty, df.RowCount())
	for r := range out {
		rs, re := value(df, "rate_start", r), value(df, "rate_end", r)
		out[r] = BirthCounty{
			CountyChange:  countyChange(df, r, changePlaces),
			RateStart:     optional(rs),
			RateEnd:       optional(re),
			RatePctChange: PctChange(rs, re, changePlaces),
		}
	}

	return out, nil
}

// LargeUrbanFertility pairs the base and latest age/sex rows of the counties in category and adds
// county fertility rates from the births of the current components table.
//
// The latest rate is BIRTHS<latestYear> over women at the latest code. The first rate is
// BIRTHS<firstYear> over women at the base code (April 2020 for the 2024 vintage), not at firstYear's
// own code; published figures depend on that pairing, so it is kept as is.
func LargeUrbanFertility(ageSex, births *d.DF, category string, baseCode, latestCode, firstYear,
	latestYear int) ([]FertilityCounty, error) {
	keep := inCategory(ageSex, category)
	if keep == nil {
		return nil, nil
	}

	df, e := pairYears(ageSex, keep, keep, baseCode, latestCode, census.Women1549)
	if e != nil {
		return nil, e
	}

	firstCol, latestCol := census.RateCol(birthsPrefix, firstYear), census.RateCol(birthsPrefix, latestYear)
	for _, col := range []string{firstCol, latestCol} {
		if births == nil || !births.HasColumns(census.FIPS, col) || df.HasColumns(col) {
			continue
		}

		if df, e = d.LeftJoin(df, births, census.FIPS, census.FIPS, col); e != nil {
			return nil, e
		}
	}

	out := make([]FertilityCounty, df.RowCount())
	for r := range out {
		w0, w4 := value(df, census.Women1549+baseSuffix, r), value(df, census.Women1549+latestSuffix, r)
		b1, b4 := value(df, firstCol, r), value(df, latestCol, r)

		fr1, fr4 := fertility(b1, w0), fertility(b4, w4)
		fc := FertilityCounty{
			CountyChange: countyChange(df, r, changePlaces),
			WomenStart:   count(w0),
			WomenEnd:     count(w4),
			BirthsFirst:  optional(b1),
			BirthsLatest: optional(b4),
			RateFirst:    optional(fr1),
			RateLatest:   optional(fr4),
		}
		fc.RatePctChange = PctChange(fr1, fr4, changePlaces)
		out[r] = fc
	}

	return out, nil
}

// fertility is births per 1,000 women rounded to one place; NaN if either is missing or women is zero.
func fertility(births, women float64) float64 {
	if math.IsNaN(births) || math.IsNaN(women) || women == 0 {
		return math.NaN()
	}

	return d.Round(births/women*1000, changePlaces)
}

// MajorCounties pairs the base and latest rows of every county whose base population is at least
// threshold. Rows are sorted by under-5 change, largest decline first; ties keep file order.
func MajorCounties(ageSex *d.DF, baseCode, latestCode, threshold int) ([]MajorCounty, error) {
	pop := ageSex.Column(census.PopEst)
	if pop == nil {
		return nil, d.ErrNoColumn
	}

	big := func(r int) bool {
		x, ok := pop.ElementFloat(r)
		return ok && x >= float64(threshold)
	}

	df, e := pairYears(ageSex, big, func(int) bool { return true }, baseCode, latestCode)
	if e != nil {
		return nil, e
	}

	out := make([]MajorCounty, df.RowCount())
	for r := range out {
		cc := countyChange(df, r, majorPlaces)
		out[r] = MajorCounty{
			CountyChange: cc,
			PopChange:    cc.PopEnd - cc.PopStart,
			PopPctChange: PctChange(float64(cc.PopStart), float64(cc.PopEnd), majorPlaces),
		}
	}

	slices.SortStableFunc(out, func(a, b MajorCounty) int { return a.Change - b.Change })

	return out, nil
}

// *********** Aggregates ***********

type countyRow interface {
	Base() CountyChange
}

// CountyTotals sums the under-5 counts of rows.
func CountyTotals[T countyRow](rows []T) Totals {
	var start, end float64
	for _, r := range rows {
		cc := r.Base()
		start += float64(cc.Under5Start)
		end += float64(cc.Under5End)
	}

	return newTotals(start, end)
}

// PooledFertility is the fertility rate of rows taken together, total births over total women, for the
// first and latest years. Counties without births in a year are left out of that year. A rate is nil if
// no county contributes.
func PooledFertility(rows []FertilityCounty) (first, latest *float64) {
	var b1, w1, b4, w4 float64
	for _, r := range rows {
		if r.BirthsFirst != nil {
			b1 += *r.BirthsFirst
			w1 += float64(r.WomenStart)
		}

		if r.BirthsLatest != nil {
			b4 += *r.BirthsLatest
			w4 += float64(r.WomenEnd)
		}
	}

	return optional(fertility(b1, w1)), optional(fertility(b4, w4))
}
