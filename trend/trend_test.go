package trend

import (
	"math"
	"testing"

	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/census"
	"github.com/invertedv/censusdf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 {
	return math.NaN()
}

func mustDF(t *testing.T, cols ...*d.Col) *d.DF {
	t.Helper()
	df, e := d.NewDF(cols...)
	require.Nil(t, e)

	return df
}

// locale builds a locale_type column; "" entries are null.
func locale(cats ...string) *d.Col {
	c := d.MustCol(census.Locale, cats)
	for r, cat := range cats {
		if cat == "" {
			c.SetNA(r)
		}
	}

	return c
}

func TestWeightedRate(t *testing.T) {
	df := mustDF(t,
		locale("A", "A", "B", "", "A"),
		d.MustCol("RBIRTH2011", []float64{10, 20, 5, 100, 50}),
		d.MustCol("POPESTIMATE2011", []float64{100, 300, 0, 1000, 0}))

	rate, ok := WeightedRate(df, "A", "RBIRTH2011", "POPESTIMATE2011")
	require.True(t, ok)
	assert.InDelta(t, (10*100+20*300)/400.0, rate, 1e-9)

	// zero population: no point rather than zero or NaN
	_, ok = WeightedRate(df, "B", "RBIRTH2011", "POPESTIMATE2011")
	assert.False(t, ok)

	_, ok = WeightedRate(df, "C", "RBIRTH2011", "POPESTIMATE2011")
	assert.False(t, ok)

	_, ok = WeightedRate(df, "A", "RBIRTH2012", "POPESTIMATE2012")
	assert.False(t, ok)
}

func TestWeightedRate_NullValues(t *testing.T) {
	rate := d.MustCol("RBIRTH2011", []float64{10, 20})
	rate.SetNA(1)
	df := mustDF(t, locale("A", "A"), rate, d.MustCol("POPESTIMATE2011", []float64{100, 300}))

	x, ok := WeightedRate(df, "A", "RBIRTH2011", "POPESTIMATE2011")
	require.True(t, ok)
	assert.InDelta(t, 10.0, x, 1e-9)
}

func TestBirthRateSeries(t *testing.T) {
	old := mustDF(t,
		locale("Large urban", "Rural", "Rural"),
		d.MustCol("RBIRTH2011", []float64{12.346, 10, 14}),
		d.MustCol("POPESTIMATE2011", []int{1000, 100, 300}),
		// no POPESTIMATE2012: schema drift, the year is skipped
		d.MustCol("RBIRTH2012", []float64{12, 10, 14}))

	cur := mustDF(t,
		locale("Large urban", "Rural", "Suburban"),
		d.MustCol("RBIRTH2021", []float64{11, 9, 8}),
		d.MustCol("POPESTIMATE2021", []int{1000, 0, 10}))

	sources := []RateSource{
		{Table: old, Years: config.Span{From: 2011, To: 2012}},
		{Table: cur, Years: config.Span{From: 2021, To: 2021}},
	}
	cats := []string{"Large urban", "Suburban", "Rural"}

	got := BirthRateSeries(sources, cats)
	exp := []Point{
		{Category: "Large urban", Year: 2011, Value: 12.35},
		{Category: "Large urban", Year: 2021, Value: 11},
		{Category: "Suburban", Year: 2021, Value: 8},
		{Category: "Rural", Year: 2011, Value: 13},
	}
	assert.Equal(t, exp, got)
}

func TestFertilityRate(t *testing.T) {
	births := mustDF(t,
		locale("A", "A", "B", ""),
		d.MustCol("BIRTHS2021", []int{10, 30, 5, 1000}))
	ageSex := mustDF(t,
		locale("A", "A", "A", "B", ""),
		d.MustCol(census.Year, []int{3, 3, 4, 3, 3}),
		d.MustCol(census.Women1549, []float64{1000, 1000, 50, 0, 7}))
	codes := config.YearCodes{2021: 3, 2022: 4}

	fp, ok := FertilityRate(births, ageSex, "A", 2021, codes)
	require.True(t, ok)
	assert.Equal(t, 20.0, fp.Value)
	assert.Equal(t, 40.0, fp.Births)
	assert.Equal(t, 2000.0, fp.Women)

	// zero women
	_, ok = FertilityRate(births, ageSex, "B", 2021, codes)
	assert.False(t, ok)

	// no BIRTHS2022 column
	_, ok = FertilityRate(births, ageSex, "A", 2022, codes)
	assert.False(t, ok)

	// no code for 2023
	births2 := mustDF(t, locale("A"), d.MustCol("BIRTHS2023", []int{10}))
	_, ok = FertilityRate(births2, ageSex, "A", 2023, codes)
	assert.False(t, ok)
}

// TestFertilitySeries_Vintages checks each vintage reads its own year codes, including at the 2020
// boundary where both age/sex tables have a July 2020 estimate.
func TestFertilitySeries_Vintages(t *testing.T) {
	cfg := config.Default()
	v20, _ := cfg.Vintage("2020")
	v24, _ := cfg.Vintage("2024")

	oldBirths := mustDF(t, locale("Rural"),
		d.MustCol("BIRTHS2011", []int{40}), d.MustCol("BIRTHS2020", []int{50}))
	oldAgeSex := mustDF(t, locale("Rural", "Rural", "Rural"),
		d.MustCol(census.Year, []int{4, 13, 12}),
		d.MustCol(census.Women1549, []float64{1000, 2000, 3}))

	curBirths := mustDF(t, locale("Rural"),
		d.MustCol("BIRTHS2020", []int{1}), d.MustCol("BIRTHS2021", []int{30}), d.MustCol("BIRTHS2024", []int{36}))
	curAgeSex := mustDF(t, locale("Rural", "Rural", "Rural", "Rural"),
		d.MustCol(census.Year, []int{1, 2, 3, 6}),
		d.MustCol(census.Women1549, []float64{5, 999999, 1000, 1200}))

	sources := []FertilitySource{
		{Births: oldBirths, AgeSex: oldAgeSex, Codes: v20.YearCodes, Years: v20.Years},
		{Births: curBirths, AgeSex: curAgeSex, Codes: v24.YearCodes, Years: v24.Years},
	}

	got := Rates(FertilitySeries(sources, []string{"Large urban", "Rural"}))
	exp := []Point{
		{Category: "Rural", Year: 2011, Value: 40},
		{Category: "Rural", Year: 2020, Value: 25},
		{Category: "Rural", Year: 2021, Value: 30},
		{Category: "Rural", Year: 2024, Value: 30},
	}
	assert.Equal(t, exp, got)

	// a missing optional age/sex table drops its vintage only
	sources[0].AgeSex = nil
	got = Rates(FertilitySeries(sources, []string{"Rural"}))
	assert.Len(t, got, 2)
	assert.Equal(t, 2021, got[0].Year)
}

func under5Fixture(t *testing.T) *d.DF {
	return mustDF(t,
		d.MustCol(census.FIPS, []string{"06037", "06037", "01001", "01001", "99999", "99999"}),
		d.MustCol(census.StateName, []string{"California", "California", "Alabama", "Alabama", "X", "X"}),
		d.MustCol(census.CountyName, []string{"Los Angeles County", "Los Angeles County", "Autauga County",
			"Autauga County", "Nowhere", "Nowhere"}),
		locale("Large urban", "Large urban", "Rural", "Rural", "", ""),
		d.MustCol(census.Year, []int{1, 6, 1, 6, 1, 6}),
		d.MustCol(census.PopEst, []int{10000000, 9700000, 58000, 60000, 10, 10}),
		d.MustCol(census.Under5, []int{600000, 550000, 3000, 3100, 0, 5}),
		d.MustCol(census.Women1549, []float64{2000000, 1800000, 11000, 11500, 2, 2}))
}

func TestUnder5ByCategory(t *testing.T) {
	df := under5Fixture(t)
	got := Under5ByCategory(df, []string{"Large urban", "Suburban", "Rural"}, 1, 6)
	require.Len(t, got, 3)

	assert.Equal(t, "Large urban", got[0].Category)
	assert.Equal(t, -50000, got[0].Change)
	assert.Equal(t, -8.3, *got[0].PctChange)

	// empty category: zeros and a null percent change
	assert.Equal(t, "Suburban", got[1].Category)
	assert.Equal(t, 0, got[1].Start)
	assert.Nil(t, got[1].PctChange)

	assert.Equal(t, 100, got[2].Change)
	assert.Equal(t, 3.3, *got[2].PctChange)

	nat := Nationwide(df, 1, 6)
	assert.Equal(t, 603000, nat.Start)
	assert.Equal(t, 553105, nat.End)
	assert.Equal(t, -49895, nat.Change)
}

func TestLargeUrbanBirths(t *testing.T) {
	df := under5Fixture(t)
	old := mustDF(t, d.MustCol(census.FIPS, []string{"06037"}), d.MustCol("RBIRTH2011", []float64{13}))
	cur := mustDF(t, d.MustCol(census.FIPS, []string{"01001", "06037"}), d.MustCol("RBIRTH2024", []float64{11, 9.8}))

	rows, e := LargeUrbanBirths(df, "Large urban", 1, 6, RateRef{Table: old, Year: 2011}, RateRef{Table: cur, Year: 2024})
	require.Nil(t, e)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "06037", r.FIPS)
	assert.Equal(t, "Los Angeles County", r.County)
	assert.Equal(t, 10000000, r.PopStart)
	assert.Equal(t, 600000, r.Under5Start)
	assert.Equal(t, 550000, r.Under5End)
	assert.Equal(t, -50000, r.Change)
	assert.Equal(t, -8.3, *r.PctChange)
	assert.Equal(t, 13.0, *r.RateStart)
	assert.Equal(t, 9.8, *r.RateEnd)
	assert.Equal(t, -24.6, *r.RatePctChange)

	// a year the old table does not carry
	rows, e = LargeUrbanBirths(df, "Large urban", 1, 6, RateRef{Table: old, Year: 2010}, RateRef{Table: cur, Year: 2024})
	require.Nil(t, e)
	assert.Nil(t, rows[0].RateStart)
	assert.Nil(t, rows[0].RatePctChange)
	assert.NotNil(t, rows[0].RateEnd)

	tot := CountyTotals(rows)
	assert.Equal(t, -50000, tot.Change)
	assert.Equal(t, -8.3, *tot.PctChange)
}

func TestLargeUrbanFertility(t *testing.T) {
	df := under5Fixture(t)
	births := mustDF(t, d.MustCol(census.FIPS, []string{"06037"}),
		d.MustCol("BIRTHS2021", []int{100000}), d.MustCol("BIRTHS2024", []int{81000}))

	rows, e := LargeUrbanFertility(df, births, "Large urban", 1, 6, 2021, 2024)
	require.Nil(t, e)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 2000000, r.WomenStart)
	assert.Equal(t, 1800000, r.WomenEnd)
	// 2021 births over April 2020 women
	assert.Equal(t, 50.0, *r.RateFirst)
	assert.Equal(t, 45.0, *r.RateLatest)
	assert.Equal(t, -10.0, *r.RatePctChange)

	first, latest := PooledFertility(rows)
	assert.Equal(t, 50.0, *first)
	assert.Equal(t, 45.0, *latest)

	rows, e = LargeUrbanFertility(df, nil, "Large urban", 1, 6, 2021, 2024)
	require.Nil(t, e)
	assert.Nil(t, rows[0].RateFirst)
	first, _ = PooledFertility(rows)
	assert.Nil(t, first)
}

func TestMajorCounties(t *testing.T) {
	df := mustDF(t,
		d.MustCol(census.FIPS, []string{"00001", "00002", "00003", "00004", "00001", "00002", "00003", "00004"}),
		d.MustCol(census.StateName, []string{"S", "S", "S", "S", "S", "S", "S", "S"}),
		d.MustCol(census.CountyName, []string{"A", "B", "C", "D", "A", "B", "C", "D"}),
		d.MustCol(census.Year, []int{1, 1, 1, 1, 6, 6, 6, 6}),
		d.MustCol(census.PopEst, []int{300000, 100000, 500000, 400000, 290000, 90000, 510000, 440000}),
		d.MustCol(census.Under5, []int{20000, 5000, 30000, 10000, 19000, 1000, 29000, 12000}))

	rows, e := MajorCounties(df, 1, 6, 250000)
	require.Nil(t, e)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"A", "C", "D"}, []string{rows[0].County, rows[1].County, rows[2].County})
	assert.Equal(t, -5.0, *rows[0].PctChange)
	assert.Equal(t, -3.33, *rows[1].PctChange)
	assert.Equal(t, 20.0, *rows[2].PctChange)
	assert.Equal(t, -10000, rows[0].PopChange)
	assert.Equal(t, -3.33, *rows[0].PopPctChange)
	assert.Equal(t, 10000, rows[1].PopChange)
}

func TestPctChange(t *testing.T) {
	assert.Nil(t, PctChange(0, 5, 1))
	assert.Nil(t, PctChange(nan(), 5, 1))
	assert.Nil(t, PctChange(5, nan(), 1))
	assert.Equal(t, -8.3, *PctChange(600000, 550000, 1))
	assert.Equal(t, -8.33, *PctChange(600000, 550000, 2))
	assert.Equal(t, 5.0, Change(10, 15))
}

func TestSpanChange(t *testing.T) {
	series := []Point{
		{Category: "A", Year: 2011, Value: 12},
		{Category: "A", Year: 2015, Value: 11},
		{Category: "A", Year: 2024, Value: 9},
		{Category: "B", Year: 2011, Value: 0},
		{Category: "B", Year: 2024, Value: 3},
	}

	rc, ok := SpanChange(series, "A", 2011, 2024)
	require.True(t, ok)
	assert.Equal(t, -3.0, rc.Change)
	assert.Equal(t, -25.0, *rc.PctChange)

	rc, ok = SpanChange(series, "B", 2011, 2024)
	require.True(t, ok)
	assert.Nil(t, rc.PctChange)

	_, ok = SpanChange(series, "A", 2011, 2020)
	assert.False(t, ok)

	rc, ok = FirstLastChange(series, "A")
	require.True(t, ok)
	assert.Equal(t, 2011, rc.From)
	assert.Equal(t, 2024, rc.To)

	assert.Len(t, SpanChanges(series, []string{"B", "C", "A"}, 2011, 2024), 2)
}

func TestByCategory(t *testing.T) {
	points := []Point{
		{Category: "Rural", Year: 2024, Value: 1},
		{Category: "Large urban", Year: 2021, Value: 2},
		{Category: "Rural", Year: 2011, Value: 3},
		{Category: "Other", Year: 2011, Value: 4},
	}
	cats := []string{"Large urban", "Suburban", "Rural"}

	g := ByCategory(points, cats)
	require.Len(t, g, 3)
	for ind, cat := range cats {
		assert.Equal(t, cat, g[ind].Category)
	}

	assert.Empty(t, g[1].Points)
	assert.Equal(t, []int{2011, 2024}, []int{g[2].Points[0].Year, g[2].Points[1].Year})

	_, ok := g.Group("Other")
	assert.False(t, ok)
}

func TestTopN(t *testing.T) {
	type row struct {
		name string
		ch   *float64
	}

	rows := []row{{"a", Value(-5)}, {"b", nil}, {"c", Value(-9)}, {"d", Value(-9)}, {"e", Value(3)}}
	key := func(r row) *float64 { return r.ch }

	low := TopN(rows, 2, key, true)
	assert.Equal(t, []string{"c", "d"}, []string{low[0].name, low[1].name})

	high := TopN(rows, -1, key, false)
	require.Len(t, high, 4)
	assert.Equal(t, "e", high[0].name)
	assert.Equal(t, "c", high[2].name)

	// the top decline is the minimum change across rows with a change
	minimum := *rows[0].ch
	for _, r := range rows {
		if r.ch != nil && *r.ch < minimum {
			minimum = *r.ch
		}
	}
	assert.Equal(t, minimum, *TopN(rows, 1, key, true)[0].ch)
}
