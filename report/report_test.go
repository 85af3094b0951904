package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/invertedv/censusdf/config"
	"github.com/invertedv/censusdf/trend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReporter() (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, config.Default().Categories), &buf
}

func TestUnder5_Order(t *testing.T) {
	r, buf := newReporter()
	// out of order on purpose
	changes := []trend.Under5Change{
		{Category: config.Rural, Totals: trend.Totals{Start: 100, End: 90, Change: -10, PctChange: trend.Value(-10)}},
		{Category: config.LargeUrban, Totals: trend.Totals{Start: 600000, End: 550000, Change: -50000,
			PctChange: trend.Value(-8.3)}},
		{Category: config.Suburban, Totals: trend.Totals{}},
	}
	r.Under5("Under-5 population changes by county type", changes)

	out := buf.String()
	assert.Contains(t, out, "Large urban: 600,000 -> 550,000 (-8.3%)")
	assert.Contains(t, out, "Suburban: 0 -> 0 (n/a)")

	lu := strings.Index(out, config.LargeUrban)
	sub := strings.Index(out, config.Suburban)
	rur := strings.Index(out, config.Rural)
	assert.True(t, lu < sub && sub < rur)
}

func TestRateChanges(t *testing.T) {
	r, buf := newReporter()
	r.RateChanges("Birth rate changes", []trend.RateChange{
		{Category: config.SmallTown, From: 2011, To: 2024, Start: 12.04, End: 10.01, PctChange: trend.Value(-16.9)},
	})
	assert.Contains(t, buf.String(), "Small town: 12.0 -> 10.0 (-16.9%)")
}

func TestFertility(t *testing.T) {
	r, buf := newReporter()
	r.FertilityPoints([]trend.FertilityPoint{
		{Point: trend.Point{Category: config.Rural, Year: 2021, Value: 61.5}, Births: 12300, Women: 200000},
	})
	r.FertilitySummary([]trend.RateChange{
		{Category: config.Rural, From: 2021, To: 2024, Start: 61.5, End: 58.2, Change: -3.3, PctChange: trend.Value(-5.4)},
	})

	out := buf.String()
	assert.Contains(t, out, "Rural 2021: 61.50 per 1000 (12,300 births / 200,000 women)")
	assert.Contains(t, out, "  2024: 58.2 per 1,000 women")
	assert.Contains(t, out, "Change: -3.3 (-5.4%)")
}

func TestCountyRankings(t *testing.T) {
	r, buf := newReporter()
	rows := []trend.BirthCounty{
		{
			CountyChange: trend.CountyChange{FIPS: "06037", State: "California", County: "Los Angeles County",
				Under5Start: 600000, Under5End: 550000, Change: -50000, PctChange: trend.Value(-8.3)},
			RateStart:     trend.Value(13),
			RatePctChange: trend.Value(-24.6),
		},
	}

	r.Declines("Largest under-5 declines (absolute)", Changes(rows))
	r.PctDeclines("Largest under-5 declines (percentage)", Changes(rows))
	r.BirthRateDeclines("Largest birth rate declines", rows)
	r.Gainers("Gainers", []trend.CountyChange{{State: "Texas", County: "Fort Bend County", Change: 2500,
		PctChange: trend.Value(6.2)}})

	out := buf.String()
	assert.Contains(t, out, "Los Angeles County, California: -50,000 (-8.3%)")
	assert.Contains(t, out, "Los Angeles County, California: -8.3% (-50,000)")
	assert.Contains(t, out, "Los Angeles County, California: 13.0 -> n/a (-24.6%)")
	assert.Contains(t, out, "Fort Bend County, Texas: +2,500 (+6.2%)")
}

func TestBannerAndAggregate(t *testing.T) {
	r, buf := newReporter()
	r.Banner("CITIES FOR FAMILIES - BIRTH RATE ANALYSIS", "Using EIG County Typology")
	r.Section("LARGE URBAN COUNTIES DETAIL")
	r.Typology(3, map[string]int{config.LargeUrban: 2, config.Rural: 1})
	r.Aggregate("major counties", 2, trend.Totals{Start: 1000, End: 900, Change: -100, PctChange: trend.Value(-10)})
	r.Exported("birth_rate_ts.json", "4 records")

	out := buf.String()
	require.True(t, strings.HasPrefix(out, strings.Repeat("=", width)))
	assert.Contains(t, out, "BIRTH RATE ANALYSIS")
	assert.Contains(t, out, "LARGE URBAN COUNTIES DETAIL")
	assert.Contains(t, out, "  Mid-sized urban: 0\n")
	assert.Contains(t, out, "Number of major counties: 2")
	assert.Contains(t, out, "Absolute change: -100")
	assert.Contains(t, out, "Exported birth_rate_ts.json: 4 records")
}
