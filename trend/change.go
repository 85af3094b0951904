package trend

import (
	"math"
	"slices"

	d "github.com/invertedv/censusdf"
)

// *********** Change metrics ***********

// Change is end - start.
func Change(start, end float64) float64 {
	return end - start
}

// PctChange is (end - start) / start * 100 rounded to places. A NaN argument stands for a missing value;
// the result is nil if either value is missing or start is zero.
func PctChange(start, end float64, places int) *float64 {
	if math.IsNaN(start) || math.IsNaN(end) || start == 0 {
		return nil
	}

	pc := d.Round((end-start)/start*100, places)

	return &pc
}

// RateChange compares a category's rate in two years of a series.
type RateChange struct {
	Category  string
	From      int
	To        int
	Start     float64
	End       float64
	Change    float64
	PctChange *float64
}

func newRateChange(category string, from, to Point) RateChange {
	return RateChange{
		Category:  category,
		From:      from.Year,
		To:        to.Year,
		Start:     from.Value,
		End:       to.Value,
		Change:    d.Round(Change(from.Value, to.Value), ratePlaces),
		PctChange: PctChange(from.Value, to.Value, changePlaces),
	}
}

// SpanChange compares category's values in years from and to. It returns false if either year is
// missing from series.
func SpanChange(series []Point, category string, from, to int) (RateChange, bool) {
	var start, end *Point
	for ind := range series {
		p := &series[ind]
		if p.Category != category {
			continue
		}

		switch p.Year {
		case from:
			start = p
		case to:
			end = p
		}
	}

	if start == nil || end == nil {
		return RateChange{}, false
	}

	return newRateChange(category, *start, *end), true
}

// FirstLastChange compares category's earliest and latest values in series.
func FirstLastChange(series []Point, category string) (RateChange, bool) {
	var first, last *Point
	for ind := range series {
		p := &series[ind]
		if p.Category != category {
			continue
		}

		if first == nil || p.Year < first.Year {
			first = p
		}

		if last == nil || p.Year > last.Year {
			last = p
		}
	}

	if first == nil {
		return RateChange{}, false
	}

	return newRateChange(category, *first, *last), true
}

// SpanChanges is SpanChange for each category, skipping categories missing either year.
func SpanChanges(series []Point, categories []string, from, to int) []RateChange {
	var out []RateChange
	for _, cat := range categories {
		if rc, ok := SpanChange(series, cat, from, to); ok {
			out = append(out, rc)
		}
	}

	return out
}

// *********** Grouping ***********

// Group is one category's points, in year order.
type Group struct {
	Category string
	Points   []Point
}

// Grouped is a series split by category. Its order is the category order it was built with.
type Grouped []Group

// ByCategory splits points by category. Every category gets a group, possibly empty; points whose
// category is not listed are dropped.
func ByCategory(points []Point, categories []string) Grouped {
	out := make(Grouped, len(categories))
	for ind, cat := range categories {
		out[ind].Category = cat
		out[ind].Points = []Point{}
		for _, p := range points {
			if p.Category == cat {
				out[ind].Points = append(out[ind].Points, p)
			}
		}

		slices.SortStableFunc(out[ind].Points, func(a, b Point) int { return a.Year - b.Year })
	}

	return out
}

// Group returns the group for category.
func (g Grouped) Group(category string) (Group, bool) {
	for _, grp := range g {
		if grp.Category == category {
			return grp, true
		}
	}

	return Group{}, false
}

// *********** Ranking ***********

// TopN returns the first n rows ordered by key, ascending or descending. Rows whose key is nil are left
// out and ties keep their input order. n < 0 returns every ranked row.
func TopN[T any](rows []T, n int, key func(T) *float64, ascending bool) []T {
	ranked := make([]T, 0, len(rows))
	for _, r := range rows {
		if key(r) != nil {
			ranked = append(ranked, r)
		}
	}

	slices.SortStableFunc(ranked, func(a, b T) int {
		ka, kb := *key(a), *key(b)
		if !ascending {
			ka, kb = kb, ka
		}

		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}

		return 0
	})

	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}

	return ranked
}

// Value returns a pointer to x, for use as a TopN key.
func Value(x float64) *float64 {
	return &x
}
