package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/trend"
)

// *********** Ordered objects ***********

// Member is one key/value pair of an Object.
type Member struct {
	key string
	val any
}

// Object is a JSON object whose members are written in the order they were added. Grouped series and
// the summaries use it so categories come out in the configured order.
type Object []Member

// Add appends a member.
func (o Object) Add(key string, val any) Object {
	return append(o, Member{key: key, val: val})
}

// Keys returns the member names in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for ind, m := range o {
		keys[ind] = m.key
	}

	return keys
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for ind, m := range o {
		if ind > 0 {
			buf.WriteByte(',')
		}

		k, e := json.Marshal(m.key)
		if e != nil {
			return nil, e
		}

		v, e := json.Marshal(m.val)
		if e != nil {
			return nil, fmt.Errorf("%s: %w", m.key, e)
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Key turns a category label into a summary key: "Large urban" -> "large_urban".
func Key(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// YearKey names a per-year field: YearKey("under5", 2020) is "under5_2020".
func YearKey(prefix string, year int) string {
	return fmt.Sprintf("%s_%d", prefix, year)
}

// *********** Series ***********

// BirthRatePoint is a record of birth_rate_ts.json.
type BirthRatePoint struct {
	Category string  `json:"locale_type"`
	Year     int     `json:"year"`
	Rate     float64 `json:"birth_rate"`
}

// FertilityRatePoint is a record of fertility_rate_ts.json.
type FertilityRatePoint struct {
	Category string  `json:"locale_type"`
	Year     int     `json:"year"`
	Rate     float64 `json:"fertility_rate"`
	Births   int     `json:"births"`
	Women    int     `json:"women_15_49"`
}

// YearRate is one element of a grouped series.
type YearRate struct {
	Year int     `json:"year"`
	Rate float64 `json:"rate"`
}

func BirthRates(points []trend.Point) []BirthRatePoint {
	out := make([]BirthRatePoint, len(points))
	for ind, p := range points {
		out[ind] = BirthRatePoint{Category: p.Category, Year: p.Year, Rate: p.Value}
	}

	return out
}

func FertilityRates(points []trend.FertilityPoint) []FertilityRatePoint {
	out := make([]FertilityRatePoint, len(points))
	for ind, p := range points {
		out[ind] = FertilityRatePoint{Category: p.Category, Year: p.Year, Rate: p.Value,
			Births: int(p.Births), Women: int(p.Women)}
	}

	return out
}

// Series is the grouped form of a series: category -> [{year, rate}], categories in group order.
func Series(g trend.Grouped) Object {
	var o Object
	for _, grp := range g {
		yr := make([]YearRate, len(grp.Points))
		for ind, p := range grp.Points {
			yr[ind] = YearRate{Year: p.Year, Rate: p.Value}
		}

		o = o.Add(grp.Category, yr)
	}

	return o
}

// RateChanges renders birth_rate_change.json: locale_type, rate_<from>, rate_<to>, change, pct_change.
func RateChanges(changes []trend.RateChange) []Object {
	out := make([]Object, len(changes))
	for ind, rc := range changes {
		out[ind] = Object{}.
			Add("locale_type", rc.Category).
			Add(YearKey("rate", rc.From), rc.Start).
			Add(YearKey("rate", rc.To), rc.End).
			Add("change", rc.Change).
			Add("pct_change", rc.PctChange)
	}

	return out
}

// Under5 renders under5_by_type.json: locale_type, under5_<base>, under5_<latest>, change, pct_change.
func Under5(changes []trend.Under5Change, baseYear, latestYear int) []Object {
	out := make([]Object, len(changes))
	for ind, uc := range changes {
		out[ind] = Object{}.
			Add("locale_type", uc.Category).
			Add(YearKey("under5", baseYear), uc.Start).
			Add(YearKey("under5", latestYear), uc.End).
			Add("change", uc.Change).
			Add("pct_change", uc.PctChange)
	}

	return out
}

// *********** County map ***********

// BirthRecord is the compact county record of the birth-rate map. The short keys are read by the front end.
type BirthRecord struct {
	Name   string   `json:"n"`
	State  string   `json:"s"`
	Pop    int      `json:"p0"`
	U0     int      `json:"u0"`
	U4     int      `json:"u4"`
	Change int      `json:"ac"`
	Pct    *float64 `json:"pc"`
	BR11   *float64 `json:"br11"`
	BR24   *float64 `json:"br24"`
	BRChg  *float64 `json:"brch"`
}

// FertilityRecord is the compact county record of the fertility map.
type FertilityRecord struct {
	Name   string   `json:"n"`
	State  string   `json:"s"`
	Pop    int      `json:"p0"`
	U0     int      `json:"u0"`
	U4     int      `json:"u4"`
	Change int      `json:"ac"`
	Pct    *float64 `json:"pc"`
	W0     int      `json:"w0"`
	W4     int      `json:"w4"`
	FR21   *float64 `json:"fr21"`
	FR24   *float64 `json:"fr24"`
	FRChg  *float64 `json:"frch"`
}

// BirthCountyMap keys the birth-rate county rows by FIPS.
func BirthCountyMap(rows []trend.BirthCounty) map[string]BirthRecord {
	out := make(map[string]BirthRecord, len(rows))
	for _, r := range rows {
		out[r.FIPS] = BirthRecord{
			Name:   r.County,
			State:  r.State,
			Pop:    r.PopStart,
			U0:     r.Under5Start,
			U4:     r.Under5End,
			Change: r.Change,
			Pct:    r.PctChange,
			BR11:   r.RateStart,
			BR24:   r.RateEnd,
			BRChg:  r.RatePctChange,
		}
	}

	return out
}

// FertilityCountyMap keys the fertility county rows by FIPS.
func FertilityCountyMap(rows []trend.FertilityCounty) map[string]FertilityRecord {
	out := make(map[string]FertilityRecord, len(rows))
	for _, r := range rows {
		out[r.FIPS] = FertilityRecord{
			Name:   r.County,
			State:  r.State,
			Pop:    r.PopStart,
			U0:     r.Under5Start,
			U4:     r.Under5End,
			Change: r.Change,
			Pct:    r.PctChange,
			W0:     r.WomenStart,
			W4:     r.WomenEnd,
			FR21:   r.RateFirst,
			FR24:   r.RateLatest,
			FRChg:  r.RatePctChange,
		}
	}

	return out
}

// *********** Summaries ***********

// Totals renders a before/after total: [count], under5_<base>, under5_<latest>, under5_change,
// under5_pct_change. count is left out if negative.
func Totals(count int, t trend.Totals, baseYear, latestYear int) Object {
	var o Object
	if count >= 0 {
		o = o.Add("count", count)
	}

	return o.
		Add(YearKey("under5", baseYear), t.Start).
		Add(YearKey("under5", latestYear), t.End).
		Add("under5_change", t.Change).
		Add("under5_pct_change", t.PctChange)
}

// Summary assembles summary_stats.json: the focus category's totals under Key(focus), the nationwide
// totals, then the remaining blocks in the order given.
func Summary(focus string, focusTotals, nationwide Object, blocks ...Member) Object {
	o := Object{}.
		Add(Key(focus), focusTotals).
		Add("nationwide", nationwide)

	return append(o, blocks...)
}

// Block names a summary section.
func Block(key string, val any) Member {
	return Member{key: key, val: val}
}

// *********** Major counties ***********

// MajorDF is the under5 job's county table, columns in published order. Null percentages stay null.
func MajorDF(rows []trend.MajorCounty, baseYear, latestYear int) (*d.DF, error) {
	n := len(rows)
	fips, state, county := make([]string, n), make([]string, n), make([]string, n)
	pop0, u0, pop4, u4 := make([]int, n), make([]int, n), make([]int, n), make([]int, n)
	ac, popCh := make([]int, n), make([]int, n)
	pc, popPc := d.MakeVector(d.DTfloat, n), d.MakeVector(d.DTfloat, n)

	for ind, r := range rows {
		fips[ind], state[ind], county[ind] = r.FIPS, r.State, r.County
		pop0[ind], u0[ind], pop4[ind], u4[ind] = r.PopStart, r.Under5Start, r.PopEnd, r.Under5End
		ac[ind], popCh[ind] = r.Change, r.PopChange

		setOptional(pc, r.PctChange, ind)
		setOptional(popPc, r.PopPctChange, ind)
	}

	pcCol, e := d.NewCol("under5_pct_change", pc, d.DTfloat)
	if e != nil {
		return nil, e
	}

	popPcCol, e := d.NewCol("total_pop_pct_change", popPc, d.DTfloat)
	if e != nil {
		return nil, e
	}

	return d.NewDF(
		d.MustCol("FIPS", fips),
		d.MustCol("state", state),
		d.MustCol("county", county),
		d.MustCol(YearKey("pop", baseYear), pop0),
		d.MustCol(YearKey("under5", baseYear), u0),
		d.MustCol(YearKey("pop", latestYear), pop4),
		d.MustCol(YearKey("under5", latestYear), u4),
		d.MustCol("under5_absolute_change", ac),
		pcCol,
		d.MustCol("total_pop_change", popCh),
		popPcCol)
}

func setOptional(v *d.Vector, x *float64, indx int) {
	if x == nil {
		v.SetNA(indx)
		return
	}

	v.SetFloat(*x, indx)
}

// Records turns a table into JSON records, one object per row with columns in table order.
func Records(df *d.DF) []Object {
	out := make([]Object, df.RowCount())
	names := df.ColumnNames()
	for r := range out {
		o := make(Object, 0, len(names))
		for _, cn := range names {
			o = o.Add(cn, df.Column(cn).Element(r))
		}

		out[r] = o
	}

	return out
}
