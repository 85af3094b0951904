// Package census loads the county tables published by the Census Bureau and the county typology,
// normalizing the state and county codes into a five-character FIPS key.
package census

import (
	"fmt"
	"log"
	"strings"

	d "github.com/invertedv/censusdf"
)

// Column names shared by the loaders and their callers.
const (
	FIPS       = "FIPS"
	State      = "STATE"
	County     = "COUNTY"
	StateName  = "STNAME"
	CountyName = "CTYNAME"
	Year       = "YEAR"
	PopEst     = "POPESTIMATE"
	Under5     = "UNDER5_TOT"
	Women1549  = "WOMEN_15_49"

	TypologyKey = "county_fips"
	Locale      = "locale_type"

	summaryCounty = "000"
)

// FemaleBrackets are the age/sex columns summed into WOMEN_15_49.
var FemaleBrackets = []string{"AGE1519_FEM", "AGE2024_FEM", "AGE2529_FEM", "AGE3034_FEM",
	"AGE3539_FEM", "AGE4044_FEM", "AGE4549_FEM"}

// PadCode left-pads code with zeros to width.
func PadCode(code string, width int) string {
	code = strings.TrimSpace(code)
	if len(code) >= width {
		return code
	}

	return strings.Repeat("0", width-len(code)) + code
}

// CompositeKey builds the FIPS key from a state and a county code.
func CompositeKey(state, county string) string {
	return PadCode(state, 2) + PadCode(county, 3)
}

// RateCol returns the name of a per-year column such as RBIRTH2011.
func RateCol(prefix string, year int) string {
	return fmt.Sprintf("%s%d", prefix, year)
}

// LoadTypology reads the county typology: county_fips (padded to five) and locale_type.
func LoadTypology(f *d.Files, path string) (*d.DF, error) {
	df, e := f.Load(path)
	if e != nil {
		return nil, e
	}

	if !df.HasColumns(TypologyKey, Locale) {
		return nil, fmt.Errorf("%s: need columns %s and %s", path, TypologyKey, Locale)
	}

	keys := df.Column(TypologyKey).AsString()
	padded := make([]string, len(keys))
	for ind, k := range keys {
		padded[ind] = PadCode(k, 5)
	}

	if e := df.AppendColumn(d.MustCol(TypologyKey, padded), true); e != nil {
		return nil, e
	}

	return df.KeepColumns(TypologyKey, Locale)
}

// LoadComponents reads a county population-components table (co-est*-alldata), adds FIPS and drops the
// state summary rows.
func LoadComponents(f *d.Files, path string) (*d.DF, error) {
	df, e := f.Load(path)
	if e != nil {
		return nil, e
	}

	if e := addKey(df, path); e != nil {
		return nil, e
	}

	county := df.Column(County)

	return df.Where(func(r int) bool { return county.ElementString(r) != summaryCounty }), nil
}

// LoadAgeSex reads a county age/sex table (cc-est*-agesex-all), adds FIPS and derives WOMEN_15_49.
// Unparseable age counts (the older vintage has a few) count as zero.
func LoadAgeSex(f *d.Files, path string) (*d.DF, error) {
	df, e := f.Load(path)
	if e != nil {
		return nil, e
	}

	if e := addKey(df, path); e != nil {
		return nil, e
	}

	if !df.HasColumns(Year) {
		return nil, fmt.Errorf("%s: no %s column", path, Year)
	}

	women := make([]float64, df.RowCount())
	for _, cn := range FemaleBrackets {
		c, ex := df.MustColumn(cn)
		if ex != nil {
			return nil, fmt.Errorf("%s: %w", path, ex)
		}

		clean := c.Coerce(d.DTfloat).FillNA(0)
		if ex := df.AppendColumn(d.MustCol(cn, clean.AsFloat()), true); ex != nil {
			return nil, ex
		}

		for r, x := range clean.AsFloat() {
			women[r] += x
		}
	}

	if e := df.AppendColumn(d.MustCol(Women1549, women), true); e != nil {
		return nil, e
	}

	return df, nil
}

// Classify attaches locale_type from typology. Counties missing from the typology get a null category.
func Classify(df, typology *d.DF) (*d.DF, error) {
	out, e := d.LeftJoin(df, typology, FIPS, TypologyKey, Locale)
	if e != nil {
		return nil, e
	}

	if n := out.Column(Locale).NACount(); n > 0 {
		log.Printf("%d rows have no %s", n, Locale)
	}

	return out, nil
}

// addKey pads STATE and COUNTY in place and appends FIPS.
func addKey(df *d.DF, path string) error {
	if !df.HasColumns(State, County) {
		return fmt.Errorf("%s: need columns %s and %s", path, State, County)
	}

	states, counties := df.Column(State).AsString(), df.Column(County).AsString()
	st := make([]string, len(states))
	co := make([]string, len(counties))
	keys := make([]string, len(states))
	for r := range states {
		st[r], co[r] = PadCode(states[r], 2), PadCode(counties[r], 3)
		keys[r] = st[r] + co[r]
	}

	for _, c := range []*d.Col{d.MustCol(State, st), d.MustCol(County, co), d.MustCol(FIPS, keys)} {
		if e := df.AppendColumn(c, true); e != nil {
			return e
		}
	}

	return nil
}
