package censusdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typology() *DF {
	df, _ := NewDF(
		MustCol("county_fips", []string{"06037", "17031", "48201"}),
		MustCol("locale_type", []string{"Large urban", "Large urban", "Mid-sized urban"}),
	)

	return df
}

func TestLeftJoin(t *testing.T) {
	out, e := LeftJoin(testDF(), typology(), "fips", "county_fips", "locale_type")
	require.Nil(t, e)

	assert.Equal(t, 4, out.RowCount())
	lt := out.Column("locale_type")
	assert.Equal(t, "Large urban", lt.Element(0))
	assert.Equal(t, "Mid-sized urban", lt.Element(2))
	assert.True(t, lt.IsNA(3))

	_, e = LeftJoin(testDF(), typology(), "fips", "county_fips", "nope")
	assert.NotNil(t, e)

	_, e = LeftJoin(testDF(), typology(), "pop", "county_fips", "locale_type")
	assert.NotNil(t, e)
}

func TestMerge(t *testing.T) {
	base, _ := NewDF(
		MustCol("FIPS", []string{"06037", "17031", "04013"}),
		MustCol("UNDER5_TOT", []int{600000, 320000, 280000}),
	)
	latest, _ := NewDF(
		MustCol("FIPS", []string{"17031", "06037"}),
		MustCol("UNDER5_TOT", []int{300000, 550000}),
	)

	in, e := Merge(base, latest, "FIPS", Inner, [2]string{"_2020", "_2024"})
	require.Nil(t, e)
	assert.Equal(t, []string{"FIPS", "UNDER5_TOT_2020", "UNDER5_TOT_2024"}, in.ColumnNames())
	assert.Equal(t, []string{"06037", "17031"}, in.Column("FIPS").AsString())
	assert.Equal(t, []int{550000, 300000}, in.Column("UNDER5_TOT_2024").AsInt())

	left, e := Merge(base, latest, "FIPS", Left, [2]string{"_2020", "_2024"})
	require.Nil(t, e)
	assert.Equal(t, 3, left.RowCount())
	assert.True(t, left.Column("UNDER5_TOT_2024").IsNA(2))
}
