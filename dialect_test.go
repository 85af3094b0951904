package censusdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialect(t *testing.T) {
	for _, which := range []string{ClickHouse, Postgres} {
		d, e := NewDialect(which, nil)
		require.Nil(t, e)
		assert.Equal(t, which, d.DialectName())
	}

	_, e := NewDialect("mysql", nil)
	assert.NotNil(t, e)
}

func TestDialect_CreateSQL(t *testing.T) {
	fields := []string{"category", "year", "value"}
	types := []DataTypes{DTstring, DTint, DTfloat}

	ch, _ := NewDialect(ClickHouse, nil)
	s, e := ch.CreateSQL("cff.rates", "category,year", fields, types)
	require.Nil(t, e)
	assert.Equal(t,
		"CREATE TABLE cff.rates (category String, year Int64, value Nullable(Float64)) ENGINE = MergeTree() ORDER BY (category,year)", s)

	pg, _ := NewDialect(Postgres, nil)
	s, e = pg.CreateSQL("rates", "", fields, types)
	require.Nil(t, e)
	assert.Equal(t, "CREATE TABLE rates (category TEXT, year BIGINT, value DOUBLE PRECISION)", s)

	_, e = pg.CreateSQL("rates", "", fields, types[:2])
	assert.NotNil(t, e)
}

func TestDialect_InsertSQL(t *testing.T) {
	df, _ := NewDF(
		MustCol("category", []string{"Large urban", "Rural's"}),
		MustCol("year", []int{2011, 2024}),
		MustCol("value", []float64{12.5, 10}),
	)
	df.Column("value").SetNA(1)

	pg, _ := NewDialect(Postgres, nil)
	q := pg.InsertSQL("rates", df)
	require.Len(t, q, 1)
	assert.Equal(t,
		"INSERT INTO rates (category,year,value) VALUES ('Large urban',2011,12.5),('Rural''s',2024,NULL)", q[0])

	// a zero buffer size never splits
	pg.SetBufSize(0)
	assert.Len(t, pg.InsertSQL("rates", df), 1)
	assert.True(t, strings.HasPrefix(pg.InsertSQL("rates", df)[0], "INSERT INTO rates"))
}
