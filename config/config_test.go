package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Nil(t, cfg.Validate())

	assert.Equal(t, []string{"Large urban", "Mid-sized urban", "Small urban", "Suburban", "Small town", "Rural"},
		cfg.Categories)
	assert.Equal(t, 1, cfg.BaseCode())
	assert.Equal(t, 6, cfg.LatestCode())
}

func TestYearCodes_Vintages(t *testing.T) {
	cfg := Default()

	old, ok := cfg.Vintage("2020")
	require.True(t, ok)
	code, ok := old.YearCodes.Code(2011)
	assert.True(t, ok)
	assert.Equal(t, 4, code)
	code, _ = old.YearCodes.Code(2020)
	assert.Equal(t, 13, code)
	_, ok = old.YearCodes.Code(2021)
	assert.False(t, ok)

	cur, _ := cfg.Vintage("2024")
	code, _ = cur.YearCodes.Code(2020)
	assert.Equal(t, 2, code)
	code, _ = cur.YearCodes.Code(2021)
	assert.Equal(t, 3, code)
	y, ok := cur.YearCodes.Year(6)
	assert.True(t, ok)
	assert.Equal(t, 2024, y)
	_, ok = cur.YearCodes.Year(1)
	assert.False(t, ok)

	assert.Equal(t, []int{2020, 2021, 2022, 2023, 2024}, cur.YearCodes.Years())
}

func TestVintageFor_Boundary(t *testing.T) {
	cfg := Default()

	v, ok := cfg.VintageFor(2020)
	require.True(t, ok)
	assert.Equal(t, "2020", v.Name)

	v, ok = cfg.VintageFor(2021)
	require.True(t, ok)
	assert.Equal(t, "2024", v.Name)

	_, ok = cfg.VintageFor(2010)
	assert.False(t, ok)
}

func TestLoad_YAML(t *testing.T) {
	const doc = `
typology: fixtures/types.csv
categories: [Large urban, Rural]
focus: Large urban
output:
  dir: out
  charts: true
warehouse:
  buffer_mb: 2
`
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.Nil(t, os.WriteFile(p, []byte(doc), 0o644))

	cfg, e := Load(p)
	require.Nil(t, e)
	assert.Equal(t, "fixtures/types.csv", cfg.Typology)
	assert.Equal(t, []string{"Large urban", "Rural"}, cfg.Categories)
	assert.True(t, cfg.Output.Charts)
	assert.Equal(t, 2, cfg.Warehouse.BufferMB)
	assert.Equal(t, "cff_series", cfg.Warehouse.Table)
	assert.Len(t, cfg.Vintages, 2)
}

func TestLoad_Errors(t *testing.T) {
	_, e := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, e)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.Nil(t, os.WriteFile(p, []byte("focus: Downtown\n"), 0o644))
	_, e = Load(p)
	assert.ErrorContains(t, e, "focus category")
}

func TestLoad_EnvFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "test.env")
	require.Nil(t, os.WriteFile(p, []byte("CFF_S3_ENDPOINT=localhost:9000\nCFF_S3_BUCKET=cff\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("CFF_S3_ENDPOINT")
		_ = os.Unsetenv("CFF_S3_BUCKET")
	})

	cfg, e := Load("", p)
	require.Nil(t, e)
	assert.True(t, cfg.Publish.Enabled())
	assert.Equal(t, "cff", cfg.Publish.Bucket)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CFF_WAREHOUSE_DIALECT": "clickhouse",
		"CFF_WAREHOUSE_DSN":     "clickhouse://localhost:9000/default",
		"CFF_S3_USE_SSL":        "true",
		"CFF_OUTPUT_DIR":        " site/data ",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.True(t, cfg.Warehouse.Enabled())
	assert.Equal(t, "clickhouse", cfg.Warehouse.Dialect)
	assert.True(t, cfg.Publish.UseSSL)
	assert.Equal(t, "site/data", cfg.Output.Dir)
	assert.False(t, cfg.Publish.Enabled())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Categories = append(cfg.Categories, "Rural")
	cfg.Vintages[1].BaseCode = 6
	cfg.Current = "2030"
	cfg.RateChange.To = 2030

	e := cfg.Validate()
	require.NotNil(t, e)
	assert.ErrorContains(t, e, "duplicate category")
	assert.ErrorContains(t, e, "base code 6")
	assert.ErrorContains(t, e, "current vintage")
	assert.ErrorContains(t, e, "rate change year 2030")
}
