// Package config holds everything a pipeline run needs to know: input and output locations, the
// category order, and the per-vintage tables that map calendar years to the YEAR codes used in the
// Census age/sex files.
//
// A run starts from Default(), overlays an optional YAML file and finally the environment (after an
// optional .env file has been loaded), so credentials never need to live in the YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Canonical category order. Every grouped output follows it.
const (
	LargeUrban    = "Large urban"
	MidSizedUrban = "Mid-sized urban"
	SmallUrban    = "Small urban"
	Suburban      = "Suburban"
	SmallTown     = "Small town"
	Rural         = "Rural"
)

// YearCodes maps a calendar year to the YEAR code of its July 1 estimate in one vintage's age/sex table.
type YearCodes map[int]int

// Code returns the YEAR code for year.
func (yc YearCodes) Code(year int) (int, bool) {
	c, ok := yc[year]
	return c, ok
}

// Year returns the calendar year whose estimate has YEAR code code.
func (yc YearCodes) Year(code int) (int, bool) {
	for y, c := range yc {
		if c == code {
			return y, true
		}
	}

	return 0, false
}

// Years returns the calendar years in the table, ascending.
func (yc YearCodes) Years() []int {
	years := make([]int, 0, len(yc))
	for y := range yc {
		years = append(years, y)
	}

	sort.Ints(years)

	return years
}

// Span is an inclusive range of calendar years.
type Span struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

func (s Span) Contains(year int) bool {
	return year >= s.From && year <= s.To
}

// Vintage describes one Census release: its files and its year coding.
type Vintage struct {
	Name       string `yaml:"name"`
	Components string `yaml:"components"` // co-est<vintage>-alldata.csv
	AgeSex     string `yaml:"age_sex"`    // cc-est<vintage>-agesex-all.csv

	// AgeSexOptional lets a run continue without the age/sex table; its fertility points are skipped.
	AgeSexOptional bool `yaml:"age_sex_optional"`

	// BaseCode is the YEAR code of the April 1 estimates base.
	BaseCode  int       `yaml:"base_code"`
	YearCodes YearCodes `yaml:"year_codes"`

	// Years are the calendar years this vintage contributes to the rate series.
	Years Span `yaml:"years"`
}

type Output struct {
	Dir      string `yaml:"dir"`
	Charts   bool   `yaml:"charts"`
	Workbook bool   `yaml:"workbook"`
}

// Warehouse is an optional SQL sink for the long-form series.
type Warehouse struct {
	Dialect   string `yaml:"dialect"` // clickhouse or postgres
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	Overwrite bool   `yaml:"overwrite"`

	// BufferMB caps the size of one INSERT statement; 0 keeps the 8 MB default.
	BufferMB int `yaml:"buffer_mb"`
}

func (w Warehouse) Enabled() bool {
	return w.DSN != ""
}

// Publish is an optional S3-compatible bucket the output directory is copied to.
type Publish struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (p Publish) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

type Config struct {
	Typology string `yaml:"typology"`
	Encoding string `yaml:"encoding"`

	Vintages []Vintage `yaml:"vintages"`

	// Current names the vintage whose age/sex table supplies the under-5 baseline and latest counts.
	Current    string `yaml:"current"`
	LatestYear int    `yaml:"latest_year"`

	Categories []string `yaml:"categories"`
	Focus      string   `yaml:"focus"`

	// RateChange is the pair of years the birth-rate change summary compares.
	RateChange Span `yaml:"rate_change"`

	MajorThreshold int `yaml:"major_threshold"`
	TopN           int `yaml:"top_n"`
	MajorTopN      int `yaml:"major_top_n"`

	Output    Output    `yaml:"output"`
	Warehouse Warehouse `yaml:"warehouse"`
	Publish   Publish   `yaml:"publish"`
}

// Default returns a complete configuration reading from data/raw and writing to data/out.
func Default() *Config {
	return &Config{
		Typology: "data/raw/county_summary_final.csv",
		Encoding: "latin-1",
		Vintages: []Vintage{
			{
				Name:           "2020",
				Components:     "data/raw/co-est2020-alldata.csv",
				AgeSex:         "data/raw/cc-est2020-agesex-all.csv",
				AgeSexOptional: true,
				BaseCode:       1, // 4/1/2010
				YearCodes: YearCodes{2010: 3, 2011: 4, 2012: 5, 2013: 6, 2014: 7, 2015: 8, 2016: 9,
					2017: 10, 2018: 11, 2019: 12, 2020: 13},
				Years: Span{From: 2011, To: 2020},
			},
			{
				Name:       "2024",
				Components: "data/raw/co-est2024-alldata.csv",
				AgeSex:     "data/raw/cc-est2024-agesex-all.csv",
				BaseCode:   1, // 4/1/2020
				YearCodes:  YearCodes{2020: 2, 2021: 3, 2022: 4, 2023: 5, 2024: 6},
				Years:      Span{From: 2021, To: 2024},
			},
		},
		Current:        "2024",
		LatestYear:     2024,
		Categories:     []string{LargeUrban, MidSizedUrban, SmallUrban, Suburban, SmallTown, Rural},
		Focus:          LargeUrban,
		RateChange:     Span{From: 2011, To: 2024},
		MajorThreshold: 250000,
		TopN:           10,
		MajorTopN:      20,
		Output:         Output{Dir: "data/out"},
		Warehouse:      Warehouse{Table: "cff_series", Overwrite: true},
		Publish:        Publish{Region: "us-east-1"},
	}
}

// Load builds a Config from Default, the YAML file at path (skipped if path is empty) and the
// environment. envFiles are passed to godotenv; a missing .env file is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, e := os.ReadFile(path)
		if e != nil {
			return nil, fmt.Errorf("config: %w", e)
		}

		if e := yaml.Unmarshal(b, cfg); e != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, e)
		}
	}

	if e := godotenv.Load(envFiles...); e != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("config: env: %w", e)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if e := cfg.Validate(); e != nil {
		return nil, e
	}

	return cfg, nil
}

// ApplyEnv overrides sink settings and the output directory from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("CFF_OUTPUT_DIR", &c.Output.Dir)
	str("CFF_WAREHOUSE_DIALECT", &c.Warehouse.Dialect)
	str("CFF_WAREHOUSE_DSN", &c.Warehouse.DSN)
	str("CFF_S3_ENDPOINT", &c.Publish.Endpoint)
	str("CFF_S3_BUCKET", &c.Publish.Bucket)
	str("CFF_S3_REGION", &c.Publish.Region)
	str("CFF_S3_ACCESS_KEY", &c.Publish.AccessKey)
	str("CFF_S3_SECRET_KEY", &c.Publish.SecretKey)

	if v, ok := lookup("CFF_S3_USE_SSL"); ok {
		if b, e := strconv.ParseBool(strings.TrimSpace(v)); e == nil {
			c.Publish.UseSSL = b
		}
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Categories) == 0 {
		errs = append(errs, fmt.Errorf("no categories"))
	}

	seen := make(map[string]bool)
	for _, cat := range c.Categories {
		if seen[cat] {
			errs = append(errs, fmt.Errorf("duplicate category %q", cat))
		}
		seen[cat] = true
	}

	if !seen[c.Focus] {
		errs = append(errs, fmt.Errorf("focus category %q is not in the category order", c.Focus))
	}

	names := make(map[string]bool)
	for _, v := range c.Vintages {
		if names[v.Name] {
			errs = append(errs, fmt.Errorf("duplicate vintage %q", v.Name))
		}
		names[v.Name] = true

		if len(v.YearCodes) == 0 {
			errs = append(errs, fmt.Errorf("vintage %q has no year codes", v.Name))
		}

		if _, ok := v.YearCodes.Year(v.BaseCode); ok {
			errs = append(errs, fmt.Errorf("vintage %q base code %d is also an estimate code", v.Name, v.BaseCode))
		}

		if v.Years.From > v.Years.To {
			errs = append(errs, fmt.Errorf("vintage %q years run backwards", v.Name))
		}
	}

	cur, ok := c.Vintage(c.Current)
	if !ok {
		errs = append(errs, fmt.Errorf("current vintage %q not configured", c.Current))
	} else if _, ok := cur.YearCodes.Code(c.LatestYear); !ok {
		errs = append(errs, fmt.Errorf("latest year %d has no code in vintage %q", c.LatestYear, c.Current))
	}

	for _, y := range []int{c.RateChange.From, c.RateChange.To} {
		if _, ok := c.VintageFor(y); !ok {
			errs = append(errs, fmt.Errorf("rate change year %d is in no vintage's years", y))
		}
	}

	if c.Warehouse.Enabled() && c.Warehouse.Dialect == "" {
		errs = append(errs, fmt.Errorf("warehouse dsn set without a dialect"))
	}

	if e := errors.Join(errs...); e != nil {
		return fmt.Errorf("config: %w", e)
	}

	return nil
}

// Vintage returns the vintage named name.
func (c *Config) Vintage(name string) (Vintage, bool) {
	for _, v := range c.Vintages {
		if v.Name == name {
			return v, true
		}
	}

	return Vintage{}, false
}

// VintageFor returns the vintage whose series years include year.
func (c *Config) VintageFor(year int) (Vintage, bool) {
	for _, v := range c.Vintages {
		if v.Years.Contains(year) {
			return v, true
		}
	}

	return Vintage{}, false
}

// LatestCode is the YEAR code of the latest estimate in the current vintage.
func (c *Config) LatestCode() int {
	v, _ := c.Vintage(c.Current)
	code, _ := v.YearCodes.Code(c.LatestYear)

	return code
}

// BaseCode is the YEAR code of the estimates base in the current vintage.
func (c *Config) BaseCode() int {
	v, _ := c.Vintage(c.Current)

	return v.BaseCode
}
