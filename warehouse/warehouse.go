// Package warehouse saves the computed series to a SQL database as one long table of
// (category, year, metric, value) rows. ClickHouse and Postgres are supported.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"
	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/config"
	"github.com/invertedv/censusdf/trend"
	_ "github.com/jackc/pgx/stdlib"
)

// Column names of the long table.
const (
	Category = "category"
	Year     = "year"
	Metric   = "metric"
	Value    = "value"
)

const orderBy = Metric + "," + Category + "," + Year

// Metric names.
const (
	BirthRate     = "birth_rate"
	FertilityRate = "fertility_rate"
	Births        = "births"
	Women         = "women_15_49"
	Under5        = "under5"
)

// Series is one named metric.
type Series struct {
	Metric string
	Points []trend.Point
}

// FertilitySeries splits a fertility series into its rate, births and women metrics.
func FertilitySeries(fps []trend.FertilityPoint) []Series {
	births, women := make([]trend.Point, len(fps)), make([]trend.Point, len(fps))
	for ind, fp := range fps {
		births[ind] = trend.Point{Category: fp.Category, Year: fp.Year, Value: fp.Births}
		women[ind] = trend.Point{Category: fp.Category, Year: fp.Year, Value: fp.Women}
	}

	return []Series{
		{Metric: FertilityRate, Points: trend.Rates(fps)},
		{Metric: Births, Points: births},
		{Metric: Women, Points: women},
	}
}

// Under5Series turns the per-category under-5 totals into two points per category.
func Under5Series(changes []trend.Under5Change, baseYear, latestYear int) Series {
	pts := make([]trend.Point, 0, 2*len(changes))
	for _, uc := range changes {
		pts = append(pts,
			trend.Point{Category: uc.Category, Year: baseYear, Value: float64(uc.Start)},
			trend.Point{Category: uc.Category, Year: latestYear, Value: float64(uc.End)})
	}

	return Series{Metric: Under5, Points: pts}
}

// LongForm stacks series into one table.
func LongForm(series ...Series) (*d.DF, error) {
	var (
		cats, metrics []string
		years         []int
		values        []float64
	)

	for _, s := range series {
		for _, p := range s.Points {
			cats = append(cats, p.Category)
			years = append(years, p.Year)
			metrics = append(metrics, s.Metric)
			values = append(values, p.Value)
		}
	}

	if len(cats) == 0 {
		return nil, fmt.Errorf("no points to save")
	}

	return d.NewDF(d.MustCol(Category, cats), d.MustCol(Year, years), d.MustCol(Metric, metrics),
		d.MustCol(Value, values))
}

// Open connects to the database cfg describes and returns its Dialect.
func Open(ctx context.Context, cfg config.Warehouse) (*d.Dialect, error) {
	var (
		db *sql.DB
		e  error
	)

	switch cfg.Dialect {
	case d.ClickHouse:
		opts, ex := clickhouse.ParseDSN(cfg.DSN)
		if ex != nil {
			return nil, fmt.Errorf("warehouse dsn: %w", ex)
		}

		db = clickhouse.OpenDB(opts)
	case d.Postgres:
		if db, e = sql.Open("pgx", cfg.DSN); e != nil {
			return nil, fmt.Errorf("warehouse: %w", e)
		}
	default:
		return nil, fmt.Errorf("unsupported warehouse dialect %q", cfg.Dialect)
	}

	if e := db.PingContext(ctx); e != nil {
		_ = db.Close()
		return nil, fmt.Errorf("warehouse ping: %w", e)
	}

	dlct, e := d.NewDialect(cfg.Dialect, db)
	if e != nil {
		_ = db.Close()
		return nil, e
	}

	if cfg.BufferMB > 0 {
		dlct.SetBufSize(cfg.BufferMB)
	}

	return dlct, nil
}

// Save opens the warehouse and writes series to cfg.Table.
func Save(ctx context.Context, cfg config.Warehouse, series ...Series) error {
	df, e := LongForm(series...)
	if e != nil {
		return e
	}

	dlct, e := Open(ctx, cfg)
	if e != nil {
		return e
	}
	defer func() { _ = dlct.Close() }()

	log.Printf("saving %d rows to %s table %s", df.RowCount(), cfg.Dialect, cfg.Table)

	return dlct.Save(cfg.Table, orderBy, cfg.Overwrite, df)
}
