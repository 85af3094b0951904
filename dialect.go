package censusdf

import (
	"database/sql"
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// All code interacting with a database is here

var (
	//go:embed skeletons/clickhouse/create.txt
	chCreate string
	//go:embed skeletons/postgres/create.txt
	pgCreate string

	//go:embed skeletons/clickhouse/types.txt
	chTypes string
	//go:embed skeletons/postgres/types.txt
	pgTypes string

	//go:embed skeletons/clickhouse/fields.txt
	chFields string
	//go:embed skeletons/postgres/fields.txt
	pgFields string

	//go:embed skeletons/clickhouse/dropIf.txt
	chDropIf string
	//go:embed skeletons/postgres/dropIf.txt
	pgDropIf string

	//go:embed skeletons/clickhouse/insert.txt
	chInsert string
	//go:embed skeletons/postgres/insert.txt
	pgInsert string
)

const (
	ClickHouse = "clickhouse"
	Postgres   = "postgres"
)

type Dialect struct {
	db      *sql.DB
	dialect string

	dtTypes []string
	dbTypes []string

	create string
	insert string
	dropIf string
	fields string

	bufSize int // in MB
}

func NewDialect(dialect string, db *sql.DB) (*Dialect, error) {
	dialect = strings.ToLower(dialect)

	d := &Dialect{db: db, dialect: dialect, bufSize: 8}

	var types string
	switch d.dialect {
	case ClickHouse:
		d.create, d.fields, d.dropIf, d.insert = chCreate, chFields, chDropIf, chInsert
		types = chTypes
	case Postgres:
		d.create, d.fields, d.dropIf, d.insert = pgCreate, pgFields, pgDropIf, pgInsert
		types = pgTypes
	default:
		return nil, fmt.Errorf("no skeletons for database %s", dialect)
	}

	for _, lm := range strings.Split(types, "\n") {
		if strings.TrimSpace(lm) == "" {
			continue
		}

		t := strings.SplitN(lm, ",", 2)
		if len(t) != 2 {
			return nil, fmt.Errorf("bad type line in skeleton: %s", lm)
		}

		d.dtTypes = append(d.dtTypes, t[0])
		d.dbTypes = append(d.dbTypes, strings.TrimSpace(t[1]))
	}

	return d, nil
}

// ***************** Methods *****************

// SetBufSize sets the largest INSERT statement, in MB. Zero never splits.
func (d *Dialect) SetBufSize(mb int) {
	d.bufSize = mb
}

func (d *Dialect) Close() error {
	return d.db.Close()
}

func (d *Dialect) DB() *sql.DB {
	return d.db
}

func (d *Dialect) DialectName() string {
	return d.dialect
}

// CreateSQL returns the CREATE TABLE statement for the fields and types. orderBy defaults to the first field.
func (d *Dialect) CreateSQL(tableName, orderBy string, fields []string, types []DataTypes) (string, error) {
	if len(fields) == 0 || len(fields) != len(types) {
		return "", fmt.Errorf("need one type per field in Dialect.CreateSQL")
	}

	if orderBy == "" {
		orderBy = fields[0]
	}

	create := strings.ReplaceAll(d.create, "?TableName", tableName)
	create = strings.Replace(create, "?OrderBy", orderBy, 1)

	var flds []string
	for ind := 0; ind < len(fields); ind++ {
		dbType, e := d.dbtype(types[ind])
		if e != nil {
			return "", e
		}

		field := strings.ReplaceAll(d.fields, "?Field", fields[ind])
		field = strings.ReplaceAll(field, "?Type", dbType)
		flds = append(flds, field)
	}

	create = strings.Replace(create, "?fields", strings.Join(flds, ", "), 1)
	if strings.Contains(create, "?") {
		return "", fmt.Errorf("create still has placeholders: %s", create)
	}

	return create, nil
}

// Create creates the table for df.
func (d *Dialect) Create(tableName, orderBy string, df *DF) error {
	var dts []DataTypes
	for _, c := range df.cols {
		dts = append(dts, c.VectorType())
	}

	create, e := d.CreateSQL(tableName, orderBy, df.ColumnNames(), dts)
	if e != nil {
		return e
	}

	_, e = d.db.Exec(create)

	return e
}

func (d *Dialect) DropTable(tableName string) error {
	_, e := d.db.Exec(strings.ReplaceAll(d.dropIf, "?TableName", tableName))

	return e
}

func (d *Dialect) Exists(tableName string) (bool, error) {
	switch d.DialectName() {
	case ClickHouse:
		var exist uint8
		if e := d.db.QueryRow(fmt.Sprintf("EXISTS TABLE %s", tableName)).Scan(&exist); e != nil {
			return false, e
		}

		return exist == 1, nil
	case Postgres:
		var exist any
		if e := d.db.QueryRow(fmt.Sprintf("SELECT to_regclass('%s')", tableName)).Scan(&exist); e != nil {
			return false, e
		}

		return exist != nil, nil
	}

	return false, fmt.Errorf("unsupported db dialect")
}

// InsertSQL returns INSERT statements for the rows of df, split so no statement exceeds the buffer size.
func (d *Dialect) InsertSQL(tableName string, df *DF) []string {
	const (
		bSep   = byte(',')
		bOpen  = byte('(')
		bClose = byte(')')
	)

	head := strings.Replace(d.insert, "?TableName", tableName, 1)
	head = strings.Replace(head, "?Fields", strings.Join(df.ColumnNames(), ","), 1)

	var (
		qrys   []string
		buffer []byte
	)
	bsize := d.bufSize * 1024 * 1024

	for r := 0; r < df.RowCount(); r++ {
		if buffer != nil {
			buffer = append(buffer, bSep)
		}

		buffer = append(buffer, bOpen)
		for _, c := range df.cols {
			buffer = append(append(buffer, []byte(d.ToString(c.Element(r)))...), bSep)
		}

		buffer[len(buffer)-1] = bClose

		if bsize > 0 && len(buffer) >= bsize {
			qrys = append(qrys, head+string(buffer))
			buffer = nil
		}
	}

	if buffer != nil {
		qrys = append(qrys, head+string(buffer))
	}

	return qrys
}

func (d *Dialect) InsertDF(tableName string, df *DF) error {
	for _, qry := range d.InsertSQL(tableName, df) {
		if _, e := d.db.Exec(qry); e != nil {
			return e
		}
	}

	return nil
}

// Save writes df to tableName, replacing the table if overwrite is true.
func (d *Dialect) Save(tableName, orderBy string, overwrite bool, df *DF) error {
	exists, e := d.Exists(tableName)
	if e != nil {
		return e
	}

	if exists && !overwrite {
		return fmt.Errorf("table %s exists", tableName)
	}

	if exists {
		if e := d.DropTable(tableName); e != nil {
			return e
		}
	}

	if e := d.Create(tableName, orderBy, df); e != nil {
		return e
	}

	return d.InsertDF(tableName, df)
}

// ToString returns a string version of val that can be placed into SQL
func (d *Dialect) ToString(val any) string {
	switch x := val.(type) {
	case nil:
		return "NULL"
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "NULL"
		}

		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	}

	return fmt.Sprintf("'%v'", val)
}

func (d *Dialect) dbtype(dt DataTypes) (string, error) {
	pos := position(dt.String(), d.dtTypes)
	if pos < 0 {
		return "", fmt.Errorf("cannot find type %s to map to DB type", dt.String())
	}

	return d.dbTypes[pos], nil
}
