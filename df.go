// Package censusdf is a small in-memory data frame tuned for the Census county tables: typed
// columns with nulls, CSV and SQL I/O, and key joins.
package censusdf

import (
	"errors"
	"fmt"
	"strings"
)

// DataTypes are the types of data that the package supports
type DataTypes uint8

// values of DataTypes
const (
	DTunknown DataTypes = 0 + iota
	DTstring
	DTfloat
	DTint
)

func (dt DataTypes) String() string {
	switch dt {
	case DTstring:
		return "DTstring"
	case DTfloat:
		return "DTfloat"
	case DTint:
		return "DTint"
	}

	return "DTunknown"
}

var (
	ErrNoColumn        = errors.New("no such column")
	ErrLength          = errors.New("columns must have the same length")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// DF is an ordered set of equal-length columns.
type DF struct {
	cols  []*Col
	index map[string]int
}

func NewDF(cols ...*Col) (*DF, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns in NewDF")
	}

	df := &DF{index: make(map[string]int)}
	for _, c := range cols {
		if e := df.AppendColumn(c, false); e != nil {
			return nil, e
		}
	}

	return df, nil
}

///////////// DF methods

func (df *DF) RowCount() int {
	if len(df.cols) == 0 {
		return 0
	}

	return df.cols[0].Len()
}

func (df *DF) ColumnCount() int {
	return len(df.cols)
}

func (df *DF) ColumnNames() []string {
	names := make([]string, len(df.cols))
	for ind, c := range df.cols {
		names[ind] = c.Name()
	}

	return names
}

// Column returns the named column or nil if there isn't one.
func (df *DF) Column(colName string) *Col {
	if ind, ok := df.index[colName]; ok {
		return df.cols[ind]
	}

	return nil
}

// MustColumn is Column that returns an ErrNoColumn error in place of nil.
func (df *DF) MustColumn(colName string) (*Col, error) {
	if c := df.Column(colName); c != nil {
		return c, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoColumn, colName)
}

func (df *DF) HasColumns(colNames ...string) bool {
	for _, cn := range colNames {
		if _, ok := df.index[cn]; !ok {
			return false
		}
	}

	return true
}

// AppendColumn adds col to the end of df. If a column of the same name exists, it is replaced in place
// when replace is true, otherwise an error is returned.
func (df *DF) AppendColumn(col *Col, replace bool) error {
	if col == nil {
		return fmt.Errorf("nil column in AppendColumn")
	}

	if len(df.cols) > 0 && col.Len() != df.RowCount() {
		return fmt.Errorf("%w: %s has %d rows, want %d", ErrLength, col.Name(), col.Len(), df.RowCount())
	}

	if ind, ok := df.index[col.Name()]; ok {
		if !replace {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name())
		}

		df.cols[ind] = col
		return nil
	}

	df.index[col.Name()] = len(df.cols)
	df.cols = append(df.cols, col)

	return nil
}

// KeepColumns returns a new DF sharing the named columns of df, in the order given.
func (df *DF) KeepColumns(colNames ...string) (*DF, error) {
	var cols []*Col
	for _, cn := range colNames {
		c, e := df.MustColumn(cn)
		if e != nil {
			return nil, e
		}

		cols = append(cols, c)
	}

	return NewDF(cols...)
}

// Rename renames column oldName to newName.
func (df *DF) Rename(oldName, newName string) error {
	c, e := df.MustColumn(oldName)
	if e != nil {
		return e
	}

	if oldName == newName {
		return nil
	}

	if df.HasColumns(newName) {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, newName)
	}

	if e := c.Rename(newName); e != nil {
		return e
	}

	df.index[newName] = df.index[oldName]
	delete(df.index, oldName)

	return nil
}

// Where returns the rows of df for which keep is true.
func (df *DF) Where(keep func(row int) bool) *DF {
	var rows []int
	for r := 0; r < df.RowCount(); r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}

	return df.Subset(rows)
}

// Subset returns a new DF holding the given rows of df, in that order.
func (df *DF) Subset(rows []int) *DF {
	if rows == nil {
		rows = []int{}
	}

	cols := make([]*Col, len(df.cols))
	for ind, c := range df.cols {
		cols[ind] = &Col{name: c.Name(), Vector: c.Subset(rows)}
	}

	out := &DF{index: make(map[string]int)}
	out.setColumns(cols)

	return out
}

func (df *DF) Copy() *DF {
	cols := make([]*Col, len(df.cols))
	for ind, c := range df.cols {
		cols[ind] = c.Copy()
	}

	out := &DF{index: make(map[string]int)}
	out.setColumns(cols)

	return out
}

// String prints the first few rows of df.
func (df *DF) String() string {
	const maxRows = 10

	var sb strings.Builder
	sb.WriteString(strings.Join(df.ColumnNames(), "\t") + "\n")
	for r := 0; r < df.RowCount() && r < maxRows; r++ {
		vals := make([]string, len(df.cols))
		for ind, c := range df.cols {
			vals[ind] = c.ElementString(r)
			if c.IsNA(r) {
				vals[ind] = "NA"
			}
		}

		sb.WriteString(strings.Join(vals, "\t") + "\n")
	}

	if df.RowCount() > maxRows {
		sb.WriteString(fmt.Sprintf("... %d rows\n", df.RowCount()))
	}

	return sb.String()
}

func (df *DF) setColumns(cols []*Col) {
	df.cols = cols
	df.index = make(map[string]int, len(cols))
	for ind, c := range cols {
		df.index[c.Name()] = ind
	}
}
