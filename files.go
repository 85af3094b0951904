package censusdf

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// All code interacting with files is here

const (
	Sep         = ','
	FloatFormat = "" // shortest representation
	Header      = true
)

// Files reads and writes delimited text files.
type Files struct {
	Sep         rune
	FloatFormat string
	Header      bool

	// Encoding decodes input bytes. nil means the input is already UTF-8.
	Encoding encoding.Encoding

	// StringCols are read as strings regardless of content.
	StringCols []string
}

// NewFiles returns a Files for comma-separated, Latin-1 encoded files with a header row, which is
// how the Census Bureau publishes the county tables.
func NewFiles() *Files {
	return &Files{
		Sep:         Sep,
		FloatFormat: FloatFormat,
		Header:      Header,
		Encoding:    charmap.ISO8859_1,
	}
}

// EncodingByName maps a name such as "latin-1" to an encoding. "" and "utf-8" return nil.
func EncodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}

	return nil, fmt.Errorf("unsupported encoding: %s", name)
}

// Load reads the file at fileName. The error wraps os.ErrNotExist if the file is missing.
func (f *Files) Load(fileName string) (*DF, error) {
	fh, e := os.Open(fileName)
	if e != nil {
		return nil, fmt.Errorf("open %s: %w", fileName, e)
	}
	defer func() { _ = fh.Close() }()

	df, e := f.Read(fh)
	if e != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, e)
	}

	return df, nil
}

// Read reads a delimited table from r, imputing the type of each column: int if every non-empty
// value parses as an integer, float if every one parses as a number, otherwise string.
// Empty cells are null.
func (f *Files) Read(r io.Reader) (*DF, error) {
	if f.Encoding != nil {
		r = f.Encoding.NewDecoder().Reader(r)
	}

	rdr := csv.NewReader(r)
	rdr.Comma = f.Sep

	recs, e := rdr.ReadAll()
	if e != nil {
		return nil, e
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	var names []string
	if f.Header {
		names = recs[0]
		recs = recs[1:]
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
	} else {
		for ind := range recs[0] {
			names = append(names, fmt.Sprintf("V%d", ind))
		}
	}

	var cols []*Col
	for c, name := range names {
		raw := make([]string, len(recs))
		for r, rec := range recs {
			raw[r] = strings.TrimSpace(rec[c])
		}

		dt := DTstring
		if !has(name, f.StringCols) {
			dt = impute(raw)
		}

		v := MakeVector(dt, len(raw))
		for r, s := range raw {
			if s == "" {
				v.SetNA(r)
				continue
			}

			switch dt {
			case DTint:
				i, _ := toInt(s)
				v.SetInt(i, r)
			case DTfloat:
				x, _ := toFloat(s)
				v.SetFloat(x, r)
			default:
				v.SetString(s, r)
			}
		}

		// headers come from the file as is, so no name validation here
		if name == "" {
			name = fmt.Sprintf("V%d", c)
		}

		cols = append(cols, &Col{name: name, Vector: v})
	}

	return NewDF(cols...)
}

// Write writes df to w as delimited text. Nulls are written as empty fields.
func (f *Files) Write(w io.Writer, df *DF) error {
	wrtr := csv.NewWriter(w)
	wrtr.Comma = f.Sep

	if f.Header {
		if e := wrtr.Write(df.ColumnNames()); e != nil {
			return e
		}
	}

	line := make([]string, df.ColumnCount())
	for r := 0; r < df.RowCount(); r++ {
		for ind, c := range df.cols {
			line[ind] = c.ElementString(r)
			if c.VectorType() == DTfloat && f.FloatFormat != "" && !c.IsNA(r) {
				x, _ := c.ElementFloat(r)
				line[ind] = fmt.Sprintf(f.FloatFormat, x)
			}
		}

		if e := wrtr.Write(line); e != nil {
			return e
		}
	}

	wrtr.Flush()

	return wrtr.Error()
}

func impute(raw []string) DataTypes {
	isInt, isFloat := true, true
	for _, s := range raw {
		if s == "" {
			continue
		}

		if isInt {
			if _, ok := toInt(s); !ok {
				isInt = false
			}
		}

		if !isInt {
			if _, ok := toFloat(s); !ok {
				isFloat = false
				break
			}
		}
	}

	switch {
	case isInt:
		return DTint
	case isFloat:
		return DTfloat
	}

	return DTstring
}
