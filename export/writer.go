// Package export writes the artifacts a run publishes: JSON documents, JS files that assign a JSON
// payload to a constant, CSV mirrors and, optionally, an xlsx workbook.
//
// Every artifact is written to a temp file in the output directory and renamed into place once
// complete, so a reader never sees a half-written file.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	d "github.com/invertedv/censusdf"
	"github.com/xuri/excelize/v2"
)

const artifactMode os.FileMode = 0o644

// fileWriter writes to a temp file and later atomically renames it.
// If a write error occurs, it is saved and future writes become no-ops.
type fileWriter struct {
	p    string   // target filename
	f    *os.File // temp file
	werr error    // first error encountered while writing
}

func newFileWriter(p string) (*fileWriter, error) {
	f, e := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*")
	if e != nil {
		return nil, e
	}

	// CreateTemp makes the file 0600; artifacts are served by other users.
	if e := f.Chmod(artifactMode); e != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, e
	}

	return &fileWriter{p: p, f: f}, nil
}

func (fw *fileWriter) Write(b []byte) (int, error) {
	if fw.werr != nil {
		return 0, fw.werr
	}

	var n int
	n, fw.werr = fw.f.Write(b)

	return n, fw.werr
}

// close renames the temp file to the target path. If a write error occurred it is returned instead.
func (fw *fileWriter) close() error {
	defer os.Remove(fw.f.Name()) // no-op on success
	cerr := fw.f.Close()
	if fw.werr != nil {
		return fw.werr
	}

	if cerr != nil {
		return cerr
	}

	return os.Rename(fw.f.Name(), fw.p)
}

// Writer writes artifacts into Dir.
type Writer struct {
	Dir string

	written []string
}

// NewWriter returns a Writer for dir, creating it if need be.
func NewWriter(dir string) (*Writer, error) {
	if e := os.MkdirAll(dir, 0o755); e != nil {
		return nil, fmt.Errorf("output dir %s: %w", dir, e)
	}

	return &Writer{Dir: dir}, nil
}

// Path returns the full path of artifact name.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Written returns the paths of the artifacts written so far, in the order first written. A file written
// twice is listed once.
func (w *Writer) Written() []string {
	return w.written
}

func (w *Writer) write(name string, fill func(io.Writer) error) error {
	fw, e := newFileWriter(w.Path(name))
	if e != nil {
		return fmt.Errorf("write %s: %w", name, e)
	}

	if e := fill(fw); e != nil {
		fw.werr = e
	}

	if e := fw.close(); e != nil {
		return fmt.Errorf("write %s: %w", name, e)
	}

	if !slices.Contains(w.written, w.Path(name)) {
		w.written = append(w.written, w.Path(name))
	}

	return nil
}

func marshal(v any, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}

	return json.Marshal(v)
}

// JSON writes v as a JSON document, indented by two spaces if indent is set.
func (w *Writer) JSON(name string, v any, indent bool) error {
	return w.write(name, func(out io.Writer) error {
		b, e := marshal(v, indent)
		if e != nil {
			return e
		}

		_, e = out.Write(b)

		return e
	})
}

// JS writes v as a script holding the single statement: const <constName> = <json>;
func (w *Writer) JS(name, constName string, v any) error {
	return w.write(name, func(out io.Writer) error {
		b, e := marshal(v, false)
		if e != nil {
			return e
		}

		_, e = fmt.Fprintf(out, "const %s = %s;", constName, b)

		return e
	})
}

// CSV writes df with a header row.
func (w *Writer) CSV(name string, df *d.DF) error {
	return w.write(name, func(out io.Writer) error {
		return d.NewFiles().Write(out, df)
	})
}

// XLSX writes df to a workbook with a single sheet. Nulls are left as empty cells.
func (w *Writer) XLSX(name, sheet string, df *d.DF) error {
	xf := excelize.NewFile()
	defer func() { _ = xf.Close() }()

	if e := xf.SetSheetName("Sheet1", sheet); e != nil {
		return e
	}

	for c, cn := range df.ColumnNames() {
		cell, e := excelize.CoordinatesToCellName(c+1, 1)
		if e != nil {
			return e
		}

		if e := xf.SetCellValue(sheet, cell, cn); e != nil {
			return e
		}

		col := df.Column(cn)
		for r := 0; r < df.RowCount(); r++ {
			val := col.Element(r)
			if val == nil {
				continue
			}

			cell, _ = excelize.CoordinatesToCellName(c+1, r+2)
			if e := xf.SetCellValue(sheet, cell, val); e != nil {
				return e
			}
		}
	}

	return w.write(name, func(out io.Writer) error {
		return xf.Write(out)
	})
}

// WriteTo writes whatever wt produces, such as a rendered chart.
func (w *Writer) WriteTo(name string, wt io.WriterTo) error {
	return w.write(name, func(out io.Writer) error {
		_, e := wt.WriteTo(out)
		return e
	})
}
