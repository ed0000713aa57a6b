package refdata

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/ciefunctions/internal/fsutil"
)

// LoadDir reads <dir>/<name>.csv for every table in Names and validates
// the result.
func LoadDir(fsys fsutil.FileSystem, dir string) (*Tables, error) {
	t := &Tables{}
	for _, name := range Names {
		path := filepath.Join(dir, name+".csv")
		data, err := fsys.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows, err := ParseCSV(bytes.NewReader(data), columns[name])
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := t.SetTable(name, rows); err != nil {
			return nil, err
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteDir writes every table of t as <dir>/<name>.csv, the layout read
// by LoadDir.
func WriteDir(fsys fsutil.FileSystem, dir string, t *Tables) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range Names {
		rows, err := t.Table(name)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := WriteCSV(&buf, rows); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name+".csv")
		if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// ParseCSV reads headerless rows of width cols. Empty cells become NaN.
// Lines starting with '#' are skipped.
func ParseCSV(r io.Reader, cols int) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		// Trailing empty cells are how the source files mark missing
		// absorbance; pad short records.
		if len(rec) > cols || len(rec) < 2 {
			return nil, fmt.Errorf("%w: record %d has %d fields, want %d", ErrInvalidTable, line, len(rec), cols)
		}
		row := make([]float64, cols)
		for i := range row {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				if i == 0 {
					return nil, fmt.Errorf("%w: record %d has no wavelength", ErrInvalidTable, line)
				}
				row[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d field %d: %v", ErrInvalidTable, line, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes rows in the format read by ParseCSV. NaN cells are left
// empty.
func WriteCSV(w io.Writer, rows [][]float64) error {
	cw := csv.NewWriter(w)
	rec := make([]string, 0, 4)
	for _, r := range rows {
		rec = rec[:0]
		for _, v := range r {
			if math.IsNaN(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
