package jsonfmt

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrShapeMismatch is wrapped by ShapeError.
	ErrShapeMismatch = errors.New("jsonfmt: row length does not match format")
	// ErrUnknownEntry is returned when a bundle entry has no format.
	ErrUnknownEntry = errors.New("jsonfmt: no format for entry")
	// ErrUnsupportedValue is returned for entry values that are not
	// float arrays.
	ErrUnsupportedValue = errors.New("jsonfmt: unsupported value type")
)

// ShapeError reports a one-dimensional row whose length differs from the
// number of column specifiers declared for its entry.
type ShapeError struct {
	Entry string
	Path  []int
	Got   int
	Want  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("jsonfmt: entry %q row %v has %d elements, format declares %d", e.Entry, e.Path, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

// Entry is one named array of a Bundle.
//
// Value is a []float64 row, a [][]float64 table, or a []any whose elements
// are themselves any of these.
type Entry struct {
	Name  string
	Value any
}

// Bundle is an ordered set of named arrays. Keys are rendered in order.
type Bundle []Entry

// Get returns the value stored under name.
func (b Bundle) Get(name string) (any, bool) {
	for _, e := range b {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Names returns the entry names in order.
func (b Bundle) Names() []string {
	out := make([]string, len(b))
	for i, e := range b {
		out[i] = e.Name
	}
	return out
}

// Formats maps entry names to the specifiers applied to each of their rows.
type Formats map[string]Specs

// Encode renders b as a JSON object without insignificant whitespace.
func Encode(b Bundle, formats Formats) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	buf = append(buf, '{')
	for i, e := range b {
		specs, ok := formats[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, e.Name)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, e.Name)
		buf = append(buf, ':')
		var err error
		buf, err = appendValue(buf, e.Name, nil, e.Value, specs)
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, '}')
	return buf, nil
}

// EncodeArray renders a single array under specs.
func EncodeArray(v any, specs Specs) ([]byte, error) {
	return appendValue(nil, "", nil, v, specs)
}

func appendValue(dst []byte, name string, path []int, v any, specs Specs) ([]byte, error) {
	switch val := v.(type) {
	case []float64:
		return appendRow(dst, name, path, val, specs)
	case [][]float64:
		dst = append(dst, '[')
		for i, row := range val {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendRow(dst, name, append(path, i), row, specs)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case []any:
		dst = append(dst, '[')
		for i, el := range val {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendValue(dst, name, append(path, i), el, specs)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	default:
		return nil, fmt.Errorf("%w: entry %q: %T", ErrUnsupportedValue, name, v)
	}
}

func appendRow(dst []byte, name string, path []int, row []float64, specs Specs) ([]byte, error) {
	if len(row) != len(specs) {
		return nil, &ShapeError{
			Entry: name,
			Path:  append([]int(nil), path...),
			Got:   len(row),
			Want:  len(specs),
		}
	}
	dst = append(dst, '[')
	for i, x := range row {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = specs[i].Append(dst, x)
	}
	return append(dst, ']'), nil
}
