// Package frame is a small hourly-indexed column store used as model input
package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	perr "crimecast/internal/platform/errors"
)

// Frame holds float columns aligned to a timestamp index; NaN marks a missing value
type Frame struct {
	index []time.Time
	names []string
	cols  map[string][]float64
}

// New returns an empty frame over index; the index is copied
func New(index []time.Time) *Frame {
	return &Frame{
		index: slices.Clone(index),
		cols:  map[string][]float64{},
	}
}

// Len is the number of rows
func (f *Frame) Len() int { return len(f.index) }

// Index returns the timestamps in row order
func (f *Frame) Index() []time.Time { return f.index }

// Columns returns the column names in insertion order
func (f *Frame) Columns() []string { return slices.Clone(f.names) }

// Has reports whether a column exists
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Col returns the values of a column
func (f *Frame) Col(name string) ([]float64, bool) {
	v, ok := f.cols[name]
	return v, ok
}

// Set adds or replaces a column; values must match the row count
func (f *Frame) Set(name string, values []float64) error {
	if len(values) != len(f.index) {
		return perr.InvalidArgf("column %q has %d values, frame has %d rows", name, len(values), len(f.index))
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = values
	return nil
}

// Fill adds a constant column
func (f *Frame) Fill(name string, v float64) {
	vals := make([]float64, len(f.index))
	for i := range vals {
		vals[i] = v
	}
	_ = f.Set(name, vals)
}

// Select returns a new frame with exactly names, in that order
func (f *Frame) Select(names ...string) (*Frame, error) {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, perr.WithField(
			perr.Validationf("columns not found: %s", strings.Join(missing, ", ")),
			missing[0],
		)
	}
	out := New(f.index)
	for _, n := range names {
		out.names = append(out.names, n)
		out.cols[n] = f.cols[n]
	}
	return out, nil
}

// Row returns the values of row i in column order
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.names))
	for j, n := range f.names {
		out[j] = f.cols[n][i]
	}
	return out
}

// MissingCount is the number of NaN values in one column
type MissingCount struct {
	Column string
	Count  int
}

// Missing reports columns holding NaN values, in column order
func (f *Frame) Missing() []MissingCount {
	var out []MissingCount
	for _, n := range f.names {
		c := 0
		for _, v := range f.cols[n] {
			if math.IsNaN(v) {
				c++
			}
		}
		if c > 0 {
			out = append(out, MissingCount{Column: n, Count: c})
		}
	}
	return out
}

// WriteCSV writes a header of timestamp plus columns, then one line per row
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"datetime"}, f.names...)); err != nil {
		return err
	}
	rec := make([]string, len(f.names)+1)
	for i, t := range f.index {
		rec[0] = t.Format("2006-01-02 15:04:05")
		for j, n := range f.names {
			rec[j+1] = strconv.FormatFloat(f.cols[n][i], 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
