package timeseries

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Frame is an immutable joint price table: one shared, sorted date index and
// one named column of closing prices per asset. Columns keep insertion order.
// All mutating operations return a new Frame, so a failed merge can never
// leave a caller holding partial state.
type Frame struct {
	dates   []string
	columns []string
	data    map[string][]float64
}

// NewFrame returns an empty frame.
func NewFrame() Frame {
	return Frame{data: map[string][]float64{}}
}

// FrameFromColumns builds a frame from a shared date index and named value
// columns. Column order is taken from the columns slice.
func FrameFromColumns(dates []string, columns []string, data map[string][]float64) (Frame, error) {
	if len(dates) == 0 {
		return Frame{}, ErrEmptySeries
	}
	for i := 1; i < len(dates); i++ {
		if dates[i] <= dates[i-1] {
			return Frame{}, fmt.Errorf("%w: %q followed by %q", ErrUnsortedDates, dates[i-1], dates[i])
		}
	}

	f := Frame{
		dates:   append([]string(nil), dates...),
		columns: make([]string, 0, len(columns)),
		data:    make(map[string][]float64, len(columns)),
	}
	for _, name := range columns {
		values, ok := data[name]
		if !ok {
			return Frame{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		if len(values) != len(dates) {
			return Frame{}, fmt.Errorf("%w: column %q has %d values for %d dates", ErrLengthMismatch, name, len(values), len(dates))
		}
		if _, dup := f.data[name]; dup {
			return Frame{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		f.columns = append(f.columns, name)
		f.data[name] = append([]float64(nil), values...)
	}
	return f, nil
}

// Merge returns a new frame with the series appended as a column. An empty
// frame adopts the series' date index; a non-empty frame requires the series
// to carry an identical index — partial overlaps and disjoint indices are
// errors, never silently reconciled.
func (f Frame) Merge(name string, s PriceSeries) (Frame, error) {
	if s.Len() == 0 {
		return Frame{}, ErrEmptySeries
	}
	if _, exists := f.data[name]; exists {
		return Frame{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}

	if len(f.dates) == 0 {
		out := Frame{
			dates:   s.Dates(),
			columns: []string{name},
			data:    map[string][]float64{name: s.Prices()},
		}
		return out, nil
	}

	if s.Len() != len(f.dates) {
		return Frame{}, fmt.Errorf("%w: column %q has %d dates, table has %d", ErrMisalignedDates, name, s.Len(), len(f.dates))
	}
	sDates := s.Dates()
	for i, d := range f.dates {
		if sDates[i] != d {
			return Frame{}, fmt.Errorf("%w: column %q has %q where table has %q", ErrMisalignedDates, name, sDates[i], d)
		}
	}

	out := Frame{
		dates:   f.dates,
		columns: make([]string, 0, len(f.columns)+1),
		data:    make(map[string][]float64, len(f.columns)+1),
	}
	out.columns = append(out.columns, f.columns...)
	out.columns = append(out.columns, name)
	for col, values := range f.data {
		out.data[col] = values
	}
	out.data[name] = s.Prices()
	return out, nil
}

// Len returns the number of dates.
func (f Frame) Len() int {
	return len(f.dates)
}

// IsEmpty reports whether the frame has no columns.
func (f Frame) IsEmpty() bool {
	return len(f.columns) == 0
}

// NumColumns returns the number of columns.
func (f Frame) NumColumns() int {
	return len(f.columns)
}

// Columns returns the column names in insertion order.
func (f Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Dates returns a copy of the shared date index.
func (f Frame) Dates() []string {
	return append([]string(nil), f.dates...)
}

// Column returns a copy of the named column's values.
func (f Frame) Column(name string) ([]float64, error) {
	values, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return append([]float64(nil), values...), nil
}

// Series returns the named column as a PriceSeries.
func (f Frame) Series(name string) (PriceSeries, error) {
	values, ok := f.data[name]
	if !ok {
		return PriceSeries{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return NewPriceSeries(f.dates, values)
}

// Matrix returns the table as a dense matrix with one row per date and one
// column per asset, in column insertion order.
func (f Frame) Matrix() *mat.Dense {
	if len(f.dates) == 0 || len(f.columns) == 0 {
		return nil
	}
	m := mat.NewDense(len(f.dates), len(f.columns), nil)
	for j, name := range f.columns {
		values := f.data[name]
		for i := range f.dates {
			m.Set(i, j, values[i])
		}
	}
	return m
}
