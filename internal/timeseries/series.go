// Package timeseries defines the date-indexed price containers shared by the
// returns, asset, portfolio and optimization packages. Dates are ISO
// "2006-01-02" strings, so lexicographic order is chronological order.
package timeseries

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries reports a price series with no observations.
	ErrEmptySeries = errors.New("timeseries: empty price series")

	// ErrLengthMismatch reports dates and prices of different lengths.
	ErrLengthMismatch = errors.New("timeseries: dates and prices length mismatch")

	// ErrUnsortedDates reports a date index that is not strictly increasing.
	ErrUnsortedDates = errors.New("timeseries: dates must be strictly increasing")

	// ErrMisalignedDates reports a merge between series whose date indices
	// do not match exactly.
	ErrMisalignedDates = errors.New("timeseries: date index mismatch")

	// ErrUnknownColumn reports a lookup for a column the frame does not hold.
	ErrUnknownColumn = errors.New("timeseries: unknown column")

	// ErrDuplicateColumn reports a merge under a column name already present.
	ErrDuplicateColumn = errors.New("timeseries: duplicate column")
)

// PriceSeries is an immutable ordered sequence of (date, price) pairs for one
// asset. The date index is strictly increasing with no duplicates.
type PriceSeries struct {
	dates  []string
	prices []float64
}

// NewPriceSeries validates and copies the given dates and prices into an
// immutable series.
func NewPriceSeries(dates []string, prices []float64) (PriceSeries, error) {
	if len(dates) == 0 {
		return PriceSeries{}, ErrEmptySeries
	}
	if len(dates) != len(prices) {
		return PriceSeries{}, fmt.Errorf("%w: %d dates, %d prices", ErrLengthMismatch, len(dates), len(prices))
	}
	for i := 1; i < len(dates); i++ {
		if dates[i] <= dates[i-1] {
			return PriceSeries{}, fmt.Errorf("%w: %q followed by %q", ErrUnsortedDates, dates[i-1], dates[i])
		}
	}

	d := make([]string, len(dates))
	copy(d, dates)
	p := make([]float64, len(prices))
	copy(p, prices)

	return PriceSeries{dates: d, prices: p}, nil
}

// Len returns the number of observations.
func (s PriceSeries) Len() int {
	return len(s.dates)
}

// Dates returns a copy of the date index.
func (s PriceSeries) Dates() []string {
	d := make([]string, len(s.dates))
	copy(d, s.dates)
	return d
}

// Prices returns a copy of the price values.
func (s PriceSeries) Prices() []float64 {
	p := make([]float64, len(s.prices))
	copy(p, s.prices)
	return p
}

// FirstDate returns the earliest date in the series, or "" when empty.
func (s PriceSeries) FirstDate() string {
	if len(s.dates) == 0 {
		return ""
	}
	return s.dates[0]
}

// LastDate returns the latest date in the series, or "" when empty.
func (s PriceSeries) LastDate() string {
	if len(s.dates) == 0 {
		return ""
	}
	return s.dates[len(s.dates)-1]
}
