// Package returns converts price series into the return series the
// statistics layers consume: cumulative simple returns, percentage daily
// returns, log daily returns and annualized historical mean returns.
package returns

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/quantfolio/internal/timeseries"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData reports a series too short to compute returns.
	ErrInsufficientData = errors.New("returns: need at least two prices")

	// ErrInvalidFreq reports a non-positive annualization factor.
	ErrInvalidFreq = errors.New("returns: freq must be a positive integer")
)

// Simple computes price[t] / price[0] for every t. The first element is
// defined and equal to 1 (the ratio of the first price to itself).
func Simple(prices []float64) ([]float64, error) {
	if len(prices) == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	out := make([]float64, len(prices))
	base := prices[0]
	for i, p := range prices {
		out[i] = p / base
	}
	return out, nil
}

// Daily computes the percentage change (p[t] - p[t-1]) / p[t-1] for t > 0.
// The undefined first observation is dropped, never coerced to zero, so the
// result has one fewer element than the input.
func Daily(prices []float64) ([]float64, error) {
	if len(prices) == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	if len(prices) < 2 {
		return nil, ErrInsufficientData
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out, nil
}

// DailyLog computes ln(p[t] / p[t-1]) for t > 0, dropping the first
// observation. Non-positive prices make the log return undefined; the result
// carries NaN at those positions so downstream aggregation can detect it.
func DailyLog(prices []float64) ([]float64, error) {
	if len(prices) == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	if len(prices) < 2 {
		return nil, ErrInsufficientData
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i] <= 0 || prices[i-1] <= 0 {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out, nil
}

// HistoricalMean computes the mean of the daily returns multiplied by freq.
// freq is an annualization factor (default 252 trading days), not a row
// count.
func HistoricalMean(prices []float64, freq int) (float64, error) {
	if freq <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidFreq, freq)
	}
	daily, err := Daily(prices)
	if err != nil {
		return 0, err
	}
	return stat.Mean(daily, nil) * float64(freq), nil
}

// SimpleTable applies Simple to every column of a joint price table. The
// result keeps the full date index (first row is 1 for every column).
func SimpleTable(f timeseries.Frame) (timeseries.Frame, error) {
	return mapTable(f, f.Dates(), Simple)
}

// DailyTable applies Daily to every column of a joint price table. The first
// date is dropped for all columns, keeping the result aligned.
func DailyTable(f timeseries.Frame) (timeseries.Frame, error) {
	dates := f.Dates()
	if len(dates) > 0 {
		dates = dates[1:]
	}
	return mapTable(f, dates, Daily)
}

// DailyLogTable applies DailyLog to every column of a joint price table.
func DailyLogTable(f timeseries.Frame) (timeseries.Frame, error) {
	dates := f.Dates()
	if len(dates) > 0 {
		dates = dates[1:]
	}
	return mapTable(f, dates, DailyLog)
}

// MeanVector computes the annualized historical mean return of every column,
// in column order.
func MeanVector(f timeseries.Frame, freq int) ([]float64, error) {
	if f.IsEmpty() {
		return nil, timeseries.ErrEmptySeries
	}
	if freq <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFreq, freq)
	}
	cols := f.Columns()
	out := make([]float64, len(cols))
	for i, name := range cols {
		prices, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		m, err := HistoricalMean(prices, freq)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out[i] = m
	}
	return out, nil
}

func mapTable(f timeseries.Frame, dates []string, fn func([]float64) ([]float64, error)) (timeseries.Frame, error) {
	if f.IsEmpty() {
		return timeseries.Frame{}, timeseries.ErrEmptySeries
	}
	cols := f.Columns()
	data := make(map[string][]float64, len(cols))
	for _, name := range cols {
		prices, err := f.Column(name)
		if err != nil {
			return timeseries.Frame{}, err
		}
		values, err := fn(prices)
		if err != nil {
			return timeseries.Frame{}, fmt.Errorf("column %q: %w", name, err)
		}
		data[name] = values
	}
	return timeseries.FrameFromColumns(dates, cols, data)
}
