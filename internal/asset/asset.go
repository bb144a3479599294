// Package asset models a single portfolio holding: its price history, the
// capital invested in it and the distribution statistics of its daily
// returns.
package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/quantfolio/internal/returns"
	"github.com/aristath/quantfolio/internal/timeseries"
	"github.com/aristath/quantfolio/pkg/formulas"
)

var (
	// ErrEmptyName reports an asset created without a name.
	ErrEmptyName = errors.New("asset: name must not be empty")

	// ErrInvalidAmount reports a non-positive invested amount.
	ErrInvalidAmount = errors.New("asset: invested amount must be positive")

	// ErrShortHistory reports a price series too short to compute returns.
	ErrShortHistory = errors.New("asset: need at least two price observations")
)

// Metadata describes a holding independent of its price history. Extra keeps
// source-specific fields (sector, currency, FMV) without the statistics
// layers depending on them.
type Metadata struct {
	Name           string
	InvestedAmount float64
	Extra          map[string]string
}

// Asset is an immutable holding. Daily returns and the higher moments are
// computed once at construction; the annualized statistics stay functions of
// freq so callers in other market calendars are not locked to 252.
type Asset struct {
	meta   Metadata
	prices timeseries.PriceSeries
	daily  []float64

	skew     float64
	kurtosis float64
}

// New validates the metadata and price history and precomputes the return
// statistics.
func New(meta Metadata, prices timeseries.PriceSeries) (*Asset, error) {
	if strings.TrimSpace(meta.Name) == "" {
		return nil, ErrEmptyName
	}
	if meta.InvestedAmount <= 0 {
		return nil, fmt.Errorf("%w: got %v for %q", ErrInvalidAmount, meta.InvestedAmount, meta.Name)
	}
	if prices.Len() < 2 {
		return nil, fmt.Errorf("%w: %q has %d", ErrShortHistory, meta.Name, prices.Len())
	}

	daily, err := returns.Daily(prices.Prices())
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", meta.Name, err)
	}

	return &Asset{
		meta:     meta,
		prices:   prices,
		daily:    daily,
		skew:     formulas.Skew(daily),
		kurtosis: formulas.ExKurtosis(daily),
	}, nil
}

// Name returns the asset's display name.
func (a *Asset) Name() string {
	return a.meta.Name
}

// InvestedAmount returns the capital allocated to this asset.
func (a *Asset) InvestedAmount() float64 {
	return a.meta.InvestedAmount
}

// Metadata returns a copy of the asset's metadata.
func (a *Asset) Metadata() Metadata {
	out := Metadata{
		Name:           a.meta.Name,
		InvestedAmount: a.meta.InvestedAmount,
	}
	if a.meta.Extra != nil {
		out.Extra = make(map[string]string, len(a.meta.Extra))
		for k, v := range a.meta.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Prices returns the asset's price history.
func (a *Asset) Prices() timeseries.PriceSeries {
	return a.prices
}

// DailyReturns returns a copy of the precomputed daily percentage returns.
func (a *Asset) DailyReturns() []float64 {
	return append([]float64(nil), a.daily...)
}

// ExpectedReturn computes the annualized historical mean return: mean of the
// daily returns scaled by freq.
func (a *Asset) ExpectedReturn(freq int) (float64, error) {
	if freq <= 0 {
		return 0, fmt.Errorf("%w: got %d", returns.ErrInvalidFreq, freq)
	}
	return formulas.Mean(a.daily) * float64(freq), nil
}

// Volatility computes the annualized standard deviation of the daily
// returns: std * sqrt(freq).
func (a *Asset) Volatility(freq int) (float64, error) {
	if freq <= 0 {
		return 0, fmt.Errorf("%w: got %d", returns.ErrInvalidFreq, freq)
	}
	return formulas.AnnualizedVolatility(a.daily, freq), nil
}

// Skew returns the sample skewness of the daily returns.
func (a *Asset) Skew() float64 {
	return a.skew
}

// Kurtosis returns the sample excess kurtosis of the daily returns.
func (a *Asset) Kurtosis() float64 {
	return a.kurtosis
}

// String renders a one-asset summary block.
func (a *Asset) String() string {
	er, _ := a.ExpectedReturn(formulas.TradingDaysPerYear)
	vol, _ := a.Volatility(formulas.TradingDaysPerYear)

	var b strings.Builder
	fmt.Fprintf(&b, "Asset: %s\n", a.meta.Name)
	fmt.Fprintf(&b, "  Invested amount:  %.2f\n", a.meta.InvestedAmount)
	fmt.Fprintf(&b, "  Expected return:  %.4f\n", er)
	fmt.Fprintf(&b, "  Volatility:       %.4f\n", vol)
	fmt.Fprintf(&b, "  Skewness:         %.4f\n", a.skew)
	fmt.Fprintf(&b, "  Kurtosis:         %.4f\n", a.kurtosis)
	return b.String()
}
