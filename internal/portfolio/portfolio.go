// Package portfolio aggregates assets into a joint price table and derives
// the portfolio-level statistics: weights, expected return, volatility and
// Sharpe ratio. Every statistic is recomputed from the table on demand, so
// there is no cache to invalidate when the composition changes.
package portfolio

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantfolio/internal/asset"
	"github.com/aristath/quantfolio/internal/returns"
	"github.com/aristath/quantfolio/internal/timeseries"
	"github.com/aristath/quantfolio/pkg/formulas"
)

var (
	// ErrDuplicateAsset reports adding an asset under a name already held.
	ErrDuplicateAsset = errors.New("portfolio: asset already present")

	// ErrUnknownAsset reports a lookup or replace for a name not held.
	ErrUnknownAsset = errors.New("portfolio: unknown asset")

	// ErrEmptyPortfolio reports a statistic requested from a portfolio with
	// no assets.
	ErrEmptyPortfolio = errors.New("portfolio: no assets")
)

// Portfolio holds an ordered collection of assets and their joint price
// table. Asset order is insertion order and determines the order of every
// vector and matrix the portfolio produces.
type Portfolio struct {
	assets []*asset.Asset
	byName map[string]int
	table  timeseries.Frame
}

// New returns an empty portfolio.
func New() *Portfolio {
	return &Portfolio{
		byName: map[string]int{},
		table:  timeseries.NewFrame(),
	}
}

// Add appends an asset. The name must be new and the asset's date index must
// match the table exactly; on any failure the portfolio is left unchanged.
func (p *Portfolio) Add(a *asset.Asset) error {
	if _, exists := p.byName[a.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAsset, a.Name())
	}

	merged, err := p.table.Merge(a.Name(), a.Prices())
	if err != nil {
		return fmt.Errorf("add %q: %w", a.Name(), err)
	}

	p.table = merged
	p.byName[a.Name()] = len(p.assets)
	p.assets = append(p.assets, a)
	return nil
}

// Replace swaps the asset held under a.Name() for the given one and rebuilds
// the joint table from scratch, revalidating alignment across all assets.
func (p *Portfolio) Replace(a *asset.Asset) error {
	idx, exists := p.byName[a.Name()]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownAsset, a.Name())
	}

	next := make([]*asset.Asset, len(p.assets))
	copy(next, p.assets)
	next[idx] = a

	table := timeseries.NewFrame()
	for _, each := range next {
		merged, err := table.Merge(each.Name(), each.Prices())
		if err != nil {
			return fmt.Errorf("replace %q: %w", a.Name(), err)
		}
		table = merged
	}

	p.assets = next
	p.table = table
	return nil
}

// Asset returns the asset held under the given name.
func (p *Portfolio) Asset(name string) (*asset.Asset, error) {
	idx, exists := p.byName[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, name)
	}
	return p.assets[idx], nil
}

// Assets returns the held assets in insertion order.
func (p *Portfolio) Assets() []*asset.Asset {
	return append([]*asset.Asset(nil), p.assets...)
}

// Names returns the asset names in insertion order.
func (p *Portfolio) Names() []string {
	out := make([]string, len(p.assets))
	for i, a := range p.assets {
		out[i] = a.Name()
	}
	return out
}

// Len returns the number of held assets.
func (p *Portfolio) Len() int {
	return len(p.assets)
}

// Table returns the joint price table.
func (p *Portfolio) Table() timeseries.Frame {
	return p.table
}

// TotalInvestment returns the sum of invested amounts.
func (p *Portfolio) TotalInvestment() float64 {
	var total float64
	for _, a := range p.assets {
		total += a.InvestedAmount()
	}
	return total
}

// Weights returns each asset's share of the total investment, in insertion
// order. Weights are non-negative and sum to 1 for a non-empty portfolio.
func (p *Portfolio) Weights() ([]float64, error) {
	if len(p.assets) == 0 {
		return nil, ErrEmptyPortfolio
	}
	total := p.TotalInvestment()
	out := make([]float64, len(p.assets))
	for i, a := range p.assets {
		out[i] = a.InvestedAmount() / total
	}
	return out, nil
}

// MeanReturns returns the annualized historical mean return per asset, in
// insertion order.
func (p *Portfolio) MeanReturns(freq int) ([]float64, error) {
	if len(p.assets) == 0 {
		return nil, ErrEmptyPortfolio
	}
	return returns.MeanVector(p.table, freq)
}

// Covariance returns the sample covariance matrix of the daily returns, with
// rows and columns in asset insertion order. The matrix is in daily units;
// Volatility applies the annualization.
func (p *Portfolio) Covariance() (*mat.SymDense, error) {
	if len(p.assets) == 0 {
		return nil, ErrEmptyPortfolio
	}
	daily, err := returns.DailyTable(p.table)
	if err != nil {
		return nil, err
	}

	cov := mat.NewSymDense(len(p.assets), nil)
	stat.CovarianceMatrix(cov, daily.Matrix(), nil)
	return cov, nil
}

// ExpectedReturn computes the annualized portfolio return: the investment
// weights dotted with the per-asset annualized mean returns.
func (p *Portfolio) ExpectedReturn(freq int) (float64, error) {
	weights, err := p.Weights()
	if err != nil {
		return 0, err
	}
	means, err := p.MeanReturns(freq)
	if err != nil {
		return 0, err
	}
	return formulas.WeightedMean(means, weights)
}

// Volatility computes the annualized portfolio volatility:
// sqrt(w' * cov * w) * sqrt(freq), with cov the daily covariance matrix.
func (p *Portfolio) Volatility(freq int) (float64, error) {
	if freq <= 0 {
		return 0, fmt.Errorf("%w: got %d", returns.ErrInvalidFreq, freq)
	}
	weights, err := p.Weights()
	if err != nil {
		return 0, err
	}
	cov, err := p.Covariance()
	if err != nil {
		return 0, err
	}
	dailyStd, err := formulas.WeightedStd(cov, weights)
	if err != nil {
		return 0, err
	}
	return dailyStd * math.Sqrt(float64(freq)), nil
}

// SharpeRatio computes (expected return - risk-free rate) / volatility.
// A zero-volatility portfolio has no defined Sharpe ratio; the NaN result is
// returned with formulas.ErrUndefinedSharpe.
func (p *Portfolio) SharpeRatio(riskFreeRate float64, freq int) (float64, error) {
	er, err := p.ExpectedReturn(freq)
	if err != nil {
		return 0, err
	}
	vol, err := p.Volatility(freq)
	if err != nil {
		return 0, err
	}
	return formulas.SharpeRatio(er, vol, riskFreeRate)
}

// Skews returns the per-asset skewness of daily returns, in insertion order.
func (p *Portfolio) Skews() ([]float64, error) {
	if len(p.assets) == 0 {
		return nil, ErrEmptyPortfolio
	}
	out := make([]float64, len(p.assets))
	for i, a := range p.assets {
		out[i] = a.Skew()
	}
	return out, nil
}

// Kurtoses returns the per-asset excess kurtosis of daily returns, in
// insertion order.
func (p *Portfolio) Kurtoses() ([]float64, error) {
	if len(p.assets) == 0 {
		return nil, ErrEmptyPortfolio
	}
	out := make([]float64, len(p.assets))
	for i, a := range p.assets {
		out[i] = a.Kurtosis()
	}
	return out, nil
}
