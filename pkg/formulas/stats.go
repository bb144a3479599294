// Package formulas provides the statistical primitives shared by the asset,
// portfolio and optimization layers: plain and weighted moments, annualization
// helpers and the Sharpe ratio.
package formulas

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the default annualization factor for daily return
// series. Callers working in differently-calendared markets pass their own
// freq instead of relying on this value implicitly.
const TradingDaysPerYear = 252

var (
	// ErrDimensionMismatch reports incompatible vector/matrix shapes.
	ErrDimensionMismatch = errors.New("formulas: dimension mismatch")

	// ErrUndefinedSharpe reports a Sharpe ratio computed against zero
	// volatility. Callers must handle it explicitly instead of receiving a
	// silent Inf.
	ErrUndefinedSharpe = errors.New("formulas: sharpe ratio undefined for zero volatility")
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Skew calculates the sample skewness of a slice of float64 values.
// Fewer than three observations leave the bias correction undefined; the
// resulting NaN/Inf is propagated for the summary layer to flag.
func Skew(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Skew(data, nil)
}

// ExKurtosis calculates the sample excess kurtosis of a slice of float64
// values (0 for a normal distribution, matching the pandas convention the
// original data pipeline used).
func ExKurtosis(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.ExKurtosis(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: std dev of daily returns * sqrt(freq).
func AnnualizedVolatility(dailyReturns []float64, freq int) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(float64(freq))
}

// WeightedMean computes the dot product of a per-asset mean-return vector
// and a per-asset weight vector. A length mismatch is a fatal input error.
func WeightedMean(means, weights []float64) (float64, error) {
	if len(means) == 0 || len(means) != len(weights) {
		return 0, ErrDimensionMismatch
	}
	return floats.Dot(means, weights), nil
}

// WeightedStd computes sqrt(w' * cov * w). The covariance matrix must be
// square with dimension len(weights); symmetry is a correctness precondition
// carried by the mat.Symmetric type.
func WeightedStd(cov mat.Symmetric, weights []float64) (float64, error) {
	n := len(weights)
	if n == 0 || cov.SymmetricDim() != n {
		return 0, ErrDimensionMismatch
	}

	w := mat.NewVecDense(n, nil)
	for i, v := range weights {
		w.SetVec(i, v)
	}

	variance := mat.Inner(w, cov, w)
	// Guard against tiny negative values from floating-point cancellation.
	if variance < 0 && variance > -1e-12 {
		variance = 0
	}
	return math.Sqrt(variance), nil
}

// SharpeRatio computes (expectedReturn - riskFreeRate) / volatility.
// Zero volatility makes the ratio undefined; the NaN result is returned
// alongside ErrUndefinedSharpe so callers can surface the condition.
func SharpeRatio(expectedReturn, volatility, riskFreeRate float64) (float64, error) {
	if volatility == 0 {
		return math.NaN(), ErrUndefinedSharpe
	}
	return (expectedReturn - riskFreeRate) / volatility, nil
}
