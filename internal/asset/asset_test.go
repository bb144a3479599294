package asset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/timeseries"
	"github.com/aristath/quantfolio/pkg/formulas"
)

func series(t *testing.T, dates []string, prices []float64) timeseries.PriceSeries {
	t.Helper()
	s, err := timeseries.NewPriceSeries(dates, prices)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04"}

	t.Run("valid asset", func(t *testing.T) {
		a, err := New(Metadata{Name: "GOOG", InvestedAmount: 1000}, series(t, dates, []float64{100, 110, 121}))
		require.NoError(t, err)
		assert.Equal(t, "GOOG", a.Name())
		assert.Equal(t, 1000.0, a.InvestedAmount())
		assert.InDeltaSlice(t, []float64{0.1, 0.1}, a.DailyReturns(), 1e-12)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := New(Metadata{Name: "  ", InvestedAmount: 1000}, series(t, dates, []float64{100, 110, 121}))
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := New(Metadata{Name: "GOOG", InvestedAmount: 0}, series(t, dates, []float64{100, 110, 121}))
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = New(Metadata{Name: "GOOG", InvestedAmount: -5}, series(t, dates, []float64{100, 110, 121}))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("too short history rejected", func(t *testing.T) {
		_, err := New(Metadata{Name: "GOOG", InvestedAmount: 1000}, series(t, dates[:1], []float64{100}))
		assert.ErrorIs(t, err, ErrShortHistory)
	})
}

func TestExpectedReturnAndVolatility(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	a, err := New(Metadata{Name: "X", InvestedAmount: 500}, series(t, dates, []float64{100, 102, 99, 103}))
	require.NoError(t, err)

	daily := a.DailyReturns()
	wantER := formulas.Mean(daily) * 252
	wantVol := formulas.StdDev(daily) * math.Sqrt(252)

	er, err := a.ExpectedReturn(252)
	require.NoError(t, err)
	assert.InDelta(t, wantER, er, 1e-12)

	vol, err := a.Volatility(252)
	require.NoError(t, err)
	assert.InDelta(t, wantVol, vol, 1e-12)

	t.Run("freq validated", func(t *testing.T) {
		_, err := a.ExpectedReturn(0)
		assert.Error(t, err)
		_, err = a.Volatility(-1)
		assert.Error(t, err)
	})

	t.Run("results are pure in freq", func(t *testing.T) {
		monthly, err := a.ExpectedReturn(12)
		require.NoError(t, err)
		again, err := a.ExpectedReturn(252)
		require.NoError(t, err)
		assert.InDelta(t, wantER, again, 1e-12)
		assert.InDelta(t, formulas.Mean(daily)*12, monthly, 1e-12)
	})
}

func TestMomentsComputedOnDailyReturns(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"}
	a, err := New(Metadata{Name: "X", InvestedAmount: 500}, series(t, dates, []float64{100, 105, 98, 107, 101}))
	require.NoError(t, err)

	daily := a.DailyReturns()
	assert.InDelta(t, formulas.Skew(daily), a.Skew(), 1e-12)
	assert.InDelta(t, formulas.ExKurtosis(daily), a.Kurtosis(), 1e-12)
}

func TestMetadataCopy(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03"}
	meta := Metadata{Name: "X", InvestedAmount: 500, Extra: map[string]string{"sector": "tech"}}
	a, err := New(meta, series(t, dates, []float64{100, 110}))
	require.NoError(t, err)

	got := a.Metadata()
	got.Extra["sector"] = "energy"
	assert.Equal(t, "tech", a.Metadata().Extra["sector"])
}

func TestString(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	a, err := New(Metadata{Name: "GOOG", InvestedAmount: 1000}, series(t, dates, []float64{100, 110, 121}))
	require.NoError(t, err)

	out := a.String()
	assert.Contains(t, out, "Asset: GOOG")
	assert.Contains(t, out, "Invested amount:  1000.00")
}
