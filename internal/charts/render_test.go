package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/optimization"
	"github.com/aristath/quantfolio/internal/timeseries"
)

func testTable(t *testing.T) timeseries.Frame {
	t.Helper()
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	a, err := timeseries.NewPriceSeries(dates, []float64{100, 110, 121})
	require.NoError(t, err)
	b, err := timeseries.NewPriceSeries(dates, []float64{50, 49, 51})
	require.NoError(t, err)

	f, err := timeseries.NewFrame().Merge("A", a)
	require.NoError(t, err)
	f, err = f.Merge("B", b)
	require.NoError(t, err)
	return f
}

// PNG files start with an 8-byte signature.
var pngMagic = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func TestRenderGrowth(t *testing.T) {
	out, err := RenderGrowth(testTable(t))
	require.NoError(t, err)
	require.Greater(t, len(out), 8)
	assert.Equal(t, pngMagic, out[:8])
}

func TestRenderGrowthNoData(t *testing.T) {
	_, err := RenderGrowth(timeseries.NewFrame())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderFrontier(t *testing.T) {
	r := &optimization.Result{
		NumTrials:        3,
		MaxSharpeDefined: true,
		MinVolatility:    optimization.Trial{Volatility: 0.1, ExpectedReturn: 0.05},
		MaxSharpe:        optimization.Trial{Volatility: 0.2, ExpectedReturn: 0.12, SharpeRatio: 0.6},
		Trials: []optimization.Trial{
			{Volatility: 0.2, ExpectedReturn: 0.12, SharpeRatio: 0.6},
			{Volatility: 0.1, ExpectedReturn: 0.05, SharpeRatio: 0.45},
			{Volatility: 0.15, ExpectedReturn: 0.08, SharpeRatio: 0.5},
		},
	}

	out, err := RenderFrontier(r)
	require.NoError(t, err)
	require.Greater(t, len(out), 8)
	assert.Equal(t, pngMagic, out[:8])
}

func TestRenderFrontierNoData(t *testing.T) {
	_, err := RenderFrontier(&optimization.Result{})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RenderFrontier(nil)
	assert.ErrorIs(t, err, ErrNoData)
}
