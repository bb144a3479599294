package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/optimization"
	"github.com/aristath/quantfolio/internal/timeseries"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
		Name: "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPriceStoreRoundTrip(t *testing.T) {
	store, err := NewPriceStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	series, err := timeseries.NewPriceSeries(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]float64{100, 110, 121},
	)
	require.NoError(t, err)

	require.NoError(t, store.SaveSeries(ctx, "GOOG", series))

	got, err := store.LoadSeries(ctx, "GOOG")
	require.NoError(t, err)
	assert.Equal(t, series.Dates(), got.Dates())
	assert.Equal(t, series.Prices(), got.Prices())
}

func TestPriceStoreUpsert(t *testing.T) {
	store, err := NewPriceStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := timeseries.NewPriceSeries([]string{"2024-01-02", "2024-01-03"}, []float64{100, 110})
	require.NoError(t, err)
	require.NoError(t, store.SaveSeries(ctx, "GOOG", first))

	// Same dates, revised closes plus one new date.
	revised, err := timeseries.NewPriceSeries(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]float64{101, 111, 121},
	)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeries(ctx, "GOOG", revised))

	got, err := store.LoadSeries(ctx, "GOOG")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, []float64{101, 111, 121}, got.Prices())
}

func TestPriceStoreLoadTable(t *testing.T) {
	store, err := NewPriceStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	dates := []string{"2024-01-02", "2024-01-03"}
	a, err := timeseries.NewPriceSeries(dates, []float64{100, 110})
	require.NoError(t, err)
	b, err := timeseries.NewPriceSeries(dates, []float64{50, 45})
	require.NoError(t, err)

	require.NoError(t, store.SaveSeries(ctx, "A", a))
	require.NoError(t, store.SaveSeries(ctx, "B", b))

	table, err := store.LoadTable(ctx, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, table.Columns())
	assert.Equal(t, 2, table.Len())

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, symbols)
}

func TestPriceStoreMissingSymbol(t *testing.T) {
	store, err := NewPriceStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)

	_, err = store.LoadSeries(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteSeries(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func sampleResult() *optimization.Result {
	return &optimization.Result{
		RunID:        "run-123",
		CreatedAt:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Names:        []string{"A", "B"},
		NumTrials:    3,
		RiskFreeRate: 0.005,
		Freq:         252,
		Seed:         42,
		MinVolatility: optimization.Trial{
			Weights: []float64{0.6, 0.4}, ExpectedReturn: 0.1, Volatility: 0.2, SharpeRatio: 0.475,
		},
		MaxSharpe: optimization.Trial{
			Weights: []float64{0.7, 0.3}, ExpectedReturn: 0.12, Volatility: 0.22, SharpeRatio: 0.52,
		},
		MaxSharpeDefined: true,
		Trials: []optimization.Trial{
			{Weights: []float64{0.6, 0.4}, ExpectedReturn: 0.1, Volatility: 0.2, SharpeRatio: 0.475},
			{Weights: []float64{0.7, 0.3}, ExpectedReturn: 0.12, Volatility: 0.22, SharpeRatio: 0.52},
			{Weights: []float64{0.5, 0.5}, ExpectedReturn: 0.09, Volatility: 0.21, SharpeRatio: 0.4},
		},
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	store, err := NewRunStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	want := sampleResult()
	require.NoError(t, store.SaveRun(ctx, want))

	got, err := store.LoadRun(ctx, "run-123")
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Names, got.Names)
	assert.Equal(t, want.Seed, got.Seed)
	assert.Equal(t, want.MinVolatility, got.MinVolatility)
	assert.Len(t, got.Trials, 3)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestRunStoreList(t *testing.T) {
	store, err := NewRunStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	first := sampleResult()
	second := sampleResult()
	second.RunID = "run-456"
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	require.NoError(t, store.SaveRun(ctx, first))
	require.NoError(t, store.SaveRun(ctx, second))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-456", runs[0].RunID)
	assert.Equal(t, "run-123", runs[1].RunID)
}

func TestRunStoreMissingRun(t *testing.T) {
	store, err := NewRunStore(testDB(t), zerolog.Nop())
	require.NoError(t, err)

	_, err = store.LoadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
