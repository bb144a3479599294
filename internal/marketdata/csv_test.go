package marketdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/asset"
	"github.com/aristath/quantfolio/internal/timeseries"
)

const pricesCSV = `Date,GOOG - Adj. Close,AMZN - Adj. Close
2024-01-02,100,50
2024-01-03,110,45
2024-01-04,121,40.5
`

func TestReadPriceTable(t *testing.T) {
	t.Run("resolves adj close columns to asset names", func(t *testing.T) {
		f, err := ReadPriceTable(strings.NewReader(pricesCSV))
		require.NoError(t, err)
		assert.Equal(t, []string{"GOOG", "AMZN"}, f.Columns())
		assert.Equal(t, 3, f.Len())

		goog, err := f.Column("GOOG")
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{100, 110, 121}, goog, 1e-12)
	})

	t.Run("bare column names pass through", func(t *testing.T) {
		in := "date,GOOG\n2024-01-02,100\n2024-01-03,110\n"
		f, err := ReadPriceTable(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []string{"GOOG"}, f.Columns())
	})

	t.Run("non-price fields are skipped", func(t *testing.T) {
		in := "Date,GOOG - Adj. Close,GOOG - Volume\n2024-01-02,100,12345\n2024-01-03,110,23456\n"
		f, err := ReadPriceTable(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []string{"GOOG"}, f.Columns())
	})

	t.Run("missing date header rejected", func(t *testing.T) {
		in := "symbol,GOOG\nx,100\n"
		_, err := ReadPriceTable(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrNoDateColumn)
	})

	t.Run("malformed price rejected", func(t *testing.T) {
		in := "Date,GOOG\n2024-01-02,abc\n"
		_, err := ReadPriceTable(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrBadValue)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		in := "Date,GOOG\n02/01/2024,100\n"
		_, err := ReadPriceTable(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrBadValue)
	})

	t.Run("unsorted dates rejected", func(t *testing.T) {
		in := "Date,GOOG\n2024-01-03,110\n2024-01-02,100\n"
		_, err := ReadPriceTable(strings.NewReader(in))
		assert.ErrorIs(t, err, timeseries.ErrUnsortedDates)
	})
}

func TestReadMetadata(t *testing.T) {
	t.Run("required columns plus extras", func(t *testing.T) {
		in := "name,invested_amount,sector\nGOOG,1000,tech\nAMZN,500,retail\n"
		metas, err := ReadMetadata(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, metas, 2)

		assert.Equal(t, "GOOG", metas[0].Name)
		assert.Equal(t, 1000.0, metas[0].InvestedAmount)
		assert.Equal(t, "tech", metas[0].Extra["sector"])
	})

	t.Run("missing invested_amount column", func(t *testing.T) {
		in := "name,sector\nGOOG,tech\n"
		_, err := ReadMetadata(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("malformed amount", func(t *testing.T) {
		in := "name,invested_amount\nGOOG,lots\n"
		_, err := ReadMetadata(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrBadValue)
	})
}

func TestBuildPortfolio(t *testing.T) {
	table, err := ReadPriceTable(strings.NewReader(pricesCSV))
	require.NoError(t, err)

	t.Run("assembles holdings in metadata order", func(t *testing.T) {
		metas := []asset.Metadata{
			{Name: "AMZN", InvestedAmount: 500},
			{Name: "GOOG", InvestedAmount: 1500},
		}
		p, err := BuildPortfolio(metas, table)
		require.NoError(t, err)
		assert.Equal(t, []string{"AMZN", "GOOG"}, p.Names())

		w, err := p.Weights()
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.25, 0.75}, w, 1e-12)
	})

	t.Run("unknown holding rejected", func(t *testing.T) {
		metas := []asset.Metadata{{Name: "MSFT", InvestedAmount: 100}}
		_, err := BuildPortfolio(metas, table)
		assert.ErrorIs(t, err, timeseries.ErrUnknownColumn)
	})

	t.Run("invalid amount rejected", func(t *testing.T) {
		metas := []asset.Metadata{{Name: "GOOG", InvestedAmount: -1}}
		_, err := BuildPortfolio(metas, table)
		assert.ErrorIs(t, err, asset.ErrInvalidAmount)
	})
}
