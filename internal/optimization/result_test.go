package optimization

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrialJSON(t *testing.T) {
	t.Run("undefined statistics encode as null", func(t *testing.T) {
		tr := Trial{
			Weights:        []float64{1},
			ExpectedReturn: math.NaN(),
			Volatility:     math.NaN(),
			SharpeRatio:    math.NaN(),
		}

		b, err := json.Marshal(tr)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Nil(t, got["expectedReturn"])
		assert.Nil(t, got["volatility"])
		assert.Nil(t, got["sharpeRatio"])
	})

	t.Run("defined statistics round-trip", func(t *testing.T) {
		tr := Trial{
			Weights:        []float64{0.4, 0.6},
			ExpectedReturn: 0.1,
			Volatility:     0.2,
			SharpeRatio:    0.475,
		}

		b, err := json.Marshal(tr)
		require.NoError(t, err)

		var got Trial
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, tr, got)
	})
}
