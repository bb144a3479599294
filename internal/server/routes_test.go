package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/asset"
	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/history"
	"github.com/aristath/quantfolio/internal/portfolio"
	"github.com/aristath/quantfolio/internal/timeseries"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"}
	p := portfolio.New()
	for _, h := range []struct {
		name   string
		amount float64
		prices []float64
	}{
		{"A", 600, []float64{100, 102, 99, 103, 101}},
		{"B", 400, []float64{50, 49, 51, 50, 52}},
	} {
		s, err := timeseries.NewPriceSeries(dates, h.prices)
		require.NoError(t, err)
		a, err := asset.New(asset.Metadata{Name: h.name, InvestedAmount: h.amount}, s)
		require.NoError(t, err)
		require.NoError(t, p.Add(a))
	}

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "runs.db"),
		Name: "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runStore, err := history.NewRunStore(db, zerolog.Nop())
	require.NoError(t, err)

	return New(Config{
		Log:          zerolog.Nop(),
		Port:         0,
		Portfolio:    p,
		RunStore:     runStore,
		NumTrials:    50,
		RiskFreeRate: 0.005,
		Freq:         252,
		Seed:         42,
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthRoute(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPortfolioRoute(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodGet, "/api/portfolio", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1000.0, got["totalInvestment"])
	assert.Len(t, got["assets"], 2)
	assert.NotNil(t, got["sharpeRatio"])
}

func TestPortfolioChartRoute(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodGet, "/api/portfolio/chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Greater(t, rec.Body.Len(), 8)
}

func TestOptimizeFlow(t *testing.T) {
	s := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/optimize", []byte(`{"numTrials": 20, "seed": 7}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		RunID     string `json:"runId"`
		NumTrials int    `json:"numTrials"`
		Seed      int64  `json:"seed"`
		Trials    []any  `json:"trials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.RunID)
	assert.Equal(t, 20, created.NumTrials)
	assert.Equal(t, int64(7), created.Seed)
	assert.Empty(t, created.Trials)

	t.Run("stored run is retrievable with trials", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/optimize/"+created.RunID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			RunID  string `json:"runId"`
			Trials []any  `json:"trials"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, created.RunID, got.RunID)
		assert.Len(t, got.Trials, 20)
	})

	t.Run("run appears in listing", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/optimize", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var runs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, created.RunID, runs[0]["runId"])
	})

	t.Run("run chart renders", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/optimize/"+created.RunID+"/chart", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	})
}

func TestOptimizeValidation(t *testing.T) {
	s := testServer(t)

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/optimize", []byte(`{`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative trials", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/optimize", []byte(`{"numTrials": -5}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero trials", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/optimize", []byte(`{"numTrials": 0}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero freq", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/optimize", []byte(`{"freq": 0}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOptimizeHonorsExplicitZeroOverrides(t *testing.T) {
	// The server defaults carry rf 0.005 and seed 42; an explicit zero in
	// the request body must win over both.
	rec := doRequest(t, testServer(t), http.MethodPost, "/api/optimize",
		[]byte(`{"numTrials": 10, "riskFreeRate": 0, "seed": 0}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		RunID        string  `json:"runId"`
		RiskFreeRate float64 `json:"riskFreeRate"`
		Seed         int64   `json:"seed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.RunID)
	assert.Zero(t, created.RiskFreeRate)
	assert.Zero(t, created.Seed)
}

func TestUnknownRun(t *testing.T) {
	s := testServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/optimize/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/optimize/nope/chart", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyRunListing(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodGet, "/api/optimize", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
