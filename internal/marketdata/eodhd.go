package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/timeseries"
)

// EnvEODHDAPIKey is the environment variable holding the EODHD API token.
const EnvEODHDAPIKey = "EODHD_API_KEY"

const (
	defaultEODBaseURL  = "https://eodhd.com"
	defaultEODCacheTTL = 24 * time.Hour
)

var (
	// ErrMissingAPIKey reports an EODHD client created without a token.
	ErrMissingAPIKey = errors.New("marketdata: EODHD API key not set")

	// ErrEODRequest reports a non-200 response from the EODHD API.
	ErrEODRequest = errors.New("marketdata: EODHD request failed")
)

// EODClient fetches end-of-day adjusted close prices from eodhd.com.
// Responses are cached in memory; EOD data changes once a day, so the
// default TTL is 24 hours.
type EODClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	ttl     time.Duration
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]eodCacheEntry
}

type eodCacheEntry struct {
	series  timeseries.PriceSeries
	fetched time.Time
}

// EODOption customizes an EODClient.
type EODOption func(*EODClient)

// WithEODBaseURL overrides the API host, mainly for tests.
func WithEODBaseURL(base string) EODOption {
	return func(c *EODClient) { c.baseURL = base }
}

// WithEODHTTPClient overrides the HTTP client.
func WithEODHTTPClient(hc *http.Client) EODOption {
	return func(c *EODClient) { c.http = hc }
}

// WithEODCacheTTL overrides how long fetched series are reused.
func WithEODCacheTTL(ttl time.Duration) EODOption {
	return func(c *EODClient) { c.ttl = ttl }
}

// NewEODClient returns a client for the given API token.
func NewEODClient(apiKey string, logger zerolog.Logger, opts ...EODOption) (*EODClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &EODClient{
		apiKey:  apiKey,
		baseURL: defaultEODBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		ttl:     defaultEODCacheTTL,
		log:     logger.With().Str("component", "marketdata").Logger(),
		cache:   map[string]eodCacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewEODClientFromEnv builds a client from the EODHD_API_KEY environment
// variable.
func NewEODClientFromEnv(logger zerolog.Logger, opts ...EODOption) (*EODClient, error) {
	return NewEODClient(os.Getenv(EnvEODHDAPIKey), logger, opts...)
}

// DailyPrices fetches the split-adjusted daily closes for a ticker between
// from and to (inclusive, "2006-01-02" format). Repeated calls within the
// cache TTL return the cached series without touching the network.
func (c *EODClient) DailyPrices(ctx context.Context, ticker, from, to string) (timeseries.PriceSeries, error) {
	key := fmt.Sprintf("%s|%s|%s", ticker, from, to)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.fetched) < c.ttl {
		c.mu.Unlock()
		return entry.series, nil
	}
	c.mu.Unlock()

	addr := fmt.Sprintf("%s/api/eod/%s?fmt=json&api_token=%s&from=%s&to=%s",
		c.baseURL, url.PathEscape(ticker), url.QueryEscape(c.apiKey), from, to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return timeseries.PriceSeries{}, fmt.Errorf("marketdata: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return timeseries.PriceSeries{}, fmt.Errorf("marketdata: fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return timeseries.PriceSeries{}, fmt.Errorf("%w: %s: %s", ErrEODRequest, ticker, resp.Status)
	}

	var payload []struct {
		Date          string  `json:"date"`
		AdjustedClose float64 `json:"adjusted_close"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return timeseries.PriceSeries{}, fmt.Errorf("marketdata: decode %s: %w", ticker, err)
	}

	dates := make([]string, 0, len(payload))
	prices := make([]float64, 0, len(payload))
	for _, bar := range payload {
		dates = append(dates, bar.Date)
		prices = append(prices, bar.AdjustedClose)
	}

	series, err := timeseries.NewPriceSeries(dates, prices)
	if err != nil {
		return timeseries.PriceSeries{}, fmt.Errorf("marketdata: %s: %w", ticker, err)
	}

	c.log.Debug().Str("ticker", ticker).Int("bars", series.Len()).Msg("Fetched EOD prices")

	c.mu.Lock()
	c.cache[key] = eodCacheEntry{series: series, fetched: time.Now()}
	c.mu.Unlock()

	return series, nil
}

// FetchTable fetches several tickers over the same window and merges them
// into a joint table. Tickers with misaligned trading calendars fail the
// merge rather than being silently reindexed.
func (c *EODClient) FetchTable(ctx context.Context, tickers []string, from, to string) (timeseries.Frame, error) {
	table := timeseries.NewFrame()
	for _, ticker := range tickers {
		series, err := c.DailyPrices(ctx, ticker, from, to)
		if err != nil {
			return timeseries.Frame{}, err
		}
		table, err = table.Merge(ticker, series)
		if err != nil {
			return timeseries.Frame{}, err
		}
	}
	return table, nil
}
