// Package history persists price series and optimization runs to SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/timeseries"
)

// ErrNotFound reports a symbol or run absent from the store.
var ErrNotFound = errors.New("history: not found")

const priceSchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	close  REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol ON daily_prices(symbol);
`

// PriceStore persists per-symbol daily close series.
type PriceStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPriceStore creates the schema if needed and returns a store.
func NewPriceStore(db *database.DB, logger zerolog.Logger) (*PriceStore, error) {
	if _, err := db.Exec(priceSchema); err != nil {
		return nil, fmt.Errorf("history: create price schema: %w", err)
	}
	return &PriceStore{
		db:  db,
		log: logger.With().Str("component", "history").Logger(),
	}, nil
}

// SaveSeries upserts a symbol's full series in one transaction.
func (s *PriceStore) SaveSeries(ctx context.Context, symbol string, series timeseries.PriceSeries) error {
	dates := series.Dates()
	prices := series.Prices()

	err := database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_prices (symbol, date, close) VALUES (?, ?, ?)
			ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, date := range dates {
			if _, err := stmt.ExecContext(ctx, symbol, date, prices[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("history: save %q: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Int("rows", series.Len()).Msg("Saved price series")
	return nil
}

// LoadSeries returns a symbol's series, ordered by date.
func (s *PriceStore) LoadSeries(ctx context.Context, symbol string) (timeseries.PriceSeries, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, close FROM daily_prices WHERE symbol = ? ORDER BY date ASC`, symbol)
	if err != nil {
		return timeseries.PriceSeries{}, fmt.Errorf("history: load %q: %w", symbol, err)
	}
	defer rows.Close()

	var dates []string
	var prices []float64
	for rows.Next() {
		var date string
		var close float64
		if err := rows.Scan(&date, &close); err != nil {
			return timeseries.PriceSeries{}, fmt.Errorf("history: scan %q: %w", symbol, err)
		}
		dates = append(dates, date)
		prices = append(prices, close)
	}
	if err := rows.Err(); err != nil {
		return timeseries.PriceSeries{}, fmt.Errorf("history: load %q: %w", symbol, err)
	}
	if len(dates) == 0 {
		return timeseries.PriceSeries{}, fmt.Errorf("%w: symbol %q", ErrNotFound, symbol)
	}

	return timeseries.NewPriceSeries(dates, prices)
}

// LoadTable loads several symbols and merges them into a joint table.
func (s *PriceStore) LoadTable(ctx context.Context, symbols []string) (timeseries.Frame, error) {
	table := timeseries.NewFrame()
	for _, symbol := range symbols {
		series, err := s.LoadSeries(ctx, symbol)
		if err != nil {
			return timeseries.Frame{}, err
		}
		table, err = table.Merge(symbol, series)
		if err != nil {
			return timeseries.Frame{}, err
		}
	}
	return table, nil
}

// Symbols lists the stored symbols in lexical order.
func (s *PriceStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("history: list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("history: scan symbol: %w", err)
		}
		out = append(out, symbol)
	}
	return out, rows.Err()
}

// DeleteSeries removes a symbol's rows.
func (s *PriceStore) DeleteSeries(ctx context.Context, symbol string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_prices WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("history: delete %q: %w", symbol, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: symbol %q", ErrNotFound, symbol)
	}
	return nil
}
