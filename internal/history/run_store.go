package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/optimization"
)

const runSchema = `
CREATE TABLE IF NOT EXISTS optimization_runs (
	run_id         TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	num_trials     INTEGER NOT NULL,
	risk_free_rate REAL NOT NULL,
	freq           INTEGER NOT NULL,
	seed           INTEGER NOT NULL,
	min_volatility REAL NOT NULL,
	max_sharpe     REAL NOT NULL,
	payload        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON optimization_runs(created_at);
`

// RunSummary is the lightweight listing row for a stored run.
type RunSummary struct {
	RunID         string    `json:"runId"`
	CreatedAt     time.Time `json:"createdAt"`
	NumTrials     int       `json:"numTrials"`
	MinVolatility float64   `json:"minVolatility"`
	MaxSharpe     float64   `json:"maxSharpe"`
}

// RunStore persists full optimization results. Queryable fields live in
// columns; the complete result, trials included, is a msgpack blob.
type RunStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRunStore creates the schema if needed and returns a store.
func NewRunStore(db *database.DB, logger zerolog.Logger) (*RunStore, error) {
	if _, err := db.Exec(runSchema); err != nil {
		return nil, fmt.Errorf("history: create run schema: %w", err)
	}
	return &RunStore{
		db:  db,
		log: logger.With().Str("component", "history").Logger(),
	}, nil
}

// SaveRun stores a result under its run ID.
func (s *RunStore) SaveRun(ctx context.Context, r *optimization.Result) error {
	payload, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("history: encode run %s: %w", r.RunID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO optimization_runs
			(run_id, created_at, num_trials, risk_free_rate, freq, seed, min_volatility, max_sharpe, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.NumTrials,
		r.RiskFreeRate,
		r.Freq,
		r.Seed,
		r.MinVolatility.Volatility,
		r.MaxSharpe.SharpeRatio,
		payload,
	)
	if err != nil {
		return fmt.Errorf("history: save run %s: %w", r.RunID, err)
	}

	s.log.Info().Str("run_id", r.RunID).Int("num_trials", r.NumTrials).Msg("Saved optimization run")
	return nil
}

// LoadRun returns the full stored result for a run ID.
func (s *RunStore) LoadRun(ctx context.Context, runID string) (*optimization.Result, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM optimization_runs WHERE run_id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("history: load run %q: %w", runID, err)
	}

	var r optimization.Result
	if err := msgpack.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("history: decode run %q: %w", runID, err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, num_trials, min_volatility, max_sharpe
		FROM optimization_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var createdAt string
		if err := rows.Scan(&r.RunID, &createdAt, &r.NumTrials, &r.MinVolatility, &r.MaxSharpe); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("history: parse created_at %q: %w", createdAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a stored run.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM optimization_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("history: delete run %q: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	return nil
}
