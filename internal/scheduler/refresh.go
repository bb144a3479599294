package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/history"
	"github.com/aristath/quantfolio/internal/marketdata"
)

// PriceRefreshJob fetches the latest EOD prices for every stored symbol and
// upserts them into the price store.
type PriceRefreshJob struct {
	client *marketdata.EODClient
	store  *history.PriceStore
	window time.Duration
	log    zerolog.Logger
}

// NewPriceRefreshJob builds a refresh job. window bounds how far back each
// refresh fetches; a year covers the statistics' lookback needs.
func NewPriceRefreshJob(client *marketdata.EODClient, store *history.PriceStore, window time.Duration, log zerolog.Logger) *PriceRefreshJob {
	if window <= 0 {
		window = 365 * 24 * time.Hour
	}
	return &PriceRefreshJob{
		client: client,
		store:  store,
		window: window,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Name implements Job.
func (j *PriceRefreshJob) Name() string { return "price_refresh" }

// Run implements Job. Symbols that fail to fetch are logged and skipped so
// one delisted ticker does not block the rest.
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	symbols, err := j.store.Symbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		j.log.Info().Msg("No symbols to refresh")
		return nil
	}

	now := time.Now().UTC()
	from := now.Add(-j.window).Format("2006-01-02")
	to := now.Format("2006-01-02")

	refreshed := 0
	for _, symbol := range symbols {
		series, err := j.client.DailyPrices(ctx, symbol, from, to)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Price refresh failed for symbol")
			continue
		}
		if err := j.store.SaveSeries(ctx, symbol, series); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Price save failed for symbol")
			continue
		}
		refreshed++
	}

	j.log.Info().Int("refreshed", refreshed).Int("total", len(symbols)).Msg("Price refresh complete")
	return nil
}

// MaintenanceJob checkpoints the WAL files so they do not grow unbounded.
type MaintenanceJob struct {
	dbs []*database.DB
	log zerolog.Logger
}

// NewMaintenanceJob builds a maintenance job over the given databases.
func NewMaintenanceJob(log zerolog.Logger, dbs ...*database.DB) *MaintenanceJob {
	return &MaintenanceJob{
		dbs: dbs,
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

// Name implements Job.
func (j *MaintenanceJob) Name() string { return "db_maintenance" }

// Run implements Job.
func (j *MaintenanceJob) Run() error {
	for _, db := range j.dbs {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpoint done")
	}
	return nil
}
