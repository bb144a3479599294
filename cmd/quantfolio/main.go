// Package main is the entry point for quantfolio, a portfolio statistics and
// Monte Carlo weight optimization tool.
//
// It runs in three modes:
//   - report   (default) load the portfolio from CSV and print its summary
//   - optimize run a Monte Carlo weight search, persist it and write charts
//   - serve    expose the portfolio and optimizer over HTTP
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/charts"
	"github.com/aristath/quantfolio/internal/config"
	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/history"
	"github.com/aristath/quantfolio/internal/marketdata"
	"github.com/aristath/quantfolio/internal/optimization"
	"github.com/aristath/quantfolio/internal/portfolio"
	"github.com/aristath/quantfolio/internal/scheduler"
	"github.com/aristath/quantfolio/internal/server"
	"github.com/aristath/quantfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	mode := "report"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "report":
		runReport(cfg, log)
	case "optimize":
		runOptimize(cfg, log)
	case "serve":
		runServe(cfg, log)
	default:
		log.Fatal().Str("mode", mode).Msg("Unknown mode, expected report, optimize or serve")
	}
}

// loadPortfolio builds the portfolio from the configured CSV files.
func loadPortfolio(cfg *config.Config, log zerolog.Logger) *portfolio.Portfolio {
	if cfg.PricesCSV == "" || cfg.HoldingsCSV == "" {
		log.Fatal().Msg("QUANTFOLIO_PRICES_CSV and QUANTFOLIO_HOLDINGS_CSV must be set")
	}

	table, err := marketdata.LoadPriceTable(cfg.PricesCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PricesCSV).Msg("Failed to load price table")
	}
	metas, err := marketdata.LoadMetadata(cfg.HoldingsCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.HoldingsCSV).Msg("Failed to load holdings")
	}

	p, err := marketdata.BuildPortfolio(metas, table)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build portfolio")
	}

	log.Info().
		Int("assets", p.Len()).
		Int("dates", p.Table().Len()).
		Float64("total_investment", p.TotalInvestment()).
		Msg("Portfolio loaded")
	return p
}

func runReport(cfg *config.Config, log zerolog.Logger) {
	p := loadPortfolio(cfg, log)

	summary, err := p.Summarize(cfg.RiskFreeRate, cfg.Freq)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to summarize portfolio")
	}
	fmt.Print(summary.String())
}

func runOptimize(cfg *config.Config, log zerolog.Logger) {
	p := loadPortfolio(cfg, log)

	runsDB, err := database.New(database.Config{Path: cfg.RunsDBPath(), Name: "runs"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer runsDB.Close()

	runStore, err := history.NewRunStore(runsDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize run store")
	}

	weights, err := p.Weights()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute weights")
	}

	ocfg := optimization.DefaultConfig()
	ocfg.NumTrials = cfg.NumTrials
	ocfg.RiskFreeRate = cfg.RiskFreeRate
	ocfg.Freq = cfg.Freq
	if cfg.Seed != 0 {
		ocfg.Seed = cfg.Seed
	}
	opt := optimization.New(ocfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := opt.Run(ctx, p.Table(), weights)
	if err != nil {
		log.Fatal().Err(err).Msg("Optimization failed")
	}

	if err := runStore.SaveRun(ctx, result); err != nil {
		log.Fatal().Err(err).Msg("Failed to persist run")
	}
	fmt.Print(result.String())

	writeChart(log, filepath.Join(cfg.DataDir, "growth.png"), func() ([]byte, error) {
		return charts.RenderGrowth(p.Table())
	})
	writeChart(log, filepath.Join(cfg.DataDir, fmt.Sprintf("frontier-%s.png", result.RunID)), func() ([]byte, error) {
		return charts.RenderFrontier(result)
	})
}

func writeChart(log zerolog.Logger, path string, render func() ([]byte, error)) {
	png, err := render()
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Chart rendering skipped")
		return
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Chart write failed")
		return
	}
	log.Info().Str("path", path).Msg("Chart written")
}

func runServe(cfg *config.Config, log zerolog.Logger) {
	p := loadPortfolio(cfg, log)

	pricesDB, err := database.New(database.Config{
		Path:    cfg.PricesDBPath(),
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open prices database")
	}
	defer pricesDB.Close()

	runsDB, err := database.New(database.Config{Path: cfg.RunsDBPath(), Name: "runs"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer runsDB.Close()

	priceStore, err := history.NewPriceStore(pricesDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price store")
	}
	runStore, err := history.NewRunStore(runsDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize run store")
	}

	// Snapshot the loaded table so refreshed prices survive restarts.
	ctx := context.Background()
	for _, name := range p.Names() {
		series, err := p.Table().Series(name)
		if err == nil {
			if err := priceStore.SaveSeries(ctx, name, series); err != nil {
				log.Warn().Err(err).Str("symbol", name).Msg("Failed to snapshot series")
			}
		}
	}

	sched := scheduler.New(log)
	if cfg.EODHDAPIKey != "" {
		client, err := marketdata.NewEODClient(cfg.EODHDAPIKey, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create EODHD client")
		}
		refresh := scheduler.NewPriceRefreshJob(client, priceStore, 0, log)
		// Weeknights at 22:00, after US close.
		if err := sched.AddJob("0 0 22 * * MON-FRI", refresh); err != nil {
			log.Fatal().Err(err).Msg("Failed to register price refresh job")
		}
	} else {
		log.Info().Msg("EODHD_API_KEY not set, price refresh disabled")
	}
	maintenance := scheduler.NewMaintenanceJob(log, pricesDB, runsDB)
	if err := sched.AddJob("@daily", maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		Portfolio:    p,
		RunStore:     runStore,
		NumTrials:    cfg.NumTrials,
		RiskFreeRate: cfg.RiskFreeRate,
		Freq:         cfg.Freq,
		Seed:         cfg.Seed,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
