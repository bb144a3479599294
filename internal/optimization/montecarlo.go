// Package optimization finds portfolio weight allocations by Monte Carlo
// sampling: it draws random long-only weight vectors, evaluates each against
// the historical return statistics and keeps the minimum-volatility and
// maximum-Sharpe allocations.
package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantfolio/internal/returns"
	"github.com/aristath/quantfolio/internal/timeseries"
	"github.com/aristath/quantfolio/pkg/formulas"
)

var (
	// ErrInvalidTrials reports a non-positive trial count.
	ErrInvalidTrials = errors.New("optimization: num trials must be positive")

	// ErrInvalidWeights reports initial weights that do not match the table.
	ErrInvalidWeights = errors.New("optimization: initial weights do not match asset count")
)

// evaluation chunk size per worker grab. Cancellation is checked between
// chunks, so this bounds how much work runs after a cancel.
const chunkSize = 256

// Config controls a Monte Carlo run. Start from DefaultConfig and override
// the fields you need; New uses the config as given.
type Config struct {
	NumTrials    int
	RiskFreeRate float64
	Freq         int
	Seed         int64
	Workers      int
}

// DefaultConfig returns the standard run parameters: 10000 trials, a 0.005
// risk-free rate, 252 trading days, a fresh time-based seed and one worker
// per CPU.
func DefaultConfig() Config {
	return Config{
		NumTrials:    10000,
		RiskFreeRate: 0.005,
		Freq:         formulas.TradingDaysPerYear,
		Seed:         time.Now().UnixNano(),
		Workers:      runtime.NumCPU(),
	}
}

// Optimizer runs Monte Carlo weight searches over a joint price table.
type Optimizer struct {
	cfg Config
	log zerolog.Logger
}

// New returns an optimizer for cfg. The config is taken verbatim, so an
// explicit zero risk-free rate or seed is honored; Workers is the one
// exception, anything non-positive falls back to one worker per CPU.
func New(cfg Config, logger zerolog.Logger) *Optimizer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return &Optimizer{
		cfg: cfg,
		log: logger.With().Str("component", "optimization").Logger(),
	}
}

// Run samples cfg.NumTrials random allocations over the table's assets and
// returns the best ones. Candidate weights are drawn sequentially from a
// single seeded source, so a given seed always produces the same trials and
// the same winners, regardless of worker count. initialWeights may be nil;
// when given it is evaluated as a baseline and must have one weight per
// asset.
func (o *Optimizer) Run(ctx context.Context, table timeseries.Frame, initialWeights []float64) (*Result, error) {
	if o.cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTrials, o.cfg.NumTrials)
	}
	if table.IsEmpty() {
		return nil, timeseries.ErrEmptySeries
	}

	names := table.Columns()
	numAssets := len(names)

	means, err := returns.MeanVector(table, o.cfg.Freq)
	if err != nil {
		return nil, err
	}
	daily, err := returns.DailyTable(table)
	if err != nil {
		return nil, err
	}
	cov := mat.NewSymDense(numAssets, nil)
	stat.CovarianceMatrix(cov, daily.Matrix(), nil)

	result := &Result{
		RunID:        uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Names:        names,
		NumTrials:    o.cfg.NumTrials,
		RiskFreeRate: o.cfg.RiskFreeRate,
		Freq:         o.cfg.Freq,
		Seed:         o.cfg.Seed,
	}

	if initialWeights != nil {
		if len(initialWeights) != numAssets {
			return nil, fmt.Errorf("%w: %d weights for %d assets", ErrInvalidWeights, len(initialWeights), numAssets)
		}
		tr := o.evaluate(initialWeights, means, cov)
		result.Initial = &tr
	}

	start := time.Now()
	o.log.Info().
		Str("run_id", result.RunID).
		Int("num_trials", o.cfg.NumTrials).
		Int("num_assets", numAssets).
		Int64("seed", o.cfg.Seed).
		Msg("Starting Monte Carlo run")

	candidates := o.drawCandidates(numAssets)

	trials := make([]Trial, len(candidates))
	if err := o.evaluateAll(ctx, candidates, means, cov, trials); err != nil {
		return nil, err
	}
	result.Trials = trials

	o.selectWinners(result)

	o.log.Info().
		Str("run_id", result.RunID).
		Dur("elapsed", time.Since(start)).
		Float64("min_volatility", result.MinVolatility.Volatility).
		Float64("max_sharpe", result.MaxSharpe.SharpeRatio).
		Msg("Monte Carlo run complete")

	return result, nil
}

// drawCandidates generates every candidate weight vector sequentially from
// one seeded source. Draws are uniform on [0, 1) and normalized to sum to 1;
// an all-zero draw is discarded and redrawn.
func (o *Optimizer) drawCandidates(numAssets int) [][]float64 {
	rng := rand.New(rand.NewSource(o.cfg.Seed))
	out := make([][]float64, o.cfg.NumTrials)
	for i := range out {
		w := make([]float64, numAssets)
		for {
			var sum float64
			for j := range w {
				w[j] = rng.Float64()
				sum += w[j]
			}
			if sum > 0 {
				for j := range w {
					w[j] /= sum
				}
				break
			}
		}
		out[i] = w
	}
	return out
}

// evaluateAll fills trials[i] for every candidate, splitting the index space
// into chunks pulled by a fixed worker pool. Each slot is written by exactly
// one worker, so the result is identical to a sequential evaluation.
func (o *Optimizer) evaluateAll(ctx context.Context, candidates [][]float64, means []float64, cov *mat.SymDense, trials []Trial) error {
	chunks := make(chan int)
	var wg sync.WaitGroup

	workers := o.cfg.Workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lo := range chunks {
				hi := lo + chunkSize
				if hi > len(candidates) {
					hi = len(candidates)
				}
				for i := lo; i < hi; i++ {
					trials[i] = o.evaluate(candidates[i], means, cov)
				}
			}
		}()
	}

	var cancelled error
feed:
	for lo := 0; lo < len(candidates); lo += chunkSize {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case chunks <- lo:
		}
	}
	close(chunks)
	wg.Wait()

	if cancelled != nil {
		o.log.Warn().Err(cancelled).Msg("Monte Carlo run cancelled")
		return cancelled
	}
	return nil
}

func (o *Optimizer) evaluate(weights, means []float64, cov *mat.SymDense) Trial {
	er := floats.Dot(weights, means)

	dailyStd, _ := formulas.WeightedStd(cov, weights)
	vol := dailyStd * math.Sqrt(float64(o.cfg.Freq))

	// An undefined Sharpe ratio stays NaN in the trial; selection skips it.
	sharpe, _ := formulas.SharpeRatio(er, vol, o.cfg.RiskFreeRate)

	return Trial{
		Weights:        append([]float64(nil), weights...),
		ExpectedReturn: er,
		Volatility:     vol,
		SharpeRatio:    sharpe,
	}
}

// selectWinners picks the minimum-volatility and maximum-Sharpe trials.
// Strict comparisons keep the earliest index on ties. Trials with an
// undefined Sharpe ratio never win the Sharpe slot; when all are undefined
// the minimum-volatility trial is used as a fallback.
func (o *Optimizer) selectWinners(r *Result) {
	if len(r.Trials) == 0 {
		return
	}

	minVol := 0
	maxSharpe := -1
	for i, tr := range r.Trials {
		if tr.Volatility < r.Trials[minVol].Volatility {
			minVol = i
		}
		if math.IsNaN(tr.SharpeRatio) {
			continue
		}
		if maxSharpe < 0 || tr.SharpeRatio > r.Trials[maxSharpe].SharpeRatio {
			maxSharpe = i
		}
	}

	r.MinVolatilityIndex = minVol
	r.MinVolatility = r.Trials[minVol]

	if maxSharpe >= 0 {
		r.MaxSharpeDefined = true
		r.MaxSharpeIndex = maxSharpe
		r.MaxSharpe = r.Trials[maxSharpe]
	} else {
		r.MaxSharpeIndex = minVol
		r.MaxSharpe = r.Trials[minVol]
	}
}
