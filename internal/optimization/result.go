package optimization

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Trial is one evaluated weight allocation.
type Trial struct {
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expectedReturn"`
	Volatility     float64   `json:"volatility"`
	SharpeRatio    float64   `json:"sharpeRatio"`
}

// Result is the outcome of a Monte Carlo run. Trials keeps every evaluated
// allocation in generation order, so MinVolatilityIndex and MaxSharpeIndex
// identify the winners within it.
type Result struct {
	RunID        string    `json:"runId"`
	CreatedAt    time.Time `json:"createdAt"`
	Names        []string  `json:"names"`
	NumTrials    int       `json:"numTrials"`
	RiskFreeRate float64   `json:"riskFreeRate"`
	Freq         int       `json:"freq"`
	Seed         int64     `json:"seed"`

	// Initial is the evaluation of the caller's current weights, when given.
	Initial *Trial `json:"initial,omitempty"`

	MinVolatility      Trial `json:"minVolatility"`
	MinVolatilityIndex int   `json:"minVolatilityIndex"`
	MaxSharpe          Trial `json:"maxSharpe"`
	MaxSharpeIndex     int   `json:"maxSharpeIndex"`

	// MaxSharpeDefined is false when every trial had an undefined Sharpe
	// ratio; MaxSharpe then mirrors MinVolatility as a fallback.
	MaxSharpeDefined bool `json:"maxSharpeDefined"`

	Trials []Trial `json:"trials,omitempty"`
}

// MarshalJSON encodes undefined statistics as null; encoding/json refuses
// raw NaN values. Besides the Sharpe ratio, expected return and volatility
// can be NaN when a non-positive price poisons the return series.
func (t Trial) MarshalJSON() ([]byte, error) {
	type alias Trial
	return json.Marshal(struct {
		alias
		ExpectedReturn *float64 `json:"expectedReturn"`
		Volatility     *float64 `json:"volatility"`
		SharpeRatio    *float64 `json:"sharpeRatio"`
	}{
		alias:          alias(t),
		ExpectedReturn: nanToNull(t.ExpectedReturn),
		Volatility:     nanToNull(t.Volatility),
		SharpeRatio:    nanToNull(t.SharpeRatio),
	})
}

func nanToNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Allocation maps asset names to the capital each would receive under the
// trial's weights.
func (r *Result) Allocation(tr Trial, totalInvestment float64) map[string]float64 {
	out := make(map[string]float64, len(r.Names))
	for i, name := range r.Names {
		out[name] = tr.Weights[i] * totalInvestment
	}
	return out
}

// String renders the two optimal allocations as a report block.
func (r *Result) String() string {
	var b strings.Builder
	rule := strings.Repeat("-", 70)

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Monte Carlo optimization (%d trials, seed %d)\n", r.NumTrials, r.Seed)
	b.WriteString(rule + "\n")
	writeTrial(&b, "Minimum volatility", r.Names, r.MinVolatility)
	if r.MaxSharpeDefined {
		writeTrial(&b, "Maximum Sharpe ratio", r.Names, r.MaxSharpe)
	} else {
		b.WriteString("Maximum Sharpe ratio: undefined for every trial\n")
	}
	if r.Initial != nil {
		writeTrial(&b, "Initial weights", r.Names, *r.Initial)
	}
	b.WriteString(rule + "\n")
	return b.String()
}

func writeTrial(b *strings.Builder, title string, names []string, tr Trial) {
	fmt.Fprintf(b, "%s:\n", title)
	for i, name := range names {
		fmt.Fprintf(b, "  %-12s %8.4f\n", name, tr.Weights[i])
	}
	fmt.Fprintf(b, "  Expected return: %.4f\n", tr.ExpectedReturn)
	fmt.Fprintf(b, "  Volatility:      %.4f\n", tr.Volatility)
	if math.IsNaN(tr.SharpeRatio) {
		b.WriteString("  Sharpe ratio:    undefined\n")
	} else {
		fmt.Fprintf(b, "  Sharpe ratio:    %.4f\n", tr.SharpeRatio)
	}
}
