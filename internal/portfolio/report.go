package portfolio

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// AssetLine is the per-asset section of a portfolio summary.
type AssetLine struct {
	Name           string  `json:"name"`
	InvestedAmount float64 `json:"investedAmount"`
	Weight         float64 `json:"weight"`
	ExpectedReturn float64 `json:"expectedReturn"`
	Volatility     float64 `json:"volatility"`
	Skew           float64 `json:"skew"`
	Kurtosis       float64 `json:"kurtosis"`
}

// Summary is a full snapshot of the portfolio's statistics. Undefined values
// stay NaN in the numeric fields and are called out in Warnings so nothing
// undefined is reported as a plain number.
type Summary struct {
	Assets          []AssetLine `json:"assets"`
	TotalInvestment float64     `json:"totalInvestment"`
	RiskFreeRate    float64     `json:"riskFreeRate"`
	Freq            int         `json:"freq"`
	ExpectedReturn  float64     `json:"expectedReturn"`
	Volatility      float64     `json:"volatility"`
	SharpeRatio     float64     `json:"sharpeRatio"`
	Warnings        []string    `json:"warnings,omitempty"`
}

// Summarize computes the full statistics snapshot. Undefined statistics do
// not abort the summary; they are recorded as warnings instead.
func (p *Portfolio) Summarize(riskFreeRate float64, freq int) (Summary, error) {
	weights, err := p.Weights()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalInvestment: p.TotalInvestment(),
		RiskFreeRate:    riskFreeRate,
		Freq:            freq,
		Assets:          make([]AssetLine, 0, p.Len()),
	}

	for i, a := range p.assets {
		er, err := a.ExpectedReturn(freq)
		if err != nil {
			return Summary{}, err
		}
		vol, err := a.Volatility(freq)
		if err != nil {
			return Summary{}, err
		}
		line := AssetLine{
			Name:           a.Name(),
			InvestedAmount: a.InvestedAmount(),
			Weight:         weights[i],
			ExpectedReturn: er,
			Volatility:     vol,
			Skew:           a.Skew(),
			Kurtosis:       a.Kurtosis(),
		}
		s.Assets = append(s.Assets, line)
		s.flagNaN(fmt.Sprintf("asset %q expected return", a.Name()), er)
		s.flagNaN(fmt.Sprintf("asset %q volatility", a.Name()), vol)
		s.flagNaN(fmt.Sprintf("asset %q skewness", a.Name()), line.Skew)
		s.flagNaN(fmt.Sprintf("asset %q kurtosis", a.Name()), line.Kurtosis)
	}

	s.ExpectedReturn, err = p.ExpectedReturn(freq)
	if err != nil {
		return Summary{}, err
	}
	s.flagNaN("portfolio expected return", s.ExpectedReturn)

	s.Volatility, err = p.Volatility(freq)
	if err != nil {
		return Summary{}, err
	}
	s.flagNaN("portfolio volatility", s.Volatility)

	sharpe, err := p.SharpeRatio(riskFreeRate, freq)
	s.SharpeRatio = sharpe
	if err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("sharpe ratio: %v", err))
	} else {
		s.flagNaN("portfolio sharpe ratio", sharpe)
	}

	return s, nil
}

// MarshalJSON encodes undefined statistics as null; encoding/json refuses
// raw NaN values.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	return json.Marshal(struct {
		alias
		ExpectedReturn *float64 `json:"expectedReturn"`
		Volatility     *float64 `json:"volatility"`
		SharpeRatio    *float64 `json:"sharpeRatio"`
	}{
		alias:          alias(s),
		ExpectedReturn: nanToNull(s.ExpectedReturn),
		Volatility:     nanToNull(s.Volatility),
		SharpeRatio:    nanToNull(s.SharpeRatio),
	})
}

// MarshalJSON encodes undefined statistics as null.
func (a AssetLine) MarshalJSON() ([]byte, error) {
	type alias AssetLine
	return json.Marshal(struct {
		alias
		ExpectedReturn *float64 `json:"expectedReturn"`
		Volatility     *float64 `json:"volatility"`
		Skew           *float64 `json:"skew"`
		Kurtosis       *float64 `json:"kurtosis"`
	}{
		alias:          alias(a),
		ExpectedReturn: nanToNull(a.ExpectedReturn),
		Volatility:     nanToNull(a.Volatility),
		Skew:           nanToNull(a.Skew),
		Kurtosis:       nanToNull(a.Kurtosis),
	})
}

func nanToNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func (s *Summary) flagNaN(label string, v float64) {
	if math.IsNaN(v) {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s is undefined (NaN)", label))
	}
}

// String renders the summary as a fixed-width report block.
func (s Summary) String() string {
	var b strings.Builder
	rule := strings.Repeat("-", 70)

	b.WriteString(rule + "\n")
	b.WriteString("Portfolio summary\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-12s %12s %8s %10s %10s %8s %8s\n",
		"Asset", "Invested", "Weight", "ExpRet", "Vol", "Skew", "Kurt")
	for _, a := range s.Assets {
		fmt.Fprintf(&b, "%-12s %12.2f %8.4f %10s %10s %8s %8s\n",
			a.Name, a.InvestedAmount, a.Weight,
			num(a.ExpectedReturn), num(a.Volatility), num(a.Skew), num(a.Kurtosis))
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total investment:  %.2f\n", s.TotalInvestment)
	fmt.Fprintf(&b, "Risk-free rate:    %.4f\n", s.RiskFreeRate)
	fmt.Fprintf(&b, "Trading days/year: %d\n", s.Freq)
	fmt.Fprintf(&b, "Expected return:   %s\n", num(s.ExpectedReturn))
	fmt.Fprintf(&b, "Volatility:        %s\n", num(s.Volatility))
	fmt.Fprintf(&b, "Sharpe ratio:      %s\n", num(s.SharpeRatio))
	if len(s.Warnings) > 0 {
		b.WriteString(rule + "\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "WARNING: %s\n", w)
		}
	}
	b.WriteString(rule + "\n")
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", v)
}
