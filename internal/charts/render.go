// Package charts renders portfolio growth and Monte Carlo result charts as
// PNG images.
package charts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vicanso/go-charts/v2"

	"github.com/aristath/quantfolio/internal/optimization"
	"github.com/aristath/quantfolio/internal/returns"
	"github.com/aristath/quantfolio/internal/timeseries"
)

// ErrNoData reports a chart requested with nothing to draw.
var ErrNoData = errors.New("charts: no data to render")

// RenderGrowth draws the cumulative growth of each asset: every series is
// rebased to 1.0 at the first date, so mixed price scales share one axis.
func RenderGrowth(table timeseries.Frame) ([]byte, error) {
	if table.IsEmpty() || table.Len() < 2 {
		return nil, ErrNoData
	}

	growth, err := returns.SimpleTable(table)
	if err != nil {
		return nil, fmt.Errorf("charts: %w", err)
	}

	names := growth.Columns()
	values := make([][]float64, 0, len(names))
	var yMin, yMax float64
	first := true
	for _, name := range names {
		col, err := growth.Column(name)
		if err != nil {
			return nil, fmt.Errorf("charts: %w", err)
		}
		for _, v := range col {
			if first || v < yMin {
				yMin = v
			}
			if first || v > yMax {
				yMax = v
			}
			first = false
		}
		values = append(values, col)
	}

	pad := (yMax - yMin) * 0.05
	yMin -= pad
	yMax += pad

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}

	painter, err := charts.Render(
		charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Portfolio growth", "cumulative return, base 1.0"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        growth.Dates(),
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: 10,
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("charts: render growth: %w", err)
	}
	return painter.Bytes()
}

// RenderFrontier draws the Monte Carlo cloud as an expected-return curve over
// volatility: trials are sorted by volatility and the winners are named in
// the subtitle.
func RenderFrontier(r *optimization.Result) ([]byte, error) {
	if r == nil || len(r.Trials) == 0 {
		return nil, ErrNoData
	}

	sorted := make([]optimization.Trial, len(r.Trials))
	copy(sorted, r.Trials)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Volatility < sorted[j].Volatility })

	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	yMin, yMax := sorted[0].ExpectedReturn, sorted[0].ExpectedReturn
	for i, tr := range sorted {
		labels[i] = fmt.Sprintf("%.3f", tr.Volatility)
		values[i] = tr.ExpectedReturn
		if tr.ExpectedReturn < yMin {
			yMin = tr.ExpectedReturn
		}
		if tr.ExpectedReturn > yMax {
			yMax = tr.ExpectedReturn
		}
	}
	pad := (yMax - yMin) * 0.05
	yMin -= pad
	yMax += pad

	subtitle := fmt.Sprintf("min vol %.4f", r.MinVolatility.Volatility)
	if r.MaxSharpeDefined {
		subtitle += fmt.Sprintf(", max sharpe %.4f", r.MaxSharpe.SharpeRatio)
	}

	painter, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(fmt.Sprintf("Monte Carlo cloud (%d trials)", r.NumTrials), subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: 10,
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("charts: render frontier: %w", err)
	}
	return painter.Bytes()
}
