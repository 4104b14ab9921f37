// Package report renders backtest results as standalone HTML charts.
package report

import (
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/quantfold/volarb/internal/backtest"
	"github.com/quantfold/volarb/pkg/errors"
)

const (
	chartWidth  = "1200px"
	chartHeight = "450px"

	colorEquity   = "#3b82f6"
	colorDrawdown = "#f87171"
)

// WriteHTML renders the result's equity curve and drawdown series into a
// single HTML page at the given path.
func WriteHTML(result *backtest.Result, title, path string) error {
	curve := result.EquityCurve()
	if len(curve) == 0 {
		return errors.New(errors.ErrCodeNoData, "result has no equity curve to render")
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		buildEquityChart(title, curve),
		buildDrawdownChart(result.DrawdownSeries()),
	)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestReport, err, "failed to create report file %s", path)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestReport, "failed to render report", err)
	}

	return nil
}

func buildEquityChart(title string, curve []backtest.EquityPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "Equity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	xAxis := make([]string, len(curve))
	values := make([]opts.LineData, len(curve))

	for i, point := range curve {
		xAxis[i] = point.Time.Format("2006-01-02")
		values[i] = opts.LineData{Value: point.Value}
	}

	line.SetXAxis(xAxis)
	line.AddSeries("Equity", values, charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}))

	return line
}

func buildDrawdownChart(series []backtest.DrawdownPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Drawdown"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	xAxis := make([]string, len(series))
	values := make([]opts.LineData, len(series))

	for i, point := range series {
		xAxis[i] = point.Time.Format("2006-01-02")
		values[i] = opts.LineData{Value: point.Drawdown * 100}
	}

	line.SetXAxis(xAxis)
	line.AddSeries("Drawdown %", values, charts.WithLineStyleOpts(opts.LineStyle{Color: colorDrawdown, Width: 2}))

	return line
}
