package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rustyeddy/tradelab/sim"
)

// WriteEquityChart renders curve as a standalone HTML line chart.
func WriteEquityChart(w io.Writer, title string, curve []sim.EquityPoint) error {
	if len(curve) == 0 {
		return fmt.Errorf("backtest: equity chart: empty curve")
	}

	xs := make([]string, len(curve))
	ys := make([]opts.LineData, len(curve))
	for i, p := range curve {
		xs[i] = time.Unix(p.Time, 0).UTC().Format("2006-01-02 15:04")
		ys[i] = opts.LineData{Value: p.Value}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xs).
		AddSeries("Equity", ys).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("backtest: equity chart: %w", err)
	}
	return nil
}
