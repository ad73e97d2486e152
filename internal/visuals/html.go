package visuals

import (
	"fmt"
	"io"
	"math"

	"burndown-mcp/internal/burndown"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Series names of the HTML chart.
const (
	SeriesRemaining = "Remaining"
	SeriesIdeal     = "Ideal"
	SeriesSpent     = "Time spent"
)

// NewBurndownChart builds an interactive line chart of remaining work, the ideal line and
// cumulative time spent, all in hours.
func NewBurndownChart(title string, points []burndown.TimelinePoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle(points)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Day"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Hours"}),
	)

	labels := make([]string, len(points))
	remaining := make([]opts.LineData, len(points))
	ideal := make([]opts.LineData, len(points))
	spent := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.Date
		remaining[i] = opts.LineData{Value: round2(toHours(float64(p.RemainingWorkSeconds)))}
		ideal[i] = opts.LineData{Value: round2(toHours(p.IdealRemainingSeconds))}
		spent[i] = opts.LineData{Value: round2(toHours(float64(p.TimeSpentSeconds)))}
	}

	line.SetXAxis(labels)
	line.AddSeries(SeriesRemaining, remaining)
	line.AddSeries(SeriesIdeal, ideal, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	line.AddSeries(SeriesSpent, spent, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// RenderBurndownHTML writes a standalone HTML page holding the burndown chart.
func RenderBurndownHTML(w io.Writer, title string, points []burndown.TimelinePoint) error {
	if err := NewBurndownChart(title, points).Render(w); err != nil {
		return fmt.Errorf("failed to render burndown chart: %w", err)
	}
	return nil
}

func subtitle(points []burndown.TimelinePoint) string {
	if len(points) == 0 {
		return "No data"
	}
	return points[0].Date + " to " + points[len(points)-1].Date
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
