// Package plot renders the daily traffic ledger as interactive HTML
// charts. Confirmed days draw solid; the trailing days whose upstream
// figures can still grow draw as a dashed continuation so a reader
// never mistakes an in-progress day for a drop in traffic.
package plot

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/DazzleML/ghtraf/pkg/stats"
)

const fullZoomPct = 100

// gap is the echarts null marker: the series line breaks instead of
// plotting a zero.
const gap = "-"

// Series colors, shared across both charts for visual continuity.
const (
	colorClones  = "#2f81f7"
	colorUniques = "#3fb950"
	colorOrganic = "#d29922"
	colorViews   = "#a371f7"
	colorViewUni = "#f85149"
)

// metricSeries is one plotted line: a value per ledger date, with nil
// for dates the metric was never observed on.
type metricSeries struct {
	name   string
	color  string
	values []*int
}

// RenderPage writes an HTML page with the clone and view history
// charts for the document's retained ledger.
func RenderPage(w io.Writer, doc *stats.Document, projection stats.Projection) error {
	if len(doc.DailyHistory) == 0 {
		return errors.New("no daily history to plot")
	}

	labels := make([]string, len(doc.DailyHistory))
	for i, rec := range doc.DailyHistory {
		labels[i] = string(rec.Date)
	}

	firstProvisional := len(doc.DailyHistory) - len(projection.Provisional)

	page := components.NewPage()
	page.SetPageTitle("Traffic History")
	page.AddCharts(
		trafficChart("Clones", "Clones per day", labels, cloneSeries(doc), firstProvisional),
		trafficChart("Views", "Views per day", labels, viewSeries(doc), firstProvisional),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render traffic page: %w", err)
	}

	return nil
}

func cloneSeries(doc *stats.Document) []metricSeries {
	return []metricSeries{
		{name: "Clones", color: colorClones, values: countValues(doc, stats.MetricClones)},
		{name: "Unique clones", color: colorUniques, values: uniqueValues(doc, stats.MetricClones)},
		{name: "Organic clones", color: colorOrganic, values: organicValues(doc)},
	}
}

func viewSeries(doc *stats.Document) []metricSeries {
	return []metricSeries{
		{name: "Views", color: colorViews, values: countValues(doc, stats.MetricViews)},
		{name: "Unique views", color: colorViewUni, values: uniqueValues(doc, stats.MetricViews)},
	}
}

func countValues(doc *stats.Document, metric stats.Metric) []*int {
	values := make([]*int, len(doc.DailyHistory))
	for i, rec := range doc.DailyHistory {
		if v, ok := rec.Counts[metric]; ok {
			values[i] = &v
		}
	}

	return values
}

func uniqueValues(doc *stats.Document, metric stats.Metric) []*int {
	values := make([]*int, len(doc.DailyHistory))
	for i, rec := range doc.DailyHistory {
		if v, ok := rec.Uniques[metric]; ok {
			values[i] = &v
		}
	}

	return values
}

func organicValues(doc *stats.Document) []*int {
	values := make([]*int, len(doc.DailyHistory))
	for i, rec := range doc.DailyHistory {
		values[i] = rec.Organic
	}

	return values
}

// trafficChart builds one line chart. Each metric contributes a solid
// series over the confirmed dates and, when provisional dates exist, a
// dashed series that starts at the last confirmed point so the two
// join seamlessly.
func trafficChart(title, yLabel string, labels []string, series []metricSeries, firstProvisional int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Dashed segment marks days the source can still revise upward",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yLabel}),
	)
	line.SetXAxis(labels)

	for _, s := range series {
		confirmed, provisional := splitProvisional(s.values, firstProvisional)

		line.AddSeries(s.name, confirmed,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.color}),
		)

		if provisional != nil {
			line.AddSeries(s.name+" (provisional)", provisional,
				charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: s.color, Type: "dashed"}),
			)
		}
	}

	return line
}

// splitProvisional splits a value series at the provisional boundary.
// The provisional half repeats the final confirmed value so the dashed
// line visually continues the solid one; nil when nothing is
// provisional.
func splitProvisional(values []*int, firstProvisional int) ([]opts.LineData, []opts.LineData) {
	confirmed := make([]opts.LineData, len(values))
	for i := range values {
		confirmed[i] = lineValue(values[i])
		if i >= firstProvisional {
			confirmed[i] = opts.LineData{Value: gap}
		}
	}

	if firstProvisional >= len(values) {
		return confirmed, nil
	}

	provisional := make([]opts.LineData, len(values))
	for i := range values {
		if i >= firstProvisional || i == firstProvisional-1 {
			provisional[i] = lineValue(values[i])
		} else {
			provisional[i] = opts.LineData{Value: gap}
		}
	}

	return confirmed, provisional
}

func lineValue(v *int) opts.LineData {
	if v == nil {
		return opts.LineData{Value: gap}
	}

	return opts.LineData{Value: *v}
}
