package report

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pb33f/harsize/motor"
)

const (
	chartHeight      = 480
	chartBarWidth    = 40
	chartBarSpacing  = 16
	chartMinWidth    = 640
	chartLabelLength = 18
)

var (
	barTotalColor = drawing.ColorFromHex("ff00ff")
	barPageColor  = drawing.ColorFromHex("00d7ff")
)

// ErrNoChartRows is returned when a summary has no pages to plot.
var ErrNoChartRows = errors.New("no pages to chart")

// WriteSizeChart renders a PNG bar chart of the total size per page. Pages whose
// text/html group is missing are still plotted by total size.
func WriteSizeChart(w io.Writer, summary *motor.SummaryReport) error {
	if summary == nil || len(summary.Rows) == 0 {
		return ErrNoChartRows
	}

	bars := make([]chart.Value, 0, len(summary.Rows))
	maxY := 0.0
	for _, row := range summary.Rows {
		color := barTotalColor
		if row.PageSize == 0 {
			color = barPageColor
		}
		bars = append(bars, chart.Value{
			Label: chartLabel(row.URL),
			Value: row.TotalSize,
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		})
		maxY = max(maxY, row.TotalSize)
	}
	if maxY <= 0 {
		maxY = 1
	}

	width := max(chartMinWidth, len(bars)*(chartBarWidth+chartBarSpacing)+120)
	bc := chart.BarChart{
		Title:      fmt.Sprintf("Total size per page (KB), run %s", summary.RunID),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		YAxis: chart.YAxis{
			Name:  "KB",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Bars: bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// WriteSizeChartFile renders the size chart to path.
func WriteSizeChartFile(path string, summary *motor.SummaryReport) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteSizeChart(file, summary); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// bars are labelled with the url path, truncated to keep the axis readable
func chartLabel(rawURL string) string {
	label := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		label = u.Path
		if label == "" || label == "/" {
			label = u.Host
		}
	}
	if len(label) > chartLabelLength {
		label = "…" + label[len(label)-chartLabelLength+1:]
	}
	return label
}
