package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/pb33f/harsize/motor"
)

var (
	colorPink = lipgloss.Color("201")
	colorBlue = lipgloss.Color("45")
	colorGrey = lipgloss.Color("246")

	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorPink).Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableNumberStyle = tableCellStyle.Align(lipgloss.Right)
	tableTotalStyle  = tableNumberStyle.Foreground(colorBlue).Bold(true)
	tableFooterStyle = lipgloss.NewStyle().Foreground(colorGrey)
)

var tableHeaders = []string{
	"Page", "Entries", "Page KB", "Page ms", "Total KB", "Load ms", "Finish ms", "DOM ms",
}

// RenderTable prints the summary as a terminal table, followed by the run id and
// load time percentiles.
func RenderTable(w io.Writer, summary *motor.SummaryReport) error {
	if summary == nil {
		return motor.ErrNoPages
	}

	rows := make([][]string, 0, len(summary.Rows)+2)
	for _, row := range summary.Rows {
		rows = append(rows, []string{
			row.URL,
			strconv.Itoa(row.NumEntries),
			FormatNumber(row.PageSize),
			FormatNumber(row.PageTime),
			FormatNumber(row.TotalSize),
			dash(FormatMetric(row.LoadTime)),
			FormatNumber(row.FinishTime),
			dash(FormatMetric(row.DOMContentLoaded)),
		})
	}

	totals := summary.Totals
	aggregateFrom := len(rows)
	rows = append(rows,
		[]string{
			TotalLabel,
			strconv.Itoa(totals.Pages),
			FormatNumber(totals.PageSizeSum),
			"",
			FormatNumber(totals.TotalSizeSum),
			"", "", "",
		},
		[]string{
			AverageLabel,
			"",
			FormatNumber(totals.PageSizeAverage),
			dash(sampled(totals.PageTimeAverage, totals.PrimarySamples)),
			FormatNumber(totals.TotalSizeSum / float64(max(totals.Pages, 1))),
			dash(sampled(totals.LoadTimeAverage, totals.LoadTimeSamples)),
			"",
			dash(sampled(totals.DOMContentLoadedAverage, totals.DOMSamples)),
		},
	)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorPink)).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row >= aggregateFrom:
				if col == 0 {
					return tableTotalStyle.Align(lipgloss.Left)
				}
				return tableTotalStyle
			case col == 0:
				return tableCellStyle
			default:
				return tableNumberStyle
			}
		})

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	footer := fmt.Sprintf("run %s | %d pages", summary.RunID, totals.Pages)
	if totals.LoadTimeSamples > 0 {
		footer += fmt.Sprintf(" | load p50 %s ms | load p95 %s ms",
			FormatNumber(totals.LoadTimeP50), FormatNumber(totals.LoadTimeP95))
	}
	if len(summary.Anomalies) > 0 {
		footer += fmt.Sprintf(" | %d pages without text/html", len(summary.Anomalies))
	}
	if _, err := fmt.Fprintln(w, tableFooterStyle.Render(footer)); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func dash(cell string) string {
	if cell == "" {
		return "-"
	}
	return cell
}
