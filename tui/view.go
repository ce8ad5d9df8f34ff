package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/harsize/report"
)

func (m *ReportViewModel) render() string {
	var builder strings.Builder

	builder.WriteString(m.renderTitle())
	builder.WriteString("\n")

	switch m.viewMode {
	case ViewModeResources:
		builder.WriteString(m.renderResources())
	default:
		builder.WriteString(m.table.View())
	}

	builder.WriteString("\n")
	builder.WriteString(m.renderStatusBar())

	return builder.String()
}

func (m *ReportViewModel) renderTitle() string {
	titleStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		Padding(0, 1).
		Width(m.width).BorderForeground(RGBBlue).BorderTop(false).BorderLeft(false).BorderRight(false).BorderBottom(true)

	title := fmt.Sprintf("harsize: %s | ", m.title)
	switch m.viewMode {
	case ViewModeMimetypes:
		title = fmt.Sprintf("harsize: %s | ", m.selectedPage.URL)
	case ViewModeResources:
		title = fmt.Sprintf("harsize: %s | %s | ", m.selectedPage.URL, m.selectedGroup.MimeType)
	}
	titleText := lipgloss.NewStyle().Bold(true).Render(title)

	return titleStyle.Render(titleText + StyleFaint.Render(m.describe()))
}

func (m *ReportViewModel) describe() string {
	switch m.viewMode {
	case ViewModeMimetypes:
		return fmt.Sprintf("(%d entries, %s)", m.selectedPage.NumEntries, formatSize(m.selectedPage.TotalSize))
	case ViewModeResources:
		return fmt.Sprintf("(%d entries, %s)", m.selectedGroup.Count(), formatSize(m.selectedGroup.TotalSize))
	}

	info := fmt.Sprintf("(%d pages", len(m.results))
	if m.summary != nil {
		info += fmt.Sprintf(", %s total, run %s", formatSize(m.summary.Totals.TotalSizeSum), m.summary.RunID)
	}
	if m.loadTime > 0 {
		info += fmt.Sprintf(", loaded in %v", m.loadTime.Round(time.Millisecond))
	}
	return info + ")"
}

func (m *ReportViewModel) renderResources() string {
	return BorderStyle.Render(m.resourceViewport.View())
}

func (m *ReportViewModel) renderStatusBar() string {
	var parts []string

	switch m.viewMode {
	case ViewModePages:
		parts = append(parts, "↑/↓: Navigate", "Enter: Mimetypes")
	case ViewModeMimetypes:
		parts = append(parts, "↑/↓: Navigate", "Enter: Resources", "Esc: Pages")
	case ViewModeResources:
		parts = append(parts, "↑/↓: Scroll", "Esc: Mimetypes")
	}
	parts = append(parts, "q: Quit")

	if m.viewMode == ViewModePages && m.summary != nil {
		totals := m.summary.Totals
		parts = append(parts, fmt.Sprintf("avg page %s KB", report.FormatNumber(totals.PageSizeAverage)))
		if totals.LoadTimeSamples > 0 {
			parts = append(parts, fmt.Sprintf("avg load %s", formatDuration(totals.LoadTimeAverage)))
		}
	}

	return HelpStyle.Render(strings.Join(parts, " | "))
}
