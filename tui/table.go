package tui

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/harsize/motor"
)

func pageColumns(urlWidth int) []table.Column {
	return []table.Column{
		{Title: "Page", Width: urlWidth},
		{Title: "Entries", Width: entriesColumnWidth},
		{Title: "Total", Width: sizeColumnWidth},
		{Title: "HTML", Width: sizeColumnWidth},
		{Title: "Load", Width: timeColumnWidth},
		{Title: "DOM", Width: timeColumnWidth},
	}
}

func mimetypeColumns() []table.Column {
	return []table.Column{
		{Title: "Mimetype", Width: mimeTypeColumnWidth},
		{Title: "Entries", Width: entriesColumnWidth},
		{Title: "Total", Width: sizeColumnWidth},
		{Title: "Average", Width: sizeColumnWidth},
		{Title: "Share", Width: percentColumnWidth},
		{Title: "Time", Width: timeColumnWidth},
	}
}

func buildPageRows(results []*motor.PageResult, urlWidth int) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, result := range results {
		htmlSize, _, _ := result.PrimaryContent()
		rows = append(rows, table.Row{
			formatURL(result.URL, urlWidth),
			strconv.Itoa(result.NumEntries),
			formatSize(result.TotalSize),
			formatSize(htmlSize),
			formatMetric(result.LoadTime),
			formatMetric(result.DOMContentLoaded),
		})
	}
	return rows
}

func buildMimetypeRows(page *motor.PageResult) []table.Row {
	groups := page.Groups()
	rows := make([]table.Row, 0, len(groups))
	for _, group := range groups {
		mimeType := group.MimeType
		if mimeType == "" {
			mimeType = "(none)"
		}
		rows = append(rows, table.Row{
			truncateString(mimeType, mimeTypeColumnWidth),
			strconv.Itoa(group.Count()),
			formatSize(group.TotalSize),
			formatSize(group.AverageSize()),
			fmt.Sprintf("%.1f%%", group.Percentage(page.TotalSize)),
			formatDuration(group.TotalTime),
		})
	}
	return rows
}

// formatResources lists a group's entries, largest first.
func formatResources(group *motor.MimetypeGroup, width int) string {
	if group == nil || len(group.Entries) == 0 {
		return StyleFaint.Render("No resources")
	}

	entries := make([]motor.NormalizedEntry, len(group.Entries))
	copy(entries, group.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalSize > entries[j].TotalSize
	})

	urlWidth := max(width-sizeColumnWidth-timeColumnWidth-2, minURLColumnWidth)

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-*s %*s %*s",
		urlWidth, "Resource", sizeColumnWidth, "Size", timeColumnWidth, "Time")))
	for _, entry := range entries {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-*s %*s %s",
			urlWidth, truncateString(entry.URL, urlWidth),
			sizeColumnWidth, formatSize(entry.TotalSize),
			timingStyle(entry.Time).Render(fmt.Sprintf("%*s", timeColumnWidth, formatDuration(entry.Time)))))
	}
	return b.String()
}

func formatURL(fullURL string, width int) string {
	if fullURL == "" {
		return "/"
	}

	u, err := url.Parse(fullURL)
	if err != nil || u.Host == "" {
		return truncateString(fullURL, width)
	}

	path := u.Host + u.Path
	if u.RawQuery != "" {
		path = path + "?" + u.RawQuery
	}

	return truncateString(path, width)
}

// formatSize renders KB, switching to MB above 1024 KB.
func formatSize(kb float64) string {
	switch {
	case kb < 0:
		return "---"
	case kb >= 1024:
		return fmt.Sprintf("%.2f MB", kb/1024)
	default:
		return fmt.Sprintf("%.1f KB", kb)
	}
}

func formatMetric(ms float64) string {
	if ms == motor.Unavailable {
		return "---"
	}
	return formatDuration(ms)
}

func formatDuration(durationMs float64) string {
	if durationMs <= 0 {
		return "---"
	}

	d := time.Duration(durationMs * float64(time.Millisecond))

	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dμs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		seconds := float64(d.Milliseconds()) / 1000.0
		return fmt.Sprintf("%.1fs", seconds)
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) - (minutes * 60)
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}

func timingStyle(ms float64) lipgloss.Style {
	switch {
	case ms >= slowThreshold:
		return StyleSlow
	case ms >= moderateThreshold:
		return StyleModerate
	default:
		return StyleFast
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
