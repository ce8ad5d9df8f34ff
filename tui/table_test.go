package tui

import (
	"strings"
	"testing"

	"github.com/pb33f/harsize/motor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "---", formatSize(motor.Unavailable))
	assert.Equal(t, "0.0 KB", formatSize(0))
	assert.Equal(t, "12.5 KB", formatSize(12.5))
	assert.Equal(t, "2.00 MB", formatSize(2048))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   float64
		want string
	}{
		{0, "---"},
		{0.5, "500μs"},
		{250, "250ms"},
		{1500, "1.5s"},
		{125000, "2m5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.ms))
	}
	assert.Equal(t, "---", formatMetric(motor.Unavailable))
}

func TestFormatURL(t *testing.T) {
	assert.Equal(t, "/", formatURL("", 40))
	assert.Equal(t, "example.com/about/", formatURL("https://example.com/about/", 40))
	assert.Equal(t, "example.com/s?q=1", formatURL("https://example.com/s?q=1", 40))
	assert.Equal(t, "example.com/a/v...", formatURL("https://example.com/a/very/long/path", 18))
}

func TestBuildPageRows(t *testing.T) {
	results, _ := testResults(t)

	rows := buildPageRows(results, 40)
	require.Len(t, rows, 2)
	assert.Equal(t, "example.com/", rows[0][0])
	assert.Equal(t, "3", rows[0][1])
	assert.Equal(t, "54.0 KB", rows[0][2])
	assert.Equal(t, "12.0 KB", rows[0][3])
	assert.Equal(t, "900ms", rows[0][4])
	assert.Equal(t, "---", rows[1][4])
	assert.Equal(t, "---", rows[1][5])
}

func TestBuildMimetypeRows(t *testing.T) {
	page := motor.AssemblePage(motor.PageInput{
		URL: "https://example.com/",
		Aggregation: motor.Aggregate([]motor.NormalizedEntry{
			{URL: "https://example.com/", MimeType: motor.PrimaryMimeType, TotalSize: 30, Time: 100},
			{URL: "https://example.com/blob", MimeType: "", TotalSize: 10, Time: 50},
		}),
		Metrics: motor.PageMetrics{LoadTime: motor.Unavailable, DOMContentLoaded: motor.Unavailable},
	})

	rows := buildMimetypeRows(page)
	require.Len(t, rows, 2)
	assert.Equal(t, "text/html", rows[0][0])
	assert.Equal(t, "75.0%", rows[0][4])
	assert.Equal(t, "(none)", rows[1][0])
	assert.Equal(t, "25.0%", rows[1][4])
}

func TestFormatResources_LargestFirst(t *testing.T) {
	results, _ := testResults(t)
	group, ok := results[0].Group("application/javascript")
	require.True(t, ok)

	out := formatResources(&group, 80)
	big := strings.Index(out, "big.js")
	small := strings.Index(out, "small.js")
	require.NotEqual(t, -1, big)
	require.NotEqual(t, -1, small)
	assert.Less(t, big, small)

	assert.Contains(t, formatResources(nil, 80), "No resources")
}
