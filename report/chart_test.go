package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pb33f/harsize/motor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestWriteSizeChart(t *testing.T) {
	_, summary := testRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSizeChart(&buf, summary))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestWriteSizeChart_NoRows(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteSizeChart(&buf, nil), ErrNoChartRows)
	assert.ErrorIs(t, WriteSizeChart(&buf, &motor.SummaryReport{}), ErrNoChartRows)
	assert.Zero(t, buf.Len())
}

func TestWriteSizeChartFile(t *testing.T) {
	_, summary := testRun(t)
	path := filepath.Join(t.TempDir(), "sizes.png")

	require.NoError(t, WriteSizeChartFile(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestChartLabel(t *testing.T) {
	assert.Equal(t, "example.com", chartLabel("https://example.com/"))
	assert.Equal(t, "/about/", chartLabel("https://example.com/about/"))
	label := chartLabel("https://example.com/a/very/long/path/to/some/page/")
	assert.Equal(t, chartLabelLength, len([]rune(label)))
}
