package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/pb33f/harsize/motor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResults(t *testing.T) ([]*motor.PageResult, *motor.SummaryReport) {
	t.Helper()
	page := func(url string, loadTime float64) *motor.PageResult {
		return motor.AssemblePage(motor.PageInput{
			URL: url,
			Aggregation: motor.Aggregate([]motor.NormalizedEntry{
				{URL: url, MimeType: motor.PrimaryMimeType, TotalSize: 12, Time: 80},
				{URL: url + "small.js", MimeType: "application/javascript", TotalSize: 2, Time: 30},
				{URL: url + "big.js", MimeType: "application/javascript", TotalSize: 40, Time: 2500},
			}),
			Metrics: motor.PageMetrics{FinishTime: 300, LoadTime: loadTime, DOMContentLoaded: motor.Unavailable},
		})
	}
	results := []*motor.PageResult{
		page("https://example.com/", 900),
		page("https://example.com/about/", motor.Unavailable),
	}
	summary, err := motor.Summarize(results, motor.SummaryOptions{RunID: "run-1"})
	require.NoError(t, err)
	return results, summary
}

func loadedModel(t *testing.T) *ReportViewModel {
	t.Helper()
	results, summary := testResults(t)
	m := NewReportViewModel("example.com", func() ([]*motor.PageResult, *motor.SummaryReport, error) {
		return results, summary, nil
	})

	msg := m.startLoading()()
	require.IsType(t, reportLoadedMsg{}, msg)

	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m.Update(msg)
	require.Equal(t, LoadStateLoaded, m.loadState)
	require.True(t, m.ready)
	return m
}

func TestReportViewModel_LoadingView(t *testing.T) {
	m := NewReportViewModel("example.com", nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	assert.Equal(t, LoadStateLoading, m.loadState)
	assert.Contains(t, m.View(), "Loading size report")
}

func TestReportViewModel_Loaded(t *testing.T) {
	m := loadedModel(t)

	assert.Equal(t, ViewModePages, m.Mode())
	assert.Len(t, m.rows, 2)

	view := m.View()
	assert.Contains(t, view, "harsize: example.com")
	assert.Contains(t, view, "2 pages")
	assert.Contains(t, view, "run run-1")
}

func TestReportViewModel_DrillDownAndBack(t *testing.T) {
	m := loadedModel(t)

	handled, quit := m.handleKey("enter")
	assert.True(t, handled)
	assert.False(t, quit)
	assert.Equal(t, ViewModeMimetypes, m.Mode())
	require.NotNil(t, m.SelectedPage())
	assert.Equal(t, "https://example.com/", m.SelectedPage().URL)
	assert.Len(t, m.rows, 2)
	assert.Contains(t, m.View(), "Enter: Resources")

	m.handleKey("enter")
	assert.Equal(t, ViewModeResources, m.Mode())
	require.NotNil(t, m.selectedGroup)
	assert.Equal(t, motor.PrimaryMimeType, m.selectedGroup.MimeType)

	m.handleKey("esc")
	assert.Equal(t, ViewModeMimetypes, m.Mode())

	m.handleKey("esc")
	assert.Equal(t, ViewModePages, m.Mode())
	assert.Nil(t, m.SelectedPage())

	// esc on the pages view stays put
	m.handleKey("esc")
	assert.Equal(t, ViewModePages, m.Mode())
}

func TestReportViewModel_Quit(t *testing.T) {
	m := loadedModel(t)

	handled, quit := m.handleKey("q")
	assert.True(t, handled)
	assert.True(t, quit)
	assert.Empty(t, m.View())
}

func TestReportViewModel_LoadError(t *testing.T) {
	m := NewReportViewModel("example.com", func() ([]*motor.PageResult, *motor.SummaryReport, error) {
		return nil, nil, errors.New("no har files")
	})

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m.Update(m.startLoading()())

	assert.Equal(t, LoadStateError, m.loadState)
	assert.Contains(t, m.View(), "no har files")

	// navigation is ignored until a report is loaded
	m.handleKey("enter")
	assert.Equal(t, ViewModePages, m.Mode())
}

func TestReportViewModel_NilLoader(t *testing.T) {
	m := NewReportViewModel("example.com", nil)
	msg := m.startLoading()()

	errMsg, ok := msg.(reportErrorMsg)
	require.True(t, ok)
	assert.Error(t, errMsg.err)
}
