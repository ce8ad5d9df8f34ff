package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/harsize/motor"
)

type LoadState int

const (
	LoadStateLoading LoadState = iota
	LoadStateLoaded
	LoadStateError
)

type reportLoadedMsg struct {
	results  []*motor.PageResult
	summary  *motor.SummaryReport
	duration time.Duration
}

type reportErrorMsg struct {
	err error
}

func (m *ReportViewModel) startLoading() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		if load == nil {
			return reportErrorMsg{err: errors.New("nothing to load")}
		}

		start := time.Now()
		results, summary, err := load()
		if err != nil {
			return reportErrorMsg{err: err}
		}

		return reportLoadedMsg{
			results:  results,
			summary:  summary,
			duration: time.Since(start),
		}
	}
}

func (m *ReportViewModel) renderLoadingView() string {
	spinnerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	title := TitleStyle.Render("Loading size report")
	info := SubtitleStyle.Render(fmt.Sprintf("\n%s", m.title))

	spinnerText := fmt.Sprintf("%s %s%s", m.loadingSpinner.View(), title, info)

	if m.loadMessage != "" {
		messageStyle := lipgloss.NewStyle().
			Foreground(RGBBlue).
			MarginTop(2)
		spinnerText += "\n\n" + messageStyle.Render(m.loadMessage)
	}

	return spinnerStyle.Render(spinnerText)
}

func (m *ReportViewModel) renderErrorView() string {
	errorStyle := ErrorStyle.
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	errorMsg := fmt.Sprintf("Error loading report\n\n%v\n\nPress 'q' to quit", m.err)
	return errorStyle.Render(errorMsg)
}

func createLoadingSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(RGBPink)
	return s
}
