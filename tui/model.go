package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/pb33f/harsize/motor"
)

// ViewMode represents the different view states
type ViewMode int

const (
	ViewModePages ViewMode = iota
	ViewModeMimetypes
	ViewModeResources
)

// LoadFunc produces the page results and run summary shown by the viewer.
type LoadFunc func() ([]*motor.PageResult, *motor.SummaryReport, error)

// ReportViewModel browses a size report: pages, then the mimetype breakdown of
// the selected page, then the resources of the selected mimetype.
type ReportViewModel struct {
	table   table.Model
	results []*motor.PageResult
	summary *motor.SummaryReport
	rows    []table.Row
	columns []table.Column

	selectedPage     *motor.PageResult
	selectedGroup    *motor.MimetypeGroup
	pageCursor       int
	resourceViewport viewport.Model

	viewMode ViewMode
	width    int
	height   int
	ready    bool
	quitting bool

	title          string
	load           LoadFunc
	loadState      LoadState
	loadingSpinner spinner.Model
	loadMessage    string
	loadTime       time.Duration

	err error
}

// NewReportViewModel creates a viewer titled title that runs load on Init.
func NewReportViewModel(title string, load LoadFunc) *ReportViewModel {
	return &ReportViewModel{
		title:          title,
		load:           load,
		viewMode:       ViewModePages,
		columns:        pageColumns(maxURLColumnWidth),
		loadState:      LoadStateLoading,
		loadingSpinner: createLoadingSpinner(),
		loadMessage:    "Analyzing pages...",
	}
}

func (m *ReportViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.loadingSpinner.Tick,
		m.startLoading(),
	)
}

func (m *ReportViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if m.loadState == LoadStateLoading {
		m.loadingSpinner, cmd = m.loadingSpinner.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case reportLoadedMsg:
		m.loadState = LoadStateLoaded
		m.results = msg.results
		m.summary = msg.summary
		m.loadTime = msg.duration

		if m.width > 0 && m.height > 0 {
			m.initializeTable()
			m.ready = true
		}
		return m, nil

	case reportErrorMsg:
		m.loadState = LoadStateError
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if m.loadState == LoadStateLoaded && !m.ready {
			m.initializeTable()
			m.ready = true
		} else if m.ready {
			m.updateTableDimensions()
			m.updateViewportDimensions()
		}

	case tea.KeyPressMsg:
		if handled, quit := m.handleKey(msg.String()); handled {
			if quit {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	if m.loadState == LoadStateLoaded && m.ready {
		if m.viewMode == ViewModeResources {
			m.resourceViewport, cmd = m.resourceViewport.Update(msg)
		} else {
			m.table, cmd = m.table.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey applies navigation keys. handled is false for keys the table or
// viewport should receive.
func (m *ReportViewModel) handleKey(key string) (handled, quit bool) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return true, true

	case "enter", "return":
		if m.loadState == LoadStateLoaded && m.ready {
			m.drillDown()
		}
		return true, false

	case "esc", "backspace":
		if m.loadState == LoadStateLoaded && m.ready {
			m.goBack()
		}
		return true, false
	}
	return false, false
}

func (m *ReportViewModel) drillDown() {
	switch m.viewMode {
	case ViewModePages:
		cursor := m.table.Cursor()
		if cursor < 0 || cursor >= len(m.results) {
			return
		}
		m.pageCursor = cursor
		m.selectedPage = m.results[cursor]
		m.viewMode = ViewModeMimetypes
		m.initializeTable()

	case ViewModeMimetypes:
		groups := m.selectedPage.Groups()
		cursor := m.table.Cursor()
		if cursor < 0 || cursor >= len(groups) {
			return
		}
		m.selectedGroup = &groups[cursor]
		m.viewMode = ViewModeResources
		m.updateViewportDimensions()
		m.resourceViewport.SetContent(formatResources(m.selectedGroup, m.resourceViewport.Width()))
	}
}

func (m *ReportViewModel) goBack() {
	switch m.viewMode {
	case ViewModeResources:
		m.selectedGroup = nil
		m.viewMode = ViewModeMimetypes

	case ViewModeMimetypes:
		m.selectedPage = nil
		m.viewMode = ViewModePages
		m.initializeTable()
		m.table.SetCursor(m.pageCursor)
	}
}

func (m *ReportViewModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.loadState {
	case LoadStateLoading:
		return m.renderLoadingView()
	case LoadStateError:
		return m.renderErrorView()
	case LoadStateLoaded:
		if !m.ready {
			return "Initializing..."
		}
		return m.render()
	default:
		return "Unknown state"
	}
}

func (m *ReportViewModel) initializeTable() {
	if m.viewMode == ViewModeMimetypes && m.selectedPage != nil {
		m.columns = mimetypeColumns()
		m.rows = buildMimetypeRows(m.selectedPage)
	} else {
		m.columns = pageColumns(m.urlColumnWidth())
		m.rows = buildPageRows(m.results, m.urlColumnWidth())
	}

	m.table = table.New(
		table.WithColumns(m.columns),
		table.WithRows(m.rows),
		table.WithFocused(true),
		table.WithHeight(m.height-tableVerticalPadding),
		table.WithWidth(m.width),
	)

	m.table = ApplyTableStyles(m.table)
}

func (m *ReportViewModel) updateTableDimensions() {
	m.table.SetHeight(m.height - tableVerticalPadding)
	m.table.SetWidth(m.width)

	if m.viewMode == ViewModePages {
		m.columns = pageColumns(m.urlColumnWidth())
		m.rows = buildPageRows(m.results, m.urlColumnWidth())
		m.table.SetColumns(m.columns)
		m.table.SetRows(m.rows)
	}
}

func (m *ReportViewModel) updateViewportDimensions() {
	height := m.height - tableVerticalPadding
	width := m.width - 2

	if m.resourceViewport.Width() == 0 {
		m.resourceViewport = viewport.New(viewport.WithWidth(width), viewport.WithHeight(height))
	} else {
		m.resourceViewport.SetWidth(width)
		m.resourceViewport.SetHeight(height)
	}
}

func (m *ReportViewModel) urlColumnWidth() int {
	width := m.width - entriesColumnWidth - 4*sizeColumnWidth - borderPadding
	return min(max(width, minURLColumnWidth), maxURLColumnWidth)
}

// Mode returns the current view mode.
func (m *ReportViewModel) Mode() ViewMode {
	return m.viewMode
}

// SelectedPage is the page whose mimetypes are shown, nil on the pages view.
func (m *ReportViewModel) SelectedPage() *motor.PageResult {
	return m.selectedPage
}
