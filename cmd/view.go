package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/pb33f/harsize/motor"
	"github.com/pb33f/harsize/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view <har-file...>",
	Short: "Browse the size report of HAR files in the terminal UI",
	Long: `Launch an interactive terminal user interface over the size report of
one or more HAR files. Pages are listed with their weight and timings;
enter opens a page's mimetype breakdown and then the resources of a mimetype.`,
	Args: cobra.MinimumNArgs(1),
	Example: `  harsize view capture.har
  harsize view hars/*.har`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	for _, path := range args {
		if err := ValidateHARFile(path); err != nil {
			return err
		}
	}

	title := args[0]
	if len(args) > 1 {
		title = fmt.Sprintf("%d HAR files", len(args))
	}

	model := tui.NewReportViewModel(title, func() ([]*motor.PageResult, *motor.SummaryReport, error) {
		collector, err := analyzeFiles(args, "", logger)
		if err != nil {
			return nil, nil, err
		}
		results := collector.Results()
		motor.SortByURL(results)

		summary, err := motor.Summarize(results, motor.SummaryOptions{Logger: logger})
		if err != nil {
			failed := make([]string, 0)
			for _, f := range collector.Failures() {
				failed = append(failed, f.URL)
			}
			return nil, nil, fmt.Errorf("%w (unreadable: %s)", err, strings.Join(failed, ", "))
		}
		return results, summary, nil
	})

	logger.Debug("launching terminal UI", "files", len(args))

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
