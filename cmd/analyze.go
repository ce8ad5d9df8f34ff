package cmd

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pb33f/harsize/motor"
	"github.com/pb33f/harsize/motor/model"
	"github.com/pb33f/harsize/report"
	"github.com/pb33f/harsize/sitemap"
)

var (
	analyzeDomain string
	analyzeOutput string
	analyzePrint  bool
	analyzeChart  string
	analyzeNoCSV  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <har-file...>",
	Short: "Report the size of pages recorded in HAR files",
	Long: `Analyze saved HAR files without a browser. Each file is treated as one
page: its load time comes from the HAR page timings and DOMContentLoaded
from the page's onContentLoad timing.`,
	Args: cobra.MinimumNArgs(1),
	Example: `  harsize analyze capture.har
  harsize analyze hars/*.har --domain example.com --print`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeDomain, "domain", "d", "", "Report file prefix, defaults to the first page's host")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", ".", "Directory report files are appended to")
	analyzeCmd.Flags().BoolVarP(&analyzePrint, "print", "p", false, "Print the summary table to stdout")
	analyzeCmd.Flags().StringVar(&analyzeChart, "chart", "", "Write a PNG size chart to this file")
	analyzeCmd.Flags().BoolVar(&analyzeNoCSV, "no-csv", false, "Skip the CSV report files")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	collector, err := analyzeFiles(args, analyzeDomain, logger)
	if err != nil {
		return err
	}

	results := collector.Results()
	motor.SortByURL(results)

	summary, err := motor.Summarize(results, motor.SummaryOptions{Logger: logger})
	if err != nil {
		return fmt.Errorf("no report written: %w", err)
	}

	if !analyzeNoCSV {
		domain := analyzeDomain
		if domain == "" {
			domain = results[0].Domain
		}
		writer := report.NewWriter(analyzeOutput, domain, logger)
		if err := writer.WriteAll(results, summary, collector.Failures()); err != nil {
			return fmt.Errorf("failed to write reports: %w", err)
		}
		logger.Info("reports written", "run", summary.RunID, "pages", summary.Totals.Pages, "summary", writer.Paths().Summary)
	}

	if analyzePrint {
		if err := report.RenderTable(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	}
	if analyzeChart != "" {
		if err := report.WriteSizeChartFile(analyzeChart, summary); err != nil {
			return err
		}
	}
	return nil
}

// analyzeFiles turns each HAR file into a page result. Files that cannot be read
// are recorded as failures.
func analyzeFiles(paths []string, domain string, logger *slog.Logger) (*motor.Collector, error) {
	collector := motor.NewCollector()

	for _, path := range paths {
		if err := ValidateHARFile(path); err != nil {
			return nil, err
		}

		doc, err := motor.LoadHARFile(path)
		if err != nil {
			logger.Warn("skipping unreadable HAR file", "path", path, "error", err)
			collector.Fail(motor.PageFailure{URL: path, Err: err, Attempts: 1})
			continue
		}

		pageURL := documentURL(doc, path)
		pageDomain := domain
		if pageDomain == "" {
			pageDomain = sitemap.Domain(pageURL)
		}

		result := motor.AnalyzePage(doc, pageURL, pageDomain, motor.AnalyzeOptions{
			DOM:    motor.NewHARContentLoadTimer(doc, doc.PageID()),
			Logger: logger,
		})
		logger.Debug("analyzed HAR file",
			"path", path,
			"url", pageURL,
			"entries", result.NumEntries,
			"skipped", result.Skipped,
			"hash", doc.Hash)
		collector.Add(result)
	}

	return collector, nil
}

// documentURL picks the page URL of a saved HAR: the page title when it is a URL,
// as browsers record it, then the first request, then the file name.
func documentURL(doc *model.Document, path string) string {
	if len(doc.Pages) > 0 {
		if u, err := url.Parse(doc.Pages[0].Title); err == nil && u.Host != "" {
			return doc.Pages[0].Title
		}
	}
	for i := range doc.Entries {
		if u, ok := doc.Entries[i].URL(); ok && u != "" {
			return u
		}
	}
	return filepath.Base(path)
}
