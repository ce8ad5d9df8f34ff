package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pb33f/harsize/motor"
)

const (
	mimetypeSuffix  = "-mimetype-resources.csv"
	resourcesSuffix = "-resources-list.csv"
	summarySuffix   = "-summary.csv"
	errorsSuffix    = "-errors.txt"

	// TotalLabel and AverageLabel mark the aggregate rows of the summary file.
	TotalLabel   = "TOTAL"
	AverageLabel = "AVERAGE"
)

var (
	mimetypeHeader = []string{
		"page_url", "mime_type", "n_entries", "total_size", "average_size",
		"percentage_size", "total_time", "average_time",
	}
	resourcesHeader = []string{"page_url", "resource_url", "mime_type", "size", "time"}
	summaryHeader   = []string{
		"page_url", "num_entries", "page_size", "page_load_time", "total_size",
		"total_load_time", "finish_time", "dom_load_time",
	}
)

// Paths are the files a Writer appends to.
type Paths struct {
	Mimetypes string
	Resources string
	Summary   string
	Errors    string
}

// Writer appends run results to the domain's report files. Files are created on
// first use; the header row is only written to new files.
type Writer struct {
	paths  Paths
	logger *slog.Logger
}

// NewWriter creates a writer for domain in dir.
func NewWriter(dir, domain string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		paths:  PathsFor(dir, domain),
		logger: logger,
	}
}

// PathsFor returns the report file paths for domain in dir.
func PathsFor(dir, domain string) Paths {
	return Paths{
		Mimetypes: filepath.Join(dir, domain+mimetypeSuffix),
		Resources: filepath.Join(dir, domain+resourcesSuffix),
		Summary:   filepath.Join(dir, domain+summarySuffix),
		Errors:    filepath.Join(dir, domain+errorsSuffix),
	}
}

// Paths returns the files this writer appends to.
func (w *Writer) Paths() Paths {
	return w.paths
}

// WriteAll writes every report file. Failures are only written when there are any.
func (w *Writer) WriteAll(results []*motor.PageResult, summary *motor.SummaryReport, failures []motor.PageFailure) error {
	if err := w.WriteMimetypes(results); err != nil {
		return err
	}
	if err := w.WriteResources(results); err != nil {
		return err
	}
	if summary != nil {
		if err := w.WriteSummary(summary); err != nil {
			return err
		}
	}
	if len(failures) > 0 {
		if err := w.WriteErrors(failures); err != nil {
			return err
		}
	}
	return nil
}

// WriteMimetypes appends one row per page and mimetype.
func (w *Writer) WriteMimetypes(results []*motor.PageResult) error {
	rows := make([][]string, 0, len(results)*4)
	for _, result := range results {
		for _, group := range result.Groups() {
			rows = append(rows, []string{
				result.URL,
				group.MimeType,
				strconv.Itoa(group.Count()),
				FormatNumber(group.TotalSize),
				FormatNumber(group.AverageSize()),
				FormatNumber(group.Percentage(result.TotalSize)),
				FormatNumber(group.TotalTime),
				FormatNumber(group.AverageTime()),
			})
		}
	}
	return w.appendCSV(w.paths.Mimetypes, mimetypeHeader, rows)
}

// WriteResources appends one row per resource of every page.
func (w *Writer) WriteResources(results []*motor.PageResult) error {
	rows := make([][]string, 0, len(results)*16)
	for _, result := range results {
		for _, group := range result.Groups() {
			for _, entry := range group.Entries {
				rows = append(rows, []string{
					result.URL,
					entry.URL,
					entry.MimeType,
					FormatNumber(entry.TotalSize),
					FormatNumber(entry.Time),
				})
			}
		}
	}
	return w.appendCSV(w.paths.Resources, resourcesHeader, rows)
}

// WriteSummary appends one row per page followed by a TOTAL row of size sums and
// an AVERAGE row. Each average only counts the pages that produced the metric.
func (w *Writer) WriteSummary(summary *motor.SummaryReport) error {
	rows := make([][]string, 0, len(summary.Rows)+1)
	for _, row := range summary.Rows {
		rows = append(rows, []string{
			row.URL,
			strconv.Itoa(row.NumEntries),
			FormatNumber(row.PageSize),
			FormatNumber(row.PageTime),
			FormatNumber(row.TotalSize),
			FormatMetric(row.LoadTime),
			FormatNumber(row.FinishTime),
			FormatMetric(row.DOMContentLoaded),
		})
	}

	totals := summary.Totals
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
			sampled(totals.PageTimeAverage, totals.PrimarySamples),
			FormatNumber(totals.TotalSizeSum / float64(max(totals.Pages, 1))),
			sampled(totals.LoadTimeAverage, totals.LoadTimeSamples),
			"",
			sampled(totals.DOMContentLoadedAverage, totals.DOMSamples),
		},
	)

	return w.appendCSV(w.paths.Summary, summaryHeader, rows)
}

// WriteErrors appends one failed URL per line.
func (w *Writer) WriteErrors(failures []motor.PageFailure) error {
	file, err := os.OpenFile(w.paths.Errors, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", w.paths.Errors, err)
	}
	defer file.Close()

	for _, failure := range failures {
		if _, err := fmt.Fprintln(file, failure.URL); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.paths.Errors, err)
		}
	}
	w.logger.Debug("errors written", "path", w.paths.Errors, "urls", len(failures))
	return nil
}

func (w *Writer) appendCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if isNew {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write CSV rows to %s: %w", path, err)
	}

	w.logger.Debug("report written", "path", path, "rows", len(rows), "new_file", isNew)
	return nil
}

// FormatNumber renders a size or time with three decimals.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatMetric renders a timing metric, leaving Unavailable as an empty cell.
func FormatMetric(v float64) string {
	if v == motor.Unavailable {
		return ""
	}
	return FormatNumber(v)
}

func sampled(v float64, samples int) string {
	if samples == 0 {
		return ""
	}
	return FormatNumber(v)
}
