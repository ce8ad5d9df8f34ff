package motor

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/influxdata/tdigest"
)

// ErrNoPages is returned when there is nothing to summarize.
var ErrNoPages = errors.New("no page results to summarize")

// SummaryRow is one page line of the run summary.
type SummaryRow struct {
	URL              string
	NumEntries       int
	PageSize         float64 // KB of the text/html group
	PageTime         float64 // ms of the text/html group
	TotalSize        float64 // KB
	LoadTime         float64 // ms, or Unavailable
	FinishTime       float64 // ms
	DOMContentLoaded float64 // ms, or Unavailable
}

// SummaryTotals aggregates the rows. Each average divides by the number of
// pages that produced the metric.
type SummaryTotals struct {
	Pages           int
	PrimarySamples  int
	LoadTimeSamples int
	DOMSamples      int

	PageSizeSum             float64
	PageSizeAverage         float64
	PageTimeAverage         float64
	TotalSizeSum            float64
	LoadTimeAverage         float64
	DOMContentLoadedAverage float64
	LoadTimeP50             float64
	LoadTimeP95             float64
}

// SummaryReport is the result of one run.
type SummaryReport struct {
	RunID     string
	Rows      []SummaryRow
	Totals    SummaryTotals
	Anomalies []string // pages without a text/html response
}

// SummaryOptions tune Summarize.
type SummaryOptions struct {
	// RunID identifies the run, a random uuid when empty.
	RunID  string
	Logger *slog.Logger
}

// percentile digests keep ~100 centroids
const digestCompression = 100

// Summarize reduces page results to per-page rows and a totals row. Rows follow
// the order of results; sort beforehand (SortByURL) for deterministic output.
func Summarize(results []*PageResult, opts SummaryOptions) (*SummaryReport, error) {
	if len(results) == 0 {
		return nil, ErrNoPages
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	report := &SummaryReport{
		RunID:     runID,
		Rows:      make([]SummaryRow, 0, len(results)),
		Anomalies: make([]string, 0),
	}

	digest := tdigest.NewWithCompression(digestCompression)
	totals := &report.Totals
	var pageTimeSum, loadTimeSum, domSum float64

	for _, result := range results {
		size, elapsed, ok := result.PrimaryContent()
		if ok {
			totals.PrimarySamples++
			pageTimeSum += elapsed
		} else {
			report.Anomalies = append(report.Anomalies, result.URL)
			logger.Warn("page has no text/html response, primary content set to 0", "url", result.URL)
		}

		if result.HasLoadTime() {
			totals.LoadTimeSamples++
			loadTimeSum += result.LoadTime
			digest.Add(result.LoadTime, 1)
		}
		if result.HasDOMContentLoaded() {
			totals.DOMSamples++
			domSum += result.DOMContentLoaded
		}

		totals.PageSizeSum += size
		totals.TotalSizeSum += result.TotalSize

		report.Rows = append(report.Rows, SummaryRow{
			URL:              result.URL,
			NumEntries:       result.NumEntries,
			PageSize:         size,
			PageTime:         elapsed,
			TotalSize:        result.TotalSize,
			LoadTime:         result.LoadTime,
			FinishTime:       result.FinishTime,
			DOMContentLoaded: result.DOMContentLoaded,
		})
	}

	totals.Pages = len(results)
	totals.PageSizeAverage = totals.PageSizeSum / float64(totals.Pages)
	totals.PageTimeAverage = average(pageTimeSum, totals.PrimarySamples)
	totals.LoadTimeAverage = average(loadTimeSum, totals.LoadTimeSamples)
	totals.DOMContentLoadedAverage = average(domSum, totals.DOMSamples)
	if totals.LoadTimeSamples > 0 {
		totals.LoadTimeP50 = digest.Quantile(0.5)
		totals.LoadTimeP95 = digest.Quantile(0.95)
	}

	return report, nil
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// SortByURL orders results by page URL in place.
func SortByURL(results []*PageResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].URL < results[j].URL
	})
}
