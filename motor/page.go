package motor

import (
	"log/slog"

	"github.com/pb33f/harsize/motor/model"
)

// PageResult is the immutable outcome of analysing one page.
type PageResult struct {
	URL              string
	Domain           string // context used to name report files
	NumEntries       int
	Skipped          int // malformed entries left out of the aggregation
	TotalSize        float64
	FinishTime       float64
	LoadTime         float64
	DOMContentLoaded float64
	Empty            bool

	groups map[string]*MimetypeGroup
	order  []string
}

// PageInput collects everything AssemblePage needs.
type PageInput struct {
	URL         string
	Domain      string
	Aggregation *Aggregation
	Metrics     PageMetrics
	Skipped     int
}

// AssemblePage builds a PageResult. The page size always equals the sum over its own groups.
func AssemblePage(in PageInput) *PageResult {
	agg := in.Aggregation
	if agg == nil {
		agg = Aggregate(nil)
	}

	result := &PageResult{
		URL:              in.URL,
		Domain:           in.Domain,
		Skipped:          in.Skipped,
		LoadTime:         in.Metrics.LoadTime,
		DOMContentLoaded: in.Metrics.DOMContentLoaded,
		FinishTime:       in.Metrics.FinishTime,
		groups:           make(map[string]*MimetypeGroup, len(agg.Groups)),
		order:            make([]string, 0, len(agg.Order)),
	}

	for _, mimeType := range agg.Order {
		group := agg.Groups[mimeType].clone()
		result.groups[mimeType] = group
		result.order = append(result.order, mimeType)
		result.NumEntries += group.Count()
		result.TotalSize += group.TotalSize
	}

	if result.NumEntries == 0 {
		result.Empty = true
		result.FinishTime = 0
	}

	return result
}

// Group returns a copy of the group for a mimetype.
func (p *PageResult) Group(mimeType string) (MimetypeGroup, bool) {
	group, ok := p.groups[mimeType]
	if !ok {
		return MimetypeGroup{}, false
	}
	return *group.clone(), true
}

// Groups returns copies of all groups in first-seen order.
func (p *PageResult) Groups() []MimetypeGroup {
	groups := make([]MimetypeGroup, 0, len(p.order))
	for _, mimeType := range p.order {
		groups = append(groups, *p.groups[mimeType].clone())
	}
	return groups
}

// MimeTypes lists the page's mimetypes in first-seen order.
func (p *PageResult) MimeTypes() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// PrimaryContent returns size (KB) and time (ms) of the text/html group.
// ok is false when the page has none, in which case both values are 0.
func (p *PageResult) PrimaryContent() (size, elapsed float64, ok bool) {
	group, found := p.groups[PrimaryMimeType]
	if !found {
		return 0, 0, false
	}
	return group.TotalSize, group.TotalTime, true
}

// HasLoadTime reports whether the load time was resolved.
func (p *PageResult) HasLoadTime() bool {
	return p.LoadTime != Unavailable
}

// HasDOMContentLoaded reports whether the DOMContentLoaded time was resolved.
func (p *PageResult) HasDOMContentLoaded() bool {
	return p.DOMContentLoaded != Unavailable
}

// AnalyzeOptions tune AnalyzePage.
type AnalyzeOptions struct {
	// DOM supplies DOMContentLoaded; nil means unavailable.
	DOM DOMTimer

	Logger *slog.Logger
}

// AnalyzePage runs one HAR document through normalization, aggregation, metrics and assembly.
func AnalyzePage(doc *model.Document, url, domain string, opts AnalyzeOptions) *PageResult {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if doc == nil {
		doc = model.NewDocument()
	}

	entries, skipped := NormalizeAll(doc.Entries, logger)
	skipped += doc.Skipped
	if skipped > 0 {
		logger.Warn("skipped malformed HAR entries", "url", url, "skipped", skipped)
	}

	agg := Aggregate(entries)

	var pages PageTimer
	if id := doc.PageID(); id != "" {
		pages = NewHARPageTimer(doc, id)
	} else {
		logger.Debug("HAR document has no page id, load time unavailable", "url", url)
	}

	metrics := CalculateMetrics(agg, entries, pages, opts.DOM)

	return AssemblePage(PageInput{
		URL:         url,
		Domain:      domain,
		Aggregation: agg,
		Metrics:     metrics,
		Skipped:     skipped,
	})
}
