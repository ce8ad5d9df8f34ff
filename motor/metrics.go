package motor

import (
	"time"

	"github.com/pb33f/harsize/motor/model"
)

// Unavailable marks a timing metric that could not be obtained.
const Unavailable = -1.0

// emptyFinishWindow is the window reported for a page without entries.
const emptyFinishWindow = 2 * time.Hour

// PageMetrics are the page level scalars derived for one page.
type PageMetrics struct {
	FinishTime       float64 // ms between the earliest and latest entry start
	LoadTime         float64 // ms, or Unavailable
	DOMContentLoaded float64 // ms, or Unavailable
	TotalSize        float64 // KB
}

// FinishWindow returns the span between the earliest and latest entry start in ms.
// Both bounds are seeded from the first entry. A page without entries yields
// exactly two hours; callers must treat empty pages separately.
func FinishWindow(entries []NormalizedEntry) float64 {
	if len(entries) == 0 {
		return float64(emptyFinishWindow) / float64(time.Millisecond)
	}

	lower := entries[0].Started
	higher := entries[0].Started
	for _, entry := range entries[1:] {
		if entry.Started.Before(lower) {
			lower = entry.Started
		}
		if entry.Started.After(higher) {
			higher = entry.Started
		}
	}

	return float64(higher.Sub(lower)) / float64(time.Millisecond)
}

// HARPageTimer resolves load time from a page's pageTimings, falling back to
// the span of the page's entries when onLoad was not recorded.
type HARPageTimer struct {
	doc    *model.Document
	pageID string
}

// NewHARPageTimer creates a PageTimer for the page with the given id.
func NewHARPageTimer(doc *model.Document, pageID string) *HARPageTimer {
	return &HARPageTimer{doc: doc, pageID: pageID}
}

func (t *HARPageTimer) LoadTime() (float64, bool) {
	if t == nil || t.doc == nil || t.pageID == "" {
		return 0, false
	}
	page, ok := t.doc.Page(t.pageID)
	if !ok {
		return 0, false
	}
	if onLoad := page.PageTimings.OnLoad; onLoad != nil && *onLoad >= 0 {
		return *onLoad, true
	}
	return t.entrySpan()
}

// entrySpan is max(start+time) - min(start) over the entries referencing the page.
func (t *HARPageTimer) entrySpan() (float64, bool) {
	var first, last time.Time
	found := false
	for i := range t.doc.Entries {
		raw := &t.doc.Entries[i]
		if raw.PageRef != "" && raw.PageRef != t.pageID {
			continue
		}
		entry, err := Normalize(*raw)
		if err != nil {
			continue
		}
		end := entry.Started.Add(time.Duration(entry.Time * float64(time.Millisecond)))
		if !found || entry.Started.Before(first) {
			first = entry.Started
		}
		if !found || end.After(last) {
			last = end
		}
		found = true
	}
	if !found {
		return 0, false
	}
	return float64(last.Sub(first)) / float64(time.Millisecond), true
}

// HARContentLoadTimer reads onContentLoad from a saved HAR page. It stands in for a
// live page when analysing HAR files offline.
type HARContentLoadTimer struct {
	doc    *model.Document
	pageID string
}

// NewHARContentLoadTimer creates a DOMTimer backed by the HAR page timings.
func NewHARContentLoadTimer(doc *model.Document, pageID string) *HARContentLoadTimer {
	return &HARContentLoadTimer{doc: doc, pageID: pageID}
}

func (t *HARContentLoadTimer) DOMContentLoaded() (float64, bool) {
	if t == nil || t.doc == nil || t.pageID == "" {
		return 0, false
	}
	page, ok := t.doc.Page(t.pageID)
	if !ok {
		return 0, false
	}
	if v := page.PageTimings.OnContentLoad; v != nil && *v >= 0 {
		return *v, true
	}
	return 0, false
}

// CalculateMetrics derives the page level scalars. A nil timer counts as unavailable.
func CalculateMetrics(agg *Aggregation, entries []NormalizedEntry, pages PageTimer, dom DOMTimer) PageMetrics {
	metrics := PageMetrics{
		FinishTime:       FinishWindow(entries),
		LoadTime:         Unavailable,
		DOMContentLoaded: Unavailable,
	}

	if agg != nil {
		metrics.TotalSize = agg.TotalSize
	}
	if pages != nil {
		if ms, ok := pages.LoadTime(); ok {
			metrics.LoadTime = ms
		}
	}
	if dom != nil {
		if ms, ok := dom.DOMContentLoaded(); ok {
			metrics.DOMContentLoaded = ms
		}
	}

	return metrics
}
