package motor

import (
	"testing"
	"time"

	"github.com/pb33f/harsize/motor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func pageDocument(onLoad, onContentLoad *float64, entries ...model.RawEntry) *model.Document {
	doc := model.NewDocument()
	doc.Pages = append(doc.Pages, model.RawPage{
		StartedDateTime: testStart,
		ID:              "page_1",
		PageTimings: model.RawPageTimings{
			OnLoad:        onLoad,
			OnContentLoad: onContentLoad,
		},
	})
	for _, entry := range entries {
		entry.PageRef = "page_1"
		doc.Entries = append(doc.Entries, entry)
	}
	return doc
}

func TestFinishWindow(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []NormalizedEntry{
		{Started: base.Add(250 * time.Millisecond)},
		{Started: base},
		{Started: base.Add(1500 * time.Millisecond)},
	}
	assert.Equal(t, 1500.0, FinishWindow(entries))
}

func TestFinishWindow_SingleEntry(t *testing.T) {
	entries := []NormalizedEntry{{Started: time.Now().Add(-time.Minute)}}
	assert.Equal(t, 0.0, FinishWindow(entries))
}

func TestFinishWindow_DistantPast(t *testing.T) {
	base := time.Date(2009, 7, 14, 8, 30, 0, 0, time.UTC)
	entries := []NormalizedEntry{
		{Started: base.Add(2 * time.Second)},
		{Started: base},
		{Started: base.Add(3250 * time.Millisecond)},
	}
	assert.Equal(t, 3250.0, FinishWindow(entries))
}

func TestFinishWindow_FutureTimestamps(t *testing.T) {
	base := time.Now().Add(48 * time.Hour)
	entries := []NormalizedEntry{
		{Started: base},
		{Started: base.Add(-400 * time.Millisecond)},
	}
	assert.InDelta(t, 400.0, FinishWindow(entries), 1e-6)
}

func TestFinishWindow_EmptySentinel(t *testing.T) {
	assert.Equal(t, 7200000.0, FinishWindow(nil))
	assert.Equal(t, 7200000.0, FinishWindow([]NormalizedEntry{}))
}

func TestHARPageTimer_OnLoad(t *testing.T) {
	doc := pageDocument(floatPtr(1834.5), nil)
	ms, ok := NewHARPageTimer(doc, "page_1").LoadTime()
	require.True(t, ok)
	assert.Equal(t, 1834.5, ms)
}

func TestHARPageTimer_FallsBackToEntrySpan(t *testing.T) {
	doc := pageDocument(nil, nil,
		rawEntry("https://example.com/", "text/html", 1, 1, 200, "2025-03-01T10:00:00.000Z"),
		rawEntry("https://example.com/a.js", "application/javascript", 1, 1, 400, "2025-03-01T10:00:00.300Z"),
		rawEntry("https://example.com/b.css", "text/css", 1, 1, 50, "2025-03-01T10:00:00.100Z"),
	)

	ms, ok := NewHARPageTimer(doc, "page_1").LoadTime()
	require.True(t, ok)
	assert.InDelta(t, 700.0, ms, 1e-6)
}

func TestHARPageTimer_NegativeOnLoadFallsBack(t *testing.T) {
	doc := pageDocument(floatPtr(-1), nil,
		rawEntry("https://example.com/", "text/html", 1, 1, 90, testStart),
	)
	ms, ok := NewHARPageTimer(doc, "page_1").LoadTime()
	require.True(t, ok)
	assert.InDelta(t, 90.0, ms, 1e-6)
}

func TestHARPageTimer_Unavailable(t *testing.T) {
	doc := pageDocument(nil, nil)

	_, ok := NewHARPageTimer(doc, "page_1").LoadTime()
	assert.False(t, ok, "no onLoad and no entries")

	_, ok = NewHARPageTimer(doc, "").LoadTime()
	assert.False(t, ok)

	_, ok = NewHARPageTimer(doc, "page_9").LoadTime()
	assert.False(t, ok)

	var timer *HARPageTimer
	_, ok = timer.LoadTime()
	assert.False(t, ok)
}

func TestHARContentLoadTimer(t *testing.T) {
	doc := pageDocument(nil, floatPtr(640))
	ms, ok := NewHARContentLoadTimer(doc, "page_1").DOMContentLoaded()
	require.True(t, ok)
	assert.Equal(t, 640.0, ms)

	_, ok = NewHARContentLoadTimer(pageDocument(nil, floatPtr(-1)), "page_1").DOMContentLoaded()
	assert.False(t, ok)

	_, ok = NewHARContentLoadTimer(doc, "").DOMContentLoaded()
	assert.False(t, ok)
}

func TestCalculateMetrics(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []NormalizedEntry{
		{MimeType: "text/html", TotalSize: 4, Started: base},
		{MimeType: "image/png", TotalSize: 6, Started: base.Add(800 * time.Millisecond)},
	}
	agg := Aggregate(entries)

	pages := PageTimerFunc(func() (float64, bool) { return 1200, true })
	dom := DOMTimerFunc(func() (float64, bool) { return 450, true })

	metrics := CalculateMetrics(agg, entries, pages, dom)
	assert.Equal(t, 800.0, metrics.FinishTime)
	assert.Equal(t, 1200.0, metrics.LoadTime)
	assert.Equal(t, 450.0, metrics.DOMContentLoaded)
	assert.Equal(t, 10.0, metrics.TotalSize)
}

func TestCalculateMetrics_TimersUnavailable(t *testing.T) {
	entries := []NormalizedEntry{{MimeType: "text/html", TotalSize: 1, Started: time.Now()}}
	agg := Aggregate(entries)

	metrics := CalculateMetrics(agg, entries, nil, nil)
	assert.Equal(t, Unavailable, metrics.LoadTime)
	assert.Equal(t, Unavailable, metrics.DOMContentLoaded)

	failed := DOMTimerFunc(func() (float64, bool) { return 0, false })
	metrics = CalculateMetrics(agg, entries, PageTimerFunc(nil), failed)
	assert.Equal(t, Unavailable, metrics.LoadTime)
	assert.Equal(t, Unavailable, metrics.DOMContentLoaded)
}
