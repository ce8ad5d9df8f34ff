package motor

import (
	"testing"
	"time"

	"github.com/pb33f/harhar"
	"github.com/pb33f/harsize/hargen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHAR_Nil(t *testing.T) {
	doc := FromHAR(nil)
	assert.Empty(t, doc.Entries)
	assert.Empty(t, doc.Pages)
}

func TestFromHAR_Generated(t *testing.T) {
	har, err := hargen.GenerateInMemory(hargen.GenerateOptions{
		EntryCount: 30,
		Seed:       21,
		StartTime:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	doc := FromHAR(har)
	require.Len(t, doc.Entries, 30)
	require.Len(t, doc.Pages, 1)
	require.NotNil(t, doc.Pages[0].PageTimings.OnLoad)

	result := AnalyzePage(doc, har.Log.Entries[0].Request.URL, "example.com", AnalyzeOptions{
		DOM: NewHARContentLoadTimer(doc, doc.PageID()),
	})
	assert.Equal(t, 30, result.NumEntries)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, har.Log.Pages[0].PageTimings.OnLoad, result.LoadTime)
	assert.True(t, result.HasDOMContentLoaded())

	// independent sum over the captured sizes
	want := 0.0
	for _, entry := range har.Log.Entries {
		want += BytesToKB(int64(entry.Response.BodySize)) + BytesToKB(int64(entry.Response.HeadersSize))
	}
	assert.InDelta(t, want, result.TotalSize, 1e-9)
}

func TestFromHAR_ZeroTimingsUnavailable(t *testing.T) {
	har := &harhar.HAR{Log: harhar.Log{
		Pages: []harhar.Page{{ID: "page_1"}},
	}}
	doc := FromHAR(har)
	assert.Nil(t, doc.Pages[0].PageTimings.OnLoad)
	assert.Nil(t, doc.Pages[0].PageTimings.OnContentLoad)
}
