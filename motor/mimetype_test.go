package motor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedFixture(t *testing.T) []NormalizedEntry {
	t.Helper()
	raws := []struct {
		url, mime     string
		body, headers int64
		elapsed       float64
	}{
		{"https://example.com/", "text/html; charset=utf-8", 14000, 600, 210},
		{"https://example.com/site.css", "text/css", 9000, 400, 40},
		{"https://example.com/app.js", "application/javascript", 120000, 420, 95},
		{"https://example.com/logo.png", "image/png", 3000, 380, 22},
		{"https://example.com/hero.png", "image/png", 81000, 380, 130},
		{"https://example.com/vendor.js", "application/javascript", -1, -1, 3},
		{"https://example.com/api/me", "application/json", 512, 300, 61},
		{"https://example.com/font.woff2", "font/woff2", 23000, 350, 48},
	}

	entries := make([]NormalizedEntry, 0, len(raws))
	for _, r := range raws {
		entry, err := Normalize(rawEntry(r.url, r.mime, r.body, r.headers, r.elapsed, testStart))
		require.NoError(t, err)
		entries = append(entries, entry)
	}
	return entries
}

func TestAggregate_TwoGroups(t *testing.T) {
	entries := []NormalizedEntry{
		{URL: "https://example.com/", MimeType: "text/html", TotalSize: 1, Time: 100},
		{URL: "https://example.com/a.png", MimeType: "image/png", TotalSize: 2, Time: 50},
	}

	agg := Aggregate(entries)
	require.Len(t, agg.Groups, 2)
	assert.Equal(t, []string{"text/html", "image/png"}, agg.Order)

	html := agg.Groups["text/html"]
	assert.Equal(t, 1, html.Count())
	assert.Equal(t, 1.0, html.TotalSize)
	assert.Equal(t, 100.0, html.TotalTime)

	png := agg.Groups["image/png"]
	assert.Equal(t, 2.0, png.TotalSize)
	assert.Equal(t, 3.0, agg.TotalSize)
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	assert.NotNil(t, agg.Groups)
	assert.Empty(t, agg.Groups)
	assert.Empty(t, agg.Order)
	assert.Equal(t, 0.0, agg.TotalSize)
}

func TestAggregate_GroupsPartitionEntries(t *testing.T) {
	entries := normalizedFixture(t)
	agg := Aggregate(entries)

	count := 0
	for _, group := range agg.Groups {
		for _, entry := range group.Entries {
			assert.Equal(t, group.MimeType, entry.MimeType)
		}
		count += group.Count()
	}
	assert.Equal(t, len(entries), count)
	assert.Len(t, agg.Order, len(agg.Groups))
}

func TestAggregate_MatchesIndependentSum(t *testing.T) {
	entries := normalizedFixture(t)
	agg := Aggregate(entries)

	direct := 0.0
	for _, entry := range entries {
		direct += entry.TotalSize
	}
	assert.InDelta(t, direct, agg.TotalSize, 1e-9)
}

func TestAggregate_OrderInsensitive(t *testing.T) {
	entries := normalizedFixture(t)
	want := Aggregate(entries)

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := make([]NormalizedEntry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Aggregate(shuffled)
		require.Len(t, got.Groups, len(want.Groups))
		for mimeType, group := range want.Groups {
			other, ok := got.Groups[mimeType]
			require.True(t, ok, mimeType)
			assert.Equal(t, group.Count(), other.Count(), mimeType)
			assert.InDelta(t, group.TotalSize, other.TotalSize, 1e-9, mimeType)
			assert.InDelta(t, group.TotalTime, other.TotalTime, 1e-9, mimeType)
		}
		assert.InDelta(t, want.TotalSize, got.TotalSize, 1e-9)
	}
}

func TestMimetypeGroup_Averages(t *testing.T) {
	group := newMimetypeGroup("image/png")
	assert.Equal(t, 0.0, group.AverageSize())
	assert.Equal(t, 0.0, group.AverageTime())
	assert.Equal(t, 0.0, group.Percentage(0))

	group.add(NormalizedEntry{MimeType: "image/png", TotalSize: 3, Time: 10})
	group.add(NormalizedEntry{MimeType: "image/png", TotalSize: 5, Time: 30})

	assert.Equal(t, 2, group.Count())
	assert.Equal(t, 4.0, group.AverageSize())
	assert.Equal(t, 20.0, group.AverageTime())
	assert.Equal(t, 25.0, group.Percentage(32))
}

func TestAggregate_InstancesDoNotShareContainers(t *testing.T) {
	a := Aggregate([]NormalizedEntry{{MimeType: "text/css", TotalSize: 1}})
	b := Aggregate(nil)

	a.Groups["text/css"].add(NormalizedEntry{MimeType: "text/css", TotalSize: 1})
	assert.Empty(t, b.Groups)
	assert.Empty(t, b.Order)
}
