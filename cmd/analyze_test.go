package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pb33f/harsize/hargen"
	"github.com/pb33f/harsize/motor"
	"github.com/pb33f/harsize/motor/model"
	"github.com/pb33f/harsize/report"
	"github.com/pb33f/harsize/sitemap"
)

func generatePage(t *testing.T, dir, pageURL string, entries int) string {
	t.Helper()
	opts := hargen.DefaultGenerateOptions
	opts.EntryCount = entries
	opts.PageURL = pageURL
	opts.Seed = 7

	path := filepath.Join(dir, sitemap.Domain(pageURL)+"-"+filepath.Base(pageURL)+".har")
	_, err := hargen.GenerateToFile(path, opts)
	require.NoError(t, err)
	return path
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	first := generatePage(t, dir, "https://example.com/a", 12)
	second := generatePage(t, dir, "https://example.com/b", 5)

	collector, err := analyzeFiles([]string{first, second}, "", GetLogger())
	require.NoError(t, err)

	results := collector.Results()
	require.Len(t, results, 2)
	assert.Empty(t, collector.Failures())

	assert.Equal(t, "https://example.com/a", results[0].URL)
	assert.Equal(t, "example.com", results[0].Domain)
	assert.Equal(t, 12, results[0].NumEntries)
	assert.True(t, results[0].HasLoadTime())
	assert.True(t, results[0].HasDOMContentLoaded())

	_, _, ok := results[1].PrimaryContent()
	assert.True(t, ok)
}

func TestAnalyzeFiles_UnreadableFileIsAFailure(t *testing.T) {
	dir := t.TempDir()
	good := generatePage(t, dir, "https://example.com/", 3)
	bad := filepath.Join(dir, "broken.har")
	require.NoError(t, os.WriteFile(bad, []byte("{\"log\": {\"entries\": [}"), 0644))

	collector, err := analyzeFiles([]string{good, bad}, "example.com", GetLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, collector.Len())
	failures := collector.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, bad, failures[0].URL)
}

const archivedHAR = `{"log": {"version": "1.2", "creator": {"name": "browsermob", "version": "2.1"},
  "pages": [{"startedDateTime": "2016-05-02T09:15:00.000Z", "id": "page_1", "title": "https://archive.example.org/",
    "pageTimings": {"onContentLoad": 310, "onLoad": 1290}}],
  "entries": [
    {"pageref": "page_1", "startedDateTime": "2016-05-02T09:15:00.000Z", "time": 220,
     "request": {"method": "GET", "url": "https://archive.example.org/"},
     "response": {"status": 200, "headersSize": 512, "bodySize": 4096, "content": {"size": 4096, "mimeType": "text/html"}}},
    {"pageref": "page_1", "startedDateTime": "2016-05-02T09:15:00.875Z", "time": 90,
     "request": {"method": "GET", "url": "https://archive.example.org/site.css"},
     "response": {"status": 200, "headersSize": 512, "bodySize": 1024, "content": {"size": 1024, "mimeType": "text/css"}}}
  ]}}`

func TestAnalyzeFiles_ArchivedCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.har")
	require.NoError(t, os.WriteFile(path, []byte(archivedHAR), 0644))

	collector, err := analyzeFiles([]string{path}, "", GetLogger())
	require.NoError(t, err)

	results := collector.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "https://archive.example.org/", results[0].URL)
	assert.InDelta(t, 875.0, results[0].FinishTime, 1e-6)
	assert.Equal(t, 1290.0, results[0].LoadTime)
	assert.Equal(t, 310.0, results[0].DOMContentLoaded)
}

func TestAnalyzeFiles_MissingFile(t *testing.T) {
	_, err := analyzeFiles([]string{filepath.Join(t.TempDir(), "nope.har")}, "", GetLogger())
	assert.Error(t, err)
}

func TestDocumentURL(t *testing.T) {
	entryURL := "https://example.com/first"
	doc := model.NewDocument()
	assert.Equal(t, "page.har", documentURL(doc, "/tmp/page.har"))

	doc.Entries = append(doc.Entries, model.RawEntry{Request: &model.RawRequest{URL: &entryURL}})
	assert.Equal(t, entryURL, documentURL(doc, "/tmp/page.har"))

	doc.Pages = append(doc.Pages, model.RawPage{ID: "page_1", Title: "Example Domain"})
	assert.Equal(t, entryURL, documentURL(doc, "/tmp/page.har"), "non-url titles are ignored")

	doc.Pages[0].Title = "https://example.com/"
	assert.Equal(t, "https://example.com/", documentURL(doc, "/tmp/page.har"))
}

func TestReportDomain(t *testing.T) {
	assert.Equal(t, "example.com", reportDomain("https://example.com/sitemap.xml", []string{"https://other.org/"}))
	assert.Equal(t, "other.org", reportDomain("", []string{"https://other.org/"}))
	assert.Equal(t, "harsize", reportDomain("", nil))
}

func TestResolveURLs(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultRunConfig()
	args := []string{"https://example.com/blog/one", "https://example.com/about", "https://example.com/blog/two"}

	urls, err := resolveURLs(ctx, cfg, args, GetLogger())
	require.NoError(t, err)
	assert.Equal(t, args, urls)

	cfg.Match = "/blog/"
	urls, err = resolveURLs(ctx, cfg, args, GetLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/blog/one", "https://example.com/blog/two"}, urls)

	cfg.Match = `two$`
	cfg.Regex = true
	urls, err = resolveURLs(ctx, cfg, args, GetLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/blog/two"}, urls)

	cfg.Match = "nothing-matches"
	cfg.Regex = false
	_, err = resolveURLs(ctx, cfg, args, GetLogger())
	assert.ErrorIs(t, err, sitemap.ErrNoURLs)

	cfg.Match = "("
	cfg.Regex = true
	_, err = resolveURLs(ctx, cfg, args, GetLogger())
	assert.Error(t, err)
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	page := generatePage(t, dir, "https://example.com/", 8)
	collector, err := analyzeFiles([]string{page}, "", GetLogger())
	require.NoError(t, err)
	collector.Fail(motor.PageFailure{URL: "https://example.com/broken", Err: errors.New("timeout"), Attempts: 3})

	cfg := DefaultRunConfig()
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.Print = true
	cfg.Chart = filepath.Join(dir, "sizes.png")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, writeReports(cmd, cfg, "example.com", collector, GetLogger()))

	paths := report.PathsFor(cfg.OutputDir, "example.com")
	assert.FileExists(t, paths.Summary)
	assert.FileExists(t, paths.Mimetypes)
	assert.FileExists(t, paths.Resources)
	assert.FileExists(t, paths.Errors)
	assert.FileExists(t, cfg.Chart)
	assert.Contains(t, out.String(), report.TotalLabel)
}

func TestWriteReports_AllPagesFailed(t *testing.T) {
	dir := t.TempDir()
	collector := motor.NewCollector()
	collector.Fail(motor.PageFailure{URL: "https://example.com/", Err: errors.New("refused"), Attempts: 3})

	cfg := DefaultRunConfig()
	cfg.OutputDir = dir

	err := writeReports(&cobra.Command{}, cfg, "example.com", collector, GetLogger())
	assert.ErrorIs(t, err, motor.ErrNoPages)

	paths := report.PathsFor(dir, "example.com")
	assert.FileExists(t, paths.Errors)
	assert.NoFileExists(t, paths.Summary)
}
