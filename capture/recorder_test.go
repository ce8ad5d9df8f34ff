package capture

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	monoBase = time.Unix(5000, 0)
	wallBase = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
)

func mono(ms int) *cdp.MonotonicTime {
	ts := cdp.MonotonicTime(monoBase.Add(time.Duration(ms) * time.Millisecond))
	return &ts
}

func wall(ms int) *cdp.TimeSinceEpoch {
	ts := cdp.TimeSinceEpoch(wallBase.Add(time.Duration(ms) * time.Millisecond))
	return &ts
}

func sent(id, url string, kind network.ResourceType, at int) *network.EventRequestWillBeSent {
	return &network.EventRequestWillBeSent{
		RequestID: network.RequestID(id),
		Request:   &network.Request{URL: url, Method: "GET"},
		Type:      kind,
		Timestamp: mono(at),
		WallTime:  wall(at),
	}
}

func received(id, mimeType string, status int64, headerBytes float64, at int) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		RequestID: network.RequestID(id),
		Timestamp: mono(at),
		Response: &network.Response{
			Status:            status,
			StatusText:        "OK",
			MimeType:          mimeType,
			Protocol:          "http/1.1",
			EncodedDataLength: headerBytes,
			Headers:           network.Headers{"Content-Type": mimeType},
		},
	}
}

func finished(id string, totalBytes float64, at int) *network.EventLoadingFinished {
	return &network.EventLoadingFinished{
		RequestID:         network.RequestID(id),
		Timestamp:         mono(at),
		EncodedDataLength: totalBytes,
	}
}

func TestRecorder_BuildsEntries(t *testing.T) {
	rec := newRecorder("page_1", "https://example.com/")

	rec.handle(sent("1", "https://example.com/", network.ResourceTypeDocument, 0))
	rec.handle(received("1", "text/html", 200, 300, 80))
	rec.handle(sent("2", "https://example.com/app.js", network.ResourceTypeScript, 100))
	rec.handle(finished("1", 300+1024, 120))
	rec.handle(received("2", "application/javascript", 200, 250, 150))
	rec.handle(finished("2", 250+4096, 190))
	rec.handle(&page.EventDomContentEventFired{Timestamp: mono(200)})
	rec.handle(&page.EventLoadEventFired{Timestamp: mono(450)})

	har := rec.HAR()
	require.Len(t, har.Log.Entries, 2)
	require.Len(t, har.Log.Pages, 1)

	pg := har.Log.Pages[0]
	assert.Equal(t, "page_1", pg.ID)
	assert.Equal(t, 200.0, pg.PageTimings.OnContentLoad)
	assert.Equal(t, 450.0, pg.PageTimings.OnLoad)

	doc := har.Log.Entries[0]
	assert.Equal(t, "page_1", doc.PageRef)
	assert.Equal(t, "https://example.com/", doc.Request.URL)
	assert.Equal(t, 200, doc.Response.StatusCode)
	assert.Equal(t, "text/html", doc.Response.Body.MIMEType)
	assert.Equal(t, 300, doc.Response.HeadersSize)
	assert.Equal(t, 1024, doc.Response.BodySize)
	assert.Equal(t, 120.0, doc.Time)
	assert.Equal(t, "HTTP/1.1", doc.Response.HTTPVersion)

	started, err := time.Parse(time.RFC3339Nano, doc.Start)
	require.NoError(t, err)
	assert.True(t, started.Equal(wallBase))

	script := har.Log.Entries[1]
	assert.Equal(t, 4096, script.Response.BodySize)
	assert.Equal(t, 90.0, script.Time)
	assert.Equal(t, 50.0, script.Timings.Wait)
	assert.Equal(t, 40.0, script.Timings.Receive)
}

func TestRecorder_DropsRequestsWithoutResponse(t *testing.T) {
	rec := newRecorder("page_1", "https://example.com/")

	rec.handle(sent("1", "https://example.com/", network.ResourceTypeDocument, 0))
	rec.handle(received("1", "text/html", 200, 300, 50))
	rec.handle(finished("1", 2000, 60))
	rec.handle(sent("2", "https://tracker.example.net/pixel", network.ResourceTypeImage, 70))
	rec.handle(&network.EventLoadingFailed{
		RequestID: "2",
		Timestamp: mono(90),
		ErrorText: "net::ERR_BLOCKED_BY_CLIENT",
	})

	har := rec.HAR()
	require.Len(t, har.Log.Entries, 1)
	assert.Equal(t, "https://example.com/", har.Log.Entries[0].Request.URL)
}

func TestRecorder_UnfinishedResponseHasUnknownBody(t *testing.T) {
	rec := newRecorder("page_1", "https://example.com/")
	rec.handle(sent("1", "https://example.com/", network.ResourceTypeDocument, 0))
	rec.handle(received("1", "text/html", 200, 200, 40))

	har := rec.HAR()
	require.Len(t, har.Log.Entries, 1)
	assert.Equal(t, -1, har.Log.Entries[0].Response.BodySize)
	assert.Equal(t, 40.0, har.Log.Entries[0].Time)
	assert.Zero(t, har.Log.Pages[0].PageTimings.OnLoad)
}

func TestRecorder_Redirect(t *testing.T) {
	rec := newRecorder("page_1", "http://example.com/")

	rec.handle(sent("1", "http://example.com/", network.ResourceTypeDocument, 0))
	redirect := sent("1", "https://example.com/", network.ResourceTypeDocument, 30)
	redirect.RedirectResponse = &network.Response{
		Status:            301,
		StatusText:        "Moved Permanently",
		MimeType:          "text/html",
		EncodedDataLength: 180,
	}
	rec.handle(redirect)
	rec.handle(received("1", "text/html", 200, 300, 90))
	rec.handle(finished("1", 300+2048, 110))

	har := rec.HAR()
	require.Len(t, har.Log.Entries, 2)

	hop := har.Log.Entries[0]
	assert.Equal(t, 301, hop.Response.StatusCode)
	assert.Equal(t, "https://example.com/", hop.Response.RedirectURL)
	assert.Equal(t, 0, hop.Response.BodySize)
	assert.Equal(t, 30.0, hop.Time)

	final := har.Log.Entries[1]
	assert.Equal(t, 200, final.Response.StatusCode)
	assert.Equal(t, 2048, final.Response.BodySize)
}

func TestRecorder_CachedResponse(t *testing.T) {
	rec := newRecorder("page_1", "https://example.com/")
	rec.handle(sent("1", "https://example.com/", network.ResourceTypeDocument, 0))
	rec.handle(received("1", "text/html", 200, 300, 10))
	rec.handle(finished("1", 1300, 20))
	rec.handle(sent("2", "https://example.com/logo.png", network.ResourceTypeImage, 25))

	cached := received("2", "image/png", 200, 0, 26)
	cached.Response.FromDiskCache = true
	rec.handle(cached)
	rec.handle(finished("2", 0, 27))

	har := rec.HAR()
	require.Len(t, har.Log.Entries, 2)
	assert.Equal(t, 0, har.Log.Entries[1].Response.BodySize)
	assert.Equal(t, 0, har.Log.Entries[1].Response.HeadersSize)
}

func TestEstimateHeadersSize(t *testing.T) {
	assert.Equal(t, -1, estimateHeadersSize(nil))
	pairs := nameValuePairs(network.Headers{"Content-Type": "text/html"})
	assert.Equal(t, len("HTTP/1.1 200 OK\r\n")+2+len("Content-Type")+len("text/html")+4, estimateHeadersSize(pairs))
}
