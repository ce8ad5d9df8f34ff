package capture

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/pb33f/harhar"
)

// pendingEntry is a request between requestWillBeSent and loadingFinished.
type pendingEntry struct {
	entry       harhar.Entry
	started     time.Time // monotonic
	responded   time.Time // monotonic
	ended       time.Time // monotonic
	hasResponse bool
	seq         int
}

// recorder turns DevTools network and page events into HAR entries.
type recorder struct {
	mu      sync.Mutex
	pageID  string
	pageURL string

	byID    map[network.RequestID]*pendingEntry
	entries []*pendingEntry
	seq     int

	navMono          time.Time
	navWall          time.Time
	domContentLoaded time.Time
	loaded           time.Time
}

func newRecorder(pageID, pageURL string) *recorder {
	return &recorder{
		pageID:  pageID,
		pageURL: pageURL,
		byID:    make(map[network.RequestID]*pendingEntry),
		entries: make([]*pendingEntry, 0, 64),
	}
}

func (r *recorder) handle(ev interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		r.requestWillBeSent(e)
	case *network.EventResponseReceived:
		r.responseReceived(e)
	case *network.EventLoadingFinished:
		r.loadingFinished(e)
	case *network.EventLoadingFailed:
		r.loadingFailed(e)
	case *page.EventDomContentEventFired:
		if e.Timestamp != nil && r.domContentLoaded.IsZero() {
			r.domContentLoaded = e.Timestamp.Time()
		}
	case *page.EventLoadEventFired:
		if e.Timestamp != nil && r.loaded.IsZero() {
			r.loaded = e.Timestamp.Time()
		}
	}
}

func (r *recorder) requestWillBeSent(e *network.EventRequestWillBeSent) {
	if e.Request == nil {
		return
	}
	mono := monotonic(e.Timestamp)
	wall := wallTime(e.WallTime)

	// a redirect reuses the request id; close out the hop that redirected
	if prev, ok := r.byID[e.RequestID]; ok && e.RedirectResponse != nil {
		applyResponse(prev, e.RedirectResponse, mono)
		prev.entry.Response.RedirectURL = e.Request.URL
		prev.entry.Response.BodySize = 0
		prev.ended = mono
	}

	if r.navMono.IsZero() && e.Type == network.ResourceTypeDocument {
		r.navMono = mono
		r.navWall = wall
	}
	if wall.IsZero() {
		wall = r.wallFor(mono)
	}

	url := e.Request.URL + e.Request.URLFragment
	pending := &pendingEntry{
		started: mono,
		seq:     r.seq,
		entry: harhar.Entry{
			PageRef: r.pageID,
			Start:   wall.Format(time.RFC3339Nano),
			Request: harhar.Request{
				Method:      e.Request.Method,
				URL:         url,
				HTTPVersion: "HTTP/1.1",
				Headers:     nameValuePairs(e.Request.Headers),
				QueryParams: []harhar.NameValuePair{},
				Cookies:     []harhar.Cookie{},
				HeadersSize: -1,
				BodySize:    0,
			},
			Response: harhar.Response{
				HeadersSize: -1,
				BodySize:    -1,
				Cookies:     []harhar.Cookie{},
			},
		},
	}
	r.seq++
	r.byID[e.RequestID] = pending
	r.entries = append(r.entries, pending)
}

func (r *recorder) responseReceived(e *network.EventResponseReceived) {
	pending, ok := r.byID[e.RequestID]
	if !ok || e.Response == nil {
		return
	}
	applyResponse(pending, e.Response, monotonic(e.Timestamp))
}

func applyResponse(pending *pendingEntry, resp *network.Response, at time.Time) {
	pending.hasResponse = true
	pending.responded = at

	res := &pending.entry.Response
	res.StatusCode = int(resp.Status)
	res.StatusText = resp.StatusText
	res.Headers = nameValuePairs(resp.Headers)
	res.Body.MIMEType = resp.MimeType
	if resp.Protocol != "" {
		res.HTTPVersion = strings.ToUpper(resp.Protocol)
		pending.entry.Request.HTTPVersion = res.HTTPVersion
	}

	// encodedDataLength at response time covers the headers on the wire
	switch {
	case resp.FromDiskCache || resp.FromServiceWorker || resp.FromPrefetchCache:
		res.HeadersSize = 0
		res.BodySize = 0
	case resp.EncodedDataLength > 0:
		res.HeadersSize = int(resp.EncodedDataLength)
	default:
		res.HeadersSize = estimateHeadersSize(res.Headers)
	}

	pending.entry.ServerIP = resp.RemoteIPAddress
	if resp.ConnectionID > 0 {
		pending.entry.Connection = fmt.Sprintf("%.0f", resp.ConnectionID)
	}
}

func (r *recorder) loadingFinished(e *network.EventLoadingFinished) {
	pending, ok := r.byID[e.RequestID]
	if !ok {
		return
	}
	pending.ended = monotonic(e.Timestamp)

	res := &pending.entry.Response
	if res.BodySize != 0 || res.HeadersSize != 0 {
		headers := max(res.HeadersSize, 0)
		res.BodySize = max(int(e.EncodedDataLength)-headers, 0)
	}
	res.Body.Size = res.BodySize
	delete(r.byID, e.RequestID)
}

func (r *recorder) loadingFailed(e *network.EventLoadingFailed) {
	pending, ok := r.byID[e.RequestID]
	if !ok {
		return
	}
	pending.ended = monotonic(e.Timestamp)
	pending.entry.Comment = e.ErrorText
	delete(r.byID, e.RequestID)
}

// wallFor maps a monotonic timestamp onto the wall clock of the navigation.
func (r *recorder) wallFor(mono time.Time) time.Time {
	if r.navWall.IsZero() || r.navMono.IsZero() || mono.IsZero() {
		return time.Now()
	}
	return r.navWall.Add(mono.Sub(r.navMono))
}

// HAR returns the entries recorded so far. Requests that never got a response
// carried no measurable bytes and are left out.
func (r *recorder) HAR() *harhar.HAR {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]harhar.Entry, 0, len(r.entries))
	recorded := make([]*pendingEntry, 0, len(r.entries))
	for _, pending := range r.entries {
		if pending.hasResponse {
			recorded = append(recorded, pending)
		}
	}
	sort.SliceStable(recorded, func(i, j int) bool {
		return recorded[i].seq < recorded[j].seq
	})

	for _, pending := range recorded {
		entry := pending.entry
		end := pending.ended
		if end.IsZero() {
			end = pending.responded
		}
		entry.Time = milliseconds(end.Sub(pending.started))
		entry.Timings = harhar.Timings{
			Send:    0,
			Wait:    milliseconds(pending.responded.Sub(pending.started)),
			Receive: milliseconds(end.Sub(pending.responded)),
		}
		entries = append(entries, entry)
	}

	har := &harhar.HAR{
		Log: harhar.Log{
			Version: "1.2",
			Creator: harhar.Creator{
				Name:    harCreatorName,
				Version: harCreatorBuild,
			},
			Entries: entries,
		},
	}

	pageStart := r.navWall
	if pageStart.IsZero() {
		pageStart = time.Now()
	}
	pg := harhar.Page{
		Start: pageStart.Format(time.RFC3339Nano),
		ID:    r.pageID,
		Title: r.pageURL,
	}
	if !r.navMono.IsZero() {
		if !r.domContentLoaded.IsZero() {
			pg.PageTimings.OnContentLoad = milliseconds(r.domContentLoaded.Sub(r.navMono))
		}
		if !r.loaded.IsZero() {
			pg.PageTimings.OnLoad = milliseconds(r.loaded.Sub(r.navMono))
		}
	}
	har.Log.Pages = []harhar.Page{pg}

	return har
}

func monotonic(ts *cdp.MonotonicTime) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time()
}

func wallTime(ts *cdp.TimeSinceEpoch) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time()
}

func milliseconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

func nameValuePairs(headers network.Headers) []harhar.NameValuePair {
	pairs := make([]harhar.NameValuePair, 0, len(headers))
	for name, value := range headers {
		pairs = append(pairs, harhar.NameValuePair{Name: name, Value: fmt.Sprint(value)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

// estimateHeadersSize approximates an HTTP/1.1 header block: status line, "name: value\r\n" lines, blank line.
func estimateHeadersSize(headers []harhar.NameValuePair) int {
	if len(headers) == 0 {
		return -1
	}
	size := len("HTTP/1.1 200 OK\r\n") + 2
	for _, h := range headers {
		size += len(h.Name) + len(h.Value) + 4
	}
	return size
}
