package hargen

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/pb33f/harhar"
)

// DocumentMimeType is the content type of the first entry of every generated page.
const DocumentMimeType = "text/html; charset=utf-8"

type resourceKind struct {
	mimeType  string
	extension string
	minSize   int
	maxSize   int
}

// subresources a page typically pulls in
var resourceKinds = []resourceKind{
	{mimeType: "text/css", extension: "css", minSize: 800, maxSize: 40000},
	{mimeType: "application/javascript", extension: "js", minSize: 2000, maxSize: 250000},
	{mimeType: "image/png", extension: "png", minSize: 500, maxSize: 120000},
	{mimeType: "image/jpeg", extension: "jpg", minSize: 4000, maxSize: 300000},
	{mimeType: "font/woff2", extension: "woff2", minSize: 10000, maxSize: 60000},
	{mimeType: "application/json", extension: "json", minSize: 100, maxSize: 8000},
}

// EntryGenerator creates the entries of one page
type EntryGenerator struct {
	dict    *Dictionary
	jsonGen *JSONGenerator
	rng     *rand.Rand
	pageURL string
	origin  string
	fatMode bool
}

// NewEntryGenerator creates a new entry generator for the page at pageURL
func NewEntryGenerator(dict *Dictionary, jsonGen *JSONGenerator, rng *rand.Rand, pageURL string) *EntryGenerator {
	origin := strings.TrimSuffix(pageURL, "/")
	if parsed, err := url.Parse(pageURL); err == nil && parsed.Host != "" {
		origin = parsed.Scheme + "://" + parsed.Host
	}
	return &EntryGenerator{
		dict:    dict,
		jsonGen: jsonGen,
		rng:     rng,
		pageURL: pageURL,
		origin:  origin,
	}
}

// SetFatMode embeds bodies that match the declared body size
func (eg *EntryGenerator) SetFatMode(enabled bool) {
	eg.fatMode = enabled
}

// GenerateEntry creates entry index of the page. Index 0 is the html document.
func (eg *EntryGenerator) GenerateEntry(index int, started time.Time, pageRef string) *harhar.Entry {
	kind := resourceKind{mimeType: DocumentMimeType, extension: "html", minSize: 5000, maxSize: 90000}
	requestURL := eg.pageURL
	if index > 0 {
		kind = resourceKinds[eg.rng.Intn(len(resourceKinds))]
		requestURL = eg.resourceURL(kind)
	}

	wait := float64(eg.rng.Intn(300)) + eg.rng.Float64()
	receive := float64(eg.rng.Intn(120)) + eg.rng.Float64()
	send := eg.rng.Float64()

	return &harhar.Entry{
		PageRef:  pageRef,
		Start:    started.Format(TimestampLayout),
		Time:     send + wait + receive,
		Request:  eg.generateRequest(requestURL),
		Response: eg.generateResponse(kind, index == 0),
		Timings: harhar.Timings{
			Send:    send,
			Wait:    wait,
			Receive: receive,
		},
		ServerIP:   eg.generateIP(),
		Connection: fmt.Sprintf("%d", eg.rng.Intn(65535)),
	}
}

// GenerateMalformed returns an entry that does not survive normalization,
// cycling through the ways real captures go wrong.
func (eg *EntryGenerator) GenerateMalformed(index int, started time.Time) json.RawMessage {
	var obj map[string]interface{}
	switch index % 3 {
	case 0:
		// no mimeType
		obj = map[string]interface{}{
			"startedDateTime": started.Format(TimestampLayout),
			"time":            12.5,
			"request":         map[string]interface{}{"method": "GET", "url": eg.resourceURL(resourceKinds[0])},
			"response": map[string]interface{}{
				"status": 200, "headersSize": 120, "bodySize": 2048,
				"content": map[string]interface{}{"size": 2048},
			},
		}
	case 1:
		// no request url
		obj = map[string]interface{}{
			"startedDateTime": started.Format(TimestampLayout),
			"time":            3.0,
			"request":         map[string]interface{}{"method": "GET"},
			"response": map[string]interface{}{
				"status": 200, "headersSize": 100, "bodySize": 512,
				"content": map[string]interface{}{"mimeType": "image/png"},
			},
		}
	default:
		// not an entry at all
		obj = map[string]interface{}{
			"startedDateTime": started.Format(TimestampLayout),
			"request":         eg.dict.RandomWord(eg.rng),
			"response":        "oops",
		}
	}
	raw, _ := json.Marshal(obj)
	return raw
}

func (eg *EntryGenerator) resourceURL(kind resourceKind) string {
	return fmt.Sprintf("%s/%s/%s.%s", eg.origin, eg.dict.RandomWord(eg.rng), eg.dict.Slug(1+eg.rng.Intn(2), eg.rng), kind.extension)
}

func (eg *EntryGenerator) generateRequest(requestURL string) harhar.Request {
	return harhar.Request{
		Method:      "GET",
		URL:         requestURL,
		HTTPVersion: "HTTP/1.1",
		Headers:     eg.generateHeaders(eg.rng.Intn(6) + 3),
		QueryParams: []harhar.NameValuePair{},
		Cookies:     []harhar.Cookie{},
		HeadersSize: eg.rng.Intn(500) + 200,
		BodySize:    0,
	}
}

func (eg *EntryGenerator) generateResponse(kind resourceKind, document bool) harhar.Response {
	status := 200
	if !document && eg.rng.Intn(8) == 0 {
		status = 304
	}

	bodySize := kind.minSize + eg.rng.Intn(kind.maxSize-kind.minSize+1)
	headersSize := eg.rng.Intn(700) + 300
	if status == 304 {
		bodySize = 0
	}
	// served from memory cache, sizes unknown
	if !document && eg.rng.Intn(12) == 0 {
		bodySize = -1
		headersSize = -1
	}

	return harhar.Response{
		StatusCode:  status,
		StatusText:  statusText(status),
		HTTPVersion: "HTTP/1.1",
		Headers: []harhar.NameValuePair{
			{Name: "Content-Type", Value: kind.mimeType},
			{Name: "Cache-Control", Value: "max-age=3600"},
		},
		Cookies:     []harhar.Cookie{},
		Body:        eg.generateBody(kind, bodySize),
		HeadersSize: headersSize,
		BodySize:    bodySize,
	}
}

func (eg *EntryGenerator) generateBody(kind resourceKind, bodySize int) harhar.BodyResponseType {
	body := harhar.BodyResponseType{
		Size:     max(bodySize, 0),
		MIMEType: kind.mimeType,
	}
	switch {
	case kind.extension == "json":
		body.Content = eg.jsonGen.GenerateBody()
	case eg.fatMode && bodySize > 0:
		body.Content = eg.jsonGen.GenerateBlob(bodySize)
		body.Encoding = "base64"
	}
	return body
}

func statusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 304:
		return "Not Modified"
	default:
		return "Unknown"
	}
}

func (eg *EntryGenerator) generateIP() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		eg.rng.Intn(256), eg.rng.Intn(256), eg.rng.Intn(256), eg.rng.Intn(256))
}

func (eg *EntryGenerator) generateHeaders(count int) []harhar.NameValuePair {
	commonHeaders := []string{
		"User-Agent", "Accept", "Accept-Encoding",
		"Cache-Control", "Connection", "Accept-Language", "Referer",
	}

	headers := make([]harhar.NameValuePair, 0, count)
	usedHeaders := make(map[string]bool)

	for i := 0; i < count && len(commonHeaders) > len(usedHeaders); i++ {
		header := commonHeaders[eg.rng.Intn(len(commonHeaders))]
		if usedHeaders[header] {
			continue
		}
		usedHeaders[header] = true

		headers = append(headers, harhar.NameValuePair{
			Name:  header,
			Value: eg.headerValue(header),
		})
	}

	return headers
}

func (eg *EntryGenerator) headerValue(name string) string {
	switch name {
	case "User-Agent":
		return "Mozilla/5.0 (compatible; harsize/1.0)"
	case "Accept":
		return "*/*"
	case "Accept-Encoding":
		return "gzip, deflate, br"
	case "Connection":
		return "keep-alive"
	case "Cache-Control":
		return "no-cache"
	case "Referer":
		return eg.pageURL
	default:
		return eg.dict.RandomWord(eg.rng)
	}
}
