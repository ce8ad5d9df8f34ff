package motor

import (
	"github.com/pb33f/harhar"
	"github.com/pb33f/harsize/motor/model"
)

// FromHAR converts an in-memory HAR, such as a live capture, into a Document.
// Every entry field is present in a harhar.Entry, so none are skipped here.
func FromHAR(har *harhar.HAR) *model.Document {
	doc := model.NewDocument()
	if har == nil {
		return doc
	}

	for _, page := range har.Log.Pages {
		doc.Pages = append(doc.Pages, model.RawPage{
			StartedDateTime: page.Start,
			ID:              page.ID,
			Title:           page.Title,
			PageTimings: model.RawPageTimings{
				OnContentLoad: recordedTiming(page.PageTimings.OnContentLoad),
				OnLoad:        recordedTiming(page.PageTimings.OnLoad),
			},
		})
	}

	for i := range har.Log.Entries {
		doc.Entries = append(doc.Entries, rawEntryFromHAR(&har.Log.Entries[i]))
	}

	return doc
}

func rawEntryFromHAR(entry *harhar.Entry) model.RawEntry {
	start := entry.Start
	elapsed := entry.Time
	url := entry.Request.URL
	status := entry.Response.StatusCode
	mimeType := entry.Response.Body.MIMEType
	bodySize := int64(entry.Response.BodySize)
	headersSize := int64(entry.Response.HeadersSize)

	return model.RawEntry{
		PageRef:         entry.PageRef,
		StartedDateTime: &start,
		Time:            &elapsed,
		Request: &model.RawRequest{
			Method: entry.Request.Method,
			URL:    &url,
		},
		Response: &model.RawResponse{
			Status:      &status,
			HeadersSize: &headersSize,
			BodySize:    &bodySize,
			Content:     &model.RawContent{MimeType: &mimeType},
		},
	}
}

// harhar page timings are omitempty, so zero is indistinguishable from absent
func recordedTiming(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
