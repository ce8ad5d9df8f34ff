package model

// RawEntry describes one request-response pair as it was found in a HAR document.
// Fields are pointers so an absent field can be told apart from a zero value.
type RawEntry struct {
	// PageRef references the parent page, RawPage.ID.
	PageRef string `json:"pageref,omitempty"`

	// StartedDateTime of the request (ISO 8601)
	StartedDateTime *string `json:"startedDateTime"`

	// Time is the elapsed time of the request in milliseconds.
	Time *float64 `json:"time"`

	// Request details
	Request *RawRequest `json:"request"`

	// Response details
	Response *RawResponse `json:"response"`
}

// URL returns the request URL, or false if the entry has none.
func (e *RawEntry) URL() (string, bool) {
	if e.Request == nil || e.Request.URL == nil {
		return "", false
	}
	return *e.Request.URL, true
}

// Status returns the response status, or false if the entry has none.
func (e *RawEntry) Status() (int, bool) {
	if e.Response == nil || e.Response.Status == nil {
		return 0, false
	}
	return *e.Response.Status, true
}

// MimeType returns the raw response content type, parameters included.
func (e *RawEntry) MimeType() (string, bool) {
	if e.Response == nil || e.Response.Content == nil || e.Response.Content.MimeType == nil {
		return "", false
	}
	return *e.Response.Content.MimeType, true
}

// Elapsed returns the entry time in milliseconds, 0 when absent.
func (e *RawEntry) Elapsed() float64 {
	if e.Time == nil {
		return 0
	}
	return *e.Time
}
