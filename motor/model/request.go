package model

// RawRequest carries the request fields the size report reads.
type RawRequest struct {
	// Method of the HTTP request, in caps, GET/POST/etc
	Method string `json:"method,omitempty"`

	// URL of the request (absolute), with fragments removed.
	URL *string `json:"url"`
}
