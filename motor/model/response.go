package model

// RawResponse carries the response fields the size report reads.
type RawResponse struct {
	// Status indicates the response status
	Status *int `json:"status"`

	// HeadersSize of the response header in bytes, -1 if unknown.
	HeadersSize *int64 `json:"headersSize"`

	// BodySize of the response body in bytes (as sent), -1 if unknown.
	BodySize *int64 `json:"bodySize"`

	// Content describes the response body content.
	Content *RawContent `json:"content"`
}

// RawContent contains the mime type of the response body.
type RawContent struct {
	// MimeType of the body content, may include parameters after ';'
	MimeType *string `json:"mimeType"`
}

// Sizes returns body and header sizes in bytes; absent values are reported as -1.
func (r *RawResponse) Sizes() (body, headers int64) {
	body, headers = -1, -1
	if r == nil {
		return
	}
	if r.BodySize != nil {
		body = *r.BodySize
	}
	if r.HeadersSize != nil {
		headers = *r.HeadersSize
	}
	return
}
