package model

// Document is a HAR document as consumed by the size report: its pages and raw entries.
//
// W3C Spec: https://w3c.github.io/web-performance/specs/HAR/Overview.html
type Document struct {
	// Pages found under log.pages, in document order.
	Pages []RawPage

	// Entries found under log.entries, in document order.
	Entries []RawEntry

	// Skipped counts entries that were not decodable JSON objects.
	Skipped int

	// Hash is the hex xxhash of the bytes read, empty for documents built in memory.
	Hash string

	// Size of the document in bytes, 0 for documents built in memory.
	Size int64
}

// NewDocument creates an empty document with its own containers.
func NewDocument() *Document {
	return &Document{
		Pages:   make([]RawPage, 0, 1),
		Entries: make([]RawEntry, 0),
	}
}

// PageID returns the id of the first page, the one the load time is resolved against.
func (d *Document) PageID() string {
	if len(d.Pages) == 0 {
		return ""
	}
	return d.Pages[0].ID
}

// Page looks up a page by id.
func (d *Document) Page(id string) (*RawPage, bool) {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return &d.Pages[i], true
		}
	}
	return nil, false
}
