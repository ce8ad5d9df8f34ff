package model

// RawPage represents a group of requests (e.g. an HTML document with multiple resources)
type RawPage struct {
	// Start of the page load (ISO 8601)
	StartedDateTime string `json:"startedDateTime"`

	// ID used to reference this page grouping (RawEntry.PageRef)
	ID string `json:"id"`

	// Title of the page
	Title string `json:"title"`

	// PageTimings contains detailing timing info about the page load
	PageTimings RawPageTimings `json:"pageTimings"`
}

// RawPageTimings contains DOM-related page timing information. -1 or absent means not available.
type RawPageTimings struct {
	// OnContentLoad is milliseconds since Start for page content to be loaded.
	OnContentLoad *float64 `json:"onContentLoad,omitempty"`

	// OnLoad is milliseconds since Start for OnLoad event to be fired.
	OnLoad *float64 `json:"onLoad,omitempty"`
}
