package motor

// PageTimer resolves the load time of a page from its HAR page object.
// ok is false when the page has no usable timing.
type PageTimer interface {
	LoadTime() (ms float64, ok bool)
}

// DOMTimer reports the DOMContentLoaded time of a live page
// (domContentLoadedEventStart - navigationStart). ok is false when no page
// handle is available, e.g. because navigation failed.
type DOMTimer interface {
	DOMContentLoaded() (ms float64, ok bool)
}

// DOMTimerFunc adapts a plain function to DOMTimer.
type DOMTimerFunc func() (float64, bool)

func (f DOMTimerFunc) DOMContentLoaded() (float64, bool) {
	if f == nil {
		return 0, false
	}
	return f()
}

// PageTimerFunc adapts a plain function to PageTimer.
type PageTimerFunc func() (float64, bool)

func (f PageTimerFunc) LoadTime() (float64, bool) {
	if f == nil {
		return 0, false
	}
	return f()
}
