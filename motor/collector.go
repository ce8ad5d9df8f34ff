package motor

import "sync"

// PageFailure records a page that could not be loaded.
type PageFailure struct {
	URL      string
	Err      error
	Attempts int
}

// Collector accumulates page results and failures from concurrent workers.
type Collector struct {
	mu       sync.Mutex
	results  []*PageResult
	failures []PageFailure
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		results:  make([]*PageResult, 0),
		failures: make([]PageFailure, 0),
	}
}

// Add appends a page result.
func (c *Collector) Add(result *PageResult) {
	if result == nil {
		return
	}
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
}

// Fail records a page failure.
func (c *Collector) Fail(failure PageFailure) {
	c.mu.Lock()
	c.failures = append(c.failures, failure)
	c.mu.Unlock()
}

// Results returns a snapshot of the results in completion order.
func (c *Collector) Results() []*PageResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*PageResult, len(c.results))
	copy(out, c.results)
	return out
}

// Failures returns a snapshot of the failures in completion order.
func (c *Collector) Failures() []PageFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PageFailure, len(c.failures))
	copy(out, c.failures)
	return out
}

// Len is the number of results collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
