package sitemap

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchMode defines how a filter pattern is matched against URLs
type MatchMode int

const (
	PlainText MatchMode = iota
	Regex
)

// Filter selects the URLs of a sitemap to crawl. A nil Filter matches everything.
type Filter struct {
	mode      MatchMode
	plainText string
	regex     *regexp.Regexp
}

// NewFilter compiles a pattern. An empty pattern yields a nil filter.
func NewFilter(pattern string, mode MatchMode) (*Filter, error) {
	if pattern == "" {
		return nil, nil
	}

	f := &Filter{mode: mode}
	if mode == Regex {
		regex, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern: %w", err)
		}
		f.regex = regex
	} else {
		f.plainText = pattern
	}

	return f, nil
}

// Matches checks if url matches the pattern
func (f *Filter) Matches(url string) bool {
	if f == nil {
		return true
	}
	if f.mode == Regex {
		return f.regex.MatchString(url)
	}

	// plain text: use strings.contains (faster than regex)
	return strings.Contains(url, f.plainText)
}

// Apply returns the matching urls in their original order.
func (f *Filter) Apply(urls []string) []string {
	if f == nil {
		return urls
	}
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if f.Matches(url) {
			out = append(out, url)
		}
	}
	return out
}
