package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
)

// ErrNoURLs is returned when a sitemap resolves to no page URLs.
var ErrNoURLs = errors.New("sitemap contains no urls")

const (
	// DefaultMaxDepth is how many levels of sitemap indexes are followed.
	DefaultMaxDepth = 2

	perRequestTimeout = 20 * time.Second
	maxSitemapBytes   = 50 << 20
)

// Options configure a Fetcher.
type Options struct {
	Client   *http.Client
	MaxDepth int
	Logger   *slog.Logger
}

// Fetcher downloads sitemaps and resolves them to page URLs.
type Fetcher struct {
	client   *http.Client
	maxDepth int
	logger   *slog.Logger
}

// NewFetcher creates a fetcher, filling in a client and the default depth.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    20,
				IdleConnTimeout: 30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
			Timeout: perRequestTimeout,
		}
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, maxDepth: maxDepth, logger: logger}
}

// Fetch resolves a sitemap with a default fetcher.
func Fetch(ctx context.Context, sitemapURL string) ([]string, error) {
	return NewFetcher(Options{}).Fetch(ctx, sitemapURL)
}

// Fetch downloads the sitemap at sitemapURL and returns its page URLs in document
// order, without duplicates. Sitemap indexes are followed up to the max depth;
// nested sitemaps that fail are logged and skipped.
func (f *Fetcher) Fetch(ctx context.Context, sitemapURL string) ([]string, error) {
	seen := make(map[uint64]struct{})
	urls := make([]string, 0, 64)

	if err := f.resolve(ctx, sitemapURL, 0, seen, &urls); err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoURLs, sitemapURL)
	}

	f.logger.Debug("sitemap resolved", "sitemap", sitemapURL, "urls", len(urls))
	return urls, nil
}

func (f *Fetcher) resolve(ctx context.Context, sitemapURL string, depth int, seen map[uint64]struct{}, urls *[]string) error {
	body, err := f.download(ctx, sitemapURL)
	if err != nil {
		return err
	}

	locs, nested, err := Parse(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse sitemap %s: %w", sitemapURL, err)
	}

	for _, loc := range locs {
		key := xxhash.Sum64String(loc)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		*urls = append(*urls, loc)
	}

	for _, child := range nested {
		if depth+1 > f.maxDepth {
			f.logger.Warn("sitemap index too deep, not following", "sitemap", child, "max_depth", f.maxDepth)
			continue
		}
		if err := f.resolve(ctx, child, depth+1, seen, urls); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("skipping nested sitemap", "sitemap", child, "error", err)
		}
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, sitemapURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid sitemap url %q: %w", sitemapURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %d %s", sitemapURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// the transport has already inflated a Content-Encoding: gzip body
	var reader io.Reader = io.LimitReader(resp.Body, maxSitemapBytes)
	if !resp.Uncompressed && isGzipped(sitemapURL, resp.Header.Get("Content-Type")) {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzipped sitemap: %w", err)
		}
		defer gz.Close()
		reader = io.LimitReader(gz, maxSitemapBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap: %w", err)
	}
	return body, nil
}

func isGzipped(sitemapURL, contentType string) bool {
	if strings.Contains(contentType, "gzip") {
		return true
	}
	if u, err := url.Parse(sitemapURL); err == nil {
		return strings.HasSuffix(u.Path, ".gz")
	}
	return false
}

var cdataReplacer = strings.NewReplacer("<![CDATA[", "", "]]>", "")

// Parse extracts page locations (urlset) and nested sitemap locations
// (sitemapindex) from a sitemap document.
func Parse(r io.Reader) (locs []string, nested []string, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cdataReplacer.Replace(string(raw))))
	if err != nil {
		return nil, nil, err
	}

	if doc.Find("urlset, sitemapindex").Length() == 0 {
		return nil, nil, errors.New("document is neither a urlset nor a sitemapindex")
	}

	doc.Find("urlset url > loc").Each(func(_ int, s *goquery.Selection) {
		if loc := strings.TrimSpace(s.Text()); loc != "" {
			locs = append(locs, loc)
		}
	})
	doc.Find("sitemapindex sitemap > loc").Each(func(_ int, s *goquery.Selection) {
		if loc := strings.TrimSpace(s.Text()); loc != "" {
			nested = append(nested, loc)
		}
	})

	return locs, nested, nil
}

// Domain returns the host of rawURL, used to name report files. Unparseable
// input is returned with path separators replaced.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil && u.Host != "" {
		return u.Host
	}
	return strings.NewReplacer("/", "_", ":", "_").Replace(rawURL)
}
