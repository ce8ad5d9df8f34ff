package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pb33f/harhar"
	"github.com/pb33f/harsize/capture"
	"github.com/pb33f/harsize/motor"
)

// PageSession is a browser used for a single page.
type PageSession interface {
	Capture(ctx context.Context, url string) (*harhar.HAR, error)
	motor.DOMTimer
	Close() error
}

// SessionFactory opens a fresh session for every page task.
type SessionFactory func(ctx context.Context) (PageSession, error)

// Progress is reported after every page, whether it succeeded or not.
type Progress struct {
	URL      string
	Done     int
	Total    int
	Attempts int
	Err      error
}

// Options configure a crawl.
type Options struct {
	Workers    int
	Domain     string // report context every page is tagged with
	Retry      capture.RetryPolicy
	ArchiveDir string // when set, every captured HAR is saved here
	OnProgress func(Progress)
	Logger     *slog.Logger
}

// DefaultOptions returns four workers and the default retry policy.
func DefaultOptions() Options {
	return Options{
		Workers: 4,
		Retry:   capture.DefaultRetryPolicy(),
	}
}

// Crawler loads pages concurrently and analyses each one as it completes.
type Crawler struct {
	sessions  SessionFactory
	opts      Options
	logger    *slog.Logger
	collector *motor.Collector
	done      atomic.Int64
}

// New creates a crawler that opens sessions from factory.
func New(factory SessionFactory, opts Options) *Crawler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		sessions:  factory,
		opts:      opts,
		logger:    logger,
		collector: motor.NewCollector(),
	}
}

// Run visits every url with a bounded pool of workers. Failed pages are recorded
// in the collector after the retry policy is exhausted and never abort the run.
// When ctx is cancelled, pages in flight are discarded and ctx.Err() is returned
// alongside the pages already collected.
func (c *Crawler) Run(ctx context.Context, urls []string) (*motor.Collector, error) {
	workerCount := c.opts.Workers
	if workerCount < 1 {
		workerCount = 1
	}
	total := len(urls)
	startTime := time.Now()

	var wg sync.WaitGroup
	workChan := make(chan string, workerCount*2)

	for i := 0; i < workerCount; i++ {
		wg.Go(func() {
			for url := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
					c.visit(ctx, url, total)
				}
			}
		})
	}

ProducerLoop:
	for _, url := range urls {
		select {
		case <-ctx.Done():
			break ProducerLoop
		case workChan <- url:
		}
	}
	close(workChan)

	wg.Wait()

	c.logger.Info("crawl finished",
		"pages", c.collector.Len(),
		"failed", len(c.collector.Failures()),
		"urls", total,
		"workers", workerCount,
		"elapsed", time.Since(startTime))

	return c.collector, ctx.Err()
}

// Collector returns the store results are written to.
func (c *Crawler) Collector() *motor.Collector {
	return c.collector
}

func (c *Crawler) visit(ctx context.Context, url string, total int) {
	var result *motor.PageResult
	attempts, err := c.opts.Retry.Do(ctx, c.logger, func(ctx context.Context, attempt int) error {
		c.logger.Debug("loading page", "url", url, "attempt", attempt)
		r, err := c.capturePage(ctx, url)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	if ctx.Err() != nil {
		// partial results of a cancelled run are not trusted
		return
	}

	if err != nil {
		c.logger.Error("page failed", "url", url, "attempts", attempts, "error", err)
		c.collector.Fail(motor.PageFailure{URL: url, Err: err, Attempts: attempts})
	} else {
		c.logger.Info("page analysed",
			"url", url,
			"entries", result.NumEntries,
			"total_size_kb", result.TotalSize,
			"load_time_ms", result.LoadTime)
		c.collector.Add(result)
	}

	if c.opts.OnProgress != nil {
		c.opts.OnProgress(Progress{
			URL:      url,
			Done:     int(c.done.Add(1)),
			Total:    total,
			Attempts: attempts,
			Err:      err,
		})
	}
}

func (c *Crawler) capturePage(ctx context.Context, url string) (*motor.PageResult, error) {
	session, err := c.sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			c.logger.Warn("failed to close browser session", "url", url, "error", err)
		}
	}()

	har, err := session.Capture(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.opts.ArchiveDir != "" {
		if path, err := Archive(c.opts.ArchiveDir, url, har); err != nil {
			c.logger.Warn("failed to archive HAR", "url", url, "error", err)
		} else {
			c.logger.Debug("HAR archived", "url", url, "path", path)
		}
	}

	// the session is still open, so DOMContentLoaded can be read from the live page
	return motor.AnalyzePage(motor.FromHAR(har), url, c.opts.Domain, motor.AnalyzeOptions{
		DOM:    session,
		Logger: c.logger,
	}), nil
}

// ArchiveName is the file name a page's HAR is saved under.
func ArchiveName(url string) string {
	return fmt.Sprintf("%016x.har", xxhash.Sum64String(url))
}

// Archive writes har into dir and returns the file path.
func Archive(dir, url string, har *harhar.HAR) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, ArchiveName(url))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(har); err != nil {
		return "", fmt.Errorf("failed to write har: %w", err)
	}
	return path, nil
}
