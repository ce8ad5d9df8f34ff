package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pb33f/harsize/capture"
	"github.com/pb33f/harsize/crawler"
	"github.com/pb33f/harsize/motor"
	"github.com/pb33f/harsize/report"
	"github.com/pb33f/harsize/sitemap"
)

// ErrPagesFailed is returned with --fail-on-error when at least one page failed.
var ErrPagesFailed = errors.New("one or more pages failed to load")

var crawlFlags RunConfig

var crawlCmd = &cobra.Command{
	Use:   "crawl [url...]",
	Short: "Load pages in a browser and report their size and load times",
	Long: `Load every page in a headless browser, record its network traffic as a
HAR document and append the size breakdown to the report files for the
site's domain. Pages come from the arguments, a sitemap, or both.`,
	Example: `  harsize crawl --sitemap https://example.com/sitemap.xml -w 8
  harsize crawl https://example.com/ --print --chart sizes.png
  harsize crawl --sitemap https://example.com/sitemap.xml --match /blog/ --save-har hars`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	bindRunFlags(crawlCmd.Flags(), &crawlFlags)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	cfg, err := resolveRunConfig(cmd.Flags(), crawlFlags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	urls, err := resolveURLs(ctx, cfg, args, logger)
	if err != nil {
		return err
	}
	domain := cfg.Domain
	if domain == "" {
		domain = reportDomain(cfg.Sitemap, urls)
	}
	logger.Info("starting crawl", "urls", len(urls), "domain", domain, "workers", cfg.Workers)

	browserOpts := cfg.BrowserOptions()
	browserOpts.Logger = logger
	browser := capture.NewBrowser(ctx, browserOpts)
	defer browser.Close()

	if err := browser.Check(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	c := crawler.New(func(ctx context.Context) (crawler.PageSession, error) {
		session, err := browser.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	}, crawler.Options{
		Workers:    cfg.Workers,
		Domain:     domain,
		Retry:      cfg.RetryPolicy(),
		ArchiveDir: cfg.SaveHAR,
		Logger:     logger,
		OnProgress: func(p crawler.Progress) {
			if p.Err != nil {
				logger.Warn("page failed", "url", p.URL, "attempts", p.Attempts, "error", p.Err, "done", p.Done, "total", p.Total)
				return
			}
			logger.Info("page done", "url", p.URL, "attempts", p.Attempts, "done", p.Done, "total", p.Total)
		},
	})

	collector, runErr := c.Run(ctx, urls)
	if runErr != nil {
		logger.Warn("crawl interrupted, reporting completed pages", "error", runErr, "pages", collector.Len())
	}

	if err := writeReports(cmd, cfg, domain, collector, logger); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("crawl interrupted: %w", runErr)
	}
	if cfg.FailOnError && len(collector.Failures()) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPagesFailed, len(collector.Failures()), len(urls))
	}
	return nil
}

// resolveURLs merges argument URLs with the sitemap and applies --match.
func resolveURLs(ctx context.Context, cfg RunConfig, args []string, logger *slog.Logger) ([]string, error) {
	urls := make([]string, 0, len(args))
	urls = append(urls, args...)

	if cfg.Sitemap != "" {
		fetcher := sitemap.NewFetcher(sitemap.Options{Logger: logger})
		locs, err := fetcher.Fetch(ctx, cfg.Sitemap)
		if err != nil {
			return nil, fmt.Errorf("failed to read sitemap: %w", err)
		}
		urls = append(urls, locs...)
	}

	mode := sitemap.PlainText
	if cfg.Regex {
		mode = sitemap.Regex
	}
	filter, err := sitemap.NewFilter(cfg.Match, mode)
	if err != nil {
		return nil, fmt.Errorf("invalid --match: %w", err)
	}
	urls = filter.Apply(urls)

	if len(urls) == 0 {
		return nil, sitemap.ErrNoURLs
	}
	return urls, nil
}

// reportDomain names the report files after the sitemap host, or the first page's host.
func reportDomain(sitemapURL string, urls []string) string {
	if sitemapURL != "" {
		if domain := sitemap.Domain(sitemapURL); domain != "" {
			return domain
		}
	}
	for _, u := range urls {
		if domain := sitemap.Domain(u); domain != "" {
			return domain
		}
	}
	return "harsize"
}

// writeReports summarizes the collected pages and writes every configured sink.
// Failed URLs are written even when no page succeeded.
func writeReports(cmd *cobra.Command, cfg RunConfig, domain string, collector *motor.Collector, logger *slog.Logger) error {
	writer := report.NewWriter(cfg.OutputDir, domain, logger)
	failures := collector.Failures()

	results := collector.Results()
	motor.SortByURL(results)

	summary, err := motor.Summarize(results, motor.SummaryOptions{Logger: logger})
	if err != nil {
		if len(failures) > 0 {
			if werr := writer.WriteErrors(failures); werr != nil {
				logger.Error("failed to write errors file", "error", werr)
			}
		}
		return fmt.Errorf("no report written: %w", err)
	}

	if err := writer.WriteAll(results, summary, failures); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	paths := writer.Paths()
	logger.Info("reports written",
		"run", summary.RunID,
		"pages", summary.Totals.Pages,
		"failed", len(failures),
		"summary", paths.Summary)

	if cfg.Print {
		if err := report.RenderTable(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	}
	if cfg.Chart != "" {
		if err := report.WriteSizeChartFile(cfg.Chart, summary); err != nil {
			return err
		}
		logger.Info("chart written", "path", cfg.Chart)
	}
	return nil
}
