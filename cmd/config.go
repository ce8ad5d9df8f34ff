package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pb33f/harsize/capture"
	"github.com/pb33f/harsize/crawler"
)

// RunConfig holds the settings of a crawl. It can be read from a YAML file with
// --config; flags set on the command line take precedence.
type RunConfig struct {
	Workers      int           `yaml:"workers"`
	PageTimeout  time.Duration `yaml:"pageTimeout"`
	SettleTime   time.Duration `yaml:"settleTime"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retryBackoff"`

	Headless    bool   `yaml:"headless"`
	BrowserPath string `yaml:"browserPath"`
	Proxy       string `yaml:"proxy"`
	UserAgent   string `yaml:"userAgent"`

	Sitemap string `yaml:"sitemap"`
	Domain  string `yaml:"domain"`
	Match   string `yaml:"match"`
	Regex   bool   `yaml:"regex"`

	OutputDir   string `yaml:"output"`
	SaveHAR     string `yaml:"saveHar"`
	Chart       string `yaml:"chart"`
	Print       bool   `yaml:"print"`
	FailOnError bool   `yaml:"failOnError"`
}

// DefaultRunConfig returns four workers, a 30 second page timeout and three
// attempts per page with a 2 second initial backoff.
func DefaultRunConfig() RunConfig {
	browser := capture.DefaultOptions()
	retry := capture.DefaultRetryPolicy()
	return RunConfig{
		Workers:      crawler.DefaultOptions().Workers,
		PageTimeout:  browser.PageTimeout,
		SettleTime:   browser.SettleTime,
		Retries:      retry.Attempts,
		RetryBackoff: retry.Backoff,
		Headless:     browser.Headless,
		OutputDir:    ".",
	}
}

// LoadRunConfig reads path over the defaults. Keys missing from the file keep
// their default value.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings a crawl cannot run with.
func (c RunConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page timeout must be positive, got %s", c.PageTimeout)
	}
	return nil
}

// BrowserOptions maps the config onto capture options.
func (c RunConfig) BrowserOptions() capture.Options {
	opts := capture.DefaultOptions()
	opts.Headless = c.Headless
	opts.ExecPath = c.BrowserPath
	opts.ProxyServer = c.Proxy
	opts.UserAgent = c.UserAgent
	opts.PageTimeout = c.PageTimeout
	opts.SettleTime = c.SettleTime
	return opts
}

// RetryPolicy maps the config onto a capture retry policy.
func (c RunConfig) RetryPolicy() capture.RetryPolicy {
	policy := capture.DefaultRetryPolicy()
	policy.Attempts = c.Retries
	policy.Backoff = c.RetryBackoff
	return policy
}

// bindRunFlags registers the crawl flags, writing into target.
func bindRunFlags(flags *pflag.FlagSet, target *RunConfig) {
	defaults := DefaultRunConfig()
	flags.IntVarP(&target.Workers, "workers", "w", defaults.Workers, "Number of pages loaded concurrently")
	flags.DurationVarP(&target.PageTimeout, "timeout", "t", defaults.PageTimeout, "Timeout for a single page load")
	flags.DurationVar(&target.SettleTime, "settle", defaults.SettleTime, "Time to keep recording after the load event")
	flags.IntVar(&target.Retries, "retries", defaults.Retries, "Attempts per page before it is reported as failed")
	flags.DurationVar(&target.RetryBackoff, "retry-backoff", defaults.RetryBackoff, "Wait before the first retry, doubled on every further attempt")
	flags.BoolVar(&target.Headless, "headless", defaults.Headless, "Run the browser without a window")
	flags.StringVar(&target.BrowserPath, "browser", "", "Path to the Chrome or Chromium binary")
	flags.StringVar(&target.Proxy, "proxy", "", "Proxy server the browser connects through")
	flags.StringVar(&target.UserAgent, "user-agent", "", "Override the browser user agent")
	flags.StringVarP(&target.Sitemap, "sitemap", "s", "", "Sitemap URL to read page URLs from")
	flags.StringVarP(&target.Domain, "domain", "d", "", "Report file prefix, defaults to the site's host")
	flags.StringVarP(&target.Match, "match", "m", "", "Only load URLs containing this text")
	flags.BoolVar(&target.Regex, "regex", false, "Treat --match as a regular expression")
	flags.StringVarP(&target.OutputDir, "output", "o", defaults.OutputDir, "Directory report files are appended to")
	flags.StringVar(&target.SaveHAR, "save-har", "", "Directory captured HAR files are saved to")
	flags.StringVar(&target.Chart, "chart", "", "Write a PNG size chart to this file")
	flags.BoolVarP(&target.Print, "print", "p", false, "Print the summary table to stdout")
	flags.BoolVar(&target.FailOnError, "fail-on-error", false, "Exit with status 1 when any page failed")
}

// mergeRunFlags overlays the flags the user set explicitly onto cfg.
func mergeRunFlags(cfg *RunConfig, flags *pflag.FlagSet, values RunConfig) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = values.Workers
		case "timeout":
			cfg.PageTimeout = values.PageTimeout
		case "settle":
			cfg.SettleTime = values.SettleTime
		case "retries":
			cfg.Retries = values.Retries
		case "retry-backoff":
			cfg.RetryBackoff = values.RetryBackoff
		case "headless":
			cfg.Headless = values.Headless
		case "browser":
			cfg.BrowserPath = values.BrowserPath
		case "proxy":
			cfg.Proxy = values.Proxy
		case "user-agent":
			cfg.UserAgent = values.UserAgent
		case "sitemap":
			cfg.Sitemap = values.Sitemap
		case "domain":
			cfg.Domain = values.Domain
		case "match":
			cfg.Match = values.Match
		case "regex":
			cfg.Regex = values.Regex
		case "output":
			cfg.OutputDir = values.OutputDir
		case "save-har":
			cfg.SaveHAR = values.SaveHAR
		case "chart":
			cfg.Chart = values.Chart
		case "print":
			cfg.Print = values.Print
		case "fail-on-error":
			cfg.FailOnError = values.FailOnError
		}
	})
}

// resolveRunConfig loads the --config file, if any, and applies explicit flags.
func resolveRunConfig(flags *pflag.FlagSet, values RunConfig) (RunConfig, error) {
	cfg := values
	if configFile != "" {
		loaded, err := LoadRunConfig(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		mergeRunFlags(&cfg, flags, values)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
