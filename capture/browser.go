package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Options configure the browser every session is started from.
type Options struct {
	Headless     bool
	ExecPath     string // browser binary, found on PATH when empty
	ProxyServer  string // e.g. http://127.0.0.1:8080
	UserAgent    string
	WindowWidth  int
	WindowHeight int

	// PageTimeout bounds a single navigation.
	PageTimeout time.Duration

	// SettleTime is waited after the load event so late requests are recorded.
	SettleTime time.Duration

	Logger *slog.Logger
}

// DefaultOptions returns headless options with a 30 second page timeout.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		WindowWidth:  1366,
		WindowHeight: 768,
		PageTimeout:  30 * time.Second,
		SettleTime:   500 * time.Millisecond,
	}
}

// Browser owns the exec allocator sessions are launched from.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	opts     Options
	logger   *slog.Logger
}

// NewBrowser prepares an allocator. No process is started until a session is opened.
func NewBrowser(ctx context.Context, opts Options) *Browser {
	defaults := DefaultOptions()
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaults.PageTimeout
	}
	if opts.SettleTime < 0 {
		opts.SettleTime = 0
	}
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = defaults.WindowWidth, defaults.WindowHeight
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	return &Browser{
		allocCtx: allocCtx,
		cancel:   cancel,
		opts:     opts,
		logger:   logger,
	}
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	return allocOpts
}

// NewSession launches a browser of its own for one page.
func (b *Browser) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessionCtx, cancel := chromedp.NewContext(b.allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			b.logger.Debug("chromedp", "error", fmt.Sprintf(format, args...))
		}),
	)

	// the first run starts the browser; it must not carry a deadline or the
	// browser dies with it
	if err := chromedp.Run(sessionCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		ctx:    sessionCtx,
		cancel: cancel,
		opts:   b.opts,
		logger: b.logger,
	}, nil
}

// Check opens and closes one session to prove a browser can be launched at all.
func (b *Browser) Check(ctx context.Context) error {
	session, err := b.NewSession(ctx)
	if err != nil {
		return err
	}
	return session.Close()
}

// Close stops the allocator and any browser still running.
func (b *Browser) Close() {
	b.cancel()
}
