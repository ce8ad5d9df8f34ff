package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/pb33f/harhar"
)

// ErrNavigationTimeout is returned when a page does not load within the page timeout.
var ErrNavigationTimeout = errors.New("navigation timed out")

// DOMContentLoadedScript evaluates to the ms between navigation start and DOMContentLoaded.
const DOMContentLoadedScript = `window.performance.timing.domContentLoadedEventStart - window.performance.timing.navigationStart`

const (
	sessionPageID   = "page_1"
	domEvalTimeout  = 5 * time.Second
	closeTimeout    = 5 * time.Second
	harCreatorName  = "harsize"
	harCreatorBuild = "1.0"
)

// Session is one browser used for one page.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	opts      Options
	logger    *slog.Logger
	navigated atomic.Bool
	closed    atomic.Bool
}

// Capture navigates to pageURL and returns the HAR recorded while the page loaded.
// Cancelling ctx aborts the navigation and discards what was recorded.
func (s *Session) Capture(ctx context.Context, pageURL string) (*harhar.HAR, error) {
	if s.closed.Load() {
		return nil, errors.New("session is closed")
	}
	s.navigated.Store(false)

	rec := newRecorder(sessionPageID, pageURL)

	listenCtx, stopListening := context.WithCancel(s.ctx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, rec.handle)

	navCtx, cancel := context.WithTimeout(s.ctx, s.opts.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	startTime := time.Now()
	err := chromedp.Run(navCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(s.opts.SettleTime),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrNavigationTimeout, pageURL, s.opts.PageTimeout)
		}
		return nil, fmt.Errorf("failed to navigate to %s: %w", pageURL, err)
	}
	s.navigated.Store(true)

	har := rec.HAR()
	s.logger.Debug("page captured",
		"url", pageURL,
		"entries", len(har.Log.Entries),
		"capture_time", time.Since(startTime))

	return har, nil
}

// DOMContentLoaded reads the DOMContentLoaded time of the page last captured.
// It is unavailable when the last navigation failed or the session is closed.
func (s *Session) DOMContentLoaded() (float64, bool) {
	if s.closed.Load() || !s.navigated.Load() {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(s.ctx, domEvalTimeout)
	defer cancel()

	var ms float64
	if err := chromedp.Run(ctx, chromedp.Evaluate(DOMContentLoadedScript, &ms)); err != nil {
		s.logger.Debug("failed to read DOMContentLoaded", "error", err)
		return 0, false
	}
	if ms < 0 {
		return 0, false
	}
	return ms, true
}

// Close shuts the session's browser down. It is safe to call more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	defer s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to close browser: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to close browser: %w", ctx.Err())
	}
}
