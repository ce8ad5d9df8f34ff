package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy retries page loads a fixed number of times with exponential backoff.
type RetryPolicy struct {
	Attempts   int           // total tries, at least 1
	Backoff    time.Duration // wait before the second try
	Multiplier float64       // backoff growth per try
}

// DefaultRetryPolicy tries three times, waiting 2s then 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   3,
		Backoff:    2 * time.Second,
		Multiplier: 2,
	}
}

// Delay returns the wait before try number attempt (1-based). The first try never waits.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.Backoff <= 0 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(p.Backoff)
	for i := 2; i < attempt; i++ {
		delay *= multiplier
	}
	return time.Duration(delay)
}

// Do calls fn until it succeeds, the attempts run out or ctx is done. It returns
// the number of tries made. Context cancellation is never retried.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, fn func(ctx context.Context, attempt int) error) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := max(p.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt - 1, ctx.Err()
			case <-timer.C:
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return attempt, err
		}
		if attempt < attempts {
			logger.Warn("page load failed, retrying",
				"attempt", attempt,
				"of", attempts,
				"backoff", p.Delay(attempt+1),
				"error", err)
		}
	}

	return attempts, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
