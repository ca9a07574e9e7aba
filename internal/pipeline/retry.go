package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talentos/internal/extractor"
)

// RetryConfig holds bounded exponential-backoff retry settings.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ApplyDefaults applies default values to the retry configuration.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
}

// BackoffDelay returns the delay before the given attempt's successor:
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (c *RetryConfig) BackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// RetryExecutor runs one unit of work with bounded retry on transient
// failures. Permanent failures are surfaced immediately; exhausting the
// attempt budget returns the last error.
type RetryExecutor struct {
	cfg RetryConfig
}

// NewRetryExecutor creates a RetryExecutor with defaults applied.
func NewRetryExecutor(cfg RetryConfig) *RetryExecutor {
	cfg.ApplyDefaults()
	return &RetryExecutor{cfg: cfg}
}

// Run invokes op up to MaxAttempts times. Between attempts it waits the
// backoff delay (or the upstream Retry-After when one was given, capped at
// MaxDelay). The op must be re-issuable: nothing happens between attempts
// beyond the wait.
func (r *RetryExecutor) Run(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !extractor.IsTransient(err) {
			return err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := r.retryDelay(err, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", r.cfg.MaxAttempts, lastErr)
}

// retryDelay prefers the upstream's Retry-After over the computed backoff.
func (r *RetryExecutor) retryDelay(err error, attempt int) time.Duration {
	var rlErr *extractor.RateLimitError
	if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
		if rlErr.RetryAfter > r.cfg.MaxDelay {
			return r.cfg.MaxDelay
		}
		return rlErr.RetryAfter
	}
	return r.cfg.BackoffDelay(attempt)
}
