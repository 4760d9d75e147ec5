package github

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryConfig configures retries of rate limit and network errors
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration
	// MaxBackoff caps any single wait
	MaxBackoff time.Duration
	// BackoffMultiplier grows the wait after every attempt
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: a single
// round trip per operation.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        0,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// backoff returns the wait before retry number attempt (zero based)
func (c *RetryConfig) backoff(attempt int) time.Duration {
	multiplier := c.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	wait := float64(c.InitialBackoff) * math.Pow(multiplier, float64(attempt))
	if c.MaxBackoff > 0 && wait > float64(c.MaxBackoff) {
		wait = float64(c.MaxBackoff)
	}
	return time.Duration(wait)
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func(ctx context.Context) error

// WithRetry runs operation, retrying retryable GitHubErrors up to MaxRetries times
func WithRetry(ctx context.Context, operation RetryableOperation, config *RetryConfig) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(config.backoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}

		var ghErr *GitHubError
		if !errors.As(lastErr, &ghErr) || !ghErr.IsRetryable() {
			return lastErr
		}
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, lastErr)
}
