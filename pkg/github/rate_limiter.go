package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterStats provides statistics about rate limiter usage
type RateLimiterStats struct {
	RemainingRequests int           `json:"remaining_requests"`
	ResetTime         time.Time     `json:"reset_time"`
	TotalWaits        int64         `json:"total_waits"`
	TotalDelayTime    time.Duration `json:"total_delay_time"`
}

// RateLimiterConfig configures the rate limiter behavior
type RateLimiterConfig struct {
	// RequestsPerSecond caps the steady request rate; zero disables it
	RequestsPerSecond float64
	Burst             int

	// MinRemainingRequests is the budget below which requests are slowed down
	MinRemainingRequests int

	// AggressiveThrottleDelay is the delay applied when the budget is nearly spent
	AggressiveThrottleDelay time.Duration

	// MaxDelay caps any single throttle delay
	MaxDelay time.Duration
}

// DefaultRateLimiterConfig returns a default rate limiter configuration
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MinRemainingRequests:    100,
		AggressiveThrottleDelay: 2 * time.Second,
		MaxDelay:                30 * time.Second,
	}
}

// RateLimiter throttles GraphQL requests. It combines a token bucket with
// the budget GitHub reports in the X-RateLimit-* response headers.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter

	mu        sync.Mutex
	remaining int
	resetTime time.Time
	stats     RateLimiterStats
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:    config,
		remaining: -1,
		now:       time.Now,
	}
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		rl.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	rl.stats.RemainingRequests = -1
	return rl
}

// Wait blocks until it's safe to make an API call
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter != nil {
		if err := rl.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	rl.mu.Lock()
	delay := rl.calculateAggressiveDelay()
	if delay > 0 {
		rl.stats.TotalWaits++
		rl.stats.TotalDelayTime += delay
	}
	rl.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Observe records the budget reported in GitHub's rate limit headers
func (rl *RateLimiter) Observe(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.remaining = remaining
	rl.stats.RemainingRequests = remaining
	if reset, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rl.resetTime = time.Unix(reset, 0)
		rl.stats.ResetTime = rl.resetTime
	}
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.stats
}

// calculateAggressiveDelay grows the delay as the reported budget shrinks.
// Callers hold rl.mu.
func (rl *RateLimiter) calculateAggressiveDelay() time.Duration {
	if rl.remaining < 0 || rl.config.MinRemainingRequests <= 0 {
		return 0
	}
	if !rl.resetTime.IsZero() && rl.now().After(rl.resetTime) {
		return 0
	}

	var delay time.Duration
	if rl.remaining == 0 {
		delay = rl.resetTime.Sub(rl.now())
	} else {
		remainingRatio := float64(rl.remaining) / float64(rl.config.MinRemainingRequests)
		if remainingRatio >= 1.0 {
			return 0
		}
		delay = time.Duration(float64(rl.config.AggressiveThrottleDelay) * (1.0 - remainingRatio))
	}

	if rl.config.MaxDelay > 0 && delay > rl.config.MaxDelay {
		delay = rl.config.MaxDelay
	}
	if delay < 0 {
		return 0
	}
	return delay
}
