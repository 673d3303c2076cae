package progressapi

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures the client-side token bucket.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained request budget.
	RequestsPerMinute int

	// Burst is the bucket capacity.
	Burst int
}

// DefaultRateLimiterConfig returns conservative defaults: the synchronizer
// fires every few minutes plus the 30s stats refresh, so the budget is tiny.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{RequestsPerMinute: 30, Burst: 10}
}

// RateLimiter is a token-bucket limiter for outbound Progress Service calls.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a limiter from the given config.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &RateLimiter{
		tokens:     float64(cfg.Burst),
		capacity:   float64(cfg.Burst),
		refillRate: float64(cfg.RequestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.retryAfter()):
		}
	}
}

func (rl *RateLimiter) take() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) retryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	missing := 1 - rl.tokens
	if missing <= 0 {
		return time.Millisecond
	}
	return time.Duration(missing / rl.refillRate * float64(time.Second))
}

// refill adds tokens for elapsed time. Caller holds the lock.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
}
