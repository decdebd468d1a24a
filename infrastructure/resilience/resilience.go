// Package resilience bounds subprocess concurrency and call rate using
// fortify. Nothing here retries: every failure surfaces once.
package resilience

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"
)

// ErrRateLimited indicates a call was refused by the rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// Config configures the limiters.
type Config struct {
	// MaxConcurrent limits simultaneous executions.
	MaxConcurrent int

	// Rate is the number of calls admitted per second. Zero disables rate limiting.
	Rate int

	// Burst is the maximum number of calls admitted at once.
	Burst int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
	}
}

// Limiter bounds concurrent executions producing T.
type Limiter[T any] struct {
	bulkhead bulkhead.Bulkhead[T]
	max      int
}

// NewLimiter creates a limiter admitting at most maxConcurrent executions.
func NewLimiter[T any](maxConcurrent int) *Limiter[T] {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Limiter[T]{
		bulkhead: bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		max: maxConcurrent,
	}
}

// Execute runs fn inside the bulkhead.
func (l *Limiter[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return l.bulkhead.Execute(ctx, fn)
}

// MaxConcurrent returns the configured bound.
func (l *Limiter[T]) MaxConcurrent() int {
	return l.max
}

// RateLimiter admits calls by key using a token bucket.
type RateLimiter struct {
	limiter ratelimit.RateLimiter
}

// NewRateLimiter creates a rate limiter, or nil when cfg.Rate is zero.
func NewRateLimiter(cfg Config) *RateLimiter {
	if cfg.Rate <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Rate
	}
	return &RateLimiter{
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:  cfg.Rate,
			Burst: burst,
		}),
	}
}

// Allow reports whether a call for key may proceed. A nil limiter admits
// everything.
func (r *RateLimiter) Allow(ctx context.Context, key string) error {
	if r == nil {
		return nil
	}
	if !r.limiter.Allow(ctx, key) {
		return ErrRateLimited
	}
	return nil
}
