// Package ratelimit throttles synthesis requests per caller.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerMinute is the sustained rate per caller. Zero or less
	// disables limiting.
	RequestsPerMinute int
	// Burst is how many requests a caller may send at once. Defaults to
	// RequestsPerMinute.
	Burst int
}

// Limiter keeps one token bucket per caller id.
type Limiter struct {
	config  Config
	mu      sync.Mutex
	buckets map[int64]*rate.Limiter
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	return &Limiter{
		config:  config,
		buckets: make(map[int64]*rate.Limiter),
	}
}

// Enabled reports whether requests are ever refused. A nil Limiter is disabled.
func (l *Limiter) Enabled() bool {
	return l != nil && l.config.RequestsPerMinute > 0
}

// Allow takes one token from callerID's bucket and reports whether it had one.
func (l *Limiter) Allow(callerID int64) bool {
	if !l.Enabled() {
		return true
	}
	return l.bucket(callerID).Allow()
}

// Wait blocks until callerID has a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, callerID int64) error {
	if !l.Enabled() {
		return nil
	}
	return l.bucket(callerID).Wait(ctx)
}

// RetryAfter estimates how long callerID must wait for the next token.
func (l *Limiter) RetryAfter(callerID int64) time.Duration {
	if !l.Enabled() {
		return 0
	}
	r := l.bucket(callerID).Reserve()
	defer r.Cancel()
	return r.Delay()
}

// Callers returns how many callers currently have a bucket.
func (l *Limiter) Callers() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) bucket(callerID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[callerID]
	if !ok {
		every := time.Minute / time.Duration(l.config.RequestsPerMinute)
		b = rate.NewLimiter(rate.Every(every), l.config.Burst)
		l.buckets[callerID] = b
	}
	return b
}
