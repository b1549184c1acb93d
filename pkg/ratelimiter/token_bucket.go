package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket is a RateLimiter that admits bursts up to a fixed capacity and
// refills continuously at a fixed rate. The summarization engine uses it to
// pace batch calls against the generation endpoint's per-minute quota.
type TokenBucket struct {
	mu         sync.Mutex
	fillRate   float64 // tokens added per second
	burst      float64
	available  float64
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket that refills rate tokens per second up
// to capacity.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		fillRate:   rate,
		burst:      float64(capacity),
		available:  float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow consumes one token if available. It never blocks; callers decide how
// to wait when the bucket is empty.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.available < 1 {
		return false
	}
	tb.available--
	return true
}

// refill credits the tokens accrued since the last refill, capped at the
// burst size. Callers must hold mu.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}
	tb.available += elapsed.Seconds() * tb.fillRate
	if tb.available > tb.burst {
		tb.available = tb.burst
	}
	tb.lastRefill = now
}

var _ RateLimiter = (*TokenBucket)(nil)
