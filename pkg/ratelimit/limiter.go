// Package ratelimit throttles transfer streams with a shared token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// minBurst keeps small limits from degenerating into tiny reads
const minBurst = 64 * 1024

// Limiter is a token bucket shared by every stream of a transfer.
// A nil *Limiter never blocks.
type Limiter struct {
	rate  int64 // bytes per second
	burst int64 // bucket capacity

	mu     sync.Mutex
	tokens int64
	last   time.Time
}

// NewLimiter returns a limiter for bytesPerSecond, or nil when the value
// is not positive
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}
	return &Limiter{
		rate:   bytesPerSecond,
		burst:  burst,
		tokens: burst,
		last:   time.Now(),
	}
}

// Rate returns the configured bytes per second, 0 for a nil limiter
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.rate
}

// chunk caps a single request to the bucket size
func (l *Limiter) chunk(n int) int {
	if l == nil || int64(n) <= l.burst {
		return n
	}
	return int(l.burst)
}

// WaitN blocks until n bytes may pass or ctx is done. n must not exceed
// the burst size; callers split larger requests with chunk.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil {
		return ctx.Err()
	}

	for {
		l.mu.Lock()
		l.refill(time.Now())
		if l.tokens >= int64(n) {
			l.tokens -= int64(n)
			l.mu.Unlock()
			return nil
		}
		deficit := int64(n) - l.tokens
		l.mu.Unlock()

		wait := time.Duration(float64(deficit) / float64(l.rate) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refund returns tokens reserved for bytes that were not transferred
func (l *Limiter) refund(n int) {
	if l == nil || n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens += int64(n)
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
}

// refill must be called with mu held
func (l *Limiter) refill(now time.Time) {
	add := int64(now.Sub(l.last).Seconds() * float64(l.rate))
	if add <= 0 {
		return
	}
	l.tokens += add
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
}
