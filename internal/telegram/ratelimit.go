package telegram

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a token bucket guarding outbound Telegram API calls.
// Telegram throttles bots around 30 messages per second; the bucket
// absorbs bursts and smooths sustained traffic to the configured rate.
type rateLimiter struct {
	rate     float64
	capacity int

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

func newRateLimiter(rate float64, capacity int) *rateLimiter {
	return &rateLimiter{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// wait blocks until a token is available or the context is cancelled.
func (r *rateLimiter) wait(ctx context.Context) error {
	for {
		if r.allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.waitDuration()):
		}
	}
}

// allow consumes a token when one is available.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// refill adds tokens for the elapsed time. Caller holds the lock.
func (r *rateLimiter) refill() {
	now := time.Now()
	r.tokens += now.Sub(r.lastRefill).Seconds() * r.rate
	if r.tokens > float64(r.capacity) {
		r.tokens = float64(r.capacity)
	}
	r.lastRefill = now
}

func (r *rateLimiter) waitDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		return 0
	}
	needed := 1 - r.tokens
	return time.Duration(needed / r.rate * float64(time.Second))
}
