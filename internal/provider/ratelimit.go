package provider

import (
	"context"
	"sync"
	"time"
)

// tokenBucket implements the per-provider rate shaping mentioned in
// spec.md §4.1. Each adapter constructor fixes its own requests/second
// rate; unlike the concurrency caps, the rates are not read from config.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	max        float64
	refillRate float64 // tokens per second
	last       time.Time
}

func newTokenBucket(ratePerSecond float64) *tokenBucket {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &tokenBucket{
		tokens:     ratePerSecond,
		max:        ratePerSecond,
		refillRate: ratePerSecond,
		last:       time.Now(),
	}
}

// wait blocks until a token is available or ctx is cancelled.
func (b *tokenBucket) wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(b.last).Seconds()
		b.tokens = min(b.max, b.tokens+elapsed*b.refillRate)
		b.last = now
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
