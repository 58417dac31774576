package provider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestConcurrencySemaphoreCapsInFlight(t *testing.T) {
	sem := newConcurrencySemaphore(2)
	ctx := context.Background()

	var inFlight, maxInFlight int64
	release := make(chan struct{})
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		go func() {
			if err := sem.acquire(ctx); err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&maxInFlight)
				if n <= old || atomic.CompareAndSwapInt64(&maxInFlight, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt64(&inFlight, -1)
			sem.release()
			done <- struct{}{}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&maxInFlight); got > 2 {
		t.Errorf("expected at most 2 concurrent holders, saw %d", got)
	}
	close(release)
	for i := 0; i < 5; i++ {
		<-done
	}
}

func TestTokenBucketPacesCalls(t *testing.T) {
	b := newTokenBucket(1000) // fast enough not to slow the test meaningfully
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := b.wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestTokenBucketRespectsCancellation(t *testing.T) {
	b := newTokenBucket(0.001) // effectively empty for the test's duration
	b.tokens = 0
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.wait(ctx); err == nil {
		t.Error("expected context deadline to cancel the wait")
	}
}
