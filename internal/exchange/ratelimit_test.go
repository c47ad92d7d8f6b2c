package exchange

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterWaitImmediateWithinBurst(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		start := time.Now()
		if err := rl.Book.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() returned error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Errorf("Wait() took %v, expected immediate within burst (call %d)", elapsed, i)
		}
	}
}

func TestRateLimiterWaitRespectsContextCancellation(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter()

	// Drain the burst so the next Wait would otherwise block.
	for rl.Order.Allow() {
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Order.Wait(ctx); err == nil {
		t.Fatal("expected Wait() to return an error for a cancelled context")
	}
}
