package gateway

import (
	"context"
	"testing"
	"time"
)

func TestLimiterBurst(t *testing.T) {
	l := NewTokenBucketLimiter(1, 5)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst took %v, want near-instant", elapsed)
	}
}

func TestLimiterThrottles(t *testing.T) {
	l := NewTokenBucketLimiter(100, 1)
	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("second Wait returned in %v, want throttled", elapsed)
	}
}

func TestLimiterContextCancel(t *testing.T) {
	l := NewTokenBucketLimiter(0.1, 1)
	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	cancelled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Fatal("want context error while throttled")
	}
}
