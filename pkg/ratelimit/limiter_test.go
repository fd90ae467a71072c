package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("Request %d should have been allowed", i+1)
		}
	}

	if tb.Allow() {
		t.Error("4th request should have been denied")
	}

	time.Sleep(110 * time.Millisecond)

	if !tb.Allow() {
		t.Error("Request should be allowed after refill")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(2, time.Hour)

	tb.Allow()
	tb.Allow()
	if tb.Allow() {
		t.Error("bucket should be empty")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Error("Request should be allowed after reset")
	}
}

func TestTokenBucketWaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err == nil {
		t.Error("expected Wait to return the context error")
	}
}

func TestTokenBucketWaitRefills(t *testing.T) {
	tb := NewTokenBucket(1, 30*time.Millisecond)
	tb.Allow()

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Wait returned before the bucket refilled")
	}
}

func TestPerMinute(t *testing.T) {
	if PerMinute(0) != nil {
		t.Error("expected nil limiter for zero rate")
	}
	if PerMinute(60) == nil {
		t.Error("expected limiter for positive rate")
	}
}
