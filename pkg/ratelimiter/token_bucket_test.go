package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucketBurstThenRefill(t *testing.T) {
	tb := NewTokenBucket(100, 2)

	if !tb.Allow() || !tb.Allow() {
		t.Fatal("full bucket rejected a request within its burst")
	}
	if tb.Allow() {
		t.Error("empty bucket admitted a request")
	}

	time.Sleep(30 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket did not refill at the configured rate")
	}
}

func TestTokenBucketZeroRateNeverAdmits(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	if tb.Allow() {
		t.Fatal("zero-rate bucket admitted a request")
	}
	time.Sleep(20 * time.Millisecond)
	if tb.Allow() {
		t.Error("zero-rate bucket admitted a request after waiting")
	}
}
