package server

import (
	"testing"
	"time"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two hits should pass")
	}
	if rl.allow("a") {
		t.Fatal("third hit inside the window should be rejected")
	}
	if !rl.allow("b") {
		t.Error("keys are independent")
	}

	// The window slides: 61s later the old hits have expired.
	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Error("hit after the window slid should pass")
	}
}

func TestRateLimiterPartialSlide(t *testing.T) {
	base := time.Now()
	now := base
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	rl.allow("a") // t=0
	now = base.Add(40 * time.Second)
	rl.allow("a") // t=40

	now = base.Add(70 * time.Second) // first hit expired, second still live
	if !rl.allow("a") {
		t.Fatal("one slot should have freed up")
	}
	if rl.allow("a") {
		t.Error("window still holds two recent hits")
	}
}
