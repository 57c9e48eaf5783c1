package security

import (
	"testing"
	"time"
)

func TestRateLimiterPerKindLimit(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimitConfig())
	now := time.Now()

	for i := 0; i < 5; i++ {
		if !rl.Allow("p1", ActionFlip, now) {
			t.Fatalf("flip %d should be admitted", i+1)
		}
	}
	if rl.Allow("p1", ActionFlip, now) {
		t.Fatalf("6th flip within 1s should be rejected")
	}
}

func TestRateLimiterGlobalCap(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	rl := NewRateLimiter(cfg)
	now := time.Now()

	admitted := 0
	kinds := []ActionKind{ActionMove, ActionFlip, ActionFlag, ActionUnflag}
	for i := 0; i < 30; i++ {
		kind := kinds[i%len(kinds)]
		if rl.Allow("p1", kind, now) {
			admitted++
		}
	}
	if admitted > cfg.GlobalLimit {
		t.Fatalf("admitted %d actions, global cap is %d", admitted, cfg.GlobalLimit)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimitConfig())
	now := time.Now()

	for i := 0; i < 5; i++ {
		rl.Allow("p1", ActionFlag, now)
	}
	if rl.Allow("p1", ActionFlag, now) {
		t.Fatalf("6th flag within window should be rejected")
	}
	later := now.Add(1100 * time.Millisecond)
	if !rl.Allow("p1", ActionFlag, later) {
		t.Fatalf("flag after window should be admitted")
	}
}

func TestRateLimiterGC(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.RecordTTL = 10 * time.Millisecond
	rl := NewRateLimiter(cfg)
	now := time.Now()
	rl.Allow("p1", ActionMove, now)

	w := rl.windowFor("p1")
	w.mu.Lock()
	before := len(w.records)
	w.mu.Unlock()
	if before == 0 {
		t.Fatalf("expected a recorded action")
	}

	time.Sleep(20 * time.Millisecond)
	rl.gc()

	w.mu.Lock()
	after := len(w.records)
	w.mu.Unlock()
	if after != 0 {
		t.Fatalf("expected gc to purge stale records, got %d remaining", after)
	}
}
