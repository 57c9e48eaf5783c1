package security

import (
	"testing"
	"time"
)

func TestGuardReplayDetection(t *testing.T) {
	g := NewGuard(DefaultReplayConfig())
	now := time.Now()

	v, _ := g.Check("p1", ActionFlip, "10,10", now)
	if v != ViolationNone {
		t.Fatalf("first action should be clean, got %v", v)
	}

	v, sev := g.Check("p1", ActionFlip, "10,10", now.Add(50*time.Millisecond))
	if v != ViolationReplay {
		t.Fatalf("identical action within 100ms should be a replay, got %v", v)
	}
	if sev != SeverityHigh {
		t.Fatalf("replay should be high severity, got %v", sev)
	}
}

func TestGuardDuplicateDetection(t *testing.T) {
	g := NewGuard(DefaultReplayConfig())
	now := time.Now()

	g.Check("p1", ActionFlag, "5,5", now)
	v, _ := g.Check("p1", ActionFlag, "5,5", now.Add(500*time.Millisecond))
	if v != ViolationDuplicate {
		t.Fatalf("identical (kind,payload) within 1s should be a duplicate, got %v", v)
	}
}

func TestGuardReplayStrikesAccumulate(t *testing.T) {
	g := NewGuard(DefaultReplayConfig())
	now := time.Now()

	g.Check("p1", ActionFlip, "1,1", now)
	for i := 0; i < 3; i++ {
		g.Check("p1", ActionFlip, "1,1", now.Add(time.Duration(i)*10*time.Millisecond))
	}

	strikes, flagged := g.ReplayStrikes("p1")
	if strikes < 3 {
		t.Fatalf("expected at least 3 replay strikes, got %d", strikes)
	}
	if !flagged {
		t.Fatalf("expected player flagged for review at >=3 strikes")
	}
}

func TestGuardFlagUnflagAlternationSequence(t *testing.T) {
	cfg := DefaultReplayConfig()
	g := NewGuard(cfg)
	now := time.Now()

	kinds := []ActionKind{ActionFlag, ActionUnflag, ActionFlag, ActionUnflag, ActionFlag, ActionUnflag}
	var last Violation
	for i, k := range kinds {
		payload := payloadFor(i)
		v, _ := g.Check("p1", k, payload, now.Add(time.Duration(i)*200*time.Millisecond))
		last = v
	}
	if last != ViolationSequence {
		t.Fatalf("6 alternations should trip the sequence guard, got %v", last)
	}
}

func payloadFor(i int) string {
	digits := "0123456789"
	return string(digits[i%10])
}
