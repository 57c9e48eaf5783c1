package game

import (
	"testing"
	"time"

	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/security"
	"github.com/StoreStation/gridwar/pkg/world"
)

// TestAdjacencyScenario exercises spec.md §8 scenario 1: a non-adjacent
// move is rejected, a move onto a covered tile is rejected, and a move
// following an adjacent flip succeeds.
func TestAdjacencyScenario(t *testing.T) {
	e, _, _ := newTestEngine(t, 200)
	sa, w := welcomePlayer(t, e, "conn1", "alice")

	spawn := e.World.SpawnPoints()[0]
	sX, sY := spawn.X, spawn.Y

	// The tile this scenario flips must already carry a real kind, as
	// world generation always assigns one; NewWorld-only test boards
	// default to KindCovered, so seed it explicitly.
	e.World.SetTile(world.Tile{X: sX + 1, Y: sY, Kind: world.KindEmpty})

	res := e.Handle(w.PlayerID, sa.SessionID, sa.SessionToken, protocol.ActionMove, sX+2, sY, 0, 0)
	if res.Accepted || res.Reason != ReasonNonAdjacent {
		t.Fatalf("move by 2 should be non_adjacent, got %+v", res)
	}

	res = e.Handle(w.PlayerID, sa.SessionID, sa.SessionToken, protocol.ActionMove, sX+1, sY, 0, 0)
	if res.Accepted || res.Reason != ReasonNotWalkable {
		t.Fatalf("move onto covered tile should be not_walkable, got %+v", res)
	}

	res = e.Handle(w.PlayerID, sa.SessionID, sa.SessionToken, protocol.ActionFlip, sX+1, sY, 0, 0)
	if !res.Accepted {
		t.Fatalf("adjacent flip of empty tile should be accepted, got %+v", res)
	}

	res = e.Handle(w.PlayerID, sa.SessionID, sa.SessionToken, protocol.ActionMove, sX+1, sY, 0, 0)
	if !res.Accepted {
		t.Fatalf("move onto now-revealed tile should be accepted, got %+v", res)
	}

	p, _ := e.Players.ByID(w.PlayerID)
	if p.Pos.X != sX+1 || p.Pos.Y != sY {
		t.Fatalf("expected final position (%d,%d), got %v", sX+1, sY, p.Pos)
	}
}

// TestRateLimitScenario exercises spec.md §8 scenario 6: a 6th flip
// within 1s is rejected with medium severity and never reaches the rules.
func TestRateLimitScenario(t *testing.T) {
	e, _, clock := newTestEngine(t, 200)
	sa, w := welcomePlayer(t, e, "conn1", "alice")

	spawn := e.World.SpawnPoints()[0]
	sX, sY := spawn.X, spawn.Y
	for i := 0; i < 8; i++ {
		x := sX + 1
		if i%2 == 1 {
			x = sX - 1
		}
		e.World.SetTile(world.Tile{X: x, Y: sY, Kind: world.KindEmpty})
	}

	var last Result
	for i := 0; i < 6; i++ {
		x := sX + 1
		if i%2 == 1 {
			x = sX - 1
		}
		last = e.Handle(w.PlayerID, sa.SessionID, sa.SessionToken, protocol.ActionFlip, x, sY, 0, 0)
		clock.Advance(10 * time.Millisecond)
	}

	if last.Accepted || last.Reason != ReasonRateLimited {
		t.Fatalf("6th flip within 1s should be rate_limited, got %+v", last)
	}
	if last.Severity != security.SeverityMedium {
		t.Fatalf("rate limit rejection should be medium severity, got %v", last.Severity)
	}
}
