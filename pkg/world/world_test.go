package world

import "testing"

func newTestWorld() *World {
	return Generate(GenConfig{Size: 50, MineDensity: 0.08, FlagDensity: 0.02, SpawnCount: 10, SpawnMargin: 5}, 3)
}

func TestWalkable(t *testing.T) {
	tests := []struct {
		name string
		tile Tile
		want bool
	}{
		{"covered", Tile{Kind: KindCovered}, false},
		{"revealed empty", Tile{Kind: KindEmpty, Revealed: true}, true},
		{"revealed numbered", Tile{Kind: KindNumbered, Revealed: true, Number: 3}, true},
		{"revealed mine", Tile{Kind: KindMine, Revealed: true}, false},
		{"flagged covered", Tile{Kind: KindCovered, Flagged: true}, true},
		{"flagged mine", Tile{Kind: KindMine, Flagged: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tile.Walkable(); got != tt.want {
				t.Errorf("Walkable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlayerIndexMoves(t *testing.T) {
	w := newTestWorld()
	w.SetPlayerAt("p1", Point{}, Point{X: 10, Y: 10}, false)
	if id, ok := w.PlayerAt(10, 10); !ok || id != "p1" {
		t.Fatalf("expected p1 at (10,10), got %q ok=%v", id, ok)
	}
	w.SetPlayerAt("p1", Point{X: 10, Y: 10}, Point{X: 11, Y: 10}, true)
	if _, ok := w.PlayerAt(10, 10); ok {
		t.Fatalf("expected old position cleared")
	}
	if id, ok := w.PlayerAt(11, 10); !ok || id != "p1" {
		t.Fatalf("expected p1 at (11,10), got %q ok=%v", id, ok)
	}
}

func TestGameEndAndProgress(t *testing.T) {
	w := newTestWorld()
	w.totalMines = 3
	w.flaggedMines = 0
	if w.GameEnded() {
		t.Fatalf("game should not have ended yet")
	}
	if w.Progress() != 0 {
		t.Fatalf("progress should be 0, got %d", w.Progress())
	}
	w.MarkMineFlagged()
	w.MarkMineFlagged()
	if w.Progress() != 66 {
		t.Fatalf("progress should floor to 66, got %d", w.Progress())
	}
	w.MarkMineFlagged()
	if !w.GameEnded() {
		t.Fatalf("game should have ended once every mine is flagged")
	}
}

func TestVersionBumpsOnMutation(t *testing.T) {
	w := newTestWorld()
	v0 := w.Version()
	w.SetTile(Tile{X: 1, Y: 1, Kind: KindEmpty, Revealed: true})
	if w.Version() == v0 {
		t.Fatalf("expected version to change after SetTile")
	}
}
