package player

import (
	"testing"

	"github.com/StoreStation/gridwar/pkg/world"
)

func TestChebyshevDistance(t *testing.T) {
	tests := []struct {
		a, b world.Point
		want int
	}{
		{world.Point{X: 0, Y: 0}, world.Point{X: 0, Y: 0}, 0},
		{world.Point{X: 0, Y: 0}, world.Point{X: 1, Y: 0}, 1},
		{world.Point{X: 0, Y: 0}, world.Point{X: 1, Y: 1}, 1},
		{world.Point{X: 0, Y: 0}, world.Point{X: 3, Y: 1}, 3},
		{world.Point{X: 5, Y: 5}, world.Point{X: 2, Y: 1}, 4},
	}
	for _, tt := range tests {
		if got := ChebyshevDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("ChebyshevDistance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegistryAddBindRemove(t *testing.T) {
	r := NewRegistry()
	p := &Player{ID: "p1", ConnID: "c1", SessionID: "s1"}
	r.Add(p)

	if _, ok := r.ByID("p1"); !ok {
		t.Fatalf("expected player by id")
	}
	if _, ok := r.ByConn("c1"); !ok {
		t.Fatalf("expected player by conn")
	}
	if _, ok := r.BySession("s1"); !ok {
		t.Fatalf("expected player by session")
	}

	r.UnbindConn("c1")
	if _, ok := r.ByConn("c1"); ok {
		t.Fatalf("expected conn unbound")
	}
	if _, ok := r.ByID("p1"); !ok {
		t.Fatalf("player record should survive disconnect")
	}

	r.BindConn("c2", p)
	if got, ok := r.ByConn("c2"); !ok || got != p {
		t.Fatalf("expected reconnect to rebind conn")
	}

	r.Remove("p1")
	if _, ok := r.ByID("p1"); ok {
		t.Fatalf("expected player removed")
	}
	if _, ok := r.ByConn("c2"); ok {
		t.Fatalf("expected conn index cleared on remove")
	}
	if _, ok := r.BySession("s1"); ok {
		t.Fatalf("expected session index cleared on remove")
	}
}

func TestRegistryWithin(t *testing.T) {
	r := NewRegistry()
	r.Add(&Player{ID: "near", Pos: world.Point{X: 10, Y: 10}, Connected: true})
	r.Add(&Player{ID: "far", Pos: world.Point{X: 50, Y: 50}, Connected: true})

	within := r.Within(world.Point{X: 10, Y: 11}, 2)
	if len(within) != 1 || within[0].ID != "near" {
		t.Fatalf("expected only 'near' within radius, got %+v", within)
	}
}

func TestRegistryWithinExcludesDisconnected(t *testing.T) {
	r := NewRegistry()
	r.Add(&Player{ID: "near-connected", Pos: world.Point{X: 10, Y: 10}, Connected: true})
	r.Add(&Player{ID: "near-disconnected", Pos: world.Point{X: 10, Y: 11}, Connected: false})

	within := r.Within(world.Point{X: 10, Y: 11}, 2)
	if len(within) != 1 || within[0].ID != "near-connected" {
		t.Fatalf("expected only the connected player within radius, got %+v", within)
	}
}
