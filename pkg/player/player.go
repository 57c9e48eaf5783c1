// Package player owns the canonical player record and the registry that
// indexes it by player-id, connection-id, and session-id. Collapsing the
// teacher's dual entity/flat-record bookkeeping into a single owned
// record means no index can ever go stale: every index stores the same
// *Player pointer.
package player

import "github.com/StoreStation/gridwar/pkg/world"

// Player is the single owned record for a connected (or disconnected but
// not yet evicted) player. Mutated only under the action pipeline's
// writer lock.
type Player struct {
	ID       string
	Username string
	Color    string // HSL string or hue, as received at welcome
	Pos      world.Point
	Score    int
	Flags    int
	Alive    bool
	Connected bool

	ConnID    string
	SessionID string
}

// Public projects the fields the spec allows to leave the server in a
// viewport or leaderboard payload.
type Public struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	X         int         `json:"x"`
	Y         int         `json:"y"`
	Score     int         `json:"score"`
	Flags     int         `json:"flags"`
	Alive     bool        `json:"alive"`
	Connected bool        `json:"connected"`
	Color     string      `json:"color"`
}

// Public returns the sanitized projection of p.
func (p *Player) Public() Public {
	return Public{
		ID:        p.ID,
		Username:  p.Username,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		Score:     p.Score,
		Flags:     p.Flags,
		Alive:     p.Alive,
		Connected: p.Connected,
		Color:     p.Color,
	}
}

// ChebyshevDistance returns max(|dx|,|dy|) between two points, the
// adjacency metric used for tile actions and viewport membership.
func ChebyshevDistance(a, b world.Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
