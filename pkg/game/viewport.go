package game

import (
	"sort"

	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/world"
)

// DefaultViewportExtent is used when a client omits viewportWidth/Height.
const DefaultViewportExtent = 15

// MaxViewportExtent is the spec.md §4.7 cap on the requested half-extent.
const MaxViewportExtent = 100

// clampExtent applies the spec's viewport-extent cap, substituting the
// default for a non-positive request.
func clampExtent(v int) int {
	if v <= 0 {
		v = DefaultViewportExtent
	}
	if v > MaxViewportExtent {
		v = MaxViewportExtent
	}
	return v
}

// viewportPayload implements spec.md §4.7: the rectangle centered on the
// viewer intersected with world bounds, sanitized per-tile, plus every
// connected player within the same extent projected to public fields.
// Callers must hold e.mu.
func (e *Engine) viewportPayload(viewer *player.Player, tilesX, tilesY int) protocol.ViewportPayload {
	tilesX = clampExtent(tilesX)
	tilesY = clampExtent(tilesY)

	minX, maxX := viewer.Pos.X-tilesX, viewer.Pos.X+tilesX
	minY, maxY := viewer.Pos.Y-tilesY, viewer.Pos.Y+tilesY

	var tiles []protocol.TileView
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			t, ok := e.World.Tile(x, y)
			if !ok {
				continue
			}
			visible := t.Revealed || t.Flagged || player.ChebyshevDistance(world.Point{X: x, Y: y}, viewer.Pos) <= 1
			if !visible {
				continue
			}
			tv := protocol.TileView{X: x, Y: y, Revealed: t.Revealed, Flagged: t.Flagged}
			if t.Revealed {
				tv.Kind = t.Kind.String()
				tv.Number = t.Number
				tv.Exploded = t.Exploded
			}
			tiles = append(tiles, tv)
		}
	}

	radius := tilesX
	if tilesY > radius {
		radius = tilesY
	}
	nearby := e.Players.Within(viewer.Pos, radius)
	players := make([]any, 0, len(nearby))
	for _, p := range nearby {
		players = append(players, p.Public())
	}

	return protocol.ViewportPayload{Tiles: tiles, Players: players}
}

// publishViewport unicasts a spec.md §4.7 viewport-update to the acting
// player. Per §5 ordering this must be enqueued before any broadcast
// derived from the same action.
func (e *Engine) publishViewport(p *player.Player, tilesX, tilesY int) {
	vp := e.viewportPayload(p, tilesX, tilesY)
	e.publish(Broadcast{
		Topic:  protocol.TopicViewportUpdate,
		Target: p.ID,
		Payload: protocol.ViewportUpdate{
			TargetPlayerID: p.ID,
			Tiles:          vp.Tiles,
			Players:        vp.Players,
		},
	})
}

// leaderboardEntries builds the sorted, score>0-filtered leaderboard of
// spec.md §6.
func (e *Engine) leaderboardEntries() []protocol.LeaderboardEntry {
	var out []protocol.LeaderboardEntry
	e.Players.Each(func(p *player.Player) {
		if p.Score <= 0 {
			return
		}
		out = append(out, protocol.LeaderboardEntry{
			ID:       p.ID,
			Username: p.Username,
			Score:    p.Score,
			Flags:    p.Flags,
			Alive:    p.Alive,
			Color:    p.Color,
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
