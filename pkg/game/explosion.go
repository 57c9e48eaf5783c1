package game

import (
	"time"

	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/world"
)

// ExplosionRadius resolves spec.md §9's open question: the source used 3
// in documentation and one code path, 2 in another. This build uses 3
// uniformly for reveal, kill, and chain-trigger (see DESIGN.md).
const ExplosionRadius = 3

// explodeAt implements spec.md §4.6's explosion rule: every cell with
// dx²+dy²≤R² is revealed and marked exploded (non-origin cells additionally
// become kind=explosion); every not-yet-exploded mine in the radius is
// scheduled for a chained explosion 100ms later, re-entering the engine
// lock per spec.md §5; every alive player within Euclidean distance R of
// the origin dies. Callers must hold e.mu; the scheduled chain reactions
// acquire it themselves when they fire.
//
// actor is the player whose flip triggered this explosion (nil for a
// chain reaction). When non-nil, its viewport-update and the triggering
// tile-update are published immediately after the tile mutation above —
// and before the explosion/death broadcasts below — so the actor's own
// view reflects the just-revealed tile first, per spec.md §5.
func (e *Engine) explodeAt(origin world.Point, chained bool, actor *player.Player, viewportW, viewportH int) {
	r2 := ExplosionRadius * ExplosionRadius

	var affected []protocol.ExplosionTile
	var chainMines []world.Point

	for dy := -ExplosionRadius; dy <= ExplosionRadius; dy++ {
		for dx := -ExplosionRadius; dx <= ExplosionRadius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			x, y := origin.X+dx, origin.Y+dy
			t, ok := e.World.Tile(x, y)
			if !ok {
				continue
			}
			isOrigin := dx == 0 && dy == 0

			if !t.Exploded {
				if t.Kind == world.KindMine && !isOrigin {
					chainMines = append(chainMines, world.Point{X: x, Y: y})
				}
				updated := t
				updated.Revealed = true
				updated.Exploded = true
				if !isOrigin {
					updated.Kind = world.KindExplosion
				}
				e.World.SetTile(updated)
			}

			affected = append(affected, protocol.ExplosionTile{
				X: x, Y: y, Kind: t.Kind.String(), Exploded: true,
			})
		}
	}

	if actor != nil {
		e.publishViewport(actor, viewportW, viewportH)
		e.publishTileUpdate(origin.X, origin.Y, "flip", actor.ID)
	}

	var killed []string
	e.Players.Each(func(p *player.Player) {
		if !p.Alive {
			return
		}
		fx, fy := float64(p.Pos.X-origin.X), float64(p.Pos.Y-origin.Y)
		if fx*fx+fy*fy <= float64(r2) {
			p.Alive = false
			killed = append(killed, p.ID)
		}
	})

	e.metrics.ObserveExplosion(chained)
	e.publish(Broadcast{
		Topic: protocol.TopicExplosion,
		Payload: protocol.Explosion{
			X:             origin.X,
			Y:             origin.Y,
			AffectedTiles: affected,
			KilledPlayers: killed,
		},
	})

	for _, pid := range killed {
		e.publish(Broadcast{
			Topic:   protocol.TopicPlayerDeath,
			Payload: protocol.PlayerDeath{PlayerID: pid, Reason: "explosion", Delay: 1500},
		})
		if p, ok := e.Players.ByID(pid); ok {
			e.publishPlayerUpdate(p)
		}
	}

	for _, m := range chainMines {
		origin := m
		time.AfterFunc(100*time.Millisecond, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.explodeAt(origin, true, nil, 0, 0)
		})
	}
}
