package game

import (
	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/world"
)

// ruleMove implements spec.md §4.6's Move rule. Geometry (adjacency,
// bounds) is already checked by checkGeometry; this only enforces
// walkability and commits the position change. Callers must hold e.mu.
func (e *Engine) ruleMove(p *player.Player, x, y, viewportW, viewportH int) (bool, string) {
	t, ok := e.World.Tile(x, y)
	if !ok {
		return false, ReasonOutOfBounds
	}
	if !t.Walkable() {
		return false, ReasonNotWalkable
	}

	from := p.Pos
	to := world.Point{X: x, Y: y}
	e.World.SetPlayerAt(p.ID, from, to, true)
	p.Pos = to

	e.publishViewport(p, viewportW, viewportH)
	e.publishTileUpdate(x, y, "move", p.ID)
	e.publishPlayerUpdate(p)
	return true, ""
}

// ruleFlip implements spec.md §4.6's Flip rule: reveal a covered,
// unflagged tile. A mine triggers an explosion (the actor, standing
// adjacent, dies along with anyone else in range); a flag token grants a
// flag and a point and the cell becomes empty/numbered; anything else
// grants a point. No auto-flood, per spec.md §9's resolved open question.
func (e *Engine) ruleFlip(p *player.Player, x, y, viewportW, viewportH int) (bool, string) {
	t, ok := e.World.Tile(x, y)
	if !ok {
		return false, ReasonOutOfBounds
	}
	if t.Revealed {
		return false, ReasonAlreadyRevealed
	}
	if t.Flagged {
		return false, ReasonAlreadyFlagged
	}

	switch t.Kind {
	case world.KindMine:
		// explodeAt mutates the radius (including this tile) and, given
		// actor, publishes this player's viewport and the triggering
		// tile-update itself, right after the mutation and ahead of the
		// explosion/death broadcasts — see spec.md §5.
		e.explodeAt(world.Point{X: x, Y: y}, false, p, viewportW, viewportH)
		return true, ""

	case world.KindFlagToken:
		p.Flags++
		p.Score++
		updated := t
		updated.Revealed = true
		if n := e.World.CountAdjacentMines(x, y); n > 0 {
			updated.Kind = world.KindNumbered
			updated.Number = n
		} else {
			updated.Kind = world.KindEmpty
		}
		e.World.SetTile(updated)
		e.publishViewport(p, viewportW, viewportH)
		e.publishTileUpdate(x, y, "flip", p.ID)
		e.publishPlayerUpdate(p)
		e.publishLeaderboard()
		return true, ""

	case world.KindEmpty, world.KindNumbered:
		p.Score++
		updated := t
		updated.Revealed = true
		e.World.SetTile(updated)
		e.publishViewport(p, viewportW, viewportH)
		e.publishTileUpdate(x, y, "flip", p.ID)
		e.publishPlayerUpdate(p)
		e.publishLeaderboard()
		return true, ""

	default:
		return false, ReasonAlreadyRevealed
	}
}

// ruleFlag implements spec.md §4.6's Flag rule: consume one flag from
// inventory to mark a covered, unflagged tile. Flagging a mine scores a
// bonus and counts toward game end. Callers must hold e.mu.
func (e *Engine) ruleFlag(p *player.Player, x, y, viewportW, viewportH int) (bool, string) {
	t, ok := e.World.Tile(x, y)
	if !ok {
		return false, ReasonOutOfBounds
	}
	if t.Revealed {
		return false, ReasonAlreadyRevealed
	}
	if t.Flagged {
		return false, ReasonAlreadyFlagged
	}
	if p.Flags < 1 {
		return false, ReasonNoFlags
	}

	p.Flags--
	updated := t
	updated.Flagged = true
	updated.FlaggedBy = p.ID
	e.World.SetTile(updated)

	scoreChanged := false
	if t.Kind == world.KindMine {
		p.Score += 3
		scoreChanged = true
		e.World.MarkMineFlagged()
	}

	e.publishViewport(p, viewportW, viewportH)
	e.publishTileUpdate(x, y, "flag", p.ID)
	e.publishPlayerUpdate(p)
	if scoreChanged {
		e.publishLeaderboard()
	}
	e.maybeEndGame()
	return true, ""
}
