package game

import (
	"fmt"

	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/security"
	"github.com/StoreStation/gridwar/pkg/world"
)

// Rejection reasons. Rule-error reasons are expected during normal play
// and never logged above debug (spec.md §7); security and authorization
// reasons are the ones worth a caller's attention.
const (
	ReasonBanned          = "banned"
	ReasonUnknownPlayer   = "unknown_player"
	ReasonDead            = "dead"
	ReasonInvalidSession  = "invalid_session"
	ReasonSessionMismatch = "session_mismatch"
	ReasonRateLimited     = "rate_limited"
	ReasonNonAdjacent     = "non_adjacent"
	ReasonOwnTile         = "own_tile"
	ReasonOutOfBounds     = "out_of_bounds"
	ReasonNotWalkable     = "not_walkable"
	ReasonAlreadyRevealed = "already_revealed"
	ReasonAlreadyFlagged  = "already_flagged"
	ReasonNoFlags         = "no_flags"
	ReasonUnflagDisabled  = "unflag_disabled"
)

// Result is the outcome of one Handle call.
type Result struct {
	Accepted   bool
	Reason     string
	Severity   security.Severity
	Disconnect bool
}

// Handle is the single entry point of the action pipeline (spec.md
// §4.5): security gates, then rule dispatch, then state mutation and
// broadcast planning, all under the engine's writer lock so every
// accepted action is atomic with respect to every other.
func (e *Engine) Handle(playerID, sessionID, token string, kind protocol.ActionKind, x, y, viewportW, viewportH int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isBanned(playerID) {
		return Result{Reason: ReasonBanned}
	}

	p, ok := e.Players.ByID(playerID)
	if !ok {
		return Result{Reason: ReasonUnknownPlayer}
	}

	if kind != protocol.ActionMove && !p.Alive {
		return Result{Reason: ReasonDead}
	}

	boundID, err := e.Sessions.Validate(sessionID, token)
	if err != nil {
		return Result{Reason: ReasonInvalidSession, Disconnect: true}
	}
	if boundID != playerID {
		return Result{Reason: ReasonSessionMismatch, Disconnect: true}
	}

	now := e.now()
	secKind := security.ActionKind(kind)

	if !e.Limiter.Allow(playerID, secKind, now) {
		e.metrics.ObserveAction(string(kind), false, ReasonRateLimited)
		return Result{Reason: ReasonRateLimited, Severity: security.SeverityMedium}
	}

	payload := fmt.Sprintf("%d,%d", x, y)
	if violation, sev := e.Guard.Check(playerID, secKind, payload, now); violation != security.ViolationNone {
		e.metrics.ObserveAction(string(kind), false, string(violation))
		return Result{Reason: string(violation), Severity: sev}
	}

	if reason, ok := e.checkGeometry(p, kind, x, y); !ok {
		e.metrics.ObserveAction(string(kind), false, reason)
		return Result{Reason: reason}
	}

	var accepted bool
	var reason string
	switch kind {
	case protocol.ActionMove:
		accepted, reason = e.ruleMove(p, x, y, viewportW, viewportH)
	case protocol.ActionFlip:
		accepted, reason = e.ruleFlip(p, x, y, viewportW, viewportH)
	case protocol.ActionFlag:
		accepted, reason = e.ruleFlag(p, x, y, viewportW, viewportH)
	case protocol.ActionUnflag:
		accepted, reason = false, ReasonUnflagDisabled
	default:
		accepted, reason = false, "unknown_action"
	}

	e.metrics.ObserveAction(string(kind), accepted, reason)
	if !accepted {
		return Result{Reason: reason}
	}
	return Result{Accepted: true}
}

// checkGeometry implements spec.md §4.5 step 6.
func (e *Engine) checkGeometry(p *player.Player, kind protocol.ActionKind, x, y int) (string, bool) {
	if kind == protocol.ActionMove {
		dx := x - p.Pos.X
		dy := y - p.Pos.Y
		if absInt(dx)+absInt(dy) != 1 {
			return ReasonNonAdjacent, false
		}
		if !e.World.InBounds(x, y) {
			return ReasonOutOfBounds, false
		}
		return "", true
	}

	if !e.World.InBounds(x, y) {
		return ReasonOutOfBounds, false
	}
	if x == p.Pos.X && y == p.Pos.Y {
		return ReasonOwnTile, false
	}
	if player.ChebyshevDistance(p.Pos, world.Point{X: x, Y: y}) > 1 {
		return ReasonNonAdjacent, false
	}
	return "", true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
