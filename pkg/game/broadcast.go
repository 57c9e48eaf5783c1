package game

import (
	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/protocol"
)

// publishTileUpdate fans out the lightweight tile-change broadcast of
// spec.md §4.5(b). Callers must hold e.mu.
func (e *Engine) publishTileUpdate(x, y int, action string, playerID string) {
	e.publish(Broadcast{
		Topic: protocol.TopicTileUpdate,
		Payload: protocol.TileUpdate{
			X:         x,
			Y:         y,
			Action:    action,
			PlayerID:  playerID,
			Timestamp: e.now().UnixMilli(),
		},
	})
}

// publishPlayerUpdate fans out a player-state broadcast, sent per
// spec.md §4.5(c) whenever score, flags, position, or aliveness changed.
func (e *Engine) publishPlayerUpdate(p *player.Player) {
	e.publish(Broadcast{
		Topic:   protocol.TopicPlayerUpdate,
		Payload: protocol.PlayerUpdate{Player: p.Public()},
	})
}

// publishLeaderboard fans out the current leaderboard, sent per
// spec.md §4.5(d) whenever a player's score changed.
func (e *Engine) publishLeaderboard() {
	e.publish(Broadcast{
		Topic:   protocol.TopicLeaderboard,
		Payload: protocol.LeaderboardUpdate{Players: e.leaderboardEntries()},
	})
}

// maybeEndGame emits a game-end broadcast exactly once, the instant
// spec.md §4.6's "flaggedMines >= totalMines" condition first holds.
// Callers must hold e.mu.
func (e *Engine) maybeEndGame() {
	if e.ended || !e.World.GameEnded() {
		return
	}
	e.ended = true
	e.publish(Broadcast{
		Topic: protocol.TopicGameEnd,
		Payload: protocol.GameEnd{
			Reason:    "all_mines_flagged",
			Timestamp: e.now().UnixMilli(),
		},
	})
}
