package game

import (
	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/world"
)

// Welcome implements spec.md §4.8's welcome/reconnect handling: a
// presented, still-valid session reconnects the bound player in place; a
// missing or invalid one allocates a fresh player at a round-robin spawn
// point and issues a new session. Callers own connID, the transport's
// per-connection identifier.
func (e *Engine) Welcome(connID string, prefs protocol.PlayerPreferences) (protocol.SessionAssigned, protocol.Welcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prefs.SessionID != "" && prefs.SessionToken != "" {
		if boundID, err := e.Sessions.Validate(prefs.SessionID, prefs.SessionToken); err == nil {
			if p, ok := e.Players.ByID(boundID); ok {
				p.Connected = true
				e.Players.BindConn(connID, p)
				e.metrics.SetConnectedPlayers(e.countConnected())
				return protocol.SessionAssigned{
					SessionID:      prefs.SessionID,
					SessionToken:   prefs.SessionToken,
					IsReconnection: true,
				}, e.buildWelcome(p), nil
			}
		}
	}

	id := e.newID()
	spawn := e.nextSpawnPoint()

	p := &player.Player{
		ID:        id,
		Username:  prefs.Name,
		Color:     prefs.Color,
		Pos:       spawn,
		Alive:     true,
		Connected: true,
		ConnID:    connID,
	}

	sess, err := e.Sessions.Create(id, prefs.Name)
	if err != nil {
		return protocol.SessionAssigned{}, protocol.Welcome{}, err
	}
	p.SessionID = sess.ID

	e.Players.Add(p)
	e.World.SetPlayerAt(id, world.Point{}, spawn, false)
	e.metrics.SetConnectedPlayers(e.countConnected())

	return protocol.SessionAssigned{
		SessionID:      sess.ID,
		SessionToken:   sess.Token,
		IsReconnection: false,
	}, e.buildWelcome(p), nil
}

func (e *Engine) buildWelcome(p *player.Player) protocol.Welcome {
	vp := e.viewportPayload(p, DefaultViewportExtent, DefaultViewportExtent)
	return protocol.Welcome{
		PlayerID: p.ID,
		Player:   p.Public(),
		GameState: protocol.GameState{
			StartTime:      e.startTime.UnixMilli(),
			Ended:          e.ended,
			MinesRemaining: e.World.Progress(),
		},
		Viewport: vp,
	}
}

// nextSpawnPoint round-robins through the reserved spawn set so repeated
// welcomes spread deterministically rather than clustering. Callers must
// hold e.mu.
func (e *Engine) nextSpawnPoint() world.Point {
	spawns := e.World.SpawnPoints()
	if len(spawns) == 0 {
		return world.Point{}
	}
	sp := spawns[e.spawnCursor%len(spawns)]
	e.spawnCursor++
	return sp
}

// Disconnect implements spec.md §4.8: a disconnect marks the player
// unreachable but leaves its record intact for the idle sweeper to evict
// later (spec.md §4.2).
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.Players.ByConn(connID)
	if !ok {
		return
	}
	p.Connected = false
	e.Players.UnbindConn(connID)
	e.metrics.SetConnectedPlayers(e.countConnected())
}

// EvictPlayer is the session manager's onEvict callback: it removes a
// timed-out player from the registry and the world's occupancy index
// (spec.md §4.2's "eviction removes the player").
func (e *Engine) EvictPlayer(playerID, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.Players.ByID(playerID)
	if !ok {
		return
	}
	e.World.ClearPlayer(playerID, p.Pos)
	e.Players.Remove(playerID)
	e.metrics.SetConnectedPlayers(e.countConnected())
}

func (e *Engine) countConnected() int {
	n := 0
	e.Players.Each(func(p *player.Player) {
		if p.Connected {
			n++
		}
	})
	return n
}
