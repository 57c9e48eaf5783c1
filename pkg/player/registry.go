package player

import "github.com/StoreStation/gridwar/pkg/world"

// Registry maps player-id, connection-id, and session-id to a single
// Player record. Like world.World it holds no lock of its own: it is
// mutated only under the action pipeline's writer lock (pkg/game).
type Registry struct {
	byID      map[string]*Player
	byConn    map[string]*Player
	bySession map[string]*Player
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[string]*Player),
		byConn:    make(map[string]*Player),
		bySession: make(map[string]*Player),
	}
}

// Add registers a newly created player under all three indices.
func (r *Registry) Add(p *Player) {
	r.byID[p.ID] = p
	if p.ConnID != "" {
		r.byConn[p.ConnID] = p
	}
	if p.SessionID != "" {
		r.bySession[p.SessionID] = p
	}
}

// ByID returns the player for a player-id.
func (r *Registry) ByID(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// ByConn returns the player currently bound to a connection-id.
func (r *Registry) ByConn(connID string) (*Player, bool) {
	p, ok := r.byConn[connID]
	return p, ok
}

// BySession returns the player bound to a session-id.
func (r *Registry) BySession(sessionID string) (*Player, bool) {
	p, ok := r.bySession[sessionID]
	return p, ok
}

// BindConn (re)binds a connection-id to an existing player, used on
// reconnect. Any previous connection-id for this player is left alone —
// the caller is responsible for tearing down the old connection.
func (r *Registry) BindConn(connID string, p *Player) {
	p.ConnID = connID
	r.byConn[connID] = p
}

// UnbindConn removes a connection-id from the index without removing the
// player (used on disconnect — the player record survives for
// reconnection until the idle sweeper evicts it).
func (r *Registry) UnbindConn(connID string) {
	delete(r.byConn, connID)
}

// Remove deletes a player from every index (used only on idle-session
// eviction).
func (r *Registry) Remove(id string) {
	p, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if p.ConnID != "" {
		delete(r.byConn, p.ConnID)
	}
	if p.SessionID != "" {
		delete(r.bySession, p.SessionID)
	}
}

// Each calls fn for every registered player. Order is unspecified.
func (r *Registry) Each(fn func(*Player)) {
	for _, p := range r.byID {
		fn(p)
	}
}

// Count returns the number of registered players (connected or not).
func (r *Registry) Count() int {
	return len(r.byID)
}

// Within returns every connected player whose Chebyshev distance to
// center is <= radius, used by the viewport materializer (spec.md §4.7
// scopes the player window to connected players only).
func (r *Registry) Within(center world.Point, radius int) []*Player {
	var out []*Player
	for _, p := range r.byID {
		if p.Connected && ChebyshevDistance(p.Pos, center) <= radius {
			out = append(out, p)
		}
	}
	return out
}
