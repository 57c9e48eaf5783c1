// Package game implements the authoritative action pipeline and game
// rules of spec.md §4.5–§4.7: the single entry point that composes
// security checks, rule handlers, state mutation, and broadcast
// planning under one writer lock, exactly as spec.md §5 requires.
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StoreStation/gridwar/pkg/player"
	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/security"
	"github.com/StoreStation/gridwar/pkg/session"
	"github.com/StoreStation/gridwar/pkg/world"
)

// Broadcast is an outbound message the engine has decided to emit. An
// empty Target means "send to every connection"; a non-empty Target
// names the single player-id it is addressed to (unicast viewport
// updates).
type Broadcast struct {
	Topic   protocol.Topic
	Payload any
	Target  string
}

// Publisher receives broadcasts formed under the engine's writer lock.
// It must not block for long: the world lock is held for the duration of
// the call.
type Publisher func(Broadcast)

// Engine owns every piece of shared, mutable game state and is the sole
// component that mutates it — the re-architecture the teacher's ambient
// global Server/World singleton generalizes into: one explicitly
// constructed value, passed to every handler, guarded by one lock.
type Engine struct {
	mu sync.Mutex

	World    *world.World
	Players  *player.Registry
	Sessions *session.Manager
	Limiter  *security.RateLimiter
	Guard    *security.Guard

	bans map[string]bool

	startTime   time.Time
	ended       bool
	spawnCursor int

	publish Publisher
	now     func() time.Time
	newID   func() string

	metrics Metrics
}

// Metrics is the subset of pkg/metrics.Collector the engine reports to.
// It is an interface so pkg/game does not need to depend on Prometheus
// directly.
type Metrics interface {
	ObserveAction(kind string, accepted bool, rejectReason string)
	ObserveExplosion(chained bool)
	SetConnectedPlayers(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAction(string, bool, string) {}
func (noopMetrics) ObserveExplosion(bool)               {}
func (noopMetrics) SetConnectedPlayers(int)             {}

// Config bundles the dependencies New needs.
type Config struct {
	World    *world.World
	Sessions *session.Manager
	Limiter  *security.RateLimiter
	Guard    *security.Guard
	Publish  Publisher
	Metrics  Metrics
	Now      func() time.Time
	NewID    func() string
}

// New builds an Engine. Now and NewID default to time.Now and a uuid
// generator if left nil, so production callers can omit them while tests
// inject deterministic ones.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := cfg.Metrics
	if m == nil {
		m = noopMetrics{}
	}
	pub := cfg.Publish
	if pub == nil {
		pub = func(Broadcast) {}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Engine{
		World:     cfg.World,
		Players:   player.NewRegistry(),
		Sessions:  cfg.Sessions,
		Limiter:   cfg.Limiter,
		Guard:     cfg.Guard,
		bans:      make(map[string]bool),
		startTime: now(),
		publish:   pub,
		now:       now,
		newID:     newID,
		metrics:   m,
	}
}

// Ban adds a player-id to the ban set and drops its sessions.
func (e *Engine) Ban(playerID string) {
	e.mu.Lock()
	e.bans[playerID] = true
	e.mu.Unlock()
	e.Sessions.Invalidate(playerID)
}

func (e *Engine) isBanned(playerID string) bool {
	return e.bans[playerID]
}

// StartTime returns when the engine (and so the match) started.
func (e *Engine) StartTime() time.Time { return e.startTime }
