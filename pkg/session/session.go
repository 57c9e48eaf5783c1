// Package session issues and validates the HMAC-signed session tokens
// that bind a connection to a player-id, per spec.md §4.2. It is sharded
// behind its own RWMutex: unlike the world grid and player registry it is
// never read during grid mutation, so it may use finer-grained locking
// (spec.md §5).
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	// AbsoluteTTL is the hard expiry for any session regardless of
	// activity.
	AbsoluteTTL = 24 * time.Hour
	// IdleTTL is how long a session may go without a validated action
	// before the idle sweeper evicts it.
	IdleTTL = 30 * time.Second
	// SweepInterval is how often the idle sweeper runs.
	SweepInterval = 10 * time.Second
)

// Session is the authenticated binding of a connection to a player-id.
type Session struct {
	ID           string
	Token        string
	PlayerID     string
	Username     string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

func (s *Session) expired(now time.Time) bool {
	if now.After(s.ExpiresAt) {
		return true
	}
	return now.Sub(s.LastActivity) > IdleTTL
}

// EvictFunc is called back when the idle sweeper drops a session, so the
// caller can remove the bound player from the registry.
type EvictFunc func(playerID, sessionID string)

// Manager owns every live session, keyed by session-id.
type Manager struct {
	secret []byte

	mu       sync.RWMutex
	sessions map[string]*Session

	onEvict EvictFunc

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager builds a session manager using secret as the HMAC key.
func NewManager(secret []byte, onEvict EvictFunc) *Manager {
	m := &Manager{
		secret:   secret,
		sessions: make(map[string]*Session),
		onEvict:  onEvict,
		stopCh:   make(chan struct{}),
	}
	return m
}

// Create issues a new session bound to playerID, returning the session
// record. The token is HMAC-SHA256 over sessionID‖playerID‖username‖
// createdAt under the manager's secret.
func (m *Manager) Create(playerID, username string) (*Session, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	id := hex.EncodeToString(idBytes)
	now := time.Now()

	sess := &Session{
		ID:           id,
		PlayerID:     playerID,
		Username:     username,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(AbsoluteTTL),
	}
	sess.Token = m.sign(sess)

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return sess, nil
}

func (m *Manager) sign(s *Session) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(s.ID))
	mac.Write([]byte(s.PlayerID))
	mac.Write([]byte(s.Username))
	mac.Write([]byte(s.CreatedAt.Format(time.RFC3339Nano)))
	return hex.EncodeToString(mac.Sum(nil))
}

// ErrInvalid is returned for any session lookup that fails closed: no
// such session, expired session, or token mismatch.
var ErrInvalid = fmt.Errorf("session: invalid")

// Validate checks sessionID/token and, on success, bumps LastActivity and
// returns the bound player-id. Failure closed: any mismatch yields
// ErrInvalid, which the action pipeline treats as disconnect-worthy.
func (m *Manager) Validate(sessionID, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return "", ErrInvalid
	}
	now := time.Now()
	if sess.expired(now) {
		delete(m.sessions, sessionID)
		return "", ErrInvalid
	}
	want := m.sign(sess)
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) != 1 {
		return "", ErrInvalid
	}
	sess.LastActivity = now
	return sess.PlayerID, nil
}

// Get returns the session record for a session-id without validating a
// token, used for reconnect bookkeeping (e.g. reading Username).
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Invalidate drops every session bound to playerID (used at ban).
func (m *Manager) Invalidate(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.PlayerID == playerID {
			delete(m.sessions, id)
		}
	}
}

// Start launches the idle sweeper goroutine. Safe to call once.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.sweepLoop()
}

// Stop halts the idle sweeper and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	now := time.Now()
	var evicted []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.expired(now) {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	m.mu.Unlock()

	if m.onEvict == nil {
		return
	}
	for _, s := range evicted {
		m.onEvict(s.PlayerID, s.ID)
	}
}
