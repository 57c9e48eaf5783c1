package transport

import (
	"go.uber.org/zap"

	"github.com/StoreStation/gridwar/pkg/game"
	"github.com/StoreStation/gridwar/pkg/protocol"
)

// Publish implements game.Publisher: an empty Target fans a broadcast out
// to every live connection (tile-update, leaderboard-update, explosion,
// player-death, game-end); a non-empty Target unicasts to the
// connection currently bound to that player-id (viewport-update). This is the generalization of the teacher's
// iterate-players-under-RLock broadcast helpers (broadcastChat,
// broadcastEntityTeleport) to a topic-tagged, target-aware fan-out.
func (s *Server) Publish(b game.Broadcast) {
	body, err := protocol.Encode(b.Topic, b.Payload)
	if err != nil {
		s.log.Error("failed to encode broadcast", zap.String("topic", string(b.Topic)), zap.Error(err))
		return
	}

	if b.Target != "" {
		s.mu.RLock()
		c, ok := s.players[b.Target]
		s.mu.RUnlock()
		if ok {
			c.enqueue(body)
		}
		return
	}

	s.mu.RLock()
	targets := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(body)
	}
}
