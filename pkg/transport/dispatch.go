package transport

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/security"
)

// dispatch routes one decoded inbound envelope to the engine, the
// generalization of the teacher's handlePlayPacket switch over packet
// IDs to a switch over protocol topics.
func (s *Server) dispatch(c *conn, env protocol.Envelope) error {
	switch env.Topic {
	case protocol.TopicPlayerPreferences:
		return s.handlePreferences(c, env.Payload)
	case protocol.TopicPlayerAction:
		return s.handleAction(c, env.Payload)
	case protocol.TopicDisconnect:
		s.engine.Disconnect(c.id)
		return nil
	case protocol.TopicSecurityDashboard:
		return s.handleDashboard(c, env.Payload)
	default:
		return fmt.Errorf("unknown topic %q", env.Topic)
	}
}

func (s *Server) handlePreferences(c *conn, raw json.RawMessage) error {
	var prefs protocol.PlayerPreferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return err
	}

	sa, welcome, err := s.engine.Welcome(c.id, prefs)
	if err != nil {
		return fmt.Errorf("welcome: %w", err)
	}

	s.mu.Lock()
	s.players[welcome.PlayerID] = c
	s.mu.Unlock()

	s.sendTo(c, protocol.TopicSessionAssigned, sa)
	s.sendTo(c, protocol.TopicWelcome, welcome)
	return nil
}

func (s *Server) handleAction(c *conn, raw json.RawMessage) error {
	var act protocol.PlayerAction
	if err := json.Unmarshal(raw, &act); err != nil {
		return err
	}

	s.mu.RLock()
	var playerID string
	for pid, pc := range s.players {
		if pc == c {
			playerID = pid
			break
		}
	}
	s.mu.RUnlock()
	if playerID == "" {
		return fmt.Errorf("action received before welcome")
	}

	res := s.engine.Handle(playerID, act.SessionID, act.SessionToken, act.Action, act.X, act.Y, act.ViewportWidth, act.ViewportHeight)
	if res.Severity == security.SeverityHigh || res.Severity == security.SeverityMedium {
		s.log.Warn("security rejection",
			zap.String("player", playerID),
			zap.String("action", string(act.Action)),
			zap.String("reason", res.Reason),
			zap.String("severity", string(res.Severity)),
		)
	}
	if res.Disconnect {
		s.log.Warn("disconnecting connection on authorization failure", zap.String("player", playerID), zap.String("reason", res.Reason))
		c.close()
	}
	return nil
}

func (s *Server) handleDashboard(c *conn, raw json.RawMessage) error {
	var req protocol.SecurityDashboardRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	if s.adminKey == "" || req.AdminKey != s.adminKey {
		return fmt.Errorf("security-dashboard: invalid admin key")
	}

	entries := s.dashboard.Snapshot()
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	s.sendTo(c, protocol.TopicSecurityReport, protocol.SecurityReport{Entries: out})
	return nil
}

func (s *Server) sendTo(c *conn, topic protocol.Topic, payload any) {
	b, err := protocol.Encode(topic, payload)
	if err != nil {
		s.log.Error("failed to encode outbound envelope", zap.String("topic", string(topic)), zap.Error(err))
		return
	}
	c.enqueue(b)
}
