// Package transport fans gridwar's topic-tagged JSON envelopes
// (pkg/protocol) out over websocket connections. It generalizes the
// teacher's raw-TCP accept-loop/per-connection-goroutine/packet-switch
// shape (pkg/server in the teacher pack) from fixed binary packet IDs to
// protocol.Envelope topics carried over gorilla/websocket, and from the
// teacher's per-player keepAliveLoop/regenerationLoop pattern to a
// single writer goroutine per connection draining a buffered send
// channel fed by the engine's broadcast callback.
package transport

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/StoreStation/gridwar/pkg/game"
	"github.com/StoreStation/gridwar/pkg/protocol"
	"github.com/StoreStation/gridwar/pkg/security"
)

// Config holds the transport's listener configuration.
type Config struct {
	Addr string
	Path string
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() Config {
	return Config{Addr: ":8080", Path: "/ws"}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// conn is one live websocket connection and its outbound queue.
type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *conn) enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// Slow consumer: drop rather than block the engine's writer lock
		// (Publisher's contract says it must not block for long).
	}
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.ws.Close()
}

// Server accepts websocket connections and bridges them to a
// *game.Engine: inbound envelopes become Welcome/Handle/Disconnect
// calls, and the engine's broadcasts are fanned out (or unicast, for
// Target-addressed broadcasts) to live connections.
type Server struct {
	cfg       Config
	engine    *game.Engine
	log       *zap.Logger
	adminKey  string
	dashboard *security.Dashboard

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu      sync.RWMutex
	conns   map[string]*conn // connID -> conn
	players map[string]*conn // playerID -> conn, for unicast targets

	nextConnID int64
	connIDMu   sync.Mutex
}

// New builds a transport Server bound to engine. adminKey gates the
// security-dashboard topic (spec.md §4.9); an empty key disables it.
func New(cfg Config, engine *game.Engine, log *zap.Logger, adminKey string, dashboard *security.Dashboard) *Server {
	return &Server{
		cfg:       cfg,
		engine:    engine,
		log:       log,
		adminKey:  adminKey,
		dashboard: dashboard,
		upgrader:  websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096, CheckOrigin: func(*http.Request) bool { return true }},
		conns:     make(map[string]*conn),
		players:   make(map[string]*conn),
	}
}

// Start begins listening for websocket connections. Start returns once
// the listener is bound; serving happens in a background goroutine, the
// same shape as the teacher's Start/acceptLoop split.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleUpgrade)
	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: mux}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.log.Info("transport listening", zap.String("addr", s.cfg.Addr), zap.String("path", s.cfg.Path))
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("transport serve error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the listener and closes every live
// connection, mirroring the teacher's Stop.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
	s.mu.Lock()
	for _, c := range s.conns {
		c.close()
	}
	s.mu.Unlock()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.handleConnection(ws)
}

func (s *Server) newConnID() string {
	s.connIDMu.Lock()
	defer s.connIDMu.Unlock()
	s.nextConnID++
	return strconv.FormatInt(s.nextConnID, 10)
}

func (s *Server) handleConnection(ws *websocket.Conn) {
	c := &conn{id: s.newConnID(), ws: ws, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	done := make(chan struct{})
	go s.writeLoop(c, done)
	s.readLoop(c)

	close(done)
	s.engine.Disconnect(c.id)
	s.mu.Lock()
	delete(s.conns, c.id)
	for pid, pc := range s.players {
		if pc == c {
			delete(s.players, pid)
		}
	}
	s.mu.Unlock()
	c.close()
}

func (s *Server) readLoop(c *conn) {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warn("dropping malformed envelope", zap.String("conn", c.id), zap.Error(err))
			continue
		}
		if err := s.dispatch(c, env); err != nil {
			s.log.Warn("dropping envelope", zap.String("conn", c.id), zap.String("topic", string(env.Topic)), zap.Error(err))
		}
	}
}

func (s *Server) writeLoop(c *conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case b, ok := <-c.send:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
