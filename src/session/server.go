package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aide-project/aide/src/agent"
)

// Server upgrades HTTP requests to websocket sessions and exposes a
// couple of plain HTTP endpoints for probes and catalog inspection.
type Server struct {
	orchestrator *agent.Orchestrator
	log          *zap.Logger
	keepalive    time.Duration
	upgrader     websocket.Upgrader
}

func NewServer(orch *agent.Orchestrator, keepalive time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		orchestrator: orch,
		log:          log,
		keepalive:    keepalive,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP mux: /ws for sessions, /health for probes,
// /tools for the current catalog.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/tools", s.handleTools)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess := New(conn, s.orchestrator, s.keepalive, s.log)
	s.log.Info("session opened", zap.String("session", sess.ID), zap.String("remote", r.RemoteAddr))
	if err := sess.Run(r.Context()); err != nil {
		s.log.Warn("session ended with error", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	s.log.Info("session closed", zap.String("session", sess.ID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"tools":  len(s.orchestrator.Catalog()),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.orchestrator.Catalog())
}
