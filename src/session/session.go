package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aide-project/aide/src/agent"
)

// Conn is the subset of a websocket connection the session loop needs.
// Tests substitute an in-memory fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage mirrors websocket.TextMessage without importing the
// driver here.
const textMessage = 1

// Session serves one client connection. Every application-level failure
// is answered with an error frame; only a transport failure ends the
// loop.
type Session struct {
	ID           string
	conn         Conn
	orchestrator *agent.Orchestrator
	log          *zap.Logger
	keepalive    time.Duration

	// writeMu serializes frames: handlers run off the select loop so a
	// slow tool call cannot hold up keepalive delivery.
	writeMu sync.Mutex
}

func New(conn Conn, orch *agent.Orchestrator, keepalive time.Duration, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	id := uuid.NewString()
	return &Session{
		ID:           id,
		conn:         conn,
		orchestrator: orch,
		log:          log.With(zap.String("session", id)),
		keepalive:    keepalive,
	}
}

type inbound struct {
	data []byte
	err  error
}

// Run sends the handshake and serves frames until the connection drops
// or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if err := s.sendHandshake(); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	// A reader goroutine feeds the select loop so keepalives fire on
	// schedule even while ReadMessage blocks.
	frames := make(chan inbound)
	go func() {
		defer close(frames)
		for {
			_, data, err := s.conn.ReadMessage()
			select {
			case frames <- inbound{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	// Handlers run in their own goroutines; only a failed write (a
	// transport fault) comes back here to end the session.
	sendErr := make(chan error, 1)
	var handlers sync.WaitGroup
	defer handlers.Wait()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sendErr:
			return err
		case <-ticker.C:
			if err := s.send(Keepalive{Type: TypeKeepalive}); err != nil {
				return fmt.Errorf("send keepalive: %w", err)
			}
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if frame.err != nil {
				s.log.Info("connection closed", zap.Error(frame.err))
				return nil
			}
			ticker.Reset(s.keepalive)
			handlers.Add(1)
			go func(data []byte) {
				defer handlers.Done()
				if err := s.handle(ctx, data); err != nil {
					select {
					case sendErr <- err:
					default:
					}
				}
			}(frame.data)
		}
	}
}

func (s *Session) capabilities(catalog int) Capabilities {
	caps := Capabilities{TotalTools: catalog}
	if s.orchestrator.Backend != nil {
		name := s.orchestrator.Backend.Name()
		caps.AvailableModels = []string{name}
		caps.CurrentModel = name
	}
	return caps
}

func (s *Session) sendHandshake() error {
	catalog := s.orchestrator.Catalog()
	return s.send(Handshake{
		Type:         TypeHandshake,
		SessionID:    s.ID,
		Capabilities: s.capabilities(len(catalog)),
		Tools:        catalog,
	})
}

// handle answers one frame. Its returned error is transport-only; every
// protocol or tool failure becomes an error frame instead.
func (s *Session) handle(ctx context.Context, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return s.sendError("", "malformed message: not valid JSON")
	}

	switch env.Type {
	case TypeQuery:
		return s.handleQuery(ctx, env)
	case TypeInvoke:
		return s.handleInvoke(ctx, env)
	case TypeProposeNewTool:
		return s.handleProposeNewTool(env)
	case TypeKeepalive:
		return nil
	default:
		return s.sendError(env.ID, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (s *Session) handleQuery(ctx context.Context, env Envelope) error {
	var mctx agent.Context
	if len(env.Context) > 0 {
		// A bad context block is ignored, not fatal.
		_ = json.Unmarshal(env.Context, &mctx)
	}
	reply := s.orchestrator.Query(ctx, env.Message, mctx)
	return s.send(QueryResponse{
		Type:    TypeResponse,
		ID:      env.ID,
		Mode:    reply.Mode,
		Content: reply.Text,
		Actions: reply.Actions,
	})
}

func (s *Session) handleInvoke(ctx context.Context, env Envelope) error {
	if env.Tool == "" {
		return s.sendError(env.ID, "invoke requires a tool name")
	}
	result, err := s.orchestrator.Invoke(ctx, env.Tool, env.Args)
	if err != nil {
		return s.sendError(env.ID, err.Error())
	}
	return s.send(ToolResponse{
		Type:   TypeToolResponse,
		ID:     env.ID,
		Tool:   env.Tool,
		Result: result,
	})
}

func (s *Session) handleProposeNewTool(env Envelope) error {
	name := env.Name
	if name == "" {
		name = env.Tool
	}
	if name == "" || env.Code == "" {
		return s.sendError(env.ID, "propose_new_tool requires a tool name and code")
	}
	if err := s.orchestrator.LoadTool(name, env.Code); err != nil {
		return s.sendError(env.ID, err.Error())
	}
	s.log.Info("tool accepted", zap.String("tool", name))
	catalog := s.orchestrator.Catalog()
	caps := s.capabilities(len(catalog))
	return s.send(ToolResponse{
		Type:         TypeToolResponse,
		ID:           env.ID,
		Tool:         name,
		Tools:        catalog,
		Capabilities: &caps,
	})
}

func (s *Session) sendError(id, message string) error {
	return s.send(ErrorResponse{Type: TypeError, ID: id, Message: message})
}

func (s *Session) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(textMessage, data)
}
