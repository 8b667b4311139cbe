// Package session speaks the websocket protocol: one JSON envelope per
// text frame, request/response per message, keepalives while idle.
package session

import (
	"encoding/json"

	"github.com/aide-project/aide/src/agent"
	"github.com/aide-project/aide/src/tools"
)

// Message types carried in the envelope's type field.
const (
	TypeHandshake      = "handshake"
	TypeQuery          = "query"
	TypeInvoke         = "invoke"
	TypeProposeNewTool = "propose_new_tool"
	TypeResponse       = "response"
	TypeToolResponse   = "tool_response"
	TypeError          = "error"
	TypeKeepalive      = "keepalive"
)

// Envelope is the wire frame. Only the fields relevant to each type are
// populated: query carries message+context, invoke carries tool+args,
// propose_new_tool carries name+code.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Message string          `json:"message,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Args    map[string]any  `json:"args,omitempty"`
	Name    string          `json:"name,omitempty"`
	Code    string          `json:"code,omitempty"`
	Context json.RawMessage `json:"context,omitempty"`
}

// Capabilities is advertised in the handshake so clients can render
// their UI before sending anything.
type Capabilities struct {
	AvailableModels []string `json:"available_models"`
	CurrentModel    string   `json:"current_model"`
	TotalTools      int      `json:"total_tools"`
}

// Handshake is the first frame sent on every connection.
type Handshake struct {
	Type         string       `json:"type"`
	SessionID    string       `json:"session_id"`
	Capabilities Capabilities `json:"capabilities"`
	Tools        []tools.Spec `json:"tools"`
}

// QueryResponse answers a query frame.
type QueryResponse struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Mode    string         `json:"mode"`
	Content string         `json:"content"`
	Actions []agent.Action `json:"actions,omitempty"`
}

// ToolResponse answers an invoke or propose_new_tool frame. After a
// successful propose_new_tool it doubles as a registry refresh, carrying
// the full catalog and updated capabilities.
type ToolResponse struct {
	Type         string         `json:"type"`
	ID           string         `json:"id,omitempty"`
	Tool         string         `json:"tool"`
	Result       map[string]any `json:"result,omitempty"`
	Tools        []tools.Spec   `json:"tools,omitempty"`
	Capabilities *Capabilities  `json:"capabilities,omitempty"`
}

// ErrorResponse reports a recoverable failure. The session stays open.
type ErrorResponse struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// Keepalive is sent while the connection is idle.
type Keepalive struct {
	Type string `json:"type"`
}
