// Package agent routes messages through classification, inference, tool
// dispatch and memory.
package agent

import "time"

// Action statuses recorded for each dispatched tool.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// Action is the audit record of one tool or provider invocation inside a
// query.
type Action struct {
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"args,omitempty"`
	Status   string         `json:"status"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration_ns,omitempty"`
}

// Reply is the orchestrator's answer to one message.
type Reply struct {
	Mode    string   `json:"mode"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}
