// Package memory persists conversation history and recalls the entries
// most relevant to an incoming query so they can be injected into the
// model prompt.
package memory

import (
	"context"
	"time"
)

// Record is one remembered item.
type Record struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Kind      string         `json:"kind"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Score     float64        `json:"score,omitempty"`
}

// Store is implemented by each persistence backend. Recall returns at
// most topK records ranked by relevance to the query; Save returns the
// stored record's ID.
type Store interface {
	Recall(ctx context.Context, query string, topK int) ([]Record, error)
	Save(ctx context.Context, content, kind string, meta map[string]any) (string, error)
	Close(ctx context.Context) error
}
