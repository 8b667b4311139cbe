package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore persists records as Memory nodes and recalls them with a
// token CONTAINS match scored by hit count.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jStore(ctx context.Context, uri, username, password string) (*Neo4jStore, error) {
	if uri == "" {
		return nil, errors.New("neo4j uri is required")
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Neo4jStore{driver: driver}, nil
}

func (s *Neo4jStore) Save(ctx context.Context, content, kind string, meta map[string]any) (string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	id := uuid.NewString()
	_, err := session.Run(ctx, `
		CREATE (m:Memory {id: $id, content: $content, kind: $kind, created_at: $created_at})`,
		map[string]any{
			"id":         id,
			"content":    content,
			"kind":       kind,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
	if err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}
	return id, nil
}

func (s *Neo4jStore) Recall(ctx context.Context, query string, topK int) ([]Record, error) {
	if topK <= 0 {
		return nil, nil
	}
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Memory)
		WITH m, size([t IN $tokens WHERE toLower(m.content) CONTAINS t]) AS hits
		WHERE hits > 0
		RETURN m.id AS id, m.content AS content, m.kind AS kind,
		       m.created_at AS created_at, toFloat(hits) / size($tokens) AS score
		ORDER BY score DESC, created_at DESC
		LIMIT $limit`,
		map[string]any{"tokens": tokens, "limit": topK})
	if err != nil {
		return nil, fmt.Errorf("recall memories: %w", err)
	}

	var out []Record
	for result.Next(ctx) {
		rec := result.Record()
		r := Record{}
		if v, ok := rec.Get("id"); ok {
			r.ID, _ = v.(string)
		}
		if v, ok := rec.Get("content"); ok {
			r.Content, _ = v.(string)
		}
		if v, ok := rec.Get("kind"); ok {
			r.Kind, _ = v.(string)
		}
		if v, ok := rec.Get("created_at"); ok {
			if ts, ok := v.(string); ok {
				r.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
			}
		}
		if v, ok := rec.Get("score"); ok {
			r.Score, _ = v.(float64)
		}
		out = append(out, r)
	}
	return out, result.Err()
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
