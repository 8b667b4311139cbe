package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS agent_memories (
	id UUID PRIMARY KEY,
	content TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'note',
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS agent_memories_content_idx
	ON agent_memories USING GIN (to_tsvector('english', content));
`

// PostgresStore persists records in Postgres and ranks recall with
// full-text search.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	if connString == "" {
		return nil, errors.New("postgres connection string is required")
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create memory schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, content, kind string, meta map[string]any) (string, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO agent_memories (id, content, kind, metadata) VALUES ($1, $2, $3, $4)`,
		id, content, kind, metaJSON)
	if err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Recall(ctx context.Context, query string, topK int) ([]Record, error) {
	if topK <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, content, kind, metadata, created_at,
		       ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) AS rank
		FROM agent_memories
		WHERE to_tsvector('english', content) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC, created_at DESC
		LIMIT $2`,
		query, topK)
	if err != nil {
		return nil, fmt.Errorf("recall memories: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var metaJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Kind, &metaJSON, &rec.CreatedAt, &rec.Score); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &rec.Metadata)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
