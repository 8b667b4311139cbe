package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSaveAndRecall(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	id, err := s.Save(ctx, "the websocket server listens on port 8080", "note", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Save(ctx, "remember to rotate the API keys", "note", nil)
	require.NoError(t, err)

	recs, err := s.Recall(ctx, "which port does the websocket server use", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Content, "8080")
	assert.Greater(t, recs[0].Score, 0.0)
}

func TestInMemoryStoreRecallRanking(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_, err := s.Save(ctx, "database connection pooling with pgx", "note", nil)
	require.NoError(t, err)
	_, err = s.Save(ctx, "database migrations run at startup before the pool opens", "note", nil)
	require.NoError(t, err)
	_, err = s.Save(ctx, "unrelated grocery list", "note", nil)
	require.NoError(t, err)

	recs, err := s.Recall(ctx, "database connection pooling", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0].Content, "pgx", "strongest overlap ranks first")
}

func TestInMemoryStoreRecencyDecay(t *testing.T) {
	s := NewInMemoryStore()
	now := time.Now()
	s.nowFn = func() time.Time { return now.Add(-30 * 24 * time.Hour) }
	_, err := s.Save(context.Background(), "deployment checklist for the agent", "note", nil)
	require.NoError(t, err)

	s.nowFn = func() time.Time { return now }
	_, err = s.Save(context.Background(), "deployment checklist for the agent", "note", nil)
	require.NoError(t, err)

	recs, err := s.Recall(context.Background(), "deployment checklist", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].CreatedAt.After(recs[1].CreatedAt), "fresher record wins a content tie")
}

func TestInMemoryStoreIgnoresFunctionWords(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_, err := s.Save(ctx, "the quick brown fox jumped over the fence", "note", nil)
	require.NoError(t, err)

	// Shares only "the" and "over" with the stored record, which must
	// not count as relevance.
	recs, err := s.Recall(ctx, "what is the forecast over the weekend", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = s.Recall(ctx, "the quick fox", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestInMemoryStoreEmptyQuery(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Save(context.Background(), "something", "note", nil)
	require.NoError(t, err)

	recs, err := s.Recall(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = s.Recall(context.Background(), "something", 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
