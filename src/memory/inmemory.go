package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps records in process memory. It is the default
// backend for development and tests. Relevance is token overlap between
// query and content, decayed slightly by age so fresher context wins
// ties.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	nowFn   func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nowFn: time.Now}
}

func (s *InMemoryStore) Save(_ context.Context, content, kind string, meta map[string]any) (string, error) {
	rec := Record{
		ID:        uuid.NewString(),
		Content:   content,
		Kind:      kind,
		Metadata:  meta,
		CreatedAt: s.nowFn().UTC(),
	}
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return rec.ID, nil
}

func (s *InMemoryStore) Recall(_ context.Context, query string, topK int) ([]Record, error) {
	if topK <= 0 {
		return nil, nil
	}
	queryTokens := tokenize(query)
	now := s.nowFn().UTC()

	s.mu.RLock()
	scored := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		score := overlap(queryTokens, tokenize(rec.Content))
		if score == 0 {
			continue
		}
		age := now.Sub(rec.CreatedAt).Hours()
		rec.Score = score * math.Exp(-age/168)
		scored = append(scored, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *InMemoryStore) Close(context.Context) error { return nil }

// Len reports the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// stopwords are function words too common to signal relevance.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"but": true, "not": true, "you": true, "all": true, "can": true,
	"had": true, "her": true, "has": true, "him": true, "his": true,
	"how": true, "its": true, "our": true, "out": true, "she": true,
	"they": true, "this": true, "that": true, "with": true, "have": true,
	"from": true, "what": true, "when": true, "which": true, "does": true,
	"use": true, "your": true, "will": true, "would": true, "should": true,
	"about": true, "there": true, "their": true, "into": true, "than": true,
	"then": true, "them": true, "these": true, "some": true, "more": true,
	"very": true, "just": true, "over": true, "also": true, "been": true,
	"were": true, "did": true, "who": true, "why": true, "where": true,
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if len(f) > 2 && !stopwords[f] {
			tokens[f] = true
		}
	}
	return tokens
}

func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	hits := 0
	for t := range a {
		if b[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}
