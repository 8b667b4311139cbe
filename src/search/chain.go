package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// sentinels mark answers that a provider returns instead of admitting it
// has nothing, so the chain treats them as misses.
var sentinels = []string{
	"no result",
	"no results",
	"not available",
	"no concise answer",
}

// ExhaustedError reports that every provider in the chain failed or came
// back empty. Err holds the last hard failure, if any.
type ExhaustedError struct {
	Query string
	Err   error
}

func (e *ExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("all search providers failed for %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("all search providers failed for %q", e.Query)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Chain tries providers in order until one returns a usable answer.
type Chain struct {
	providers []Provider
	log       *zap.Logger
}

func NewChain(log *zap.Logger, providers ...Provider) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{providers: providers, log: log}
}

// Search walks the chain and returns the first usable answer together
// with the ID of the provider that produced it.
func (c *Chain) Search(ctx context.Context, query string) (string, string, error) {
	var lastErr error
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		answer, err := p.Search(ctx, query)
		if err != nil {
			c.log.Debug("search provider failed",
				zap.String("provider", p.ID), zap.Error(err))
			lastErr = err
			continue
		}
		if usable(answer) {
			return answer, p.ID, nil
		}
		c.log.Debug("search provider returned no answer", zap.String("provider", p.ID))
	}
	return "", "", &ExhaustedError{Query: query, Err: lastErr}
}

// Provider returns the chain member with the given ID.
func (c *Chain) Provider(id string) (Provider, bool) {
	id = strings.ToLower(id)
	for _, p := range c.providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// IDs lists the providers in chain order.
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.providers))
	for i, p := range c.providers {
		ids[i] = p.ID
	}
	return ids
}

func usable(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, s := range sentinels {
		if strings.HasPrefix(lower, s) {
			return false
		}
	}
	return true
}
