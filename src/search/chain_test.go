package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(id, answer string, err error) Provider {
	return Provider{
		ID: id,
		Search: func(context.Context, string) (string, error) {
			return answer, err
		},
	}
}

func TestChainFallsThroughSentinels(t *testing.T) {
	chain := NewChain(nil,
		fixed("first", "No results found.", nil),
		fixed("second", "", nil),
		fixed("third", "Go is a programming language.", nil),
	)

	answer, provider, err := chain.Search(context.Background(), "what is go")
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", answer)
	assert.Equal(t, "third", provider)
}

func TestChainFallsThroughErrors(t *testing.T) {
	chain := NewChain(nil,
		fixed("broken", "", errors.New("connection refused")),
		fixed("working", "an answer", nil),
	)

	answer, provider, err := chain.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "an answer", answer)
	assert.Equal(t, "working", provider)
}

func TestChainExhausted(t *testing.T) {
	lastErr := errors.New("boom")
	chain := NewChain(nil,
		fixed("a", "no result", nil),
		fixed("b", "", lastErr),
	)

	_, _, err := chain.Search(context.Background(), "unanswerable")
	require.Error(t, err)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, "unanswerable", ex.Query)
	assert.ErrorIs(t, err, lastErr)
}

func TestChainProviderLookup(t *testing.T) {
	chain := NewChain(nil, fixed("wikipedia", "x", nil), fixed("duckduckgo", "y", nil))

	p, ok := chain.Provider("Wikipedia")
	require.True(t, ok)
	assert.Equal(t, "wikipedia", p.ID)

	_, ok = chain.Provider("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"wikipedia", "duckduckgo"}, chain.IDs())
}

func TestChainContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain(nil, fixed("never", "answer", nil))
	_, _, err := chain.Search(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDuckDuckGoProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tardigrade", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"AbstractText": "Tardigrades are microscopic animals."}`)
	}))
	defer srv.Close()

	p := DuckDuckGo(srv.URL, time.Second)
	answer, err := p.Search(context.Background(), "tardigrade")
	require.NoError(t, err)
	assert.Equal(t, "Tardigrades are microscopic animals.", answer)
}

func TestWikipediaProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page/summary/Alan_Turing", r.URL.Path)
		fmt.Fprint(w, `{"extract": "Alan Turing was a mathematician."}`)
	}))
	defer srv.Close()

	p := Wikipedia(srv.URL, time.Second)
	answer, err := p.Search(context.Background(), "Alan Turing")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing was a mathematician.", answer)
}

func TestWikipediaThenDuckDuckGoChain(t *testing.T) {
	wiki := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer wiki.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Answer": "42"}`)
	}))
	defer ddg.Close()

	chain := NewChain(nil,
		Wikipedia(wiki.URL, time.Second),
		DuckDuckGo(ddg.URL, time.Second),
	)

	answer, provider, err := chain.Search(context.Background(), "meaning of life")
	require.NoError(t, err)
	assert.Equal(t, "42", answer)
	assert.Equal(t, "duckduckgo", provider)
}
