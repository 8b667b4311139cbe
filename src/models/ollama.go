package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaBackend talks to a local or remote Ollama server.
type OllamaBackend struct {
	client *ollama.Client
	model  string
}

func NewOllamaBackend(model string) (*OllamaBackend, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	httpClient := &http.Client{Timeout: 120 * time.Second}
	return &OllamaBackend{
		client: ollama.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (o *OllamaBackend) Name() string { return "ollama/" + o.model }

func (o *OllamaBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	genOpts := map[string]any{}
	if opts.MaxTokens > 0 {
		genOpts["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		genOpts["temperature"] = opts.Temperature
	}
	if len(opts.Stop) > 0 {
		genOpts["stop"] = opts.Stop
	}

	req := &ollama.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: genOpts,
	}

	var text strings.Builder
	if err := o.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text.String(), nil
}
