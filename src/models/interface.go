// Package models adapts the supported inference backends to one small
// generation interface.
package models

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a backend cannot be reached or is not
// configured. Callers degrade to canned replies instead of failing the
// session.
var ErrUnavailable = errors.New("model backend unavailable")

// Options tunes a single generation call. Zero values mean backend
// defaults.
type Options struct {
	MaxTokens   int
	Temperature float32
	Stop        []string
}

// Backend is a text-in, text-out inference engine.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}
