package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyBackend is a lightweight implementation useful for local testing
// without API calls. It echoes the last non-empty line of the prompt.
type DummyBackend struct {
	Prefix string
}

func NewDummyBackend(prefix string) *DummyBackend {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyBackend{Prefix: prefix}
}

func (d *DummyBackend) Name() string { return "dummy" }

func (d *DummyBackend) Generate(_ context.Context, prompt string, _ Options) (string, error) {
	lines := strings.Split(prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return fmt.Sprintf("%s %s", d.Prefix, last), nil
}
