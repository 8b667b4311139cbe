package tools

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the tools package. Use errors.Is to check.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrToolLoad     = errors.New("tool load failed")
)

// NotFoundError reports a call against an unregistered tool name. The
// message lists the currently available names because it is forwarded
// verbatim to clients.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Tool %s not found. Available: [%s]", e.Name, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// ExecutionError wraps a failure raised by a tool handler.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// LoadError wraps a failure to load or register a tool unit.
type LoadError struct {
	Unit string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load tool %s: %v", e.Unit, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrToolLoad }

// panicError wraps a recovered panic value from a tool handler.
type panicError struct{ p any }

func (e *panicError) Error() string { return "panic: " + fmt.Sprint(e.p) }
