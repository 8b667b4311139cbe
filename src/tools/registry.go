package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry is the catalog of all currently known tools. It is shared by
// every session and must be safe for concurrent reads interleaved with
// runtime registration and hot-loading.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
	rev   uint64

	store *Store
	log   *zap.Logger
}

// NewRegistry constructs an empty registry. store may be nil, in which
// case HotLoad and LoadFromStore are unavailable.
func NewRegistry(log *zap.Logger, store *Store) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		tools: make(map[string]Tool),
		order: nil,
		store: store,
		log:   log,
	}
}

// Register adds a tool to the registry using a lower-cased key. A tool
// registered under an existing name replaces the previous entry and keeps
// its original position in the listing order.
func (r *Registry) Register(tool Tool) {
	if tool == nil {
		return
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[key]; !exists {
		r.order = append(r.order, key)
	}
	r.tools[key] = tool
	r.rev++
	r.log.Debug("tool registered", zap.String("tool", key))
}

// Exists reports whether a tool is registered under name.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Call executes the named tool. An unknown name yields a NotFoundError;
// any handler failure (including a panic) is wrapped in an ExecutionError.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (result map[string]any, err error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	tool, ok := r.tools[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Name: name, Available: r.Names()}
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &ExecutionError{Name: key, Err: &panicError{p: p}}
		}
	}()

	result, err = tool.Invoke(ctx, args)
	if err != nil {
		return nil, &ExecutionError{Name: key, Err: err}
	}
	return result, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Revision returns a counter that increases on every mutation. Callers
// use it to invalidate caches derived from the catalog.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rev
}

// Serialize renders the catalog for transmission to clients. It is a
// total function: any panic raised by a misbehaving tool's Spec method is
// swallowed and an empty slice is returned, because this output goes
// straight onto the wire and must never break the protocol.
func (r *Registry) Serialize() (specs []Spec) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("registry serialization failed", zap.Any("panic", p))
			specs = []Spec{}
		}
	}()

	r.mu.RLock()
	defer r.mu.RUnlock()

	specs = make([]Spec, 0, len(r.order))
	for _, key := range r.order {
		specs = append(specs, r.tools[key].Spec())
	}
	return specs
}

// HotLoad persists source code as a new script-backed tool unit and
// registers it immediately, so the very next Serialize or Call from any
// session observes it. Readers see either the pre- or post-load catalog,
// never a partially registered tool.
func (r *Registry) HotLoad(name, code string) error {
	if r.store == nil {
		return &LoadError{Unit: name, Err: fmt.Errorf("no tool store configured")}
	}
	tool, err := r.store.SaveScript(name, code)
	if err != nil {
		return err
	}
	r.Register(tool)
	r.log.Info("tool hot-loaded", zap.String("tool", tool.Spec().Name))
	return nil
}

// LoadFromStore scans the tool store directory and registers every unit
// it can load. A unit that fails to load is logged and skipped; the scan
// always continues.
func (r *Registry) LoadFromStore() int {
	if r.store == nil {
		return 0
	}
	loaded := 0
	for _, tool := range r.store.LoadAll(r.log) {
		r.Register(tool)
		loaded++
	}
	r.log.Info("tool directory scan complete",
		zap.Int("loaded", loaded),
		zap.Int("registered", r.Count()))
	return loaded
}
