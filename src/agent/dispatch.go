package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aide-project/aide/src/concurrent"
	"github.com/aide-project/aide/src/search"
	"github.com/aide-project/aide/src/tools"
)

// Dispatcher resolves extracted tool names against the registry and the
// search provider chain and runs them on the worker pool.
type Dispatcher struct {
	Registry *tools.Registry
	Chain    *search.Chain
	Pool     *concurrent.WorkerPool
	Log      *zap.Logger
}

func NewDispatcher(reg *tools.Registry, chain *search.Chain, pool *concurrent.WorkerPool, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if pool == nil {
		pool = concurrent.NewWorkerPool(0)
	}
	return &Dispatcher{Registry: reg, Chain: chain, Pool: pool, Log: log}
}

// Dispatch runs every named tool concurrently and returns one Action per
// name, in input order. A name matching a search provider ID routes to
// that single provider with the whole message as the query; a registry
// tool runs with derived arguments; anything else records a not_found
// action. Failures never abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, names []string, message string, mctx Context) []Action {
	if len(names) == 0 {
		return nil
	}
	actions, _ := concurrent.Map(ctx, d.Pool, names, func(ctx context.Context, name string) (Action, error) {
		return d.runOne(ctx, name, message, mctx), nil
	})
	return actions
}

func (d *Dispatcher) runOne(ctx context.Context, name, message string, mctx Context) Action {
	start := time.Now()

	// Provider IDs win a name collision with registry tools.
	if d.Chain != nil {
		if p, ok := d.Chain.Provider(name); ok {
			return d.runProvider(ctx, p, message, start)
		}
	}
	if !d.Registry.Exists(name) {
		err := &tools.NotFoundError{Name: name, Available: d.Registry.Names()}
		d.Log.Warn("unknown tool requested", zap.String("tool", name))
		return Action{Tool: name, Status: StatusNotFound, Error: err.Error(), Duration: time.Since(start)}
	}

	args := DeriveArgs(name, message, mctx)
	result, err := d.Registry.Call(ctx, name, args)
	if err != nil {
		d.Log.Warn("tool failed", zap.String("tool", name), zap.Error(err))
		return Action{Tool: name, Args: args, Status: StatusError, Error: err.Error(), Duration: time.Since(start)}
	}
	return Action{Tool: name, Args: args, Status: StatusOK, Result: result, Duration: time.Since(start)}
}

func (d *Dispatcher) runProvider(ctx context.Context, p search.Provider, message string, start time.Time) Action {
	args := map[string]any{"query": deriveQuery(message)}
	answer, err := p.Search(ctx, args["query"].(string))
	if err != nil {
		return Action{Tool: p.ID, Args: args, Status: StatusError, Error: err.Error(), Duration: time.Since(start)}
	}
	if strings.TrimSpace(answer) == "" {
		return Action{Tool: p.ID, Args: args, Status: StatusError, Error: "provider returned no answer", Duration: time.Since(start)}
	}
	return Action{
		Tool:     p.ID,
		Args:     args,
		Status:   StatusOK,
		Result:   map[string]any{"result": answer},
		Duration: time.Since(start),
	}
}

// InvokeOne runs a single registry tool with caller-supplied arguments.
// It backs the direct invocation path, where the client already knows
// the tool and its parameters.
func (d *Dispatcher) InvokeOne(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	var result map[string]any
	err := d.Pool.Do(ctx, func() error {
		var callErr error
		result, callErr = d.Registry.Call(ctx, name, args)
		return callErr
	})
	return result, err
}

// AppendResults folds tool outcomes into the model's text so the client
// sees both the narrative and the evidence. Successes render as result
// blocks, failures as inline notes.
func AppendResults(text string, actions []Action) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	for _, a := range actions {
		switch a.Status {
		case StatusOK:
			b.WriteString(fmt.Sprintf("\n\n**%s Result:**\n%s", a.Tool, renderResult(a.Result)))
		default:
			b.WriteString(fmt.Sprintf("\n\n*%s error: %s*", a.Tool, a.Error))
		}
	}
	return b.String()
}

func renderResult(result map[string]any) string {
	if len(result) == 1 {
		for _, v := range result {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprint(result)
	}
	return string(raw)
}

// IsNotFound reports whether err marks an unknown tool.
func IsNotFound(err error) bool {
	return errors.Is(err, tools.ErrToolNotFound)
}
