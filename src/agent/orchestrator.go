package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aide-project/aide/src/cache"
	"github.com/aide-project/aide/src/memory"
	"github.com/aide-project/aide/src/mode"
	"github.com/aide-project/aide/src/models"
	"github.com/aide-project/aide/src/tools"
)

const (
	recallTopK      = 5
	toolBlockTTL    = 10 * time.Minute
	defaultInferDur = 60 * time.Second
)

// Orchestrator drives one message through classification, memory recall,
// inference, tool dispatch and memory write-back.
type Orchestrator struct {
	Backend    models.Backend
	Dispatcher *Dispatcher
	Memory     memory.Store
	Log        *zap.Logger

	InferenceTimeout time.Duration

	promptCache *cache.LRUCache
}

func NewOrchestrator(backend models.Backend, d *Dispatcher, mem memory.Store, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		Backend:          backend,
		Dispatcher:       d,
		Memory:           mem,
		Log:              log,
		InferenceTimeout: defaultInferDur,
		promptCache:      cache.NewLRUCache(16, toolBlockTTL),
	}
}

// Query answers one user message. Tool-mode inference failures degrade
// to direct dispatch of implicit tools or a canned reply; they never
// surface as errors because the session must keep serving.
func (o *Orchestrator) Query(ctx context.Context, message string, mctx Context) Reply {
	m := mode.Classify(message)
	memories := o.recall(ctx, message)

	var reply Reply
	if m == mode.ToolUse {
		reply = o.toolQuery(ctx, message, mctx, memories)
	} else {
		reply = o.chatQuery(ctx, message, memories)
	}

	o.remember(ctx, message, reply)
	return reply
}

func (o *Orchestrator) toolQuery(ctx context.Context, message string, mctx Context, memories string) Reply {
	prompt := BuildToolPrompt(o.toolBlock(), memories, message)

	output, err := o.generate(ctx, prompt, models.Options{MaxTokens: 1024})
	if err != nil {
		o.Log.Warn("tool-mode inference failed, dispatching implicit tools", zap.Error(err))
		names := mode.ImplicitTools(message)
		if len(names) == 0 {
			return Reply{Mode: string(mode.ToolUse), Text: CannedReply(message)}
		}
		actions := o.Dispatcher.Dispatch(ctx, names, message, mctx)
		return Reply{
			Mode:    string(mode.ToolUse),
			Text:    AppendResults("Model unavailable; ran the tools your request implied.", actions),
			Actions: actions,
		}
	}

	names := mode.ExtractToolCalls(output)
	if len(names) == 0 {
		names = mode.ImplicitTools(output)
	}
	actions := o.Dispatcher.Dispatch(ctx, names, message, mctx)
	return Reply{
		Mode:    string(mode.ToolUse),
		Text:    AppendResults(output, actions),
		Actions: actions,
	}
}

func (o *Orchestrator) chatQuery(ctx context.Context, message, memories string) Reply {
	prompt := BuildChatPrompt(memories, message)
	output, err := o.generate(ctx, prompt, models.Options{MaxTokens: 1024})
	if err != nil {
		o.Log.Warn("chat inference failed", zap.Error(err))
		output = CannedReply(message)
	}
	return Reply{Mode: string(mode.Conversation), Text: output}
}

func (o *Orchestrator) generate(ctx context.Context, prompt string, opts models.Options) (string, error) {
	if o.Backend == nil {
		return "", models.ErrUnavailable
	}
	timeout := o.InferenceTimeout
	if timeout <= 0 {
		timeout = defaultInferDur
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return o.Backend.Generate(ctx, prompt, opts)
}

// toolBlock memoizes the rendered catalog per registry revision, so
// serializing dozens of tools does not repeat on every message.
func (o *Orchestrator) toolBlock() string {
	reg := o.Dispatcher.Registry
	key := cache.HashKey(fmt.Sprintf("toolblock:%d", reg.Revision()))
	if v, ok := o.promptCache.Get(key); ok {
		return v.(string)
	}
	block := BuildToolBlock(reg.Serialize())
	o.promptCache.Set(key, block)
	return block
}

func (o *Orchestrator) recall(ctx context.Context, query string) string {
	if o.Memory == nil {
		return ""
	}
	recs, err := o.Memory.Recall(ctx, query, recallTopK)
	if err != nil {
		o.Log.Warn("memory recall failed", zap.Error(err))
		return ""
	}
	return FormatMemories(recs)
}

func (o *Orchestrator) remember(ctx context.Context, message string, reply Reply) {
	if o.Memory == nil {
		return
	}
	content := fmt.Sprintf("User: %s\nAssistant: %s", message, reply.Text)
	if _, err := o.Memory.Save(ctx, content, "exchange", map[string]any{"mode": reply.Mode}); err != nil {
		o.Log.Warn("memory save failed", zap.Error(err))
	}
}

// Invoke runs one named tool directly.
func (o *Orchestrator) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return o.Dispatcher.InvokeOne(ctx, name, args)
}

// LoadTool registers new tool source under name via the registry's
// store.
func (o *Orchestrator) LoadTool(name, code string) error {
	return o.Dispatcher.Registry.HotLoad(name, code)
}

// Catalog returns the serialized tool catalog.
func (o *Orchestrator) Catalog() []tools.Spec {
	return o.Dispatcher.Registry.Serialize()
}
