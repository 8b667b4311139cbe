package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aide-project/aide/src/concurrent"
	"github.com/aide-project/aide/src/memory"
	"github.com/aide-project/aide/src/models"
	"github.com/aide-project/aide/src/tools"
)

// scriptedBackend returns a fixed output, or fails when output is empty.
type scriptedBackend struct {
	output  string
	prompts []string
}

func (s *scriptedBackend) Name() string { return "scripted" }

func (s *scriptedBackend) Generate(_ context.Context, prompt string, _ models.Options) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.output == "" {
		return "", models.ErrUnavailable
	}
	return s.output, nil
}

func testOrchestrator(t *testing.T, backend models.Backend) *Orchestrator {
	t.Helper()
	reg := tools.NewRegistry(nil, nil)
	reg.Register(tools.NewFuncTool("echo", "echoes", map[string]any{"type": "object"},
		func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"echo": args["message"]}, nil
		}))
	d := NewDispatcher(reg, nil, concurrent.NewWorkerPool(2), nil)
	return NewOrchestrator(backend, d, memory.NewInMemoryStore(), nil)
}

func TestQueryToolModeRunsExtractedTools(t *testing.T) {
	backend := &scriptedBackend{output: "I'll echo that for you. TOOL[echo]"}
	o := testOrchestrator(t, backend)

	reply := o.Query(context.Background(), "can you echo my message", Context{})
	assert.Equal(t, "tool_use", reply.Mode)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, "echo", reply.Actions[0].Tool)
	assert.Equal(t, StatusOK, reply.Actions[0].Status)
	assert.Contains(t, reply.Text, "**echo Result:**")

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "TOOL[tool_name]",
		"tool-mode prompt should teach the invocation syntax")
	assert.Contains(t, backend.prompts[0], "echo: echoes")
}

func TestQueryConversationMode(t *testing.T) {
	backend := &scriptedBackend{output: "It depends on the workload."}
	o := testOrchestrator(t, backend)

	reply := o.Query(context.Background(), "I think the cache might be too small", Context{})
	assert.Equal(t, "conversation", reply.Mode)
	assert.Equal(t, "It depends on the workload.", reply.Text)
	assert.Empty(t, reply.Actions)
}

func TestQueryDegradesWhenBackendDown(t *testing.T) {
	o := testOrchestrator(t, &scriptedBackend{})

	reply := o.Query(context.Background(), "please summarize the design", Context{})
	assert.Equal(t, "tool_use", reply.Mode)
	assert.NotEmpty(t, reply.Text, "a dead backend still yields a reply")
}

func TestQueryDegradedImplicitDispatch(t *testing.T) {
	o := testOrchestrator(t, &scriptedBackend{})

	reply := o.Query(context.Background(), "please search the web for zig language", Context{})
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, "online_search", reply.Actions[0].Tool)
	assert.Equal(t, StatusNotFound, reply.Actions[0].Status,
		"no chain is configured, so the implied tool is reported missing")
}

func TestQueryInjectsRecalledMemory(t *testing.T) {
	backend := &scriptedBackend{output: "noted"}
	o := testOrchestrator(t, backend)

	_, err := o.Memory.Save(context.Background(),
		"the deployment target runs debian bookworm", "note", nil)
	require.NoError(t, err)

	o.Query(context.Background(), "I think the deployment target matters here", Context{})
	require.NotEmpty(t, backend.prompts)
	assert.Contains(t, backend.prompts[len(backend.prompts)-1], "debian bookworm")
}

func TestQuerySavesExchange(t *testing.T) {
	backend := &scriptedBackend{output: "sure"}
	o := testOrchestrator(t, backend)
	mem := o.Memory.(*memory.InMemoryStore)

	o.Query(context.Background(), "I believe logging matters", Context{})
	assert.Equal(t, 1, mem.Len())
}

func TestToolBlockMemoizedPerRevision(t *testing.T) {
	backend := &scriptedBackend{output: "TOOL[echo]"}
	o := testOrchestrator(t, backend)

	first := o.toolBlock()
	assert.Equal(t, first, o.toolBlock())

	o.Dispatcher.Registry.Register(tools.NewFuncTool("extra", "more", map[string]any{"type": "object"}, nil))
	refreshed := o.toolBlock()
	assert.NotEqual(t, first, refreshed)
	assert.True(t, strings.Contains(refreshed, "extra"))
}
