package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aide-project/aide/src/concurrent"
	"github.com/aide-project/aide/src/search"
	"github.com/aide-project/aide/src/tools"
)

func testDispatcher(t *testing.T, chain *search.Chain) (*Dispatcher, *tools.Registry) {
	t.Helper()
	reg := tools.NewRegistry(nil, nil)
	reg.Register(tools.NewFuncTool("echo", "echoes", map[string]any{"type": "object"},
		func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"echo": args["message"]}, nil
		}))
	reg.Register(tools.NewFuncTool("flaky", "always fails", map[string]any{"type": "object"},
		func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("downstream unavailable")
		}))
	return NewDispatcher(reg, chain, concurrent.NewWorkerPool(4), nil), reg
}

func TestDispatchPartialSuccess(t *testing.T) {
	d, _ := testDispatcher(t, nil)

	actions := d.Dispatch(context.Background(), []string{"echo", "flaky", "ghost"}, "hello", Context{})
	require.Len(t, actions, 3)

	assert.Equal(t, StatusOK, actions[0].Status)
	assert.Equal(t, "hello", actions[0].Result["echo"])

	assert.Equal(t, StatusError, actions[1].Status)
	assert.Contains(t, actions[1].Error, "downstream unavailable")

	assert.Equal(t, StatusNotFound, actions[2].Status)
	assert.Contains(t, actions[2].Error, "Tool ghost not found")
}

func TestDispatchProviderByID(t *testing.T) {
	chain := search.NewChain(nil, search.Provider{
		ID: "wikipedia",
		Search: func(_ context.Context, query string) (string, error) {
			assert.Equal(t, "the moon landing", query)
			return "Apollo 11 landed in 1969.", nil
		},
	})
	d, _ := testDispatcher(t, chain)

	actions := d.Dispatch(context.Background(), []string{"wikipedia"}, "look up the moon landing", Context{})
	require.Len(t, actions, 1)
	assert.Equal(t, StatusOK, actions[0].Status)
	assert.Equal(t, "Apollo 11 landed in 1969.", actions[0].Result["result"])
}

func TestDispatchProviderWinsNameCollision(t *testing.T) {
	chain := search.NewChain(nil, search.Provider{
		ID: "echo",
		Search: func(context.Context, string) (string, error) {
			return "provider answer", nil
		},
	})
	d, _ := testDispatcher(t, chain)

	actions := d.Dispatch(context.Background(), []string{"echo"}, "hi", Context{})
	require.Len(t, actions, 1)
	assert.Equal(t, StatusOK, actions[0].Status)
	assert.Equal(t, "provider answer", actions[0].Result["result"],
		"a name matching a provider routes to the provider even when a registry tool shares it")
}

func TestInvokeOne(t *testing.T) {
	d, _ := testDispatcher(t, nil)

	out, err := d.InvokeOne(context.Background(), "echo", map[string]any{"message": "direct"})
	require.NoError(t, err)
	assert.Equal(t, "direct", out["echo"])

	_, err = d.InvokeOne(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestAppendResults(t *testing.T) {
	text := AppendResults("Narrative.", []Action{
		{Tool: "echo", Status: StatusOK, Result: map[string]any{"echo": "hi"}},
		{Tool: "ghost", Status: StatusNotFound, Error: "Tool ghost not found. Available: [echo]"},
	})
	assert.Contains(t, text, "Narrative.")
	assert.Contains(t, text, "**echo Result:**")
	assert.Contains(t, text, "*ghost error: Tool ghost not found")
}

func TestDeriveArgs(t *testing.T) {
	args := DeriveArgs("read_file", "please read the src/config/config.go for me", Context{})
	assert.Equal(t, "src/config/config.go", args["path"])

	args = DeriveArgs("read_file", "read the current file", Context{CurrentFile: "main.go"})
	assert.Equal(t, "main.go", args["path"])

	args = DeriveArgs("online_search", "search for golang generics tutorial", Context{})
	assert.Equal(t, "golang generics tutorial", args["query"])

	args = DeriveArgs("online_search", "what is a bloom filter?", Context{})
	assert.Equal(t, "a bloom filter", args["query"])
}

func TestContextDecodesClientKeys(t *testing.T) {
	var mctx Context
	raw := `{"currentFile": "src/agent/args.go", "workspace": "/home/dev/aide"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &mctx))
	assert.Equal(t, "src/agent/args.go", mctx.CurrentFile)
	assert.Equal(t, "/home/dev/aide", mctx.Workspace)

	args := DeriveArgs("read_file", "read the current file", mctx)
	assert.Equal(t, "src/agent/args.go", args["path"])
}
