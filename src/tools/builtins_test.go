package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinsWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("# notes\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util.go"), []byte("package src\n"), 0o644))
	return root
}

func findTool(t *testing.T, ts []Tool, name string) Tool {
	t.Helper()
	for _, tool := range ts {
		if tool.Spec().Name == name {
			return tool
		}
	}
	t.Fatalf("builtin %s not found", name)
	return nil
}

func TestBuiltinEcho(t *testing.T) {
	ts := Builtins(t.TempDir(), nil)
	echo := findTool(t, ts, "echo")

	out, err := echo.Invoke(context.Background(), map[string]any{"message": "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ping", out["echo"])
}

func TestBuiltinReadFile(t *testing.T) {
	root := builtinsWorkspace(t)
	read := findTool(t, Builtins(root, nil), "read_file")

	out, err := read.Invoke(context.Background(), map[string]any{"path": "notes.md"})
	require.NoError(t, err)
	assert.Equal(t, "# notes\n", out["content"])
	assert.Equal(t, 8, out["size"])
}

func TestBuiltinReadFileConfinement(t *testing.T) {
	root := builtinsWorkspace(t)
	read := findTool(t, Builtins(root, nil), "read_file")

	for _, p := range []string{"../etc/passwd", "../../x", "src/../../y"} {
		_, err := read.Invoke(context.Background(), map[string]any{"path": p})
		assert.Error(t, err, "path %q must not escape the workspace", p)
	}
}

func TestBuiltinAnalyzeCodebase(t *testing.T) {
	root := builtinsWorkspace(t)
	analyze := findTool(t, Builtins(root, nil), "analyze_codebase")

	out, err := analyze.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out["total_files"])

	byExt, ok := out["by_extension"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, byExt[".go"])
	assert.Equal(t, 1, byExt[".md"])
}

func TestBuiltinGetContext(t *testing.T) {
	root := builtinsWorkspace(t)
	ctxTool := findTool(t, Builtins(root, nil), "get_context")

	out, err := ctxTool.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out["directories"], "src")
	assert.Contains(t, out["files"], "main.go")
}

func TestBuiltinsOmitSearchWithoutChain(t *testing.T) {
	ts := Builtins(t.TempDir(), nil)
	for _, tool := range ts {
		assert.NotEqual(t, "online_search", tool.Spec().Name)
	}
}
