package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "dummy", cfg.ModelBackend)
	assert.Equal(t, "inmemory", cfg.MemoryBackend)
	assert.Equal(t, []string{"duckduckgo", "wikipedia"}, cfg.Providers)
	assert.Equal(t, 30*time.Second, cfg.KeepaliveInterval)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"addr": ":9090",
		"model_backend": "ollama",
		"model_name": "llama3",
		"providers": ["wikipedia", "searxng"]
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "ollama", cfg.ModelBackend)
	assert.Equal(t, "llama3", cfg.ModelName)
	assert.Equal(t, []string{"wikipedia", "searxng"}, cfg.Providers)
	assert.Equal(t, "inmemory", cfg.MemoryBackend, "unset fields keep defaults")
}

func TestLoadMissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AIDE_ADDR", ":7070")
	t.Setenv("AIDE_PROVIDERS", "SearxNG, wikipedia ,")
	t.Setenv("AIDE_TOOL_TIMEOUT", "5s")
	t.Setenv("AIDE_MAX_TOOL_WORKERS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, []string{"searxng", "wikipedia"}, cfg.Providers)
	assert.Equal(t, 5*time.Second, cfg.ToolTimeout)
	assert.Equal(t, 3, cfg.MaxToolWorkers)
}
