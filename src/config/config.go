// Package config assembles runtime settings from defaults, an optional
// JSON file and environment variables, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Addr          string `json:"addr"`
	ToolsDir      string `json:"tools_dir"`
	WorkspaceRoot string `json:"workspace_root"`

	ModelBackend string `json:"model_backend"`
	ModelName    string `json:"model_name"`

	MemoryBackend   string `json:"memory_backend"`
	PostgresURL     string `json:"postgres_url"`
	MongoURI        string `json:"mongo_uri"`
	MongoDatabase   string `json:"mongo_database"`
	MongoCollection string `json:"mongo_collection"`
	Neo4jURI        string `json:"neo4j_uri"`
	Neo4jUser       string `json:"neo4j_user"`
	Neo4jPassword   string `json:"neo4j_password"`

	Providers []string `json:"providers"`

	OpenAIKey     string `json:"-"`
	AnthropicKey  string `json:"-"`
	GeminiKey     string `json:"-"`
	PerplexityKey string `json:"-"`
	WolframAppID  string `json:"-"`

	KeepaliveInterval time.Duration `json:"-"`
	ToolTimeout       time.Duration `json:"-"`
	SearchTimeout     time.Duration `json:"-"`
	InferenceTimeout  time.Duration `json:"-"`

	MaxToolWorkers int `json:"max_tool_workers"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ToolsDir:          "tools.d",
		WorkspaceRoot:     ".",
		ModelBackend:      "dummy",
		MemoryBackend:     "inmemory",
		MongoDatabase:     "aide",
		MongoCollection:   "memories",
		Providers:         []string{"duckduckgo", "wikipedia"},
		KeepaliveInterval: 30 * time.Second,
		ToolTimeout:       30 * time.Second,
		SearchTimeout:     10 * time.Second,
		InferenceTimeout:  60 * time.Second,
		MaxToolWorkers:    8,
	}
}

// Load builds the config: defaults, then the JSON file at path (skipped
// when path is empty or missing), then environment variables. A .env
// file in the working directory is folded into the environment first.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if cfg.MaxToolWorkers <= 0 {
		cfg.MaxToolWorkers = 8
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Addr, "AIDE_ADDR")
	setString(&c.ToolsDir, "AIDE_TOOLS_DIR")
	setString(&c.WorkspaceRoot, "AIDE_WORKSPACE")
	setString(&c.ModelBackend, "AIDE_MODEL_BACKEND")
	setString(&c.ModelName, "AIDE_MODEL_NAME")
	setString(&c.MemoryBackend, "AIDE_MEMORY_BACKEND")
	setString(&c.PostgresURL, "AIDE_POSTGRES_URL")
	setString(&c.MongoURI, "AIDE_MONGO_URI")
	setString(&c.MongoDatabase, "AIDE_MONGO_DATABASE")
	setString(&c.MongoCollection, "AIDE_MONGO_COLLECTION")
	setString(&c.Neo4jURI, "AIDE_NEO4J_URI")
	setString(&c.Neo4jUser, "AIDE_NEO4J_USER")
	setString(&c.Neo4jPassword, "AIDE_NEO4J_PASSWORD")

	setString(&c.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.AnthropicKey, "ANTHROPIC_API_KEY")
	setString(&c.GeminiKey, "GEMINI_API_KEY")
	setString(&c.PerplexityKey, "PERPLEXITY_API_KEY")
	setString(&c.WolframAppID, "WOLFRAM_APP_ID")

	if v := os.Getenv("AIDE_PROVIDERS"); v != "" {
		var providers []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
				providers = append(providers, p)
			}
		}
		c.Providers = providers
	}

	setDuration(&c.KeepaliveInterval, "AIDE_KEEPALIVE_INTERVAL")
	setDuration(&c.ToolTimeout, "AIDE_TOOL_TIMEOUT")
	setDuration(&c.SearchTimeout, "AIDE_SEARCH_TIMEOUT")
	setDuration(&c.InferenceTimeout, "AIDE_INFERENCE_TIMEOUT")

	if v := os.Getenv("AIDE_MAX_TOOL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxToolWorkers = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
