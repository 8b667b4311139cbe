package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aide-project/aide/src/agent"
	"github.com/aide-project/aide/src/concurrent"
	"github.com/aide-project/aide/src/config"
	"github.com/aide-project/aide/src/memory"
	"github.com/aide-project/aide/src/models"
	"github.com/aide-project/aide/src/search"
	"github.com/aide-project/aide/src/session"
	"github.com/aide-project/aide/src/tools"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*configPath, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(configPath string, log *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := tools.NewStore(cfg.ToolsDir, cfg.ToolTimeout)
	if err != nil {
		return err
	}
	registry := tools.NewRegistry(log, store)

	chain := buildChain(cfg, log)
	for _, t := range tools.Builtins(cfg.WorkspaceRoot, chain) {
		registry.Register(t)
	}
	registry.LoadFromStore()

	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("model backend ready", zap.String("backend", backend.Name()))

	mem, err := buildMemory(ctx, cfg)
	if err != nil {
		return err
	}
	defer mem.Close(context.Background())

	pool := concurrent.NewWorkerPool(cfg.MaxToolWorkers)
	dispatcher := agent.NewDispatcher(registry, chain, pool, log)
	orch := agent.NewOrchestrator(backend, dispatcher, mem, log)
	orch.InferenceTimeout = cfg.InferenceTimeout

	server := session.NewServer(orch, cfg.KeepaliveInterval, log)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("tools", registry.Count()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func buildChain(cfg config.Config, log *zap.Logger) *search.Chain {
	var providers []search.Provider
	for _, id := range cfg.Providers {
		switch id {
		case "duckduckgo":
			providers = append(providers, search.DuckDuckGo("", cfg.SearchTimeout))
		case "wikipedia":
			providers = append(providers, search.Wikipedia("", cfg.SearchTimeout))
		case "searxng":
			providers = append(providers, search.SearxNG("", cfg.SearchTimeout))
		case "wolframalpha":
			providers = append(providers, search.WolframAlpha("", cfg.WolframAppID, cfg.SearchTimeout))
		case "openmeteo":
			providers = append(providers, search.OpenMeteo("", cfg.SearchTimeout))
		case "perplexity":
			providers = append(providers, search.Perplexity("", cfg.PerplexityKey, cfg.SearchTimeout))
		default:
			log.Warn("unknown search provider, skipping", zap.String("provider", id))
		}
	}
	return search.NewChain(log, providers...)
}

func buildBackend(ctx context.Context, cfg config.Config) (models.Backend, error) {
	switch cfg.ModelBackend {
	case "", "dummy":
		return models.NewDummyBackend(""), nil
	case "ollama":
		return models.NewOllamaBackend(cfg.ModelName)
	case "openai":
		return models.NewOpenAIBackend(cfg.OpenAIKey, cfg.ModelName)
	case "anthropic":
		return models.NewAnthropicBackend(cfg.AnthropicKey, cfg.ModelName)
	case "gemini":
		return models.NewGeminiBackend(ctx, cfg.GeminiKey, cfg.ModelName)
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.ModelBackend)
	}
}

func buildMemory(ctx context.Context, cfg config.Config) (memory.Store, error) {
	switch cfg.MemoryBackend {
	case "", "inmemory":
		return memory.NewInMemoryStore(), nil
	case "postgres":
		return memory.NewPostgresStore(ctx, cfg.PostgresURL)
	case "mongo":
		return memory.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case "neo4j":
		return memory.NewNeo4jStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.MemoryBackend)
	}
}
