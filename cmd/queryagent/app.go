package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/inferyx/queryagent/pkg/agent"
	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/embedders"
	"github.com/inferyx/queryagent/pkg/llms"
	"github.com/inferyx/queryagent/pkg/mongodb"
	"github.com/inferyx/queryagent/pkg/observability"
	"github.com/inferyx/queryagent/pkg/retrieval"
	"github.com/inferyx/queryagent/pkg/tools"
	"github.com/inferyx/queryagent/pkg/vector"
)

// loadConfig loads the config file named by --config, or a default
// configuration when no file is given. Defaults pull the MongoDB URI and
// provider API keys from the environment.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No config file given, using defaults")
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded configuration", "path", path)
	return cfg, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	return ctx, cancel
}

// buildRetrievalStack creates the embedder and vector store pair the indexer
// and the augmenter share. The mongo vector store type rides the given
// database connection.
func buildRetrievalStack(cfg *config.Config, store *mongodb.Store) (embedders.EmbedderProvider, vector.VectorStore, error) {
	embedderCfg, ok := cfg.GetEmbedder(cfg.Retrieval.Embedder)
	if !ok {
		return nil, nil, fmt.Errorf("embedder '%s' not configured", cfg.Retrieval.Embedder)
	}
	embedderRegistry := embedders.NewEmbedderRegistry()
	embedder, err := embedderRegistry.CreateEmbedderFromConfig(cfg.Retrieval.Embedder, embedderCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	storeCfg, ok := cfg.GetVectorStore(cfg.Retrieval.VectorStore)
	if !ok {
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("vector store '%s' not configured", cfg.Retrieval.VectorStore)
	}
	indexes := map[string]string{
		cfg.Retrieval.SchemaCollection:   cfg.Retrieval.SchemaIndex,
		cfg.Retrieval.ExamplesCollection: cfg.Retrieval.ExamplesIndex,
	}
	vectorRegistry := vector.NewVectorStoreRegistry()
	vectors, err := vectorRegistry.CreateVectorStoreFromConfig(cfg.Retrieval.VectorStore, storeCfg, store, indexes)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	return embedder, vectors, nil
}

// queryApp is the wired component graph behind the serving commands: the
// database connection, providers, tool registry, and the agent itself.
type queryApp struct {
	cfg      *config.Config
	store    *mongodb.Store
	llm      llms.LLMProvider
	embedder embedders.EmbedderProvider
	vectors  vector.VectorStore
	agent    *agent.Agent
}

// newQueryApp connects to MongoDB and wires everything ask, chat, and serve
// need.
func newQueryApp(ctx context.Context, cfg *config.Config) (*queryApp, error) {
	if cfg.Metrics.Enabled {
		metrics, err := observability.InitMetrics(&cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		observability.SetGlobalMetrics(metrics)
	}

	store, err := mongodb.Connect(ctx, &cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	app := &queryApp{cfg: cfg, store: store}

	embedder, vectors, err := buildRetrievalStack(cfg, store)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.embedder = embedder
	app.vectors = vectors

	llmCfg, ok := cfg.GetLLM(cfg.Agent.LLM)
	if !ok {
		app.Close(ctx)
		return nil, fmt.Errorf("LLM '%s' not configured", cfg.Agent.LLM)
	}
	llmRegistry := llms.NewLLMRegistry()
	llm, err := llmRegistry.CreateLLMFromConfig(cfg.Agent.LLM, llmCfg)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.llm = llm

	toolRegistry := tools.NewToolRegistry()
	if err := tools.RegisterMongoTools(toolRegistry, store); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	augmenter := retrieval.NewAugmenter(&cfg.Retrieval, embedder, vectors)

	qa, err := agent.New(agent.Config{
		Agent:           &cfg.Agent,
		LLM:             llm,
		Tools:           toolRegistry,
		Augmenter:       augmenter,
		Database:        cfg.Mongo.Database,
		IncludeExamples: cfg.Retrieval.IncludeExamples,
	})
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	app.agent = qa

	slog.Info("Query agent ready",
		"database", cfg.Mongo.Database,
		"model", llm.GetModelName(),
		"max_rounds", cfg.Agent.MaxRounds)

	return app, nil
}

// Close releases every held resource. Safe on a partially built app.
func (a *queryApp) Close(ctx context.Context) {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
	if a.store != nil {
		_ = a.store.Close(ctx)
	}
}
