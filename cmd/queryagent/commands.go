package main

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	queryagent "github.com/inferyx/queryagent"
	"github.com/inferyx/queryagent/pkg/agent"
	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/indexer"
	"github.com/inferyx/queryagent/pkg/mongodb"
	"github.com/inferyx/queryagent/pkg/server"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(queryagent.GetVersion().String())
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	app, err := newQueryApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	srv := server.NewHTTPServer(cfg, app.agent)

	greenColor := "\033[38;2;16;185;129m"
	resetColor := "\033[0m"
	fmt.Printf("\n%sQuery agent server ready%s\n", greenColor, resetColor)
	fmt.Printf("   Ask:     POST http://%s/v1/ask\n", srv.Address())
	fmt.Printf("   Health:  http://%s/health\n", srv.Address())
	fmt.Printf("   Schema:  http://%s/api/schema\n", srv.Address())
	if cfg.Metrics.Enabled {
		fmt.Printf("   Metrics: http://%s%s\n", srv.Address(), cfg.Metrics.Path)
	}
	fmt.Printf("   Database: %s\n", cfg.Mongo.Database)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// AskCmd answers a single question and exits.
type AskCmd struct {
	Question string `arg:"" help:"Natural language question about the database."`
	Trace    bool   `help:"Print the tool calls the model made."`
}

func (c *AskCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	app, err := newQueryApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	result, err := app.agent.Ask(ctx, c.Question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if c.Trace {
		printTrace(agent.BuildTrace(result.Transcript))
	}

	if result.Outcome == agent.OutcomeRoundLimit {
		fmt.Printf("No final answer after %d rounds.\n", result.Rounds)
		return nil
	}
	fmt.Println(result.Answer)
	return nil
}

// ChatCmd starts an interactive chat session.
type ChatCmd struct {
	Trace bool `help:"Print the tool calls behind each answer."`
}

func (c *ChatCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	app, err := newQueryApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return runChat(ctx, app.agent, cfg.Mongo.Database, c.Trace)
}

// printTrace renders tool invocations for debugging.
func printTrace(trace []agent.TraceEntry) {
	for i, entry := range trace {
		args, _ := json.Marshal(entry.Arguments)
		fmt.Printf("--- tool %d: %s %s\n", i+1, entry.Tool, args)
		fmt.Println(entry.Result)
	}
	if len(trace) > 0 {
		fmt.Println("---")
	}
}

// IndexCmd builds the retrieval indexes.
type IndexCmd struct {
	Schema   IndexSchemaCmd   `cmd:"" help:"Index collection schemas for retrieval."`
	Examples IndexExamplesCmd `cmd:"" help:"Index query examples for retrieval."`
}

// IndexSchemaCmd samples every collection and indexes its schema description.
type IndexSchemaCmd struct {
	SampleSize int `name:"sample-size" help:"Documents sampled per collection." default:"3"`
}

func (c *IndexSchemaCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, ix, closeFn, err := indexerSetup(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer closeFn()

	count, err := ix.BuildSchemaIndex(ctx, c.SampleSize)
	if err != nil {
		return fmt.Errorf("schema indexing failed: %w", err)
	}

	fmt.Printf("Indexed %d collection schemas into %s\n", count, cfg.Retrieval.SchemaCollection)
	return nil
}

// IndexExamplesCmd embeds the built-in query examples plus an optional file.
type IndexExamplesCmd struct {
	File       string `help:"JSON file with additional examples." type:"path"`
	SampleData bool   `name:"sample-data" help:"Also index the sample-dataset examples."`
}

func (c *IndexExamplesCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, ix, closeFn, err := indexerSetup(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer closeFn()

	examples := indexer.DefaultExamples()
	if c.SampleData {
		examples = append(examples, indexer.SampleDataExamples()...)
	}

	count, err := ix.BuildExamplesIndex(ctx, examples, c.File)
	if err != nil {
		return fmt.Errorf("examples indexing failed: %w", err)
	}

	fmt.Printf("Indexed %d query examples into %s\n", count, cfg.Retrieval.ExamplesCollection)
	return nil
}

// indexerSetup wires the store, embedder, and vector store an index command
// needs. The returned close function releases all three.
func indexerSetup(ctx context.Context, configPath string) (*config.Config, *indexer.Indexer, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := mongodb.Connect(ctx, &cfg.Mongo)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	embedder, vectors, err := buildRetrievalStack(cfg, store)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, nil, nil, err
	}

	closeFn := func() {
		_ = embedder.Close()
		_ = vectors.Close()
		_ = store.Close(context.Background())
	}

	ix, err := indexer.New(&cfg.Retrieval, store, embedder, vectors)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}

	return cfg, ix, closeFn, nil
}

// IngestCmd loads the sample data files from a directory into MongoDB.
type IngestCmd struct {
	Dir    string `arg:"" help:"Directory containing the sample JSON files." type:"path"`
	Append bool   `help:"Keep existing documents instead of replacing them."`
}

func (c *IngestCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	store, err := mongodb.Connect(ctx, &cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	ingestor, err := indexer.NewIngestor(store)
	if err != nil {
		return err
	}

	count, err := ingestor.IngestSampleData(ctx, c.Dir, !c.Append)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %d documents into %s\n", count, cfg.Mongo.Database)
	return nil
}

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	Path        string `arg:"" help:"Configuration file path." type:"path"`
	PrintConfig bool   `short:"p" name:"print-config" help:"Print the expanded configuration (defaults applied, env vars resolved)."`
}

func (c *ValidateCmd) Run() error {
	cfg, err := config.LoadConfig(c.Path)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", c.Path, err)
	}

	fmt.Printf("%s is valid\n", c.Path)

	if c.PrintConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Println(string(out))
	}
	return nil
}
