// Package queryagent answers natural language questions about a MongoDB
// database.
//
// A tool-calling language model drives the loop: it inspects collections,
// samples schemas, and runs find and aggregation queries until it can state
// an answer in plain language. Retrieval augmentation injects semantically
// relevant schema descriptions (and optionally curated query examples) into
// the model's instructions before every call.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/inferyx/queryagent/cmd/queryagent@latest
//
// Create a configuration:
//
//	mongo:
//	  uri: "${MONGODB_URI}"
//	  database: "inferyx"
//
//	llms:
//	  default-llm:
//	    type: "anthropic"
//	    api_key: "${ANTHROPIC_API_KEY}"
//
//	embedders:
//	  default-embedder:
//	    type: "voyageai"
//	    api_key: "${VOYAGE_API_KEY}"
//
// Build the retrieval indexes, then ask:
//
//	queryagent index schema --config config.yaml
//	queryagent ask "How many datapods are there?" --config config.yaml
//
// Or serve over HTTP:
//
//	queryagent serve --config config.yaml
//
// # Using as Go Library
//
// Import the packages directly:
//
//	import (
//	    "github.com/inferyx/queryagent/pkg/agent"
//	    "github.com/inferyx/queryagent/pkg/config"
//	    "github.com/inferyx/queryagent/pkg/tools"
//	)
//
// Wire an agent from its dependencies and call Ask:
//
//	registry := tools.NewToolRegistry()
//	_ = tools.RegisterMongoTools(registry, store)
//	qa, _ := agent.New(agent.Config{LLM: llm, Tools: registry})
//	result, _ := qa.Ask(ctx, "Which users signed up this week?")
//
// # Key Features
//
//   - Tool-calling loop over four MongoDB tools: list collections, inspect
//     schemas, run find queries, run aggregation pipelines
//   - Retrieval-augmented prompts backed by Atlas Vector Search, Qdrant, or
//     embedded chromem-go
//   - Offline index builders for collection schemas and query examples
//   - HTTP server and interactive CLI chat over the same agent
//   - Prometheus metrics for every ask, model call, tool run, and retrieval
package queryagent
