// Package retrieval builds the vector-search context blocks injected into
// the agent's system prompt: schema metadata describing the database and,
// optionally, worked example questions.
//
// Retrieval is strictly best-effort. Whatever fails (no embedder, no vector
// store, embedding error, search error, nothing indexed) the augmenter
// returns an empty string and the agent proceeds on its base instructions.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/embedders"
	"github.com/inferyx/queryagent/pkg/observability"
	"github.com/inferyx/queryagent/pkg/vector"
)

const (
	schemaContextHeader   = "Relevant schema metadata (from vector search; use this to prioritize which collections/fields to use):"
	examplesContextHeader = "Similar example questions and how they were answered (use as reference for tool usage and query shape):"
)

// Augmenter retrieves prompt context for a question from the vector indexes
type Augmenter struct {
	config   *config.RetrievalConfig
	embedder embedders.EmbedderProvider
	store    vector.VectorStore
}

// NewAugmenter creates an augmenter. A nil embedder or store is allowed and
// turns every lookup into the empty-context degrade path.
func NewAugmenter(cfg *config.RetrievalConfig, embedder embedders.EmbedderProvider, store vector.VectorStore) *Augmenter {
	if cfg == nil {
		cfg = &config.RetrievalConfig{}
	}
	cfg.SetDefaults()

	return &Augmenter{
		config:   cfg,
		embedder: embedder,
		store:    store,
	}
}

// Augment returns the schema-metadata context block for a question, or ""
// when nothing relevant can be retrieved.
func (a *Augmenter) Augment(ctx context.Context, question string) string {
	hits := a.search(ctx, question, a.config.SchemaCollection, a.config.SchemaTopK)
	if len(hits) == 0 {
		return ""
	}

	lines := []string{schemaContextHeader, ""}
	for _, hit := range hits {
		text := metaString(hit.Metadata, "text", "description")
		collection := metaString(hit.Metadata, "collection_name", "collection")
		if text != "" {
			lines = append(lines, fmt.Sprintf("- [%s] %s", collection, text))
		}
	}
	if len(lines) <= 2 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// AugmentExamples returns the few-shot examples context block for a
// question, or "" when nothing relevant can be retrieved.
func (a *Augmenter) AugmentExamples(ctx context.Context, question string) string {
	hits := a.search(ctx, question, a.config.ExamplesCollection, a.config.ExamplesTopK)
	if len(hits) == 0 {
		return ""
	}

	lines := []string{examplesContextHeader, ""}
	for _, hit := range hits {
		nl := metaString(hit.Metadata, "natural_language", "question")
		query := metaString(hit.Metadata, "query", "pipeline", "example_query")
		if nl == "" && query == "" {
			continue
		}
		lines = append(lines, "Q: "+nl)
		if query != "" {
			lines = append(lines, "  → "+query)
		}
		lines = append(lines, "")
	}
	if len(lines) <= 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// search embeds the question and queries one index. Any failure degrades to
// no hits.
func (a *Augmenter) search(ctx context.Context, question, collection string, topK int) []vector.SearchResult {
	if a.embedder == nil || a.store == nil {
		return nil
	}

	start := time.Now()

	embedding, err := a.embedder.Embed(ctx, question)
	if err != nil || len(embedding) == 0 {
		slog.Debug("Retrieval embedding unavailable", "collection", collection, "error", err)
		return nil
	}

	hits, err := a.store.Search(ctx, collection, embedding, topK)
	if err != nil {
		slog.Debug("Retrieval search failed", "collection", collection, "error", err)
		return nil
	}

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordRetrieval(ctx, collection, time.Since(start), len(hits))
	}

	return hits
}

// metaString returns the first non-empty value among the given metadata
// keys, rendering non-string values with fmt.
func metaString(metadata map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		value, ok := metadata[key]
		if !ok || value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			if s != "" {
				return s
			}
			continue
		}
		return fmt.Sprint(value)
	}
	return ""
}
