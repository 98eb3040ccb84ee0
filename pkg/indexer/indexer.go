// Package indexer builds the vector indexes the agent retrieves from: one
// schema-metadata entry per database collection and a set of worked
// question/query examples. It also loads extended-JSON sample data into the
// document store so the indexes have something to describe.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/embedders"
	"github.com/inferyx/queryagent/pkg/mongodb"
	"github.com/inferyx/queryagent/pkg/vector"
)

// defaultSchemaSampleSize is how many documents are inspected per collection
// when deriving its schema text.
const defaultSchemaSampleSize = 3

// SchemaSource provides the collections whose schemas get indexed.
// *mongodb.Store satisfies it.
type SchemaSource interface {
	ListCollectionNames(ctx context.Context) ([]string, error)
	SampleDocuments(ctx context.Context, collection string, limit int) ([]bson.D, error)
}

// Indexer writes schema and example entries into the vector store
type Indexer struct {
	config   *config.RetrievalConfig
	source   SchemaSource
	embedder embedders.EmbedderProvider
	vectors  vector.VectorStore
}

// New creates an indexer. All three dependencies are required: indexing is
// an explicit offline operation and has no degrade path.
func New(cfg *config.RetrievalConfig, source SchemaSource, embedder embedders.EmbedderProvider, vectors vector.VectorStore) (*Indexer, error) {
	if source == nil {
		return nil, fmt.Errorf("indexer requires a schema source")
	}
	if embedder == nil {
		return nil, fmt.Errorf("indexer requires an embedder")
	}
	if vectors == nil {
		return nil, fmt.Errorf("indexer requires a vector store")
	}
	if cfg == nil {
		cfg = &config.RetrievalConfig{}
	}
	cfg.SetDefaults()

	return &Indexer{
		config:   cfg,
		source:   source,
		embedder: embedder,
		vectors:  vectors,
	}, nil
}

// BuildSchemaIndex derives one schema text per collection, embeds them in a
// single batch, and upserts each into the schema index keyed by collection
// name. The index collections themselves and system collections are skipped.
// Returns how many entries were written.
func (ix *Indexer) BuildSchemaIndex(ctx context.Context, sampleSize int) (int, error) {
	if sampleSize <= 0 {
		sampleSize = defaultSchemaSampleSize
	}

	names, err := ix.source.ListCollectionNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list collections: %w", err)
	}

	skip := map[string]bool{
		ix.config.SchemaCollection:   true,
		ix.config.ExamplesCollection: true,
		"system.indexes":             true,
	}
	var toIndex []string
	for _, name := range names {
		if skip[name] || strings.HasPrefix(name, "system.") {
			continue
		}
		toIndex = append(toIndex, name)
	}
	if len(toIndex) == 0 {
		return 0, nil
	}

	texts := make([]string, len(toIndex))
	for i, name := range toIndex {
		docs, err := ix.source.SampleDocuments(ctx, name, sampleSize)
		if err != nil {
			return 0, fmt.Errorf("failed to sample %s: %w", name, err)
		}
		texts[i] = schemaText(name, docs)
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed schema texts: %w", err)
	}
	if len(embeddings) != len(toIndex) {
		return 0, fmt.Errorf("embedder returned %d embeddings for %d texts", len(embeddings), len(toIndex))
	}

	ix.ensureCollection(ctx, ix.config.SchemaCollection)

	written := 0
	for i, name := range toIndex {
		if len(embeddings[i]) == 0 {
			continue
		}
		metadata := map[string]interface{}{
			"collection_name": name,
			"text":            texts[i],
		}
		if err := ix.vectors.Upsert(ctx, ix.config.SchemaCollection, name, embeddings[i], metadata); err != nil {
			return written, fmt.Errorf("failed to upsert schema entry for %s: %w", name, err)
		}
		written++
	}

	slog.Info("Schema index built",
		"index", ix.config.SchemaCollection,
		"collections", written)
	return written, nil
}

// ensureCollection prepares the vector collection when the backend needs
// that. Failure is not fatal: the Atlas backend, for one, may lack index
// management permissions while upserts still work.
func (ix *Indexer) ensureCollection(ctx context.Context, collection string) {
	size := uint64(ix.embedder.GetDimension())
	if err := ix.vectors.CreateCollection(ctx, collection, size); err != nil {
		slog.Debug("Vector collection setup skipped",
			"collection", collection,
			"error", err)
	}
}

// schemaText renders one searchable blob for a collection: its name plus
// field names and types, first occurrence wins across the sampled documents.
func schemaText(name string, docs []bson.D) string {
	if len(docs) == 0 {
		return fmt.Sprintf("Collection %s (empty)", name)
	}

	parts := []string{fmt.Sprintf("Collection: %s. Fields:", name)}
	seen := make(map[string]bool)
	for _, doc := range docs {
		for _, elem := range doc {
			if seen[elem.Key] {
				continue
			}
			seen[elem.Key] = true

			label := mongodb.TypeName(elem.Value)
			if keys := mongodb.DocumentKeys(elem.Value, 6); keys != nil {
				label += " (keys: " + strings.Join(keys, ", ") + ")"
			} else if isObjectList(elem.Value) {
				label += " (list of objects)"
			}
			parts = append(parts, fmt.Sprintf("  %s: %s", elem.Key, label))
		}
	}
	return strings.Join(parts, "\n")
}

// isObjectList reports whether a value is a non-empty array whose first
// element is a document
func isObjectList(value interface{}) bool {
	var list []interface{}
	switch v := value.(type) {
	case bson.A:
		list = v
	case []interface{}:
		list = v
	default:
		return false
	}
	if len(list) == 0 {
		return false
	}
	switch list[0].(type) {
	case bson.D, bson.M, map[string]interface{}:
		return true
	}
	return false
}
