package vector

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/inferyx/queryagent/pkg/config"
)

// ============================================================================
// CHROMEM (EMBEDDED) IMPLEMENTATION
// ============================================================================

// ChromemVectorStore stores vectors in-process with chromem-go. It needs no
// external service, which makes it the backend of choice for development and
// tests. With a persistence path configured, writes survive restarts.
//
// Limitations: single process, all vectors in RAM, metadata values flattened
// to strings.
type ChromemVectorStore struct {
	db *chromem.DB
	mu sync.RWMutex

	// collections caches collection handles
	collections map[string]*chromem.Collection

	// embeddingFunc rejects implicit embedding; vectors arrive pre-computed
	embeddingFunc chromem.EmbeddingFunc
}

// NewChromemVectorStore creates an embedded vector store. An empty path
// keeps everything in memory; otherwise chromem persists each write under
// the configured directory.
func NewChromemVectorStore(cfg *config.VectorStoreConfig) (*ChromemVectorStore, error) {
	var db *chromem.DB
	var err error

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persist directory: %w", err)
		}
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database at %s: %w", cfg.Path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	rejectEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding function called but vectors must be pre-computed")
	}

	return &ChromemVectorStore{
		db:            db,
		collections:   make(map[string]*chromem.Collection),
		embeddingFunc: rejectEmbed,
	}, nil
}

// getCollection gets or creates a collection
func (c *ChromemVectorStore) getCollection(name string) (*chromem.Collection, error) {
	c.mu.RLock()
	if col, ok := c.collections[name]; ok {
		c.mu.RUnlock()
		return col, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if col, ok := c.collections[name]; ok {
		return col, nil
	}

	col, err := c.db.GetOrCreateCollection(name, nil, c.embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection %q: %w", name, err)
	}

	c.collections[name] = col
	return col, nil
}

// Upsert adds or replaces a document with its pre-computed embedding.
// Metadata values are flattened to strings, the chromem storage format.
func (c *ChromemVectorStore) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error {
	col, err := c.getCollection(collection)
	if err != nil {
		return err
	}

	strMetadata := make(map[string]string, len(metadata))
	for k, v := range metadata {
		strMetadata[k] = fmt.Sprint(v)
	}

	doc := chromem.Document{
		ID:        id,
		Metadata:  strMetadata,
		Embedding: vector,
	}

	if err := col.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// Search finds the most similar vectors in a collection. chromem rejects
// queries asking for more results than the collection holds, so topK is
// clamped to the document count.
func (c *ChromemVectorStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	col, err := c.getCollection(collection)
	if err != nil {
		return nil, err
	}

	if count := col.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}

		out = append(out, SearchResult{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: metadata,
		})
	}

	return out, nil
}

// CreateCollection creates a collection. chromem sizes collections from the
// first vector written, so vectorSize is not needed here.
func (c *ChromemVectorStore) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	_, err := c.getCollection(collection)
	return err
}

// DeleteCollection removes a collection and all its documents
func (c *ChromemVectorStore) DeleteCollection(ctx context.Context, collection string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	delete(c.collections, collection)

	return nil
}

// Close releases resources. Persistence happens per write, so there is
// nothing left to flush.
func (c *ChromemVectorStore) Close() error {
	return nil
}

var _ VectorStore = (*ChromemVectorStore)(nil)
