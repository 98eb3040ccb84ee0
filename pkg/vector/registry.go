// Package vector provides the nearest-neighbor search backends behind
// retrieval augmentation. Three implementations are available: MongoDB Atlas
// Vector Search (the default, sharing the agent's database), Qdrant, and
// embedded chromem-go for zero-infrastructure development.
package vector

import (
	"context"
	"fmt"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/mongodb"
	"github.com/inferyx/queryagent/pkg/registry"
)

// ============================================================================
// VECTOR STORE INTERFACE
// ============================================================================

// VectorStore abstracts a vector search backend. Embeddings are computed
// externally; every method receives pre-computed vectors.
type VectorStore interface {
	// Upsert writes a document and its embedding, replacing any existing
	// document with the same id.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error

	// Search returns the topK entries nearest to the query vector
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)

	// CreateCollection prepares a collection for vectors of the given size
	CreateCollection(ctx context.Context, collection string, vectorSize uint64) error

	// DeleteCollection removes every document from a collection
	DeleteCollection(ctx context.Context, collection string) error

	// Close releases backend resources
	Close() error
}

// SearchResult is one ranked hit from a vector search. Metadata carries the
// document fields the indexer stored alongside the embedding; the embedding
// itself is never returned.
type SearchResult struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ============================================================================
// VECTOR STORE REGISTRY
// ============================================================================

// VectorStoreRegistry manages named vector store instances
type VectorStoreRegistry struct {
	*registry.BaseRegistry[VectorStore]
}

// NewVectorStoreRegistry creates a new vector store registry
func NewVectorStoreRegistry() *VectorStoreRegistry {
	return &VectorStoreRegistry{
		BaseRegistry: registry.NewBaseRegistry[VectorStore](),
	}
}

// CreateVectorStoreFromConfig creates a vector store from its configuration
// and registers it under the given name. The mongo type reuses an existing
// database connection, so store must be non-nil for it.
func (r *VectorStoreRegistry) CreateVectorStoreFromConfig(name string, cfg *config.VectorStoreConfig, store *mongodb.Store, indexes map[string]string) (VectorStore, error) {
	if name == "" {
		return nil, fmt.Errorf("vector store name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("vector store config cannot be nil")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vector store '%s' validation failed: %w", name, err)
	}

	var provider VectorStore
	var err error

	switch cfg.Type {
	case "mongo":
		if store == nil {
			return nil, fmt.Errorf("vector store '%s': mongo type requires a database connection", name)
		}
		provider = NewMongoVectorStore(store, indexes)
	case "qdrant":
		provider, err = NewQdrantVectorStore(cfg)
	case "chromem":
		provider, err = NewChromemVectorStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create vector store '%s': %w", name, err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register vector store '%s': %w", name, err)
	}

	return provider, nil
}

// GetVectorStore retrieves a vector store by name
func (r *VectorStoreRegistry) GetVectorStore(name string) (VectorStore, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("vector store '%s' not found", name)
	}
	return provider, nil
}
