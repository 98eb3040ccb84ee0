// Package embedders provides text embedding providers for retrieval.
package embedders

import (
	"context"
	"fmt"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/registry"
)

// EmbedderProvider interface for text embedding generation
type EmbedderProvider interface {
	// Embed embeds a single search query
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds a batch of documents for indexing
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// GetDimension returns the embedding dimension
	GetDimension() int

	// GetModelName returns the model name
	GetModelName() string

	// Close closes the provider and releases resources
	Close() error
}

// EmbedderRegistry manages embedder provider instances
type EmbedderRegistry struct {
	*registry.BaseRegistry[EmbedderProvider]
}

// NewEmbedderRegistry creates a new embedder registry
func NewEmbedderRegistry() *EmbedderRegistry {
	return &EmbedderRegistry{
		BaseRegistry: registry.NewBaseRegistry[EmbedderProvider](),
	}
}

// RegisterEmbedder registers an embedder provider instance
func (r *EmbedderRegistry) RegisterEmbedder(name string, provider EmbedderProvider) error {
	if name == "" {
		return fmt.Errorf("embedder name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("embedder provider cannot be nil")
	}
	return r.Register(name, provider)
}

// CreateEmbedderFromConfig creates an embedder provider from configuration
// and registers it under the given name
func (r *EmbedderRegistry) CreateEmbedderFromConfig(name string, cfg *config.EmbedderProviderConfig) (EmbedderProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("embedder name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("embedder config cannot be nil")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedder config: %w", err)
	}

	var provider EmbedderProvider
	var err error

	switch cfg.Type {
	case "voyageai":
		provider, err = NewVoyageEmbedderFromConfig(cfg)
	case "openai":
		provider, err = NewOpenAIEmbedderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedder provider: %w", err)
	}

	if err := r.RegisterEmbedder(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register embedder: %w", err)
	}

	return provider, nil
}

// GetEmbedder retrieves an embedder provider by name
func (r *EmbedderRegistry) GetEmbedder(name string) (EmbedderProvider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("embedder provider '%s' not found", name)
	}
	return provider, nil
}
