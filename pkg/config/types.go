// Package config provides configuration types and utilities for the query agent.
// This file contains all configuration section types in a unified structure.
package config

import (
	"fmt"
	"os"
	"strings"
)

// ============================================================================
// PROVIDER CONFIGURATIONS
// ============================================================================

// LLMProviderConfig represents LLM provider configuration
type LLMProviderConfig struct {
	Type        string  `yaml:"type"`        // "anthropic", "openai"
	Model       string  `yaml:"model"`       // Model name
	APIKey      string  `yaml:"api_key"`     // API key
	Host        string  `yaml:"host"`        // API endpoint
	Temperature float64 `yaml:"temperature"` // Sampling temperature
	MaxTokens   int     `yaml:"max_tokens"`  // Max output tokens per call
	Timeout     int     `yaml:"timeout"`     // Request timeout in seconds
}

// Validate implements Config.Validate for LLMProviderConfig
// API key presence is checked by the provider factory, not here. Commands
// that never call the model can run without credentials.
func (c *LLMProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for LLMProviderConfig
// Temperature has no nonzero default: query generation runs at 0.
func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "anthropic"
	}
	if c.Model == "" {
		switch c.Type {
		case "openai":
			c.Model = "gpt-4o"
		default:
			c.Model = "claude-sonnet-4-20250514"
		}
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		default:
			c.Host = "https://api.anthropic.com"
		}
	}
	if c.APIKey == "" {
		switch c.Type {
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
}

// EmbedderProviderConfig represents embedder provider configuration
type EmbedderProviderConfig struct {
	Type       string `yaml:"type"`        // "voyageai", "openai"
	Model      string `yaml:"model"`       // Model name
	APIKey     string `yaml:"api_key"`     // API key
	Host       string `yaml:"host"`        // API endpoint
	Dimension  int    `yaml:"dimension"`   // Embedding dimension
	Timeout    int    `yaml:"timeout"`     // Request timeout in seconds
	MaxRetries int    `yaml:"max_retries"` // Max retry attempts
}

// Validate implements Config.Validate for EmbedderProviderConfig
// A missing API key is not a validation error: embedding failures surface at
// call time and retrieval degrades to an unaugmented prompt.
func (c *EmbedderProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for EmbedderProviderConfig
func (c *EmbedderProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "voyageai"
	}
	if c.Model == "" {
		switch c.Type {
		case "openai":
			c.Model = "text-embedding-3-small"
		default:
			c.Model = "voyage-3"
		}
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		default:
			c.Host = "https://api.voyageai.com/v1"
		}
	}
	if c.APIKey == "" {
		switch c.Type {
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.APIKey = os.Getenv("VOYAGE_API_KEY")
		}
	}
	if c.Dimension == 0 {
		switch c.Type {
		case "openai":
			c.Dimension = 1536
		default:
			c.Dimension = 1024
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// VectorStoreConfig represents vector store configuration
type VectorStoreConfig struct {
	Type     string `yaml:"type"`     // "mongo", "qdrant", "chromem"
	Host     string `yaml:"host"`     // Qdrant host
	Port     int    `yaml:"port"`     // Qdrant port
	APIKey   string `yaml:"api_key"`  // Qdrant API key (optional)
	UseTLS   bool   `yaml:"use_tls"`  // Use TLS connection
	Path     string `yaml:"path"`     // Chromem persistence path ("" = in-memory)
	Compress bool   `yaml:"compress"` // Compress chromem persistence
	Timeout  int    `yaml:"timeout"`  // Connection timeout in seconds
}

// Validate implements Config.Validate for VectorStoreConfig
func (c *VectorStoreConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Type == "qdrant" {
		if c.Host == "" {
			return fmt.Errorf("host is required for qdrant")
		}
		if c.Port <= 0 {
			return fmt.Errorf("port must be positive for qdrant")
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for VectorStoreConfig
// The mongo type reuses the agent's MongoDB connection and its Atlas Vector
// Search indexes.
func (c *VectorStoreConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "mongo"
	}
	if c.Type == "qdrant" {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 {
			c.Port = 6333
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// ============================================================================
// MONGODB CONFIGURATION
// ============================================================================

// MongoConfig holds the connection settings for the target MongoDB deployment.
// This is both the database the agent queries and, with the default vector
// store, the home of the retrieval indexes.
type MongoConfig struct {
	URI                    string `yaml:"uri"`                      // Connection string
	Database               string `yaml:"database"`                 // Database name
	ServerSelectionTimeout int    `yaml:"server_selection_timeout"` // Server selection timeout in seconds
	ConnectTimeout         int    `yaml:"connect_timeout"`          // Connect timeout in seconds
}

// Validate implements Config.Validate for MongoConfig
func (c *MongoConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("uri is required")
	}
	if !strings.HasPrefix(c.URI, "mongodb://") && !strings.HasPrefix(c.URI, "mongodb+srv://") {
		return fmt.Errorf("uri must start with mongodb:// or mongodb+srv://")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.ServerSelectionTimeout < 0 {
		return fmt.Errorf("server_selection_timeout must be non-negative")
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for MongoConfig
func (c *MongoConfig) SetDefaults() {
	if c.URI == "" {
		c.URI = os.Getenv("MONGODB_URI")
	}
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if c.Database == "" {
		c.Database = "inferyx"
	}
	if c.ServerSelectionTimeout == 0 {
		c.ServerSelectionTimeout = 10
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10
	}
}

// ============================================================================
// RETRIEVAL CONFIGURATION
// ============================================================================

// RetrievalConfig controls how schema metadata and query examples are pulled
// into the system prompt before and during the agent loop.
type RetrievalConfig struct {
	VectorStore        string `yaml:"vector_store"`        // Vector store reference
	Embedder           string `yaml:"embedder"`            // Embedder reference
	SchemaCollection   string `yaml:"schema_collection"`   // Schema metadata collection
	SchemaIndex        string `yaml:"schema_index"`        // Schema vector index name
	SchemaTopK         int    `yaml:"schema_top_k"`        // Schema hits injected per question
	ExamplesCollection string `yaml:"examples_collection"` // Query examples collection
	ExamplesIndex      string `yaml:"examples_index"`      // Examples vector index name
	ExamplesTopK       int    `yaml:"examples_top_k"`      // Example hits injected per question
	IncludeExamples    bool   `yaml:"include_examples"`    // Also inject example context into the prompt
}

// Validate implements Config.Validate for RetrievalConfig
func (c *RetrievalConfig) Validate() error {
	if c.VectorStore == "" {
		return fmt.Errorf("vector_store reference is required")
	}
	if c.Embedder == "" {
		return fmt.Errorf("embedder reference is required")
	}
	if c.SchemaCollection == "" {
		return fmt.Errorf("schema_collection is required")
	}
	if c.SchemaIndex == "" {
		return fmt.Errorf("schema_index is required")
	}
	if c.SchemaTopK <= 0 {
		return fmt.Errorf("schema_top_k must be positive")
	}
	if c.ExamplesCollection == "" {
		return fmt.Errorf("examples_collection is required")
	}
	if c.ExamplesIndex == "" {
		return fmt.Errorf("examples_index is required")
	}
	if c.ExamplesTopK <= 0 {
		return fmt.Errorf("examples_top_k must be positive")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for RetrievalConfig
func (c *RetrievalConfig) SetDefaults() {
	if c.VectorStore == "" {
		c.VectorStore = "default-vector-store"
	}
	if c.Embedder == "" {
		c.Embedder = "default-embedder"
	}
	if c.SchemaCollection == "" {
		c.SchemaCollection = "schema_metadata"
	}
	if c.SchemaIndex == "" {
		c.SchemaIndex = "schema_metadata_vector_index"
	}
	if c.SchemaTopK == 0 {
		c.SchemaTopK = 8
	}
	if c.ExamplesCollection == "" {
		c.ExamplesCollection = "query_examples"
	}
	if c.ExamplesIndex == "" {
		c.ExamplesIndex = "query_examples_vector_index"
	}
	if c.ExamplesTopK == 0 {
		c.ExamplesTopK = 3
	}
}

// ============================================================================
// AGENT CONFIGURATION
// ============================================================================

// AgentConfig represents the control loop configuration
type AgentConfig struct {
	LLM              string `yaml:"llm"`                // LLM provider reference
	MaxRounds        int    `yaml:"max_rounds"`         // Model call cap per question
	MaxContextTokens int    `yaml:"max_context_tokens"` // Transcript token budget (0 = unbounded)
	SystemPrompt     string `yaml:"system_prompt"`      // Override for the built-in base instructions
}

// Validate implements Config.Validate for AgentConfig
// MaxRounds bounds model calls per question and must stay positive.
func (c *AgentConfig) Validate() error {
	if c.LLM == "" {
		return fmt.Errorf("llm provider reference is required")
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive")
	}
	if c.MaxContextTokens < 0 {
		return fmt.Errorf("max_context_tokens must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for AgentConfig
func (c *AgentConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = "default-llm"
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 10
	}
}

// ============================================================================
// SERVER CONFIGURATION
// ============================================================================

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"` // Bind address
	Port int    `yaml:"port"` // Listen port
}

// Validate implements Config.Validate for ServerConfig
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for ServerConfig
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Address returns the host:port string the server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ============================================================================
// METRICS CONFIGURATION
// ============================================================================

// MetricsConfig represents the Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Expose Prometheus metrics
	Path    string `yaml:"path"`    // Scrape endpoint path
}

// Validate implements Config.Validate for MetricsConfig
func (c *MetricsConfig) Validate() error {
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with /")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for MetricsConfig
func (c *MetricsConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// ============================================================================
// LOGGING CONFIGURATION
// ============================================================================

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // Log level
	Format string `yaml:"format"` // Log format
	Output string `yaml:"output"` // Output destination: stdout, stderr, or a file path
}

// Validate implements Config.Validate for LoggingConfig
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	validFormats := map[string]bool{
		"simple": true, "verbose": true, "json": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for LoggingConfig
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}
