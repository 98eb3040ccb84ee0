// Package config provides configuration types and utilities for the query agent.
// This file contains the main unified configuration entry point.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// MAIN UNIFIED CONFIGURATION
// ============================================================================

// Config represents the complete configuration
// A single YAML file is the entry point for everything: providers, the target
// database, retrieval, the agent loop, and the serving surface.
type Config struct {
	// Version and metadata
	Version     string `yaml:"version,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Provider configurations
	LLMs         map[string]LLMProviderConfig      `yaml:"llms,omitempty"`
	Embedders    map[string]EmbedderProviderConfig `yaml:"embedders,omitempty"`
	VectorStores map[string]VectorStoreConfig      `yaml:"vector_stores,omitempty"`

	// Target database
	Mongo MongoConfig `yaml:"mongo,omitempty"`

	// Context retrieval
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`

	// Agent loop
	Agent AgentConfig `yaml:"agent,omitempty"`

	// HTTP server
	Server ServerConfig `yaml:"server,omitempty"`

	// Prometheus metrics
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Logging
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// Validate implements Config.Validate for Config
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("LLM '%s' validation failed: %w", name, err)
		}
	}

	for name, embedder := range c.Embedders {
		if err := embedder.Validate(); err != nil {
			return fmt.Errorf("embedder '%s' validation failed: %w", name, err)
		}
	}

	for name, store := range c.VectorStores {
		if err := store.Validate(); err != nil {
			return fmt.Errorf("vector store '%s' validation failed: %w", name, err)
		}
	}

	if err := c.Mongo.Validate(); err != nil {
		return fmt.Errorf("mongo validation failed: %w", err)
	}

	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval validation failed: %w", err)
	}
	if _, ok := c.Embedders[c.Retrieval.Embedder]; !ok {
		return fmt.Errorf("retrieval references unknown embedder '%s'", c.Retrieval.Embedder)
	}
	if _, ok := c.VectorStores[c.Retrieval.VectorStore]; !ok {
		return fmt.Errorf("retrieval references unknown vector store '%s'", c.Retrieval.VectorStore)
	}

	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent validation failed: %w", err)
	}
	if _, ok := c.LLMs[c.Agent.LLM]; !ok {
		return fmt.Errorf("agent references unknown LLM '%s'", c.Agent.LLM)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}

	return nil
}

// SetDefaults implements Config.SetDefaults for Config
func (c *Config) SetDefaults() {
	// Initialize maps if nil
	if c.LLMs == nil {
		c.LLMs = make(map[string]LLMProviderConfig)
	}
	if c.Embedders == nil {
		c.Embedders = make(map[string]EmbedderProviderConfig)
	}
	if c.VectorStores == nil {
		c.VectorStores = make(map[string]VectorStoreConfig)
	}

	// Zero-config: create default providers if none exist
	if len(c.LLMs) == 0 {
		c.LLMs["default-llm"] = LLMProviderConfig{}
	}
	if len(c.Embedders) == 0 {
		c.Embedders["default-embedder"] = EmbedderProviderConfig{}
	}
	if len(c.VectorStores) == 0 {
		c.VectorStores["default-vector-store"] = VectorStoreConfig{}
	}

	for name := range c.LLMs {
		llm := c.LLMs[name]
		llm.SetDefaults()
		c.LLMs[name] = llm
	}
	for name := range c.Embedders {
		embedder := c.Embedders[name]
		embedder.SetDefaults()
		c.Embedders[name] = embedder
	}
	for name := range c.VectorStores {
		store := c.VectorStores[name]
		store.SetDefaults()
		c.VectorStores[name] = store
	}

	c.Mongo.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Agent.SetDefaults()
	c.Server.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// ============================================================================
// CONFIGURATION LOADING
// ============================================================================

// LoadConfig loads the complete configuration from a YAML file
// This is the main entry point for configuration loading
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filePath, err)
	}
	return config, nil
}

// LoadConfigFromString loads configuration from a YAML string
func LoadConfigFromString(yamlContent string) (*Config, error) {
	config, err := parseConfig([]byte(yamlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from string: %w", err)
	}
	return config, nil
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	var config Config
	config.SetDefaults()
	return &config
}

// parseConfig runs the full load pipeline: parse YAML into generic data,
// expand environment variable references, re-parse into typed config, then
// apply defaults and validate.
func parseConfig(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	expanded := ExpandEnvVarsInData(raw)
	normalized, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode expanded config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(normalized, &config); err != nil {
		return nil, fmt.Errorf("invalid config structure: %w", err)
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &config, nil
}

// ============================================================================
// HELPER METHODS
// ============================================================================

// GetLLM returns an LLM provider configuration by name
func (c *Config) GetLLM(name string) (*LLMProviderConfig, bool) {
	llm, exists := c.LLMs[name]
	return &llm, exists
}

// GetEmbedder returns an embedder provider configuration by name
func (c *Config) GetEmbedder(name string) (*EmbedderProviderConfig, bool) {
	embedder, exists := c.Embedders[name]
	return &embedder, exists
}

// GetVectorStore returns a vector store configuration by name
func (c *Config) GetVectorStore(name string) (*VectorStoreConfig, bool) {
	store, exists := c.VectorStores[name]
	return &store, exists
}
