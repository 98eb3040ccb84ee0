// Package config provides configuration types and utilities for the query agent.
// This file defines the contract every configuration section implements.
package config

// Section is implemented by every configuration block: defaults first,
// validation after, so a zero-value section validates the same way a
// partially filled one does.
type Section interface {
	// SetDefaults fills unset fields with their defaults
	SetDefaults()

	// Validate reports whether the section is usable after defaults
	Validate() error
}

// Compile-time checks that every section honors the contract.
var (
	_ Section = (*Config)(nil)
	_ Section = (*LLMProviderConfig)(nil)
	_ Section = (*EmbedderProviderConfig)(nil)
	_ Section = (*VectorStoreConfig)(nil)
	_ Section = (*MongoConfig)(nil)
	_ Section = (*RetrievalConfig)(nil)
	_ Section = (*AgentConfig)(nil)
	_ Section = (*ServerConfig)(nil)
	_ Section = (*MetricsConfig)(nil)
	_ Section = (*LoggingConfig)(nil)
)
