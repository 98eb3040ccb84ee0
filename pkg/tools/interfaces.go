// Package tools implements the fixed set of database operations the model
// may invoke: listing collections, describing a collection's shape, running
// a filtered find, and running an aggregation pipeline.
//
// Tool failures are data. Every execution returns a textual result the
// model can read and react to; malformed arguments, bad JSON, and database
// errors all come back as text, never as Go errors.
package tools

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// ============================================================================
// TOOL SYSTEM INTERFACES
// ============================================================================

// ToolInfo describes a tool to the registry and, through schema
// declarations, to the model.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

// ToolParameter declares one argument of a tool's input contract
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "string" or "integer"
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// Tool is one operation the model may request. Execute always produces a
// textual result; arguments have already passed registry validation.
type Tool interface {
	GetInfo() ToolInfo
	GetName() string
	Execute(ctx context.Context, args map[string]interface{}) string
}

// DocumentStore is the database surface the tools read from. *mongodb.Store
// satisfies it; tests substitute fakes.
type DocumentStore interface {
	DatabaseName() string
	ListCollectionNames(ctx context.Context) ([]string, error)
	SampleDocuments(ctx context.Context, collection string, limit int) ([]bson.D, error)
	Find(ctx context.Context, collection string, filter, projection map[string]interface{}, limit int) ([]bson.M, error)
	Aggregate(ctx context.Context, collection string, pipeline []interface{}) ([]bson.M, error)
}
