// Package llms provides language model providers for the query agent.
// This file contains the provider-neutral conversation model.
package llms

// Message roles used in the conversation transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a message in the conversation
type Message struct {
	Role       string     // system, user, assistant, tool
	Content    string     // Text content
	ToolCalls  []ToolCall // Tool invocations (assistant messages only)
	ToolCallID string     // ID of the call this result answers (tool messages only)
}

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID        string                 // Provider-assigned call ID
	Name      string                 // Tool name
	Arguments map[string]interface{} // Decoded arguments
	RawArgs   string                 // Raw argument JSON as sent by the provider
}

// ToolDefinition declares a callable tool to the model
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema
}
