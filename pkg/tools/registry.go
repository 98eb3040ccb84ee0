package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/inferyx/queryagent/pkg/llms"
	"github.com/inferyx/queryagent/pkg/registry"
)

// ============================================================================
// TOOL REGISTRY
// ============================================================================

// ToolRegistry holds the tools the model may invoke and validates every
// invocation against the declared input contract before execution.
type ToolRegistry struct {
	*registry.BaseRegistry[Tool]

	mu    sync.RWMutex
	order []string
}

// NewToolRegistry creates an empty tool registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		BaseRegistry: registry.NewBaseRegistry[Tool](),
	}
}

// RegisterTool adds a tool. Declaration order is preserved; the model sees
// tools in the order they were registered.
func (r *ToolRegistry) RegisterTool(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.GetName()
	if err := r.Register(name, tool); err != nil {
		return err
	}

	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
	return nil
}

// GetTool retrieves a tool by name
func (r *ToolRegistry) GetTool(name string) (Tool, error) {
	tool, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}
	return tool, nil
}

// ExecuteTool validates arguments against the tool's contract and runs it.
// Every failure mode produces a textual result for the model.
func (r *ToolRegistry) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) string {
	tool, exists := r.Get(name)
	if !exists {
		return fmt.Sprintf("Error: tool '%s' not found", name)
	}

	info := tool.GetInfo()
	if msg := validateArgs(info, args); msg != "" {
		return msg
	}

	return tool.Execute(ctx, applyDefaults(info, args))
}

// Declarations renders every registered tool as a schema declaration for
// the model, in registration order.
func (r *ToolRegistry) Declarations() []llms.ToolDefinition {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	r.mu.RUnlock()

	defs := make([]llms.ToolDefinition, 0, len(names))
	for _, name := range names {
		if tool, exists := r.Get(name); exists {
			defs = append(defs, toDefinition(tool.GetInfo()))
		}
	}
	return defs
}

func toDefinition(info ToolInfo) llms.ToolDefinition {
	properties := make(map[string]interface{}, len(info.Parameters))
	required := make([]string, 0)
	for _, p := range info.Parameters {
		properties[p.Name] = map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	parameters := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		parameters["required"] = required
	}

	return llms.ToolDefinition{
		Name:        info.Name,
		Description: info.Description,
		Parameters:  parameters,
	}
}

// validateArgs checks presence and types against the declared parameters.
// Undeclared extra arguments are ignored. Returns "" when valid, otherwise
// the textual error to hand back to the model.
func validateArgs(info ToolInfo, args map[string]interface{}) string {
	for _, p := range info.Parameters {
		value, present := args[p.Name]
		if !present || value == nil {
			if p.Required {
				return fmt.Sprintf("Invalid arguments for %s: missing required parameter '%s'", info.Name, p.Name)
			}
			continue
		}

		switch p.Type {
		case "string":
			if _, ok := value.(string); !ok {
				return fmt.Sprintf("Invalid arguments for %s: parameter '%s' must be a string", info.Name, p.Name)
			}
		case "integer":
			switch value.(type) {
			case int, int32, int64, float64:
			default:
				return fmt.Sprintf("Invalid arguments for %s: parameter '%s' must be an integer", info.Name, p.Name)
			}
		}
	}
	return ""
}

// applyDefaults fills declared defaults for absent optional parameters
func applyDefaults(info ToolInfo, args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, p := range info.Parameters {
		if v, ok := out[p.Name]; (!ok || v == nil) && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}

// decodeArgs maps validated arguments onto a tool's typed argument struct
func decodeArgs(args map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}
