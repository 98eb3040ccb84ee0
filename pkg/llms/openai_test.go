package llms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inferyx/queryagent/pkg/config"
)

func newOpenAITestProvider(t *testing.T, model string, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProviderFromConfig(&config.LLMProviderConfig{
		Type:      "openai",
		Model:     model,
		APIKey:    "test-key",
		Host:      server.URL,
		MaxTokens: 512,
		Timeout:   5,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return provider
}

func TestOpenAIGenerateToolCalls(t *testing.T) {
	provider := newOpenAITestProvider(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Authorization header not set")
		}
		json.NewEncoder(w).Encode(OpenAIResponse{
			Choices: []OpenAIChoice{{
				Message: OpenAIMessage{
					Role: "assistant",
					ToolCalls: []OpenAIToolCall{{
						ID:   "call_1",
						Type: "function",
						Function: OpenAIFunctionCall{
							Name:      "execute_find",
							Arguments: `{"collection_name":"users","limit":5}`,
						},
					}},
				},
				FinishReason: "tool_calls",
			}},
			Usage: OpenAIUsage{TotalTokens: 77},
		})
	})

	_, toolCalls, tokens, err := provider.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if tokens != 77 {
		t.Errorf("tokens = %d, want 77", tokens)
	}
	if len(toolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(toolCalls))
	}
	call := toolCalls[0]
	if call.ID != "call_1" || call.Name != "execute_find" {
		t.Errorf("tool call = %+v", call)
	}
	if call.Arguments["collection_name"] != "users" {
		t.Errorf("arguments = %v", call.Arguments)
	}
	if call.RawArgs != `{"collection_name":"users","limit":5}` {
		t.Errorf("raw args = %q", call.RawArgs)
	}
}

func TestOpenAITokenParameter(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		wantField string
	}{
		{"newer_model_uses_max_completion_tokens", "gpt-4o", "max_completion_tokens"},
		{"legacy_model_uses_max_tokens", "gpt-3.5-turbo", "max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wire map[string]interface{}
			provider := newOpenAITestProvider(t, tt.model, func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				json.Unmarshal(body, &wire)
				json.NewEncoder(w).Encode(OpenAIResponse{
					Choices: []OpenAIChoice{{Message: OpenAIMessage{Role: "assistant", Content: "ok"}}},
				})
			})

			_, _, _, err := provider.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, nil)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if _, ok := wire[tt.wantField]; !ok {
				t.Errorf("request missing %s: %v", tt.wantField, wire)
			}
		})
	}
}

func TestOpenAIToolTranscriptWireFormat(t *testing.T) {
	var wire map[string]interface{}
	provider := newOpenAITestProvider(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &wire)
		json.NewEncoder(w).Encode(OpenAIResponse{
			Choices: []OpenAIChoice{{Message: OpenAIMessage{Role: "assistant", Content: "done"}}},
		})
	})

	messages := []Message{
		{Role: RoleUser, Content: "count users"},
		{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{
				{ID: "call_9", Name: "execute_aggregation", RawArgs: `{"pipeline_json":"[]"}`},
			},
		},
		{Role: RoleTool, Content: "[]", ToolCallID: "call_9"},
	}

	_, _, _, err := provider.Generate(context.Background(), messages, []ToolDefinition{
		{Name: "execute_aggregation", Description: "Run a pipeline", Parameters: map[string]interface{}{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	wireMessages, _ := wire["messages"].([]interface{})
	if len(wireMessages) != 3 {
		t.Fatalf("wire messages = %d, want 3", len(wireMessages))
	}

	assistant, _ := wireMessages[1].(map[string]interface{})
	calls, _ := assistant["tool_calls"].([]interface{})
	if len(calls) != 1 {
		t.Fatalf("assistant tool_calls = %v", assistant["tool_calls"])
	}

	result, _ := wireMessages[2].(map[string]interface{})
	if result["role"] != "tool" || result["tool_call_id"] != "call_9" {
		t.Errorf("tool message = %v", result)
	}

	wireTools, _ := wire["tools"].([]interface{})
	if len(wireTools) != 1 {
		t.Fatalf("wire tools = %v", wire["tools"])
	}
	tool, _ := wireTools[0].(map[string]interface{})
	if tool["type"] != "function" {
		t.Errorf("tool type = %v, want function", tool["type"])
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProviderFromConfig(&config.LLMProviderConfig{
		Type:  "openai",
		Model: "gpt-4o",
		Host:  "https://api.openai.com/v1",
	})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}
