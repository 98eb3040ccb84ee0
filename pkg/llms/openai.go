// Package llms provides language model providers for the query agent.
// This file contains the OpenAI chat completions provider.
package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/httpclient"
	"github.com/inferyx/queryagent/pkg/observability"
)

// ============================================================================
// OPENAI PROVIDER IMPLEMENTATION
// ============================================================================

// OpenAIProvider implements LLMProvider for the OpenAI chat completions API
type OpenAIProvider struct {
	config *config.LLMProviderConfig
	client *httpclient.Client
}

// OpenAIRequest represents the request payload for OpenAI API
type OpenAIRequest struct {
	Model               string          `json:"model"`
	Messages            []OpenAIMessage `json:"messages"`
	MaxTokens           int             `json:"max_tokens,omitempty"`            // Legacy parameter
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"` // New parameter
	Temperature         float64         `json:"temperature"`
	Tools               []OpenAITool    `json:"tools,omitempty"`
}

// OpenAIMessage represents a message in OpenAI wire format
type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// OpenAITool represents a tool definition in OpenAI format
type OpenAITool struct {
	Type     string         `json:"type"` // Always "function"
	Function OpenAIFunction `json:"function"`
}

// OpenAIFunction represents a function declaration
type OpenAIFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// OpenAIToolCall represents a tool invocation in a response message
type OpenAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

// OpenAIFunctionCall carries the function name and raw argument JSON
type OpenAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAIResponse represents the response from OpenAI API
type OpenAIResponse struct {
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
	Error   *OpenAIError   `json:"error,omitempty"`
}

// OpenAIChoice represents a response choice
type OpenAIChoice struct {
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// OpenAIUsage represents token usage information
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIError represents an API error
type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// NewOpenAIProviderFromConfig creates a new OpenAI provider from config
func NewOpenAIProviderFromConfig(cfg *config.LLMProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI")
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.openai.com/v1"
	}

	client := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}),
		httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
	)

	return &OpenAIProvider{config: cfg, client: client}, nil
}

// GetModelName returns the model name
func (p *OpenAIProvider) GetModelName() string {
	return p.config.Model
}

// GetMaxTokens returns the maximum tokens for generation
func (p *OpenAIProvider) GetMaxTokens() int {
	return p.config.MaxTokens
}

// GetTemperature returns the temperature setting
func (p *OpenAIProvider) GetTemperature() float64 {
	return p.config.Temperature
}

// Close closes the provider
func (p *OpenAIProvider) Close() error {
	return nil
}

func (p *OpenAIProvider) recordCall(ctx context.Context, duration time.Duration, tokens int, err error) {
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordLLMCall(ctx, p.config.Model, duration, tokens, err)
	}
}

// Generate runs one model call over the conversation so far
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (string, []ToolCall, int, error) {
	request := p.buildRequest(messages, tools)

	startTime := time.Now()
	response, err := p.makeRequest(ctx, request)
	duration := time.Since(startTime)

	if err != nil {
		p.recordCall(ctx, duration, 0, err)
		return "", nil, 0, err
	}

	if response.Error != nil {
		apiErr := fmt.Errorf("OpenAI API error: %s", response.Error.Message)
		p.recordCall(ctx, duration, 0, apiErr)
		return "", nil, 0, apiErr
	}
	if len(response.Choices) == 0 {
		noChoiceErr := fmt.Errorf("no response choices returned")
		p.recordCall(ctx, duration, 0, noChoiceErr)
		return "", nil, 0, noChoiceErr
	}

	choice := response.Choices[0]
	tokensUsed := response.Usage.TotalTokens
	p.recordCall(ctx, duration, tokensUsed, nil)

	var toolCalls []ToolCall
	for _, call := range choice.Message.ToolCalls {
		args := make(map[string]interface{})
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				args = map[string]interface{}{"_raw": call.Function.Arguments}
			}
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
			RawArgs:   call.Function.Arguments,
		})
	}

	return choice.Message.Content, toolCalls, tokensUsed, nil
}

// buildRequest converts the neutral conversation into OpenAI wire format
func (p *OpenAIProvider) buildRequest(messages []Message, tools []ToolDefinition) OpenAIRequest {
	openAIMessages := make([]OpenAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := OpenAIMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, OpenAIToolCall{
				ID:   call.ID,
				Type: "function",
				Function: OpenAIFunctionCall{
					Name:      call.Name,
					Arguments: call.RawArgs,
				},
			})
		}
		openAIMessages = append(openAIMessages, m)
	}

	request := OpenAIRequest{
		Model:       p.config.Model,
		Messages:    openAIMessages,
		Temperature: p.config.Temperature,
	}

	// Use the appropriate token parameter based on model
	if p.isNewerModel() {
		request.MaxCompletionTokens = p.config.MaxTokens
	} else {
		request.MaxTokens = p.config.MaxTokens
	}

	// Handle temperature restrictions for certain models
	if p.hasTemperatureRestrictions() {
		request.Temperature = 1.0
	}

	if len(tools) > 0 {
		openAITools := make([]OpenAITool, len(tools))
		for i, tool := range tools {
			openAITools[i] = OpenAITool{
				Type: "function",
				Function: OpenAIFunction{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			}
		}
		request.Tools = openAITools
	}

	return request
}

// hasTemperatureRestrictions checks if the model only supports the default
// temperature
func (p *OpenAIProvider) hasTemperatureRestrictions() bool {
	restrictedModels := []string{
		"gpt-5-nano",
	}
	for _, model := range restrictedModels {
		if p.config.Model == model {
			return true
		}
	}
	return false
}

// isNewerModel checks if the model requires max_completion_tokens instead of
// max_tokens
func (p *OpenAIProvider) isNewerModel() bool {
	newerModels := []string{
		"gpt-5-nano",
		"gpt-5",
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-4",
	}
	for _, model := range newerModels {
		if p.config.Model == model {
			return true
		}
	}
	return false
}

// makeRequest posts to the chat completions API
func (p *OpenAIProvider) makeRequest(ctx context.Context, request OpenAIRequest) (*OpenAIResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Host+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var response OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}
