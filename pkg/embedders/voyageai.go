// Package embedders provides text embedding providers for retrieval.
// This file contains the Voyage AI embedder.
package embedders

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
)

// Voyage accepts at most 128 inputs per request.
const voyageMaxBatch = 128

// VoyageEmbedder implements EmbedderProvider for the Voyage AI API
type VoyageEmbedder struct {
	config    *config.EmbedderProviderConfig
	client    *httpclient.Client
	baseURL   string
	model     string
	dimension int
}

// VoyageEmbedRequest represents the request payload for the Voyage API.
// InputType distinguishes search queries from indexed documents; Voyage
// embeds the two differently.
type VoyageEmbedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type,omitempty"` // "query" or "document"
}

// VoyageEmbedResponse represents the response from the Voyage API
type VoyageEmbedResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// VoyageErrorResponse represents an error response from the Voyage API
type VoyageErrorResponse struct {
	Detail string `json:"detail"`
}

// NewVoyageEmbedderFromConfig creates a new Voyage embedder from config
func NewVoyageEmbedderFromConfig(cfg *config.EmbedderProviderConfig) (*VoyageEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Voyage embedder")
	}

	model := cfg.Model
	if model == "" {
		model = "voyage-3"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		switch model {
		case "voyage-3", "voyage-3.5":
			dimension = 1024
		case "voyage-3-lite", "voyage-3.5-lite":
			dimension = 512
		case "voyage-3-large":
			dimension = 1024
		default:
			dimension = 1024
		}
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "https://api.voyageai.com/v1"
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	client := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithHeaderParser(httpclient.ParseVoyageHeaders),
	)

	return &VoyageEmbedder{
		config:    cfg,
		client:    client,
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed embeds a single search query
func (e *VoyageEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.request(ctx, []string{text}, "query")
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("received empty embedding from Voyage")
	}
	return embeddings[0], nil
}

// EmbedBatch embeds a batch of documents for indexing
func (e *VoyageEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += voyageMaxBatch {
		end := i + voyageMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		embeddings, err := e.request(ctx, texts[i:end], "document")
		if err != nil {
			return nil, err
		}
		results = append(results, embeddings...)
	}
	return results, nil
}

// GetDimension returns the embedding dimension
func (e *VoyageEmbedder) GetDimension() int {
	return e.dimension
}

// GetModelName returns the model name
func (e *VoyageEmbedder) GetModelName() string {
	return e.model
}

// Close closes the provider
func (e *VoyageEmbedder) Close() error {
	return nil
}

func (e *VoyageEmbedder) request(ctx context.Context, input []string, inputType string) ([][]float32, error) {
	req := VoyageEmbedRequest{
		Model:     e.model,
		Input:     input,
		InputType: inputType,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			var errorResp VoyageErrorResponse
			if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil && errorResp.Detail != "" {
				return nil, fmt.Errorf("Voyage API error: %s", errorResp.Detail)
			}
			return nil, fmt.Errorf("Voyage API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to send request to Voyage: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response VoyageEmbedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Order embeddings by index to match the input order.
	embeddings := make([][]float32, len(response.Data))
	for _, item := range response.Data {
		if item.Index < len(embeddings) {
			embeddings[item.Index] = item.Embedding
		}
	}
	return embeddings, nil
}
