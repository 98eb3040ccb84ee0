// Package observability provides Prometheus metrics for the query agent:
// ask requests, tool executions, model calls, and retrieval searches.
package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/inferyx/queryagent/pkg/config"
)

// InitMetrics creates the Prometheus-backed metrics recorder. The exporter
// registers with the default Prometheus registry, so promhttp.Handler()
// serves everything recorded here. When metrics are disabled the returned
// recorder is inert (every instrument nil, every Record a no-op).
func InitMetrics(cfg *config.MetricsConfig) (*PrometheusMetrics, error) {
	if cfg == nil || !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("queryagent")

	askDuration, err := meter.Float64Histogram(
		"queryagent_ask_duration_seconds",
		metric.WithDescription("End-to-end ask request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ask duration histogram: %w", err)
	}

	askRequests, err := meter.Int64Counter(
		"queryagent_ask_requests_total",
		metric.WithDescription("Total ask requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ask requests counter: %w", err)
	}

	askErrors, err := meter.Int64Counter(
		"queryagent_ask_errors_total",
		metric.WithDescription("Total ask requests that ended in an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ask errors counter: %w", err)
	}

	askTokens, err := meter.Int64Counter(
		"queryagent_ask_tokens_used_total",
		metric.WithDescription("Total model tokens consumed by ask requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ask tokens counter: %w", err)
	}

	toolDuration, err := meter.Float64Histogram(
		"queryagent_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	toolCalls, err := meter.Int64Counter(
		"queryagent_tool_calls_total",
		metric.WithDescription("Total tool calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	toolErrors, err := meter.Int64Counter(
		"queryagent_tool_errors_total",
		metric.WithDescription("Total tool calls that returned an error result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	llmDuration, err := meter.Float64Histogram(
		"queryagent_llm_request_duration_seconds",
		metric.WithDescription("Model request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	llmTokens, err := meter.Int64Counter(
		"queryagent_llm_tokens_used_total",
		metric.WithDescription("Total tokens reported by the model provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm tokens counter: %w", err)
	}

	llmErrors, err := meter.Int64Counter(
		"queryagent_llm_errors_total",
		metric.WithDescription("Total model request errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	retrievalDuration, err := meter.Float64Histogram(
		"queryagent_retrieval_duration_seconds",
		metric.WithDescription("Vector retrieval duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval duration histogram: %w", err)
	}

	retrievalHits, err := meter.Int64Counter(
		"queryagent_retrieval_hits_total",
		metric.WithDescription("Total vector search hits injected into prompts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval hits counter: %w", err)
	}

	return &PrometheusMetrics{
		askDuration:       askDuration,
		askRequestsTotal:  askRequests,
		askErrorsTotal:    askErrors,
		askTokensTotal:    askTokens,
		toolDuration:      toolDuration,
		toolCallsTotal:    toolCalls,
		toolErrorsTotal:   toolErrors,
		llmDuration:       llmDuration,
		llmTokensTotal:    llmTokens,
		llmErrorsTotal:    llmErrors,
		retrievalDuration: retrievalDuration,
		retrievalHits:     retrievalHits,
	}, nil
}
