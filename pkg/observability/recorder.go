package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

// Metrics is the recording surface components reach for via
// GetGlobalMetrics. Tool errors are textual results, so the tool recorder
// takes a failed flag rather than a Go error.
type Metrics interface {
	RecordAskRequest(ctx context.Context, duration time.Duration, tokens int, err error)
	RecordToolExecution(ctx context.Context, tool string, duration time.Duration, failed bool)
	RecordLLMCall(ctx context.Context, model string, duration time.Duration, tokens int, err error)
	RecordRetrieval(ctx context.Context, index string, duration time.Duration, hits int)
}

// PrometheusMetrics records into OTEL instruments backed by the Prometheus
// exporter. The zero value is a valid inert recorder.
type PrometheusMetrics struct {
	askDuration      metric.Float64Histogram
	askRequestsTotal metric.Int64Counter
	askErrorsTotal   metric.Int64Counter
	askTokensTotal   metric.Int64Counter

	toolDuration    metric.Float64Histogram
	toolCallsTotal  metric.Int64Counter
	toolErrorsTotal metric.Int64Counter

	llmDuration    metric.Float64Histogram
	llmTokensTotal metric.Int64Counter
	llmErrorsTotal metric.Int64Counter

	retrievalDuration metric.Float64Histogram
	retrievalHits     metric.Int64Counter
}

func (m *PrometheusMetrics) RecordAskRequest(ctx context.Context, duration time.Duration, tokens int, err error) {
	if m == nil || m.askDuration == nil || m.askRequestsTotal == nil {
		return
	}

	m.askDuration.Record(ctx, duration.Seconds())
	m.askRequestsTotal.Add(ctx, 1)

	if tokens > 0 && m.askTokensTotal != nil {
		m.askTokensTotal.Add(ctx, int64(tokens))
	}

	if err != nil && m.askErrorsTotal != nil {
		m.askErrorsTotal.Add(ctx, 1)
	}
}

func (m *PrometheusMetrics) RecordToolExecution(ctx context.Context, tool string, duration time.Duration, failed bool) {
	if m == nil || m.toolDuration == nil || m.toolCallsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", tool),
	}

	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if failed && m.toolErrorsTotal != nil {
		m.toolErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *PrometheusMetrics) RecordLLMCall(ctx context.Context, model string, duration time.Duration, tokens int, err error) {
	if m == nil || m.llmDuration == nil || m.llmTokensTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("model", model),
	}

	m.llmDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if tokens > 0 {
		m.llmTokensTotal.Add(ctx, int64(tokens), metric.WithAttributes(attrs...))
	}

	if err != nil && m.llmErrorsTotal != nil {
		m.llmErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *PrometheusMetrics) RecordRetrieval(ctx context.Context, index string, duration time.Duration, hits int) {
	if m == nil || m.retrievalDuration == nil || m.retrievalHits == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("index", index),
	}

	m.retrievalDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.retrievalHits.Add(ctx, int64(hits), metric.WithAttributes(attrs...))
}

// NoopMetrics discards everything. Useful in tests.
type NoopMetrics struct{}

func (NoopMetrics) RecordAskRequest(_ context.Context, _ time.Duration, _ int, _ error) {}

func (NoopMetrics) RecordToolExecution(_ context.Context, _ string, _ time.Duration, _ bool) {}

func (NoopMetrics) RecordLLMCall(_ context.Context, _ string, _ time.Duration, _ int, _ error) {}

func (NoopMetrics) RecordRetrieval(_ context.Context, _ string, _ time.Duration, _ int) {}

var (
	_ Metrics = (*PrometheusMetrics)(nil)
	_ Metrics = NoopMetrics{}
)

// SetGlobalMetrics installs the process-wide recorder.
func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the process-wide recorder, nil when none is set.
// Callers nil-check before recording.
func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}
