package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the centralized prometheus surface: message flow, the
// orchestration pipeline, tool dispatch, LLM calls, database queries, and
// the factory caches. All recorder methods are safe on a nil receiver so
// components can run unmetered in tests.
type Metrics struct {
	// MessageCounter tracks chat traffic.
	// Labels: chat_type (main|leadership|private|system), direction (inbound|outbound)
	MessageCounter *prometheus.CounterVec

	// RequestsInFlight gauges concurrently handled updates.
	RequestsInFlight prometheus.Gauge

	// PipelineStageCounter counts stage outcomes.
	// Labels: stage, status (completed|failed)
	PipelineStageCounter *prometheus.CounterVec

	// PipelineStageDuration measures per-stage latency in seconds.
	// Labels: stage
	PipelineStageDuration *prometheus.HistogramVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_id, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool latency in seconds.
	// Labels: tool_id
	ToolExecutionDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMRequestDuration measures LLM call latency in seconds.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// DatabaseQueryCounter counts repository operations.
	// Labels: operation (find|insert|update|delete|ping), collection, status
	DatabaseQueryCounter *prometheus.CounterVec

	// DatabaseQueryDuration measures repository latency in seconds.
	// Labels: operation, collection
	DatabaseQueryDuration *prometheus.HistogramVec

	// CacheEventCounter tracks factory cache effectiveness.
	// Labels: cache (services|repositories), event (hit|miss|evict)
	CacheEventCounter *prometheus.CounterVec

	// ErrorCounter tracks typed errors.
	// Labels: component, code
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the default prometheus
// registry. Call once at startup; the /metrics endpoint exposes them.
func NewMetrics() *Metrics {
	return &Metrics{
		MessageCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_messages_total",
				Help: "Total chat messages by chat type and direction",
			},
			[]string{"chat_type", "direction"},
		),

		RequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kickai_requests_in_flight",
				Help: "Number of updates currently being handled",
			},
		),

		PipelineStageCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_pipeline_stage_total",
				Help: "Pipeline stage outcomes by stage and status",
			},
			[]string{"stage", "status"},
		),

		PipelineStageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kickai_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"stage"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_tool_executions_total",
				Help: "Tool invocations by tool id and status",
			},
			[]string{"tool_id", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kickai_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_id"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_llm_requests_total",
				Help: "LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kickai_llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_llm_tokens_total",
				Help: "Tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		DatabaseQueryCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_database_queries_total",
				Help: "Repository operations by operation, collection, and status",
			},
			[]string{"operation", "collection", "status"},
		),

		DatabaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kickai_database_query_duration_seconds",
				Help:    "Duration of repository operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation", "collection"},
		),

		CacheEventCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_cache_events_total",
				Help: "Factory cache hits, misses, and evictions",
			},
			[]string{"cache", "event"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickai_errors_total",
				Help: "Typed errors by component and code",
			},
			[]string{"component", "code"},
		),
	}
}

// MessageReceived counts one inbound message.
func (m *Metrics) MessageReceived(chatType string) {
	if m == nil {
		return
	}
	m.MessageCounter.WithLabelValues(chatType, "inbound").Inc()
}

// MessageSent counts one outbound reply.
func (m *Metrics) MessageSent(chatType string) {
	if m == nil {
		return
	}
	m.MessageCounter.WithLabelValues(chatType, "outbound").Inc()
}

// RequestStarted marks an update entering the router.
func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.RequestsInFlight.Inc()
}

// RequestFinished marks an update leaving the router.
func (m *Metrics) RequestFinished() {
	if m == nil {
		return
	}
	m.RequestsInFlight.Dec()
}

// RecordStage records one pipeline stage outcome.
func (m *Metrics) RecordStage(stage, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineStageCounter.WithLabelValues(stage, status).Inc()
	m.PipelineStageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordToolExecution records one tool invocation.
func (m *Metrics) RecordToolExecution(toolID, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ToolExecutionCounter.WithLabelValues(toolID, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolID).Observe(durationSeconds)
}

// RecordLLMRequest records one LLM call with token usage.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordDatabaseQuery records one repository operation.
func (m *Metrics) RecordDatabaseQuery(operation, collection, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.DatabaseQueryCounter.WithLabelValues(operation, collection, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(operation, collection).Observe(durationSeconds)
}

// RecordCacheEvent records a factory cache hit, miss, or eviction.
func (m *Metrics) RecordCacheEvent(cache, event string) {
	if m == nil {
		return
	}
	m.CacheEventCounter.WithLabelValues(cache, event).Inc()
}

// RecordError counts a typed error.
func (m *Metrics) RecordError(component, code string) {
	if m == nil {
		return
	}
	m.ErrorCounter.WithLabelValues(component, code).Inc()
}
