package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps OpenTelemetry with span helpers for the operations this
// system performs: update handling, pipeline stages, LLM requests, tool
// executions, and repository queries.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   TraceConfig
}

// TraceConfig configures tracing. An empty Endpoint yields a no-op tracer
// so the rest of the code can call span helpers unconditionally.
type TraceConfig struct {
	// ServiceName identifies this process in traces (default "kickai").
	ServiceName string

	// ServiceVersion is stamped on every span's resource.
	ServiceVersion string

	// Environment tags spans (e.g. "production", "staging").
	Environment string

	// Endpoint is the OTLP/gRPC collector address, e.g. "localhost:4317".
	Endpoint string

	// SamplingRate in [0,1]; 0 defaults to 1.0 (sample everything).
	SamplingRate float64

	// EnableInsecure disables TLS on the exporter connection.
	EnableInsecure bool
}

// NewTracer builds a tracer and its shutdown function. With no endpoint
// configured, or if the exporter cannot be created, spans become no-ops.
func NewTracer(config TraceConfig) (*Tracer, func(context.Context) error) {
	if config.ServiceName == "" {
		config.ServiceName = "kickai"
	}
	noop := func() (*Tracer, func(context.Context) error) {
		return &Tracer{tracer: otel.Tracer(config.ServiceName), config: config},
			func(context.Context) error { return nil }
	}

	if config.Endpoint == "" {
		return noop()
	}
	if config.SamplingRate == 0 {
		config.SamplingRate = 1.0
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}
	if config.EnableInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return noop()
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	}
	if config.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(config.Environment))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		res = resource.Default()
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case config.SamplingRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Tracer{
		provider: provider,
		tracer:   provider.Tracer(config.ServiceName),
		config:   config,
	}
	return t, provider.Shutdown
}

// Start opens a span. Safe on a nil receiver, which yields a no-op span.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks the span failed and records err on it.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceUpdate opens the root span for one inbound update.
func (t *Tracer) TraceUpdate(ctx context.Context, chatType, teamID, requestID string) (context.Context, trace.Span) {
	return t.Start(ctx, "update.handle",
		attribute.String("chat.type", chatType),
		attribute.String("team.id", teamID),
		attribute.String("request.id", requestID),
	)
}

// TraceStage opens a span for one pipeline stage.
func (t *Tracer) TraceStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("pipeline.%s", stage),
		attribute.String("pipeline.stage", stage),
	)
}

// TraceLLMRequest opens a span for one provider completion call.
func (t *Tracer) TraceLLMRequest(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return t.Start(ctx, "llm.complete",
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)
}

// TraceToolExecution opens a span for one tool invocation.
func (t *Tracer) TraceToolExecution(ctx context.Context, toolID string) (context.Context, trace.Span) {
	return t.Start(ctx, "tool.execute",
		attribute.String("tool.id", toolID),
	)
}

// TraceDatabaseQuery opens a span for one repository operation.
func (t *Tracer) TraceDatabaseQuery(ctx context.Context, operation, collection string) (context.Context, trace.Span) {
	return t.Start(ctx, "db.query",
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
	)
}

// TraceID extracts the current trace ID for log correlation, empty when
// not recording.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
