// Package observability provides metrics, structured logging, and
// distributed tracing for the bot.
//
// # Overview
//
// Three components, each usable on its own:
//
//  1. Metrics - Prometheus counters, gauges, and histograms
//  2. Logging - slog-based structured logs with sensitive data redaction
//  3. Tracing - OpenTelemetry spans exported over OTLP
//
// # Metrics
//
// Metrics cover the request path end to end: inbound and outbound
// messages per chat type, in-flight requests, pipeline stage durations,
// tool executions, LLM latency and token usage, database queries, cache
// hits, and errors by component.
//
//	metrics := observability.NewMetrics()
//
//	metrics.MessageReceived("main")
//	metrics.RequestStarted()
//	defer metrics.RequestFinished()
//
//	start := time.Now()
//	// ... call the model ...
//	metrics.RecordLLMRequest("ollama", "llama3.1", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens)
//
//	metrics.RecordToolExecution("list_players", "success", elapsed.Seconds())
//	metrics.RecordDatabaseQuery("find", "players", "success", elapsed.Seconds())
//	metrics.RecordError("router", "timeout")
//
// A nil *Metrics is safe to call; components accept nil in tests.
//
// # Logging
//
// Logging is built on slog with request-scoped correlation and
// redaction of secrets:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddTeamID(ctx, teamID)
//	ctx = observability.AddChatType(ctx, "leadership")
//
//	logger.Info(ctx, "command dispatched",
//	    "command", "/approve",
//	    "telegram_id", telegramID,
//	)
//
// Values that look like bot tokens, API keys, or phone numbers are
// redacted before they reach the handler. WithFields derives a child
// logger with fixed attributes, used for per-component loggers.
//
// # Tracing
//
// Tracing uses OpenTelemetry with an OTLP gRPC exporter. Without an
// endpoint the tracer is a no-op, so it can always be constructed:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName:    "kickai",
//	    ServiceVersion: version,
//	    Environment:    "production",
//	    Endpoint:       "localhost:4317",
//	    SamplingRate:   0.1,
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := tracer.TraceUpdate(ctx, chatType, teamID, requestID)
//	defer span.End()
//
//	ctx, stageSpan := tracer.TraceStage(ctx, "execution")
//	defer stageSpan.End()
//
// A nil *Tracer is also safe to call. TraceID extracts the active trace
// ID from a context for log correlation.
//
// # Dashboards
//
// Useful queries over the exposed metrics:
//
//	# Message throughput
//	rate(kickai_messages_total[5m])
//
//	# LLM request latency (95th percentile)
//	histogram_quantile(0.95, rate(kickai_llm_request_duration_seconds_bucket[5m]))
//
//	# Error rate by component
//	rate(kickai_errors_total[5m])
//
//	# Requests currently in flight
//	kickai_requests_in_flight
package observability
