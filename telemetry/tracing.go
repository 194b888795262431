// Package telemetry provides OpenTelemetry tracing for agent operations.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with agent-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include content in span attributes
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- LLM Spans ---

// LLMSpanOptions contains options for LLM call spans.
type LLMSpanOptions struct {
	Model     string
	Provider  string
	TokensIn  int
	TokensOut int
	Prompt    string // Only included if debug=true
	Response  string // Only included if debug=true
}

// StartLLMSpan starts a span for an LLM call.
func (t *Tracer) StartLLMSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
}

// EndLLMSpan ends an LLM span with attributes.
func (t *Tracer) EndLLMSpan(span trace.Span, opts LLMSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("llm.model", opts.Model),
		attribute.String("llm.provider", opts.Provider),
		attribute.Int("llm.tokens.input", opts.TokensIn),
		attribute.Int("llm.tokens.output", opts.TokensOut),
	}

	if t.debug {
		if opts.Prompt != "" {
			attrs = append(attrs, attribute.String("llm.prompt", truncate(opts.Prompt, 4000)))
		}
		if opts.Response != "" {
			attrs = append(attrs, attribute.String("llm.response", truncate(opts.Response, 4000)))
		}
	}

	span.SetAttributes(attrs...)
	endWithError(span, err)
}

// --- Tool Spans ---

// ToolSpanOptions contains options for tool execution spans.
type ToolSpanOptions struct {
	Tool   string
	Args   map[string]string // Always included (agent-controlled)
	Result string            // Only included if debug=true
}

// StartToolSpan starts a span for a tool execution.
func (t *Tracer) StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "tool."+toolName, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("tool.name", toolName))
	return ctx, span
}

// EndToolSpan ends a tool span with attributes.
func (t *Tracer) EndToolSpan(span trace.Span, opts ToolSpanOptions, err error) {
	for k, v := range opts.Args {
		span.SetAttributes(attribute.String("tool.arg."+k, truncate(v, 500)))
	}

	// Result only in debug mode (may contain user data)
	if t.debug && opts.Result != "" {
		span.SetAttributes(attribute.String("tool.result", truncate(opts.Result, 4000)))
	}

	endWithError(span, err)
}

// --- Task Spans ---

// TaskSpanOptions contains options for task execution spans.
type TaskSpanOptions struct {
	TaskID     string
	Status     string
	RetryCount int
}

// StartTaskSpan starts a span for a task execution.
func (t *Tracer) StartTaskSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "task.execute", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("task.id", taskID))
	return ctx, span
}

// EndTaskSpan ends a task span with attributes.
func (t *Tracer) EndTaskSpan(span trace.Span, opts TaskSpanOptions, err error) {
	span.SetAttributes(
		attribute.String("task.status", opts.Status),
		attribute.Int("task.retry_count", opts.RetryCount),
	)
	endWithError(span, err)
}

// --- Helpers ---

func endWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
