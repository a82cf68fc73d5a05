package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// PipelineTracer provides distributed tracing for forecast pipeline runs
type PipelineTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(), // TODO: Add TLS configuration
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("prognos-core"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()), // TODO: Configure sampling
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewPipelineTracer creates a new pipeline tracer
func NewPipelineTracer(serviceName string) *PipelineTracer {
	tracer := otel.Tracer(serviceName)
	return &PipelineTracer{tracer: tracer}
}

// StartRunSpan starts a span covering a complete forecast pipeline run
func (pt *PipelineTracer) StartRunSpan(ctx context.Context, runID string, seriesLen int) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "pipeline_run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.series_length", seriesLen),
			attribute.String("component", "pipeline-orchestrator"),
		),
	)
	return ctx, span
}

// StartStageSpan starts a span for a single remote stage call
func (pt *PipelineTracer) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "stage_call",
		trace.WithAttributes(
			attribute.String("stage.name", stage),
			attribute.String("component", "stage-client"),
		),
	)
	return ctx, span
}

// StartSegmentSpan starts a span for the per-segment branch of the fan-out
func (pt *PipelineTracer) StartSegmentSpan(ctx context.Context, segmentIndex, segmentLen int) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "segment_branch",
		trace.WithAttributes(
			attribute.Int("segment.index", segmentIndex),
			attribute.Int("segment.length", segmentLen),
			attribute.String("component", "fanout-coordinator"),
		),
	)
	return ctx, span
}

// StartCacheOperationSpan starts a span for cache operations
func (pt *PipelineTracer) StartCacheOperationSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "cache_operation",
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
			attribute.String("cache.key", key),
			attribute.String("component", "cache"),
		),
	)
	return ctx, span
}

// RecordRunMetrics records run outcome attributes on a span
func (pt *PipelineTracer) RecordRunMetrics(span trace.Span, status string, segmentCount int, duration time.Duration) {
	span.SetAttributes(
		attribute.String("run.status", status),
		attribute.Int("run.segment_count", segmentCount),
		attribute.Int64("run.duration_ms", duration.Milliseconds()),
	)

	if status == "failed" {
		span.SetStatus(codes.Error, "pipeline run failed")
	}
}

// RecordStageMetrics records stage-call metrics on a span
func (pt *PipelineTracer) RecordStageMetrics(span trace.Span, stage string, duration time.Duration, success bool) {
	span.SetAttributes(
		attribute.String("stage.name", stage),
		attribute.Int64("stage.duration_ms", duration.Milliseconds()),
		attribute.Bool("stage.success", success),
	)

	if !success {
		span.SetStatus(codes.Error, "stage call failed")
	}
}

// RecordCacheMetrics records cache operation metrics on a span
func (pt *PipelineTracer) RecordCacheMetrics(span trace.Span, hit bool, duration time.Duration) {
	span.SetAttributes(
		attribute.Bool("cache.hit", hit),
		attribute.Int64("cache.duration_ms", duration.Milliseconds()),
	)
}

// RecordError records an error on a span
func (pt *PipelineTracer) RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attrs...)
	span.RecordError(err)
}

// Global tracer instance
var globalPipelineTracer *PipelineTracer

// InitGlobalTracer initializes the global pipeline tracer
func InitGlobalTracer(serviceName string) {
	globalPipelineTracer = NewPipelineTracer(serviceName)
}

// GetGlobalTracer returns the global pipeline tracer
func GetGlobalTracer() *PipelineTracer {
	return globalPipelineTracer
}
