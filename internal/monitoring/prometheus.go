// Package monitoring provides Prometheus metrics for the PROGNOS-CORE API
// and pipeline.
//
// Usage:
//
//  1. Setup metrics in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Add HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
//  3. Record custom metrics:
//
//	// Stage engine calls
//	start := time.Now()
//	// ... stage client call ...
//	monitoring.RecordStageCall("forecast", time.Since(start), true)
//
//	// Cache operations
//	monitoring.RecordCacheOperation("get", "hit")
//
//	// Whole pipeline runs
//	monitoring.RecordPipelineRun("complete", segments, time.Since(start))
//
// Available Metrics:
//
// HTTP Metrics:
//   - prognos_core_http_requests_total{method, endpoint, status_code}
//   - prognos_core_http_request_duration_seconds{method, endpoint}
//   - prognos_core_active_connections
//
// Pipeline Metrics:
//   - prognos_core_pipeline_runs_total{status}
//   - prognos_core_pipeline_run_duration_seconds{status}
//   - prognos_core_pipeline_segments{status}
//
// Stage Metrics:
//   - prognos_core_stage_calls_total{stage, status}
//   - prognos_core_stage_call_duration_seconds{stage}
//   - prognos_core_stage_retries_total{stage}
//
// Cache Metrics:
//   - prognos_core_cache_operations_total{operation, result}
//
// Error Metrics:
//   - prognos_core_errors_total{type, component}
//
// Build Info:
//   - prognos_core_build_info{version, component, go_version}
package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognos_core_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prognos_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Pipeline run metrics
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognos_core_pipeline_runs_total",
			Help: "Total number of pipeline orchestration runs",
		},
		[]string{"status"}, // complete, partial_success, failed
	)

	pipelineRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prognos_core_pipeline_run_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"status"},
	)

	pipelineSegments = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prognos_core_pipeline_segments",
			Help:    "Number of segments processed per pipeline run",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"status"},
	)

	// Stage engine call metrics
	stageCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognos_core_stage_calls_total",
			Help: "Total number of stage engine invocations",
		},
		[]string{"stage", "status"},
	)

	stageCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prognos_core_stage_call_duration_seconds",
			Help:    "Stage engine call duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	stageRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognos_core_stage_retries_total",
			Help: "Total number of stage call retries",
		},
		[]string{"stage"},
	)

	// Cache metrics
	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognos_core_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error
	)

	// Active connections gauge
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prognos_core_active_connections",
			Help: "Number of active connections",
		},
	)

	// Error rate metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognos_core_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"}, // type: http, stage, cache, pipeline
	)
)

// SetupPrometheusMetrics configures the Prometheus metrics endpoint for PROGNOS-CORE
func SetupPrometheusMetrics(router gin.IRoutes) {
	// Register build info (ignore if already registered)
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "prognos_core_build_info",
		Help: "Build information for PROGNOS-CORE",
		ConstLabels: prometheus.Labels{
			"version":    "v1.4.0",
			"component":  "prognos-core",
			"go_version": "1.24",
		},
	}, func() float64 { return 1 }))

	// Register metrics (ignore if already registered; tests re-register)
	_ = prometheus.Register(httpRequestsTotal)
	_ = prometheus.Register(httpRequestDuration)
	_ = prometheus.Register(pipelineRunsTotal)
	_ = prometheus.Register(pipelineRunDuration)
	_ = prometheus.Register(pipelineSegments)
	_ = prometheus.Register(stageCallsTotal)
	_ = prometheus.Register(stageCallDuration)
	_ = prometheus.Register(stageRetriesTotal)
	_ = prometheus.Register(cacheOperationsTotal)
	_ = prometheus.Register(activeConnections)
	_ = prometheus.Register(errorsTotal)

	// Expose metrics endpoint using default registry
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := normalizeEndpoint(c.Request.URL.Path)

		activeConnections.Inc()
		defer activeConnections.Dec()

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)

		if c.Writer.Status() >= 400 {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordPipelineRun records the outcome of one orchestration run
func RecordPipelineRun(status string, segments int, duration time.Duration) {
	pipelineRunsTotal.WithLabelValues(status).Inc()
	pipelineRunDuration.WithLabelValues(status).Observe(duration.Seconds())
	pipelineSegments.WithLabelValues(status).Observe(float64(segments))
	if status == "failed" {
		errorsTotal.WithLabelValues("pipeline", "run").Inc()
	}
}

// RecordStageCall records one stage engine invocation
func RecordStageCall(stage string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("stage", stage).Inc()
	}
	stageCallsTotal.WithLabelValues(stage, status).Inc()
	stageCallDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordStageRetry records one retry attempt against a stage engine
func RecordStageRetry(stage string) {
	stageRetriesTotal.WithLabelValues(stage).Inc()
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", operation).Inc()
	}
}

// normalizeEndpoint collapses path parameters so metric cardinality stays
// bounded.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) > 8 && isLikelyID(part) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isLikelyID(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*2 > len(s)
}
