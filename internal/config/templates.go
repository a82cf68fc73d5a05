package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// GenerateConfigTemplate renders a commented starter configuration for
// the given environment, used by `prognos-core --print-config`.
func GenerateConfigTemplate(environment string) (string, error) {
	logLevel := "info"
	if environment == "development" {
		logLevel = "debug"
	}

	cfg := Config{
		Environment: environment,
		Port:        8080,
		LogLevel:    logLevel,
		GRPC: GRPCConfig{
			PreprocessEngine: EngineConfig{Endpoint: "preprocess-engine:50051", Timeout: 30000},
			SegmentEngine:    EngineConfig{Endpoint: "segment-engine:50052", Timeout: 30000},
			OutlierEngine:    EngineConfig{Endpoint: "outlier-engine:50053", Timeout: 30000},
			ForecastEngine:   EngineConfig{Endpoint: "forecast-engine:50054", Timeout: 30000},
		},
		Pipeline: PipelineConfig{
			MaxParallelism: 8,
			RequestTimeout: 120000,
			CacheTTL:       300,
		},
		Cache: CacheConfig{
			Nodes: []string{"valkey:6379"},
			TTL:   300,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
			MaxAge:         300,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			OTLPEndpoint: "otel-collector:4317",
		},
	}

	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config template: %w", err)
	}

	header := fmt.Sprintf("# PROGNOS-CORE Configuration\n# Environment: %s\n# Generated: %s\n\n",
		environment, time.Now().UTC().Format(time.RFC3339))
	return header + string(body), nil
}
