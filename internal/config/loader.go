package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/prognos/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PROGNOS")

	setDefaults(v)

	// Read configuration file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.ConfigFile = v.ConfigFileUsed()

	return &config, nil
}

// setDefaults sets reasonable default values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	// Stage engine defaults
	v.SetDefault("grpc.preprocess_engine.endpoint", "localhost:50051")
	v.SetDefault("grpc.preprocess_engine.timeout", 30000)
	v.SetDefault("grpc.segment_engine.endpoint", "localhost:50052")
	v.SetDefault("grpc.segment_engine.timeout", 30000)
	v.SetDefault("grpc.outlier_engine.endpoint", "localhost:50053")
	v.SetDefault("grpc.outlier_engine.timeout", 30000)
	v.SetDefault("grpc.forecast_engine.endpoint", "localhost:50054")
	v.SetDefault("grpc.forecast_engine.timeout", 30000)

	// Pipeline defaults
	v.SetDefault("pipeline.max_parallelism", 8)
	v.SetDefault("pipeline.request_timeout", 120000)
	v.SetDefault("pipeline.cache_ttl", 300)

	// Cache defaults (empty nodes -> in-memory noop cache)
	v.SetDefault("cache.nodes", []string{})
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.db", 0)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
}
