package config

import (
	"fmt"
	"net"
	"strconv"
)

// ValidateGRPCEndpoint validates gRPC endpoint format (host:port)
func ValidateGRPCEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("gRPC endpoint cannot be empty")
	}

	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return fmt.Errorf("gRPC endpoint must include port: %w", err)
	}
	if host == "" {
		return fmt.Errorf("gRPC endpoint must include host")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port number must be between 1 and 65535")
	}
	return nil
}

// validateConfig rejects configurations the server cannot start with.
func validateConfig(c *Config) error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Port)
	}

	engines := map[string]EngineConfig{
		"preprocess_engine": c.GRPC.PreprocessEngine,
		"segment_engine":    c.GRPC.SegmentEngine,
		"outlier_engine":    c.GRPC.OutlierEngine,
		"forecast_engine":   c.GRPC.ForecastEngine,
	}
	for name, engine := range engines {
		if err := ValidateGRPCEndpoint(engine.Endpoint); err != nil {
			return fmt.Errorf("grpc.%s: %w", name, err)
		}
		if engine.Timeout <= 0 {
			return fmt.Errorf("grpc.%s: timeout must be positive, got %d", name, engine.Timeout)
		}
	}

	if c.Pipeline.MaxParallelism < 1 {
		return fmt.Errorf("pipeline.max_parallelism must be >= 1, got %d", c.Pipeline.MaxParallelism)
	}
	if c.Pipeline.RequestTimeout <= 0 {
		return fmt.Errorf("pipeline.request_timeout must be positive, got %d", c.Pipeline.RequestTimeout)
	}
	if c.Pipeline.CacheTTL < 0 {
		return fmt.Errorf("pipeline.cache_ttl must not be negative, got %d", c.Pipeline.CacheTTL)
	}
	return nil
}
