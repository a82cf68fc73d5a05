package config

import "time"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	GRPC     GRPCConfig     `mapstructure:"grpc" yaml:"grpc"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	CORS     CORSConfig     `mapstructure:"cors" yaml:"cors"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`

	// ConfigFile is the file the configuration was loaded from, empty
	// when running on env vars and defaults alone. The hot-reload
	// watcher watches this path.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// GRPCConfig handles the four stage engines' gRPC configuration
type GRPCConfig struct {
	PreprocessEngine EngineConfig `mapstructure:"preprocess_engine" yaml:"preprocess_engine"`
	SegmentEngine    EngineConfig `mapstructure:"segment_engine" yaml:"segment_engine"`
	OutlierEngine    EngineConfig `mapstructure:"outlier_engine" yaml:"outlier_engine"`
	ForecastEngine   EngineConfig `mapstructure:"forecast_engine" yaml:"forecast_engine"`
}

type EngineConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  int    `mapstructure:"timeout" yaml:"timeout"` // milliseconds, per call attempt
}

// TimeoutDuration returns the per-attempt timeout as a duration.
func (e EngineConfig) TimeoutDuration() time.Duration {
	return time.Duration(e.Timeout) * time.Millisecond
}

// PipelineConfig carries the orchestration tunables. These are live
// reloadable through the config watcher.
type PipelineConfig struct {
	// MaxParallelism bounds concurrent per-segment work within one run.
	MaxParallelism int `mapstructure:"max_parallelism" yaml:"max_parallelism"`
	// RequestTimeout is the aggregate per-request budget in milliseconds.
	RequestTimeout int `mapstructure:"request_timeout" yaml:"request_timeout"`
	// CacheTTL is the stage-result cache TTL in seconds; 0 disables
	// stage-result caching.
	CacheTTL int `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

func (p PipelineConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(p.RequestTimeout) * time.Millisecond
}

func (p PipelineConfig) CacheTTLDuration() time.Duration {
	return time.Duration(p.CacheTTL) * time.Second
}

// CacheConfig handles Valkey caching configuration
type CacheConfig struct {
	Nodes    []string `mapstructure:"nodes" yaml:"nodes"`
	TTL      int      `mapstructure:"ttl" yaml:"ttl"` // seconds
	Password string   `mapstructure:"password" yaml:"password"`
	DB       int      `mapstructure:"db" yaml:"db"`
}

// CORSConfig handles Cross-Origin Resource Sharing
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// TracingConfig handles OpenTelemetry export configuration
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
