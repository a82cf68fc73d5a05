package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost:50051", cfg.GRPC.PreprocessEngine.Endpoint)
	assert.Equal(t, "localhost:50054", cfg.GRPC.ForecastEngine.Endpoint)
	assert.Equal(t, 8, cfg.Pipeline.MaxParallelism)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestValidateGRPCEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		wantErr  bool
	}{
		{"localhost:50051", false},
		{"forecast-engine:50054", false},
		{"", true},
		{"nohost", true},
		{"host:notaport", true},
		{"host:70000", true},
	}
	for _, tt := range tests {
		err := ValidateGRPCEndpoint(tt.endpoint)
		if tt.wantErr {
			assert.Error(t, err, tt.endpoint)
		} else {
			assert.NoError(t, err, tt.endpoint)
		}
	}
}

func TestValidateConfig_RejectsBadPipeline(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Pipeline.MaxParallelism = 0
	assert.Error(t, validateConfig(cfg))

	cfg.Pipeline.MaxParallelism = 4
	cfg.Pipeline.RequestTimeout = 0
	assert.Error(t, validateConfig(cfg))
}

func TestGenerateConfigTemplate(t *testing.T) {
	out, err := GenerateConfigTemplate("production")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# PROGNOS-CORE Configuration"))
	assert.Contains(t, out, "preprocess_engine")
	assert.Contains(t, out, "max_parallelism")
}

func TestEngineConfig_TimeoutDuration(t *testing.T) {
	e := EngineConfig{Timeout: 2500}
	assert.Equal(t, "2.5s", e.TimeoutDuration().String())
}
