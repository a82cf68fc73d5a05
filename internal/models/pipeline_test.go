package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineConfig_ApplyDefaultsFillsAbsentSubConfigs(t *testing.T) {
	cfg := PipelineConfig{}
	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Preprocessing)
	assert.Equal(t, FillMissingInterpolate, cfg.Preprocessing.FillMissing)

	require.NotNil(t, cfg.Segmentation)
	assert.Equal(t, SegmentationSeasonal, cfg.Segmentation.Method)
	assert.Equal(t, DefaultHistoryMonths, cfg.Segmentation.HistoryMonths)

	require.NotNil(t, cfg.Outlier)
	assert.Equal(t, DefaultSigmaMultiplier, cfg.Outlier.SigmaMultiplier)
	assert.Equal(t, DefaultRollingWindow, cfg.Outlier.RollingWindow)
	assert.Equal(t, DefaultIQRMultiplier, cfg.Outlier.IQRMultiplier)
	assert.Equal(t, CorrectionLimit, cfg.Outlier.CorrectionType)
	assert.False(t, cfg.Outlier.Mandatory)

	require.NotNil(t, cfg.Forecast)
	assert.Equal(t, "auto", cfg.Forecast.Model)
	assert.Equal(t, DefaultHorizon, cfg.Forecast.Horizon)
	assert.Equal(t, DefaultConfidenceInterval, cfg.Forecast.ConfidenceInterval)
}

func TestPipelineConfig_ApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := PipelineConfig{
		Segmentation: &SegmentationConfig{Method: SegmentationFixedCount, Segments: 4},
		Forecast:     &ForecastConfig{Model: "arima", Horizon: 6, ConfidenceInterval: 0.8},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, SegmentationFixedCount, cfg.Segmentation.Method)
	assert.Equal(t, 4, cfg.Segmentation.Segments)
	assert.Equal(t, "arima", cfg.Forecast.Model)
	assert.Equal(t, 6, cfg.Forecast.Horizon)
	assert.Equal(t, 0.8, cfg.Forecast.ConfidenceInterval)
}

func TestPipelineConfig_Validate(t *testing.T) {
	valid := PipelineConfig{}
	valid.ApplyDefaults()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"unknown fill strategy", func(c *PipelineConfig) { c.Preprocessing.FillMissing = "guess" }},
		{"unknown segmentation method", func(c *PipelineConfig) { c.Segmentation.Method = "random" }},
		{"unknown correction type", func(c *PipelineConfig) { c.Outlier.CorrectionType = "drop" }},
		{"confidence interval at 1", func(c *PipelineConfig) { c.Forecast.ConfidenceInterval = 1.0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := PipelineConfig{}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestForecastOutput_Validate(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	output := func() *ForecastOutput {
		points := make([]ForecastPoint, 3)
		ts := base
		for i := range points {
			points[i] = ForecastPoint{Timestamp: ts, Forecast: 10, Lower: 8, Upper: 12}
			ts = ts.Add(24 * time.Hour)
		}
		return &ForecastOutput{Points: points, Frequency: FrequencyDaily, ConfidenceLevel: 0.95}
	}

	assert.NoError(t, output().Validate(3, 0.95))

	short := output()
	short.Points = short.Points[:2]
	assert.Error(t, short.Validate(3, 0.95), "length must equal requested horizon")

	wrongCI := output()
	wrongCI.ConfidenceLevel = 0.9
	assert.Error(t, wrongCI.Validate(3, 0.95))

	inverted := output()
	inverted.Points[1].Lower = 11
	inverted.Points[1].Forecast = 10
	assert.Error(t, inverted.Validate(3, 0.95), "lower <= forecast <= upper must hold")

	unordered := output()
	unordered.Points[2].Timestamp = unordered.Points[0].Timestamp
	assert.Error(t, unordered.Validate(3, 0.95))
}

func TestStageError_Retryable(t *testing.T) {
	assert.True(t, NewStageError(StageForecast, ErrorKindTransient, "timeout").Retryable())
	for _, kind := range []ErrorKind{ErrorKindInvalidInput, ErrorKindContractViolation, ErrorKindDeadlineExceeded, ErrorKindUnavailable, ErrorKindInternal} {
		assert.False(t, NewStageError(StageForecast, kind, "boom").Retryable(), string(kind))
	}
}
