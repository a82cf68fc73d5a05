package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

func TestNoopCache_SetGetDelete(t *testing.T) {
	c := NewNoopValkeyCache(logger.New("error"))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	b, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.Error(t, err)
}

func TestNoopCache_StageResultRoundTrip(t *testing.T) {
	c := NewNoopValkeyCache(logger.New("error"))
	ctx := context.Background()

	out := &models.ForecastOutput{
		SegmentIndex:  2,
		AlgorithmUsed: "arima",
	}
	require.NoError(t, c.CacheStageResult(ctx, models.StageForecast, "fp-1", out, time.Minute))

	b, err := c.GetCachedStageResult(ctx, models.StageForecast, "fp-1")
	require.NoError(t, err)

	var got models.ForecastOutput
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 2, got.SegmentIndex)
	assert.Equal(t, "arima", got.AlgorithmUsed)

	// Distinct stages never collide on the same fingerprint.
	_, err = c.GetCachedStageResult(ctx, models.StageOutlier, "fp-1")
	assert.Error(t, err)
}

func TestNoopCache_HealthCheckAlwaysHealthy(t *testing.T) {
	c := NewNoopValkeyCache(logger.New("error"))
	assert.NoError(t, c.HealthCheck(context.Background()))
}
