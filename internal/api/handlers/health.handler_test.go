package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/prognos-core/internal/grpc/clients"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/cache"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// ---- Fake stage clients -----------------------------------------------------

type healthyPreprocess struct{}

func (healthyPreprocess) PreprocessData(ctx context.Context, series *models.TimeSeries, cfg *models.PreprocessingConfig) (*models.TimeSeries, error) {
	return series, nil
}
func (healthyPreprocess) HealthCheck() error { return nil }

type healthySegment struct{}

func (healthySegment) SegmentData(ctx context.Context, series *models.TimeSeries, cfg *models.SegmentationConfig) (*models.SegmentationOutcome, error) {
	return &models.SegmentationOutcome{}, nil
}
func (healthySegment) HealthCheck() error { return nil }

type healthyOutlier struct{}

func (healthyOutlier) CleanseOutliers(ctx context.Context, seg *models.Segment, cfg *models.OutlierConfig, profile *models.SegmentationProfile) (*models.CleanseOutcome, error) {
	return &models.CleanseOutcome{Series: seg.Series}, nil
}
func (healthyOutlier) HealthCheck() error { return nil }

type downForecast struct{}

func (downForecast) GenerateForecast(ctx context.Context, seg *models.Segment, cfg *models.ForecastConfig, profile *models.SegmentationProfile) (*models.ForecastOutput, error) {
	return nil, models.NewStageError(models.StageForecast, models.ErrorKindUnavailable, "down")
}
func (downForecast) HealthCheck() error { return errors.New("connection refused") }

type healthyForecast struct{}

func (healthyForecast) GenerateForecast(ctx context.Context, seg *models.Segment, cfg *models.ForecastConfig, profile *models.SegmentationProfile) (*models.ForecastOutput, error) {
	return &models.ForecastOutput{}, nil
}
func (healthyForecast) HealthCheck() error { return nil }

// ---- Fake cache -------------------------------------------------------------

type downCache struct {
	cache.ValkeyCluster
}

func (downCache) HealthCheck(ctx context.Context) error { return errors.New("valkey unreachable") }
func (downCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("valkey unreachable")
}

// ---- Tests ------------------------------------------------------------------

func healthRouter(stageClients *clients.StageClients, c cache.ValkeyCluster) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHealthHandler(stageClients, c, logger.New("fatal"))
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/microservices/status", h.MicroservicesStatus)
	return router
}

func allHealthyClients() *clients.StageClients {
	return &clients.StageClients{
		Preprocess: healthyPreprocess{}, PreprocessEnabled: true,
		Segment: healthySegment{}, SegmentEnabled: true,
		Outlier: healthyOutlier{}, OutlierEnabled: true,
		Forecast: healthyForecast{}, ForecastEnabled: true,
	}
}

func TestHealthCheck_AlwaysHealthy(t *testing.T) {
	router := healthRouter(allHealthyClients(), cache.NewNoopValkeyCache(logger.New("fatal")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "prognos-core", body["service"])
}

func TestReadinessCheck_UnhealthyWhenCacheDown(t *testing.T) {
	router := healthRouter(allHealthyClients(), downCache{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestReadinessCheck_HealthyWithNoopCache(t *testing.T) {
	router := healthRouter(allHealthyClients(), cache.NewNoopValkeyCache(logger.New("fatal")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMicroservicesStatus_ReportsUnreachableEngine(t *testing.T) {
	stageClients := allHealthyClients()
	stageClients.Forecast = downForecast{}
	router := healthRouter(stageClients, cache.NewNoopValkeyCache(logger.New("fatal")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/microservices/status", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string                       `json:"status"`
		Checks map[string]map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unreachable", body.Checks["forecast-engine"]["status"])
	assert.Equal(t, "healthy", body.Checks["preprocess-engine"]["status"])
}

func TestMicroservicesStatus_DisabledEngineIsNotAnOutage(t *testing.T) {
	stageClients := allHealthyClients()
	stageClients.OutlierEnabled = false
	router := healthRouter(stageClients, cache.NewNoopValkeyCache(logger.New("fatal")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/microservices/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Checks map[string]map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "disabled", body.Checks["outlier-engine"]["status"])
}
