// internal/grpc/clients/stage_clients.go
package clients

import (
	"context"
	"fmt"

	"github.com/platformbuilds/prognos-core/internal/config"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

/* ========= Interfaces used by the orchestrator ========= */

// PreprocessClient is the abstraction the orchestrator depends on for
// PREPROCESS-ENGINE.
type PreprocessClient interface {
	PreprocessData(ctx context.Context, series *models.TimeSeries, cfg *models.PreprocessingConfig) (*models.TimeSeries, error)
	HealthCheck() error
}

type SegmentClient interface {
	SegmentData(ctx context.Context, series *models.TimeSeries, cfg *models.SegmentationConfig) (*models.SegmentationOutcome, error)
	HealthCheck() error
}

type OutlierClient interface {
	CleanseOutliers(ctx context.Context, seg *models.Segment, cfg *models.OutlierConfig, profile *models.SegmentationProfile) (*models.CleanseOutcome, error)
	HealthCheck() error
}

type ForecastClient interface {
	GenerateForecast(ctx context.Context, seg *models.Segment, cfg *models.ForecastConfig, profile *models.SegmentationProfile) (*models.ForecastOutput, error)
	HealthCheck() error
}

/* ========= Bundle used by server/orchestrator ========= */

// StageClients holds the gRPC clients for all four pipeline engines
// (as interfaces, so tests and the orchestrator never see transport).
type StageClients struct {
	Preprocess PreprocessClient
	Segment    SegmentClient
	Outlier    OutlierClient
	Forecast   ForecastClient
	logger     logger.Logger
	// enabled flags (useful for health/readiness reporting)
	PreprocessEnabled bool
	SegmentEnabled    bool
	OutlierEnabled    bool
	ForecastEnabled   bool

	closers []func() error
}

// NewStageClients creates and initializes clients for all four engines.
// In development an unreachable engine degrades to a no-op client; in
// production it is a startup failure.
func NewStageClients(cfg *config.Config, log logger.Logger) (*StageClients, error) {
	s := &StageClients{logger: log}

	if c, err := NewPreprocessEngineClient(cfg.GRPC.PreprocessEngine.Endpoint, cfg.GRPC.PreprocessEngine.TimeoutDuration(), log); err != nil {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("failed to create PREPROCESS-ENGINE client: %w", err)
		}
		log.Warn("PREPROCESS-ENGINE unavailable; using no-op client (development)")
		s.Preprocess = &noopPreprocessClient{logger: log}
	} else {
		s.Preprocess = c
		s.PreprocessEnabled = true
		s.closers = append(s.closers, c.Close)
	}

	if c, err := NewSegmentEngineClient(cfg.GRPC.SegmentEngine.Endpoint, cfg.GRPC.SegmentEngine.TimeoutDuration(), log); err != nil {
		if !cfg.IsDevelopment() {
			s.closeAll()
			return nil, fmt.Errorf("failed to create SEGMENT-ENGINE client: %w", err)
		}
		log.Warn("SEGMENT-ENGINE unavailable; using no-op client (development)")
		s.Segment = &noopSegmentClient{logger: log}
	} else {
		s.Segment = c
		s.SegmentEnabled = true
		s.closers = append(s.closers, c.Close)
	}

	if c, err := NewOutlierEngineClient(cfg.GRPC.OutlierEngine.Endpoint, cfg.GRPC.OutlierEngine.TimeoutDuration(), log); err != nil {
		if !cfg.IsDevelopment() {
			s.closeAll()
			return nil, fmt.Errorf("failed to create OUTLIER-ENGINE client: %w", err)
		}
		log.Warn("OUTLIER-ENGINE unavailable; using no-op client (development)")
		s.Outlier = &noopOutlierClient{logger: log}
	} else {
		s.Outlier = c
		s.OutlierEnabled = true
		s.closers = append(s.closers, c.Close)
	}

	if c, err := NewForecastEngineClient(cfg.GRPC.ForecastEngine.Endpoint, cfg.GRPC.ForecastEngine.TimeoutDuration(), log); err != nil {
		if !cfg.IsDevelopment() {
			s.closeAll()
			return nil, fmt.Errorf("failed to create FORECAST-ENGINE client: %w", err)
		}
		log.Warn("FORECAST-ENGINE unavailable; using no-op client (development)")
		s.Forecast = &noopForecastClient{logger: log}
	} else {
		s.Forecast = c
		s.ForecastEnabled = true
		s.closers = append(s.closers, c.Close)
	}

	return s, nil
}

func (s *StageClients) closeAll() {
	for _, close := range s.closers {
		_ = close()
	}
}

// Close closes all gRPC connections
func (s *StageClients) Close() error {
	var errs []error
	for _, close := range s.closers {
		if err := close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("stage client close errors: %v", errs)
	}
	s.logger.Info("All stage engine clients closed successfully")
	return nil
}

// HealthCheck checks health of all stage engines
func (s *StageClients) HealthCheck() error {
	if err := s.Preprocess.HealthCheck(); err != nil {
		return fmt.Errorf("PREPROCESS-ENGINE health check failed: %w", err)
	}
	if err := s.Segment.HealthCheck(); err != nil {
		return fmt.Errorf("SEGMENT-ENGINE health check failed: %w", err)
	}
	if err := s.Outlier.HealthCheck(); err != nil {
		return fmt.Errorf("OUTLIER-ENGINE health check failed: %w", err)
	}
	if err := s.Forecast.HealthCheck(); err != nil {
		return fmt.Errorf("FORECAST-ENGINE health check failed: %w", err)
	}
	return nil
}

// EngineStatus reports per-engine reachability for the status endpoint.
func (s *StageClients) EngineStatus() map[string]string {
	check := func(enabled bool, fn func() error) string {
		if !enabled {
			return "disabled"
		}
		if err := fn(); err != nil {
			return "unreachable"
		}
		return "healthy"
	}
	return map[string]string{
		"preprocess-engine": check(s.PreprocessEnabled, s.Preprocess.HealthCheck),
		"segment-engine":    check(s.SegmentEnabled, s.Segment.HealthCheck),
		"outlier-engine":    check(s.OutlierEnabled, s.Outlier.HealthCheck),
		"forecast-engine":   check(s.ForecastEnabled, s.Forecast.HealthCheck),
	}
}

/* ========= No-op clients for development ========= */

type noopPreprocessClient struct{ logger logger.Logger }

func (n *noopPreprocessClient) PreprocessData(ctx context.Context, series *models.TimeSeries, cfg *models.PreprocessingConfig) (*models.TimeSeries, error) {
	n.logger.Warn("PreprocessData called on no-op PREPROCESS client")
	return nil, models.NewStageError(models.StagePreprocess, models.ErrorKindUnavailable, "preprocess engine disabled in development")
}
func (n *noopPreprocessClient) HealthCheck() error { return nil }

type noopSegmentClient struct{ logger logger.Logger }

func (n *noopSegmentClient) SegmentData(ctx context.Context, series *models.TimeSeries, cfg *models.SegmentationConfig) (*models.SegmentationOutcome, error) {
	n.logger.Warn("SegmentData called on no-op SEGMENT client")
	return nil, models.NewStageError(models.StageSegment, models.ErrorKindUnavailable, "segment engine disabled in development")
}
func (n *noopSegmentClient) HealthCheck() error { return nil }

type noopOutlierClient struct{ logger logger.Logger }

func (n *noopOutlierClient) CleanseOutliers(ctx context.Context, seg *models.Segment, cfg *models.OutlierConfig, profile *models.SegmentationProfile) (*models.CleanseOutcome, error) {
	n.logger.Warn("CleanseOutliers called on no-op OUTLIER client")
	return nil, models.NewStageError(models.StageOutlier, models.ErrorKindUnavailable, "outlier engine disabled in development")
}
func (n *noopOutlierClient) HealthCheck() error { return nil }

type noopForecastClient struct{ logger logger.Logger }

func (n *noopForecastClient) GenerateForecast(ctx context.Context, seg *models.Segment, cfg *models.ForecastConfig, profile *models.SegmentationProfile) (*models.ForecastOutput, error) {
	n.logger.Warn("GenerateForecast called on no-op FORECAST client")
	return nil, models.NewStageError(models.StageForecast, models.ErrorKindUnavailable, "forecast engine disabled in development")
}
func (n *noopForecastClient) HealthCheck() error { return nil }
