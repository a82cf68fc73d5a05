package clients

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/platformbuilds/prognos-core/internal/grpc/proto/segment"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// SegmentEngineClient wraps the gRPC client for SEGMENT-ENGINE
type SegmentEngineClient struct {
	client segment.SegmentEngineServiceClient
	conn   *grpc.ClientConn
	policy callPolicy
	logger logger.Logger
}

// NewSegmentEngineClient creates a new SEGMENT-ENGINE gRPC client
func NewSegmentEngineClient(endpoint string, timeout time.Duration, logger logger.Logger) (*SegmentEngineClient, error) {
	conn, err := grpc.Dial(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SEGMENT-ENGINE: %w", err)
	}

	return &SegmentEngineClient{
		client: segment.NewSegmentEngineServiceClient(conn),
		conn:   conn,
		policy: defaultCallPolicy(timeout),
		logger: logger,
	}, nil
}

// SegmentData splits the preprocessed series into segments. The engine
// answers with offset ranges; the client slices the series locally and
// validates that the segments tile the input exactly once. A tiling
// violation is a ContractViolation regardless of the configured method
// or count: the engine's returned segment set wins any method/count
// conflict as long as it tiles.
func (c *SegmentEngineClient) SegmentData(ctx context.Context, series *models.TimeSeries, cfg *models.SegmentationConfig) (*models.SegmentationOutcome, error) {
	timestamps, values, quality := seriesToWire(series)
	request := &segment.SegmentRequest{
		Data: &segment.TimeSeriesData{
			Timestamps: timestamps,
			Values:     values,
			Quality:    quality,
			Frequency:  string(series.Frequency),
		},
		Method:        cfg.Method,
		SegmentCount:  int32(cfg.Segments),
		HistoryMonths: int32(cfg.HistoryMonths),
	}

	var response *segment.SegmentResponse
	err := invokeWithRetry(ctx, models.StageSegment, c.policy, c.logger, func(ctx context.Context) error {
		var callErr error
		response, callErr = c.client.SegmentData(ctx, request)
		return callErr
	})
	if err != nil {
		c.logger.Error("SEGMENT-ENGINE call failed", "method", cfg.Method, "error", err)
		return nil, err
	}

	if !response.Success {
		return nil, stageFailure(models.StageSegment, response.Message)
	}

	segments := make([]*models.Segment, len(response.Segments))
	for i, info := range response.Segments {
		if info == nil {
			return nil, models.NewStageError(models.StageSegment, models.ErrorKindContractViolation,
				"segment %d is missing", i)
		}
		start, end := int(info.StartOffset), int(info.EndOffset)
		if start < 0 || end > series.Len() || start >= end {
			return nil, models.NewStageError(models.StageSegment, models.ErrorKindContractViolation,
				"segment %d offsets [%d,%d) out of range for %d points", i, start, end, series.Len())
		}
		segments[i] = &models.Segment{
			Index:       int(info.Index),
			Label:       info.Label,
			StartOffset: start,
			EndOffset:   end,
			Series:      series.Slice(start, end),
		}
	}
	if err := models.ValidateSegments(series, segments); err != nil {
		return nil, models.NewStageError(models.StageSegment, models.ErrorKindContractViolation, "%v", err)
	}

	outcome := &models.SegmentationOutcome{Segments: segments}
	if p := response.Profile; p != nil {
		outcome.Profile = &models.SegmentationProfile{
			VolumeClass:          p.VolumeClass,
			CoVClass:             p.CovClass,
			Intermittent:         p.Intermittent,
			Density:              p.Density,
			PLCStatus:            p.PlcStatus,
			Trend:                p.Trend,
			Seasonal:             p.Seasonal,
			RuleNumber:           int(p.RuleNumber),
			VolumePercentage:     p.VolumePercentage,
			CoefficientVariation: p.CoefficientVariation,
		}
	}
	return outcome, nil
}

// HealthCheck checks the health of the SEGMENT-ENGINE
func (c *SegmentEngineClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.GetHealth(ctx, &segment.GetHealthRequest{})
	return err
}

// Close closes the gRPC connection
func (c *SegmentEngineClient) Close() error {
	return c.conn.Close()
}
