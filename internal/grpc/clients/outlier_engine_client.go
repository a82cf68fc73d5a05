package clients

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/platformbuilds/prognos-core/internal/grpc/proto/outlier"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// OutlierEngineClient wraps the gRPC client for OUTLIER-ENGINE
type OutlierEngineClient struct {
	client outlier.OutlierEngineServiceClient
	conn   *grpc.ClientConn
	policy callPolicy
	logger logger.Logger
}

// NewOutlierEngineClient creates a new OUTLIER-ENGINE gRPC client
func NewOutlierEngineClient(endpoint string, timeout time.Duration, logger logger.Logger) (*OutlierEngineClient, error) {
	conn, err := grpc.Dial(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to OUTLIER-ENGINE: %w", err)
	}

	return &OutlierEngineClient{
		client: outlier.NewOutlierEngineServiceClient(conn),
		conn:   conn,
		policy: defaultCallPolicy(timeout),
		logger: logger,
	}, nil
}

// CleanseOutliers detects and corrects outliers in one segment. The
// corrected series must keep the segment's length and timestamps: the
// engine corrects values in place, it never drops points.
func (c *OutlierEngineClient) CleanseOutliers(ctx context.Context, seg *models.Segment, cfg *models.OutlierConfig, profile *models.SegmentationProfile) (*models.CleanseOutcome, error) {
	timestamps, values, quality := seriesToWire(seg.Series)
	request := &outlier.CleanseRequest{
		Data: &outlier.TimeSeriesData{
			Timestamps: timestamps,
			Values:     values,
			Quality:    quality,
			Frequency:  string(seg.Series.Frequency),
		},
		Params: &outlier.OutlierParams{
			SigmaMultiplier: cfg.SigmaMultiplier,
			RollingWindow:   int32(cfg.RollingWindow),
			IqrMultiplier:   cfg.IQRMultiplier,
			CorrectionType:  cfg.CorrectionType,
		},
	}
	if profile != nil {
		request.Profile = &outlier.SeriesProfile{
			Trend:    profile.Trend,
			Seasonal: profile.Seasonal,
		}
	}

	var response *outlier.CleanseResponse
	err := invokeWithRetry(ctx, models.StageOutlier, c.policy, c.logger, func(ctx context.Context) error {
		var callErr error
		response, callErr = c.client.CleanseOutliers(ctx, request)
		return callErr
	})
	if err != nil {
		c.logger.Error("OUTLIER-ENGINE call failed", "segment", seg.Index, "error", err)
		return nil, err
	}

	if !response.Success {
		return nil, stageFailure(models.StageOutlier, response.Message)
	}
	if response.CorrectedSeries == nil {
		return nil, models.NewStageError(models.StageOutlier, models.ErrorKindContractViolation,
			"success response carried no corrected series")
	}

	corrected, err := wireToSeries(models.StageOutlier,
		response.CorrectedSeries.Timestamps,
		response.CorrectedSeries.Values,
		response.CorrectedSeries.Quality,
		response.CorrectedSeries.Frequency,
		seg.Series.Frequency,
	)
	if err != nil {
		return nil, err
	}
	// Cleansing corrects values in place; a shrunken series means the
	// engine silently dropped data.
	if corrected.Len() != seg.Series.Len() {
		return nil, models.NewStageError(models.StageOutlier, models.ErrorKindContractViolation,
			"corrected series has %d points, segment had %d", corrected.Len(), seg.Series.Len())
	}

	return &models.CleanseOutcome{
		Series: corrected,
		Summary: models.OutlierSummary{
			MethodUsed:     response.MethodUsed,
			CorrectionType: response.CorrectionType,
			OutliersFound:  len(response.OutlierIndices),
		},
	}, nil
}

// HealthCheck checks the health of the OUTLIER-ENGINE
func (c *OutlierEngineClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.GetHealth(ctx, &outlier.GetHealthRequest{})
	return err
}

// Close closes the gRPC connection
func (c *OutlierEngineClient) Close() error {
	return c.conn.Close()
}
