package clients

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/platformbuilds/prognos-core/internal/grpc/proto/forecast"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// ForecastEngineClient wraps the gRPC client for FORECAST-ENGINE
type ForecastEngineClient struct {
	client forecast.ForecastEngineServiceClient
	conn   *grpc.ClientConn
	policy callPolicy
	logger logger.Logger
}

// NewForecastEngineClient creates a new FORECAST-ENGINE gRPC client
func NewForecastEngineClient(endpoint string, timeout time.Duration, logger logger.Logger) (*ForecastEngineClient, error) {
	conn, err := grpc.Dial(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FORECAST-ENGINE: %w", err)
	}

	return &ForecastEngineClient{
		client: forecast.NewForecastEngineServiceClient(conn),
		conn:   conn,
		policy: defaultCallPolicy(timeout),
		logger: logger,
	}, nil
}

// GenerateForecast produces the forecast for one segment. The response
// is validated against the requested horizon and confidence level
// before it is trusted: wrong length, inverted bounds, or a changed
// confidence level are contract violations.
func (c *ForecastEngineClient) GenerateForecast(ctx context.Context, seg *models.Segment, cfg *models.ForecastConfig, profile *models.SegmentationProfile) (*models.ForecastOutput, error) {
	timestamps, values, quality := seriesToWire(seg.Series)
	request := &forecast.GenerateRequest{
		HistoricalData: &forecast.TimeSeriesData{
			Timestamps: timestamps,
			Values:     values,
			Quality:    quality,
			Frequency:  string(seg.Series.Frequency),
		},
		Model:              cfg.Model,
		Horizon:            int32(cfg.Horizon),
		ConfidenceInterval: cfg.ConfidenceInterval,
	}
	if profile != nil {
		request.Profile = &forecast.SeriesProfile{
			Trend:      profile.Trend,
			Seasonal:   profile.Seasonal,
			RuleNumber: int32(profile.RuleNumber),
		}
	}

	var response *forecast.GenerateResponse
	err := invokeWithRetry(ctx, models.StageForecast, c.policy, c.logger, func(ctx context.Context) error {
		var callErr error
		response, callErr = c.client.GenerateForecast(ctx, request)
		return callErr
	})
	if err != nil {
		c.logger.Error("FORECAST-ENGINE call failed", "segment", seg.Index, "model", cfg.Model, "error", err)
		return nil, err
	}

	if !response.Success {
		return nil, stageFailure(models.StageForecast, response.Message)
	}
	if len(response.Values) != len(response.Timestamps) ||
		len(response.Lower) != len(response.Timestamps) ||
		len(response.Upper) != len(response.Timestamps) {
		return nil, models.NewStageError(models.StageForecast, models.ErrorKindContractViolation,
			"forecast slices have mismatched lengths")
	}

	points := make([]models.ForecastPoint, len(response.Timestamps))
	for i, ts := range response.Timestamps {
		t, parseErr := time.Parse(time.RFC3339, ts)
		if parseErr != nil {
			return nil, models.NewStageError(models.StageForecast, models.ErrorKindContractViolation,
				"unparseable forecast timestamp %q at index %d", ts, i)
		}
		points[i] = models.ForecastPoint{
			Timestamp: t,
			Forecast:  response.Values[i],
			Lower:     response.Lower[i],
			Upper:     response.Upper[i],
		}
	}

	output := &models.ForecastOutput{
		SegmentIndex:    seg.Index,
		Points:          points,
		Frequency:       seg.Series.Frequency,
		AlgorithmUsed:   response.AlgorithmUsed,
		ConfidenceLevel: response.ConfidenceLevel,
		MAPE:            response.Mape,
		RMSE:            response.Rmse,
	}
	if err := output.Validate(cfg.Horizon, cfg.ConfidenceInterval); err != nil {
		return nil, models.NewStageError(models.StageForecast, models.ErrorKindContractViolation, "%v", err)
	}
	return output, nil
}

// HealthCheck checks the health of the FORECAST-ENGINE
func (c *ForecastEngineClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.GetHealth(ctx, &forecast.GetHealthRequest{})
	return err
}

// Close closes the gRPC connection
func (c *ForecastEngineClient) Close() error {
	return c.conn.Close()
}
