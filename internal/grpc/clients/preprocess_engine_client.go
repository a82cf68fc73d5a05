package clients

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/platformbuilds/prognos-core/internal/grpc/proto/preprocess"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// PreprocessEngineClient wraps the gRPC client for PREPROCESS-ENGINE
type PreprocessEngineClient struct {
	client preprocess.PreprocessEngineServiceClient
	conn   *grpc.ClientConn
	policy callPolicy
	logger logger.Logger
}

// NewPreprocessEngineClient creates a new PREPROCESS-ENGINE gRPC client
func NewPreprocessEngineClient(endpoint string, timeout time.Duration, logger logger.Logger) (*PreprocessEngineClient, error) {
	conn, err := grpc.Dial(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PREPROCESS-ENGINE: %w", err)
	}

	return &PreprocessEngineClient{
		client: preprocess.NewPreprocessEngineServiceClient(conn),
		conn:   conn,
		policy: defaultCallPolicy(timeout),
		logger: logger,
	}, nil
}

// PreprocessData cleans the raw series: outlier removal, missing-value
// fill, optional normalization. The returned series satisfies the stage
// contract or the call fails with a ContractViolation.
func (c *PreprocessEngineClient) PreprocessData(ctx context.Context, series *models.TimeSeries, cfg *models.PreprocessingConfig) (*models.TimeSeries, error) {
	timestamps, values, quality := seriesToWire(series)
	request := &preprocess.PreprocessRequest{
		RawData: &preprocess.TimeSeriesData{
			Timestamps: timestamps,
			Values:     values,
			Quality:    quality,
			Frequency:  string(series.Frequency),
		},
		Config: &preprocess.PreprocessConfig{
			RemoveOutliers: cfg.RemoveOutliers,
			FillMissing:    cfg.FillMissing,
			Normalize:      cfg.Normalize,
		},
	}

	var response *preprocess.PreprocessResponse
	err := invokeWithRetry(ctx, models.StagePreprocess, c.policy, c.logger, func(ctx context.Context) error {
		var callErr error
		response, callErr = c.client.PreprocessData(ctx, request)
		return callErr
	})
	if err != nil {
		c.logger.Error("PREPROCESS-ENGINE call failed", "points", series.Len(), "error", err)
		return nil, err
	}

	if !response.Success {
		return nil, stageFailure(models.StagePreprocess, response.Message)
	}
	if response.ProcessedData == nil {
		return nil, models.NewStageError(models.StagePreprocess, models.ErrorKindContractViolation,
			"success response carried no processed data")
	}

	return wireToSeries(models.StagePreprocess,
		response.ProcessedData.Timestamps,
		response.ProcessedData.Values,
		response.ProcessedData.Quality,
		response.ProcessedData.Frequency,
		series.Frequency,
	)
}

// HealthCheck checks the health of the PREPROCESS-ENGINE
func (c *PreprocessEngineClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.GetHealth(ctx, &preprocess.GetHealthRequest{})
	return err
}

// Close closes the gRPC connection
func (c *PreprocessEngineClient) Close() error {
	return c.conn.Close()
}
