package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

func testPolicy() callPolicy {
	return callPolicy{timeout: 50 * time.Millisecond, maxRetries: 2, backoffBase: time.Millisecond}
}

func TestInvokeWithRetry_TransientFailuresAreRetried(t *testing.T) {
	attempts := 0
	err := invokeWithRetry(context.Background(), models.StageForecast, testPolicy(), logger.New("fatal"), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return status.Error(codes.Unavailable, "engine restarting")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestInvokeWithRetry_ExhaustedRetriesBecomeUnavailable(t *testing.T) {
	attempts := 0
	err := invokeWithRetry(context.Background(), models.StageSegment, testPolicy(), logger.New("fatal"), func(ctx context.Context) error {
		attempts++
		return status.Error(codes.Unavailable, "engine down")
	})

	require.Error(t, err)
	se, ok := models.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindUnavailable, se.Kind)
	assert.Equal(t, models.StageSegment, se.Stage)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
}

func TestInvokeWithRetry_NonRetryableFailsFirstAttempt(t *testing.T) {
	attempts := 0
	err := invokeWithRetry(context.Background(), models.StagePreprocess, testPolicy(), logger.New("fatal"), func(ctx context.Context) error {
		attempts++
		return status.Error(codes.InvalidArgument, "series too short")
	})

	require.Error(t, err)
	se, ok := models.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindInvalidInput, se.Kind)
	assert.Equal(t, 1, attempts, "invalid input would fail identically every time")
}

func TestInvokeWithRetry_ParentDeadlineEndsCall(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := invokeWithRetry(ctx, models.StageOutlier, testPolicy(), logger.New("fatal"), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.Error(t, err)
	se, ok := models.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindDeadlineExceeded, se.Kind)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), models.ErrorKindTransient},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "busy"), models.ErrorKindTransient},
		{"per-call deadline", status.Error(codes.DeadlineExceeded, "slow"), models.ErrorKindTransient},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad series"), models.ErrorKindInvalidInput},
		{"failed precondition", status.Error(codes.FailedPrecondition, "no model"), models.ErrorKindInvalidInput},
		{"unimplemented", status.Error(codes.Unimplemented, "old engine"), models.ErrorKindContractViolation},
		{"unknown grpc code", status.Error(codes.DataLoss, "corrupt"), models.ErrorKindInternal},
		{"context deadline", context.DeadlineExceeded, models.ErrorKindTransient},
		{"plain error", errors.New("boom"), models.ErrorKindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := translateError(models.StageForecast, tt.err)
			assert.Equal(t, tt.want, se.Kind)
		})
	}
}

func TestTranslateError_PreservesStageErrors(t *testing.T) {
	orig := models.NewStageError(models.StageOutlier, models.ErrorKindContractViolation, "corrected series changed length")
	se := translateError(models.StageForecast, orig)
	assert.Same(t, orig, se)
}

func TestWireToSeries_RoundTrip(t *testing.T) {
	series := &models.TimeSeries{
		Frequency: models.FrequencyDaily,
		Points: []models.DataPoint{
			{Timestamp: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Value: 1.5, Quality: models.QualityObserved},
			{Timestamp: time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), Value: 2.5, Quality: models.QualityCorrected},
		},
	}

	timestamps, values, quality := seriesToWire(series)
	rebuilt, err := wireToSeries(models.StagePreprocess, timestamps, values, quality, "daily", models.FrequencyDaily)

	require.NoError(t, err)
	require.Equal(t, 2, rebuilt.Len())
	assert.True(t, rebuilt.Points[0].Timestamp.Equal(series.Points[0].Timestamp))
	assert.Equal(t, series.Points[1].Value, rebuilt.Points[1].Value)
	assert.Equal(t, models.QualityCorrected, rebuilt.Points[1].Quality)
}

func TestWireToSeries_ContractViolations(t *testing.T) {
	ts := []string{"2024-07-01T00:00:00Z", "2024-07-02T00:00:00Z"}

	tests := []struct {
		name       string
		timestamps []string
		values     []float64
		frequency  string
	}{
		{"length mismatch", ts, []float64{1}, "daily"},
		{"frequency drift", ts, []float64{1, 2}, "weekly"},
		{"unparseable timestamp", []string{"yesterday", "today"}, []float64{1, 2}, "daily"},
		{"non increasing", []string{"2024-07-02T00:00:00Z", "2024-07-01T00:00:00Z"}, []float64{1, 2}, "daily"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wireToSeries(models.StageOutlier, tt.timestamps, tt.values, nil, tt.frequency, models.FrequencyDaily)
			require.Error(t, err)
			se, ok := models.AsStageError(err)
			require.True(t, ok)
			assert.Equal(t, models.ErrorKindContractViolation, se.Kind)
		})
	}
}
