package clients

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/internal/monitoring"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// callPolicy bounds one remote stage invocation: per-attempt timeout and
// bounded retries with exponential backoff for transient failures only.
type callPolicy struct {
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
}

func defaultCallPolicy(timeout time.Duration) callPolicy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return callPolicy{
		timeout:     timeout,
		maxRetries:  2,
		backoffBase: 100 * time.Millisecond,
	}
}

// invokeWithRetry runs fn under the policy's per-attempt timeout,
// retrying transient failures with exponential backoff. Non-transient
// failures (invalid input, contract breaches) return on the first
// attempt: they would fail identically every time.
func invokeWithRetry(ctx context.Context, stage models.StageName, policy callPolicy, log logger.Logger, fn func(ctx context.Context) error) error {
	var lastErr *models.StageError

	for attempt := 0; attempt <= policy.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := policy.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return deadlineError(stage, ctx.Err())
			case <-time.After(backoff):
			}
			monitoring.RecordStageRetry(string(stage))
			log.Warn("retrying stage call", "stage", stage, "attempt", attempt, "backoff", backoff, "last_error", lastErr.Message)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, policy.timeout)
		start := time.Now()
		err := fn(attemptCtx)
		cancel()
		monitoring.RecordStageCall(string(stage), time.Since(start), err == nil)

		if err == nil {
			return nil
		}

		// The request-level budget expiring ends the call outright; only
		// a per-attempt timeout counts as transient.
		if ctx.Err() != nil {
			return deadlineError(stage, ctx.Err())
		}

		lastErr = translateError(stage, err)
		if !lastErr.Retryable() {
			return lastErr
		}
	}

	// Retries exhausted on a transient failure: the stage is unreachable.
	return models.NewStageError(stage, models.ErrorKindUnavailable,
		"stage unreachable after %d retries: %s", policy.maxRetries, lastErr.Message)
}

// translateError maps transport and stage errors onto the pipeline's
// error taxonomy.
func translateError(stage models.StageName, err error) *models.StageError {
	if se, ok := models.AsStageError(err); ok {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewStageError(stage, models.ErrorKindTransient, "call timed out")
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return models.NewStageError(stage, models.ErrorKindTransient, "%s", s.Message())
		case codes.DeadlineExceeded:
			return models.NewStageError(stage, models.ErrorKindTransient, "call timed out: %s", s.Message())
		case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
			return models.NewStageError(stage, models.ErrorKindInvalidInput, "%s", s.Message())
		case codes.Unimplemented:
			return models.NewStageError(stage, models.ErrorKindContractViolation, "method not implemented: %s", s.Message())
		default:
			return models.NewStageError(stage, models.ErrorKindInternal, "%s", s.Message())
		}
	}
	return models.NewStageError(stage, models.ErrorKindInternal, "%v", err)
}

func deadlineError(stage models.StageName, cause error) *models.StageError {
	return models.NewStageError(stage, models.ErrorKindDeadlineExceeded, "request budget exhausted: %v", cause)
}

// seriesToWire flattens a series into the parallel slices the engine
// protocols use.
func seriesToWire(s *models.TimeSeries) (timestamps []string, values []float64, quality []string) {
	timestamps = make([]string, len(s.Points))
	values = make([]float64, len(s.Points))
	quality = make([]string, len(s.Points))
	for i, p := range s.Points {
		timestamps[i] = p.Timestamp.UTC().Format(time.RFC3339)
		values[i] = p.Value
		quality[i] = string(p.Quality)
	}
	return timestamps, values, quality
}

// wireToSeries rebuilds a series from wire slices and validates the
// stage contract on the result: parseable timestamps, matching lengths,
// strictly increasing order, echoed frequency.
func wireToSeries(stage models.StageName, timestamps []string, values []float64, quality []string, frequency string, wantFrequency models.Frequency) (*models.TimeSeries, error) {
	if len(timestamps) != len(values) {
		return nil, models.NewStageError(stage, models.ErrorKindContractViolation,
			"response has %d timestamps but %d values", len(timestamps), len(values))
	}
	if models.Frequency(frequency) != wantFrequency {
		return nil, models.NewStageError(stage, models.ErrorKindContractViolation,
			"response changed frequency from %q to %q", wantFrequency, frequency)
	}
	points := make([]models.DataPoint, len(timestamps))
	for i, ts := range timestamps {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, models.NewStageError(stage, models.ErrorKindContractViolation,
				"unparseable timestamp %q at index %d", ts, i)
		}
		points[i] = models.DataPoint{Timestamp: t, Value: values[i]}
		if len(quality) == len(timestamps) && quality[i] != "" {
			points[i].Quality = models.QualityFlag(quality[i])
		}
	}
	series := &models.TimeSeries{Points: points, Frequency: wantFrequency}
	if err := series.Validate(); err != nil {
		return nil, models.NewStageError(stage, models.ErrorKindContractViolation, "invalid response series: %v", err)
	}
	return series, nil
}

// stageFailure converts a stage-reported failure flag into the error
// taxonomy. Engines report their own processing failures through the
// success/message pair rather than transport errors.
func stageFailure(stage models.StageName, message string) *models.StageError {
	if message == "" {
		message = "stage reported failure without detail"
	}
	return models.NewStageError(stage, models.ErrorKindInternal, "%s", message)
}
