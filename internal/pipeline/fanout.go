package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// runSegments fans the per-segment stage pair (outlier cleansing, then
// forecast generation) out over a bounded worker pool. Segments run
// concurrently; within one segment the two stages are strictly
// sequential. Results come back keyed by segment index, never by
// completion order.
func (o *Orchestrator) runSegments(ctx context.Context, plan *runPlan, segments []*models.Segment, profile *models.SegmentationProfile, diags *diagnostics, log logger.Logger) []segmentResult {
	results := make([]segmentResult, len(segments))

	parallelism := plan.parallelism
	if parallelism < 1 || parallelism > len(segments) {
		parallelism = len(segments)
	}
	sem := make(chan struct{}, parallelism)

	var wg sync.WaitGroup
	for i, seg := range segments {
		results[i] = segmentResult{segment: seg}
		wg.Add(1)
		go func(slot int, seg *models.Segment) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Budget gone before this segment was admitted; completed
				// siblings keep their results.
				idx := seg.Index
				err := models.NewStageError(models.StageForecast, models.ErrorKindDeadlineExceeded,
					"request budget exhausted before segment %d started", idx)
				diags.add(models.StageForecast, &idx, models.DiagFailed, err.Message, 0)
				results[slot].err = err
				return
			}
			results[slot] = o.runSegment(ctx, plan, seg, profile, diags, log)
		}(i, seg)
	}
	wg.Wait()

	return results
}

// runSegment drives one segment through outlier cleansing and forecast
// generation. Cleansing is advisory by default: a failure degrades to
// forecasting the unfiltered segment unless the configuration marks
// cleansing mandatory, in which case the segment fails without a
// forecast call.
func (o *Orchestrator) runSegment(ctx context.Context, plan *runPlan, seg *models.Segment, profile *models.SegmentationProfile, diags *diagnostics, log logger.Logger) segmentResult {
	res := segmentResult{segment: seg}
	idx := seg.Index

	ctx, span := o.tracer.StartSegmentSpan(ctx, idx, seg.Series.Len())
	defer span.End()

	working := seg
	start := time.Now()
	outcome, err := o.clients.Outlier.CleanseOutliers(ctx, seg, plan.config.Outlier, profile)
	switch {
	case err == nil:
		diags.add(models.StageOutlier, &idx, models.DiagSuccess,
			cleanseMessage(outcome.Summary), time.Since(start))
		working = &models.Segment{
			Index:       seg.Index,
			Label:       seg.Label,
			StartOffset: seg.StartOffset,
			EndOffset:   seg.EndOffset,
			Series:      outcome.Series,
		}
	case plan.config.Outlier.Mandatory || isDeadline(err):
		stageErr := toStageError(models.StageOutlier, err)
		diags.add(models.StageOutlier, &idx, models.DiagFailed, stageErr.Message, time.Since(start))
		o.tracer.RecordError(span, stageErr)
		res.err = stageErr
		return res
	default:
		diags.add(models.StageOutlier, &idx, models.DiagDegraded,
			"forecasting unfiltered data: "+err.Error(), time.Since(start))
		log.Warn("outlier cleansing degraded", "segment", idx, "error", err)
	}

	forecastCfg := plan.config.Forecast
	start = time.Now()
	fp := stageFingerprint(models.StageForecast, working.Series, forecastCfg, profile)
	if plan.cacheEnabled && fp != "" {
		if raw, cacheErr := o.cache.GetCachedStageResult(ctx, models.StageForecast, fp); cacheErr == nil {
			var cached models.ForecastOutput
			if json.Unmarshal(raw, &cached) == nil &&
				cached.Validate(forecastCfg.Horizon, forecastCfg.ConfidenceInterval) == nil {
				cached.SegmentIndex = idx
				diags.add(models.StageForecast, &idx, models.DiagCacheHit, "", time.Since(start))
				res.forecast = &cached
				return res
			}
		}
	}

	out, err := o.clients.Forecast.GenerateForecast(ctx, working, forecastCfg, profile)
	if err != nil {
		stageErr := toStageError(models.StageForecast, err)
		diags.add(models.StageForecast, &idx, models.DiagFailed, stageErr.Message, time.Since(start))
		o.tracer.RecordError(span, stageErr)
		res.err = stageErr
		return res
	}
	out.SegmentIndex = idx
	diags.add(models.StageForecast, &idx, models.DiagSuccess, out.AlgorithmUsed, time.Since(start))
	if plan.cacheEnabled && fp != "" {
		_ = o.cache.CacheStageResult(ctx, models.StageForecast, fp, out, plan.cacheTTL)
	}
	res.forecast = out
	return res
}

func cleanseMessage(s models.OutlierSummary) string {
	if s.OutliersFound == 0 {
		return "no outliers detected"
	}
	return s.MethodUsed
}

// toStageError normalizes any stage-call failure into the pipeline's
// error taxonomy; non-taxonomy errors become Internal.
func toStageError(stage models.StageName, err error) *models.StageError {
	if se, ok := models.AsStageError(err); ok {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewStageError(stage, models.ErrorKindDeadlineExceeded, "request budget exhausted: %v", err)
	}
	return models.NewStageError(stage, models.ErrorKindInternal, "%v", err)
}

func isDeadline(err error) bool {
	if se, ok := models.AsStageError(err); ok {
		return se.Kind == models.ErrorKindDeadlineExceeded
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
