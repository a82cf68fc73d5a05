// Package pipeline drives one forecast request end to end: a
// Preprocessing call, a Segmentation call splitting the prepared series
// into N segments, a bounded fan-out running Outlier Cleansing and
// Forecast Generation per segment, and an ordered merge of the
// surviving forecasts. Every accepted request produces exactly one
// well-formed PipelineResponse; expected failures are reported through
// its status and diagnostics, never as a transport error.
package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platformbuilds/prognos-core/internal/config"
	"github.com/platformbuilds/prognos-core/internal/grpc/clients"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/internal/monitoring"
	"github.com/platformbuilds/prognos-core/internal/tracing"
	"github.com/platformbuilds/prognos-core/pkg/cache"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// Orchestrator owns every intermediate entity of a run exclusively:
// nothing outlives the request, and no external component mutates a
// segment or stage result after creation. The pipeline tunables are
// the one piece of shared state: the config watcher swaps them at
// runtime, so each run snapshots them once under the lock.
type Orchestrator struct {
	clients *clients.StageClients
	cache   cache.ValkeyCluster
	tracer  *tracing.PipelineTracer
	logger  logger.Logger

	cfgMu sync.RWMutex
	cfg   config.PipelineConfig
}

// NewOrchestrator wires the orchestrator to its stage clients, the
// stage-result cache, and the pipeline limits from configuration.
func NewOrchestrator(stageClients *clients.StageClients, valkey cache.ValkeyCluster, cfg config.PipelineConfig, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		clients: stageClients,
		cache:   valkey,
		cfg:     cfg,
		tracer:  tracing.NewPipelineTracer("prognos-core"),
		logger:  log,
	}
}

// UpdateConfig replaces the pipeline tunables. In-flight runs keep the
// snapshot they started with; subsequent runs pick up the new values.
func (o *Orchestrator) UpdateConfig(cfg config.PipelineConfig) {
	o.cfgMu.Lock()
	o.cfg = cfg
	o.cfgMu.Unlock()
	o.logger.Info("pipeline tunables updated",
		"max_parallelism", cfg.MaxParallelism,
		"request_timeout_ms", cfg.RequestTimeout,
		"cache_ttl_s", cfg.CacheTTL)
}

func (o *Orchestrator) pipelineConfig() config.PipelineConfig {
	o.cfgMu.RLock()
	defer o.cfgMu.RUnlock()
	return o.cfg
}

// Run executes the full pipeline for one request. It always returns a
// well-formed response; callers inspect Status and Diagnostics rather
// than an error.
func (o *Orchestrator) Run(ctx context.Context, req *models.ForecastRequest) *models.PipelineResponse {
	tunables := o.pipelineConfig()
	plan := &runPlan{
		runID:       uuid.New().String(),
		parallelism: tunables.MaxParallelism,
		budget:      tunables.RequestTimeoutDuration(),
		cacheTTL:    tunables.CacheTTLDuration(),
		started:     time.Now(),
	}
	plan.cacheEnabled = plan.cacheTTL > 0 && o.cache != nil

	diags := &diagnostics{}
	log := o.logger.With("run_id", plan.runID)

	resolved := req.Config
	resolved.ApplyDefaults()
	plan.config = &resolved

	if err := validateRequest(req.Series, &resolved); err != nil {
		log.Warn("rejected forecast request", "error", err)
		return o.finish(plan, diags, &models.PipelineResponse{
			Status:      models.StatusFailed,
			FailureKind: models.FailureInvalidInput,
			Diagnostics: []models.Diagnostic{{
				Stage:   models.StagePreprocess,
				Status:  models.DiagSkipped,
				Message: err.Error(),
			}},
		})
	}

	if plan.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, plan.budget)
		defer cancel()
	}

	ctx, runSpan := o.tracer.StartRunSpan(ctx, plan.runID, req.Series.Len())
	defer runSpan.End()

	log.Info("pipeline run started",
		"series_points", req.Series.Len(),
		"frequency", req.Series.Frequency,
		"horizon", resolved.Forecast.Horizon)

	prepared, err := o.preprocess(ctx, plan, req.Series, diags, log)
	if err != nil {
		log.Error("preprocessing failed, aborting run", "error", err)
		resp := o.finish(plan, diags, &models.PipelineResponse{
			Status:      models.StatusFailed,
			FailureKind: models.FailurePreprocessing,
		})
		o.tracer.RecordRunMetrics(runSpan, string(resp.Status), 0, time.Since(plan.started))
		return resp
	}

	segments, profile := o.segment(ctx, plan, prepared, diags, log)

	results := o.runSegments(ctx, plan, segments, profile, diags, log)

	merged, gaps := merge(results, prepared.Frequency)
	status, failureKind := runStatus(merged, gaps)

	resp := o.finish(plan, diags, &models.PipelineResponse{
		Status:         status,
		FailureKind:    failureKind,
		MergedForecast: merged,
		Gaps:           gaps,
		Profile:        profile,
		SegmentCount:   len(segments),
	})
	o.tracer.RecordRunMetrics(runSpan, string(status), len(segments), time.Since(plan.started))
	log.Info("pipeline run finished",
		"status", status,
		"segments", len(segments),
		"gaps", len(gaps),
		"duration_ms", resp.ProcessingMs)
	return resp
}

// preprocess runs the whole-series Preprocessing stage, consulting the
// stage-result cache first. A failure here is orchestrator-fatal.
func (o *Orchestrator) preprocess(ctx context.Context, plan *runPlan, series *models.TimeSeries, diags *diagnostics, log logger.Logger) (*models.TimeSeries, error) {
	ctx, span := o.tracer.StartStageSpan(ctx, string(models.StagePreprocess))
	defer span.End()

	start := time.Now()
	fp := stageFingerprint(models.StagePreprocess, series, plan.config.Preprocessing)
	if plan.cacheEnabled && fp != "" {
		if raw, err := o.cache.GetCachedStageResult(ctx, models.StagePreprocess, fp); err == nil {
			var cached models.TimeSeries
			if json.Unmarshal(raw, &cached) == nil && cached.Validate() == nil && cached.Frequency == series.Frequency {
				diags.add(models.StagePreprocess, nil, models.DiagCacheHit, "", time.Since(start))
				o.tracer.RecordCacheMetrics(span, true, time.Since(start))
				return &cached, nil
			}
		}
	}

	out, err := o.clients.Preprocess.PreprocessData(ctx, series, plan.config.Preprocessing)
	elapsed := time.Since(start)
	o.tracer.RecordStageMetrics(span, string(models.StagePreprocess), elapsed, err == nil)
	if err != nil {
		diags.add(models.StagePreprocess, nil, models.DiagFailed, toStageError(models.StagePreprocess, err).Message, elapsed)
		return nil, err
	}
	diags.add(models.StagePreprocess, nil, models.DiagSuccess, "", elapsed)
	if plan.cacheEnabled && fp != "" {
		_ = o.cache.CacheStageResult(ctx, models.StagePreprocess, fp, out, plan.cacheTTL)
	}
	return out, nil
}

// segment runs the Segmentation stage. Method "none" skips the remote
// call; any stage failure degrades the run to a single implicit
// whole-series segment rather than aborting, recorded in diagnostics.
func (o *Orchestrator) segment(ctx context.Context, plan *runPlan, series *models.TimeSeries, diags *diagnostics, log logger.Logger) ([]*models.Segment, *models.SegmentationProfile) {
	if plan.config.Segmentation.Method == models.SegmentationNone {
		diags.add(models.StageSegment, nil, models.DiagSkipped, "segmentation disabled by config", 0)
		return []*models.Segment{models.WholeSeriesSegment(series)}, nil
	}

	ctx, span := o.tracer.StartStageSpan(ctx, string(models.StageSegment))
	defer span.End()

	start := time.Now()
	fp := stageFingerprint(models.StageSegment, series, plan.config.Segmentation)
	if plan.cacheEnabled && fp != "" {
		if raw, err := o.cache.GetCachedStageResult(ctx, models.StageSegment, fp); err == nil {
			var cached models.SegmentationOutcome
			if json.Unmarshal(raw, &cached) == nil && models.ValidateSegments(series, cached.Segments) == nil {
				diags.add(models.StageSegment, nil, models.DiagCacheHit, "", time.Since(start))
				o.tracer.RecordCacheMetrics(span, true, time.Since(start))
				return cached.Segments, cached.Profile
			}
		}
	}

	outcome, err := o.clients.Segment.SegmentData(ctx, series, plan.config.Segmentation)
	elapsed := time.Since(start)
	o.tracer.RecordStageMetrics(span, string(models.StageSegment), elapsed, err == nil)
	if err != nil {
		stageErr := toStageError(models.StageSegment, err)
		diags.add(models.StageSegment, nil, models.DiagDegraded,
			"falling back to whole-series forecast: "+stageErr.Message, elapsed)
		log.Warn("segmentation degraded to whole-series forecast", "error", err)
		return []*models.Segment{models.WholeSeriesSegment(series)}, nil
	}

	diags.add(models.StageSegment, nil, models.DiagSuccess, "", elapsed)
	if plan.cacheEnabled && fp != "" {
		_ = o.cache.CacheStageResult(ctx, models.StageSegment, fp, outcome, plan.cacheTTL)
	}
	return outcome.Segments, outcome.Profile
}

// finish stamps run identity, timing, and sorted diagnostics onto the
// response and records the run metric.
func (o *Orchestrator) finish(plan *runPlan, diags *diagnostics, resp *models.PipelineResponse) *models.PipelineResponse {
	resp.RunID = plan.runID
	if resp.MergedForecast == nil {
		resp.MergedForecast = []models.ForecastPoint{}
	}
	if entries := diags.list(); len(entries) > 0 {
		resp.Diagnostics = append(entries, resp.Diagnostics...)
	} else if resp.Diagnostics == nil {
		resp.Diagnostics = []models.Diagnostic{}
	}
	elapsed := time.Since(plan.started)
	resp.ProcessingMs = elapsed.Milliseconds()
	monitoring.RecordPipelineRun(string(resp.Status), resp.SegmentCount, elapsed)
	return resp
}

// validateRequest rejects input no stage could process. Structural
// series problems and out-of-range config are InvalidInput, reported on
// the response rather than raised.
func validateRequest(series *models.TimeSeries, cfg *models.PipelineConfig) error {
	if series == nil || series.Len() == 0 {
		return models.NewStageError(models.StagePreprocess, models.ErrorKindInvalidInput, "series is empty")
	}
	if err := series.Validate(); err != nil {
		return models.NewStageError(models.StagePreprocess, models.ErrorKindInvalidInput, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return models.NewStageError(models.StagePreprocess, models.ErrorKindInvalidInput, "%v", err)
	}
	return nil
}
