package models

import (
	"fmt"
	"time"
)

// StageName identifies one of the four remote pipeline engines.
type StageName string

const (
	StagePreprocess StageName = "preprocess"
	StageSegment    StageName = "segment"
	StageOutlier    StageName = "outlier"
	StageForecast   StageName = "forecast"
)

// Fill-missing strategies recognized by PREPROCESS-ENGINE.
const (
	FillMissingNone        = "none"
	FillMissingInterpolate = "interpolate"
	FillMissingForwardFill = "forward-fill"
)

// Segmentation methods recognized by SEGMENT-ENGINE.
const (
	SegmentationNone       = "none"
	SegmentationSeasonal   = "seasonal"
	SegmentationFixedCount = "fixed-count"
)

// Outlier correction types recognized by OUTLIER-ENGINE.
const (
	CorrectionLimit         = "limit"
	CorrectionInterpolation = "interpolation"
)

// PreprocessingConfig tunes PREPROCESS-ENGINE for one request.
type PreprocessingConfig struct {
	RemoveOutliers bool   `json:"remove_outliers"`
	FillMissing    string `json:"fill_missing"`
	Normalize      bool   `json:"normalize"`
}

// SegmentationConfig tunes SEGMENT-ENGINE for one request.
type SegmentationConfig struct {
	Method        string `json:"method"`
	Segments      int    `json:"segments"`
	HistoryMonths int    `json:"history_months"`
}

// OutlierConfig tunes OUTLIER-ENGINE for one request. Mandatory marks
// cleansing as required: when set, an outlier failure fails its segment
// instead of degrading to the unfiltered data.
type OutlierConfig struct {
	SigmaMultiplier float64 `json:"sigma_multiplier"`
	RollingWindow   int     `json:"rolling_window"`
	IQRMultiplier   float64 `json:"iqr_multiplier"`
	CorrectionType  string  `json:"correction_type"`
	Mandatory       bool    `json:"mandatory"`
}

// ForecastConfig tunes FORECAST-ENGINE for one request.
type ForecastConfig struct {
	Model              string  `json:"model"`
	Horizon            int     `json:"horizon"`
	ConfidenceInterval float64 `json:"confidence_interval"`
}

// PipelineConfig is the per-request nested configuration. Sub-configs
// are optional: a nil sub-config means "use stage defaults", never
// "skip the stage". Unknown JSON keys are ignored at ingress for
// forward compatibility.
type PipelineConfig struct {
	Preprocessing *PreprocessingConfig `json:"preprocessing,omitempty"`
	Segmentation  *SegmentationConfig  `json:"segmentation,omitempty"`
	Outlier       *OutlierConfig       `json:"outlier,omitempty"`
	Forecast      *ForecastConfig      `json:"forecast,omitempty"`
}

// Stage defaults, matching the engines' documented behavior.
const (
	DefaultHorizon            = 12
	DefaultHistoryMonths      = 12
	DefaultConfidenceInterval = 0.95
	DefaultSigmaMultiplier    = 3.0
	DefaultRollingWindow      = 6
	DefaultIQRMultiplier      = 2.0
)

// ApplyDefaults fills absent sub-configs and zero-valued fields with
// the documented stage defaults. Called once at ingress so downstream
// code never re-checks for nil.
func (c *PipelineConfig) ApplyDefaults() {
	if c.Preprocessing == nil {
		c.Preprocessing = &PreprocessingConfig{FillMissing: FillMissingInterpolate}
	}
	if c.Preprocessing.FillMissing == "" {
		c.Preprocessing.FillMissing = FillMissingInterpolate
	}
	if c.Segmentation == nil {
		c.Segmentation = &SegmentationConfig{Method: SegmentationSeasonal}
	}
	if c.Segmentation.Method == "" {
		c.Segmentation.Method = SegmentationSeasonal
	}
	if c.Segmentation.HistoryMonths <= 0 {
		c.Segmentation.HistoryMonths = DefaultHistoryMonths
	}
	if c.Segmentation.Segments <= 0 {
		c.Segmentation.Segments = 1
	}
	if c.Outlier == nil {
		c.Outlier = &OutlierConfig{}
	}
	if c.Outlier.SigmaMultiplier <= 0 {
		c.Outlier.SigmaMultiplier = DefaultSigmaMultiplier
	}
	if c.Outlier.RollingWindow <= 0 {
		c.Outlier.RollingWindow = DefaultRollingWindow
	}
	if c.Outlier.IQRMultiplier <= 0 {
		c.Outlier.IQRMultiplier = DefaultIQRMultiplier
	}
	if c.Outlier.CorrectionType == "" {
		c.Outlier.CorrectionType = CorrectionLimit
	}
	if c.Forecast == nil {
		c.Forecast = &ForecastConfig{}
	}
	if c.Forecast.Model == "" {
		c.Forecast.Model = "auto"
	}
	if c.Forecast.Horizon <= 0 {
		c.Forecast.Horizon = DefaultHorizon
	}
	if c.Forecast.ConfidenceInterval <= 0 {
		c.Forecast.ConfidenceInterval = DefaultConfidenceInterval
	}
}

// Validate rejects configurations no stage could honor. Expected to run
// after ApplyDefaults.
func (c *PipelineConfig) Validate() error {
	switch c.Preprocessing.FillMissing {
	case FillMissingNone, FillMissingInterpolate, FillMissingForwardFill:
	default:
		return fmt.Errorf("unknown fill_missing strategy %q", c.Preprocessing.FillMissing)
	}
	switch c.Segmentation.Method {
	case SegmentationNone, SegmentationSeasonal, SegmentationFixedCount:
	default:
		return fmt.Errorf("unknown segmentation method %q", c.Segmentation.Method)
	}
	if c.Segmentation.Segments < 1 {
		return fmt.Errorf("segmentation.segments must be >= 1, got %d", c.Segmentation.Segments)
	}
	switch c.Outlier.CorrectionType {
	case CorrectionLimit, CorrectionInterpolation:
	default:
		return fmt.Errorf("unknown outlier correction_type %q", c.Outlier.CorrectionType)
	}
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("forecast.horizon must be >= 1, got %d", c.Forecast.Horizon)
	}
	if ci := c.Forecast.ConfidenceInterval; ci <= 0 || ci >= 1 {
		return fmt.Errorf("forecast.confidence_interval must be in (0,1), got %g", ci)
	}
	return nil
}

// ForecastPoint is one forecast step with its confidence bounds.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Forecast  float64   `json:"forecast"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// ForecastOutput is FORECAST-ENGINE's answer for one segment (or the
// whole series). Points has exactly the requested horizon length and
// lower <= forecast <= upper holds for every point.
type ForecastOutput struct {
	SegmentIndex    int             `json:"segment_index"`
	Points          []ForecastPoint `json:"points"`
	Frequency       Frequency       `json:"frequency"`
	AlgorithmUsed   string          `json:"algorithm_used"`
	ConfidenceLevel float64         `json:"confidence_level"`
	MAPE            float64         `json:"mape"`
	RMSE            float64         `json:"rmse"`
}

// Validate enforces the forecast-output side of the stage contract.
func (o *ForecastOutput) Validate(horizon int, confidence float64) error {
	if len(o.Points) != horizon {
		return fmt.Errorf("forecast returned %d points, requested horizon %d", len(o.Points), horizon)
	}
	if o.ConfidenceLevel != confidence {
		return fmt.Errorf("forecast computed at confidence %g, requested %g", o.ConfidenceLevel, confidence)
	}
	for i, p := range o.Points {
		if i > 0 && !p.Timestamp.After(o.Points[i-1].Timestamp) {
			return fmt.Errorf("forecast timestamps not strictly increasing at index %d", i)
		}
		if p.Lower > p.Forecast || p.Forecast > p.Upper {
			return fmt.Errorf("forecast bounds inverted at index %d: lower=%g point=%g upper=%g",
				i, p.Lower, p.Forecast, p.Upper)
		}
	}
	return nil
}

// SegmentationProfile echoes SEGMENT-ENGINE's series classification.
// The core never computes these; they ride along for diagnostics and
// downstream method selection inside the engines.
type SegmentationProfile struct {
	VolumeClass          string  `json:"volume_class"`
	CoVClass             string  `json:"cov_class"`
	Intermittent         bool    `json:"intermittent"`
	Density              float64 `json:"density"`
	PLCStatus            string  `json:"plc_status"`
	Trend                string  `json:"trend"`
	Seasonal             bool    `json:"seasonal"`
	RuleNumber           int     `json:"rule_number"`
	VolumePercentage     float64 `json:"volume_percentage"`
	CoefficientVariation float64 `json:"coefficient_variation"`
}

// OutlierSummary echoes OUTLIER-ENGINE's per-segment cleansing report.
type OutlierSummary struct {
	MethodUsed     string `json:"method_used"`
	CorrectionType string `json:"correction_type"`
	OutliersFound  int    `json:"outliers_found"`
}

// SegmentationOutcome is SEGMENT-ENGINE's answer: the segments sliced
// from the input series plus the series classification profile.
type SegmentationOutcome struct {
	Segments []*Segment           `json:"segments"`
	Profile  *SegmentationProfile `json:"profile,omitempty"`
}

// CleanseOutcome is OUTLIER-ENGINE's answer for one segment.
type CleanseOutcome struct {
	Series  *TimeSeries    `json:"series"`
	Summary OutlierSummary `json:"summary"`
}

// DiagStatus is the outcome recorded for one stage invocation.
type DiagStatus string

const (
	DiagSuccess  DiagStatus = "success"
	DiagFailed   DiagStatus = "failed"
	DiagDegraded DiagStatus = "degraded"
	DiagSkipped  DiagStatus = "skipped"
	DiagCacheHit DiagStatus = "cache_hit"
)

// Diagnostic is one entry per stage invocation, emitted regardless of
// outcome. SegmentIndex is nil for whole-series stages.
type Diagnostic struct {
	Stage        StageName  `json:"stage"`
	SegmentIndex *int       `json:"segment_index"`
	Status       DiagStatus `json:"status"`
	Message      string     `json:"message,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
}

// PipelineStatus is the overall outcome of one orchestration run.
type PipelineStatus string

const (
	StatusComplete       PipelineStatus = "complete"
	StatusPartialSuccess PipelineStatus = "partial_success"
	StatusFailed         PipelineStatus = "failed"
)

// FailureKind names the reason a run failed outright.
type FailureKind string

const (
	FailurePreprocessing FailureKind = "PreprocessingFailed"
	FailureForecasting   FailureKind = "ForecastingFailed"
	FailureInvalidInput  FailureKind = "InvalidInput"
)

// GapMarker records a failed segment's slot in the merged timeline. No
// values are fabricated for the gap; callers see exactly which span is
// missing and why.
type GapMarker struct {
	SegmentIndex int       `json:"segment_index"`
	Kind         ErrorKind `json:"kind"`
	Message      string    `json:"message,omitempty"`
}

// PipelineResponse is the single well-formed answer every accepted
// request receives, whatever happened inside the pipeline.
type PipelineResponse struct {
	RunID          string               `json:"run_id"`
	Status         PipelineStatus       `json:"status"`
	FailureKind    FailureKind          `json:"failure_kind,omitempty"`
	MergedForecast []ForecastPoint      `json:"merged_forecast"`
	Gaps           []GapMarker          `json:"gaps,omitempty"`
	Profile        *SegmentationProfile `json:"segmentation_profile,omitempty"`
	SegmentCount   int                  `json:"segment_count"`
	Diagnostics    []Diagnostic         `json:"diagnostics"`
	ProcessingMs   int64                `json:"processing_time_ms"`
}

// ForecastRequest is the inbound payload on POST /api/v1/forecast.
type ForecastRequest struct {
	Series *TimeSeries    `json:"series" binding:"required"`
	Config PipelineConfig `json:"config"`
}
