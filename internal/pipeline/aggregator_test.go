package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/prognos-core/internal/models"
)

func forecastAt(segIndex int, start time.Time, freq models.Frequency, n int) segmentResult {
	points := make([]models.ForecastPoint, n)
	ts := start
	for i := range points {
		points[i] = models.ForecastPoint{Timestamp: ts, Forecast: 10, Lower: 9, Upper: 11}
		ts = freq.Step(ts)
	}
	return segmentResult{
		segment:  &models.Segment{Index: segIndex},
		forecast: &models.ForecastOutput{SegmentIndex: segIndex, Points: points, Frequency: freq},
	}
}

func failedSegment(segIndex int, kind models.ErrorKind) segmentResult {
	return segmentResult{
		segment: &models.Segment{Index: segIndex},
		err:     models.NewStageError(models.StageForecast, kind, "segment %d failed", segIndex),
	}
}

func TestMerge_ConcatenatesInSegmentOrder(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	freq := models.FrequencyDaily
	results := []segmentResult{
		forecastAt(0, base, freq, 3),
		forecastAt(1, base.AddDate(0, 0, 3), freq, 3),
		forecastAt(2, base.AddDate(0, 0, 6), freq, 3),
	}

	merged, gaps := merge(results, freq)

	assert.Empty(t, gaps)
	require.Len(t, merged, 9)
	for i := 1; i < len(merged); i++ {
		assert.Equal(t, freq.Step(merged[i-1].Timestamp), merged[i].Timestamp)
	}
}

func TestMerge_FailedSegmentBecomesGap(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	freq := models.FrequencyDaily
	results := []segmentResult{
		forecastAt(0, base, freq, 2),
		failedSegment(1, models.ErrorKindUnavailable),
		forecastAt(2, base.AddDate(0, 0, 4), freq, 2),
	}

	merged, gaps := merge(results, freq)

	require.Len(t, gaps, 1)
	assert.Equal(t, 1, gaps[0].SegmentIndex)
	assert.Equal(t, models.ErrorKindUnavailable, gaps[0].Kind)
	// The segment after a recorded gap only needs to move forward, not
	// stay step-contiguous with the timeline.
	require.Len(t, merged, 4)
	assert.True(t, merged[2].Timestamp.After(merged[1].Timestamp))
}

func TestMerge_NonContiguousSegmentDemotedToGap(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	freq := models.FrequencyDaily
	results := []segmentResult{
		forecastAt(0, base, freq, 2),
		// Starts two steps after the previous segment's last point.
		forecastAt(1, base.AddDate(0, 0, 3), freq, 2),
	}

	merged, gaps := merge(results, freq)

	require.Len(t, gaps, 1)
	assert.Equal(t, 1, gaps[0].SegmentIndex)
	assert.Equal(t, models.ErrorKindContractViolation, gaps[0].Kind)
	assert.Contains(t, gaps[0].Message, "contiguity")
	assert.Len(t, merged, 2, "offending points never reach the timeline")
}

func TestMerge_RewindingSegmentDemotedToGap(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	freq := models.FrequencyDaily
	results := []segmentResult{
		forecastAt(0, base, freq, 3),
		forecastAt(1, base, freq, 3), // overlaps segment 0 entirely
	}

	merged, gaps := merge(results, freq)

	require.Len(t, gaps, 1)
	assert.Equal(t, models.ErrorKindContractViolation, gaps[0].Kind)
	assert.Contains(t, gaps[0].Message, "rewinds")
	assert.Len(t, merged, 3)
}

func TestMerge_MonthlyContiguityIsCalendarAware(t *testing.T) {
	// Month lengths vary, so a fixed-duration check would reject this.
	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	freq := models.FrequencyMonthly
	results := []segmentResult{
		forecastAt(0, jan, freq, 2),
		forecastAt(1, jan.AddDate(0, 2, 0), freq, 2),
	}

	merged, gaps := merge(results, freq)

	assert.Empty(t, gaps)
	assert.Len(t, merged, 4)
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name       string
		mergedLen  int
		gapsLen    int
		wantStatus models.PipelineStatus
		wantKind   models.FailureKind
	}{
		{"all segments succeeded", 12, 0, models.StatusComplete, ""},
		{"some segments survived", 8, 1, models.StatusPartialSuccess, ""},
		{"nothing survived", 0, 3, models.StatusFailed, models.FailureForecasting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := make([]models.ForecastPoint, tt.mergedLen)
			gaps := make([]models.GapMarker, tt.gapsLen)
			status, kind := runStatus(merged, gaps)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}
