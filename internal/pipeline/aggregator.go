package pipeline

import (
	"fmt"

	"github.com/platformbuilds/prognos-core/internal/models"
)

// segmentResult is one slot in the fan-out's pre-sized results
// collection. Exactly one of forecast or err is set; each worker writes
// only to its own slot, so no lock guards the collection.
type segmentResult struct {
	segment  *models.Segment
	forecast *models.ForecastOutput
	err      *models.StageError
}

// merge concatenates successful segments' forecasts in ascending
// segment-index order into one timeline and records a gap marker for
// every failed slot. It enforces the merged-timeline invariant: across
// a junction between two successful segments, timestamps continue
// strictly increasing and exactly one frequency step apart. A segment
// whose forecast breaks the junction is demoted to a contract-violation
// gap rather than corrupting the timeline.
func merge(results []segmentResult, freq models.Frequency) ([]models.ForecastPoint, []models.GapMarker) {
	merged := make([]models.ForecastPoint, 0)
	var gaps []models.GapMarker

	// contiguous is true when the previous slot succeeded, so the next
	// segment's first point must land exactly one step after the
	// previous segment's last. A recorded gap relaxes the junction back
	// to strictly-increasing only.
	contiguous := false
	for _, r := range results {
		if r.err != nil {
			gaps = append(gaps, models.GapMarker{
				SegmentIndex: r.segment.Index,
				Kind:         r.err.Kind,
				Message:      r.err.Message,
			})
			contiguous = false
			continue
		}

		if len(merged) > 0 {
			prev := merged[len(merged)-1].Timestamp
			first := r.forecast.Points[0].Timestamp
			if !first.After(prev) {
				gaps = append(gaps, contiguityGap(r.segment.Index,
					"forecast rewinds the merged timeline: segment starts at %s, timeline already at %s",
					first.UTC(), prev.UTC()))
				contiguous = false
				continue
			}
			if contiguous && !first.Equal(freq.Step(prev)) {
				gaps = append(gaps, contiguityGap(r.segment.Index,
					"forecast breaks %s contiguity: expected %s, got %s",
					freq, freq.Step(prev).UTC(), first.UTC()))
				contiguous = false
				continue
			}
		}

		merged = append(merged, r.forecast.Points...)
		contiguous = true
	}
	return merged, gaps
}

func contiguityGap(index int, format string, args ...interface{}) models.GapMarker {
	return models.GapMarker{
		SegmentIndex: index,
		Kind:         models.ErrorKindContractViolation,
		Message:      fmt.Sprintf(format, args...),
	}
}

// runStatus derives the overall pipeline status from the per-segment
// outcomes: Complete when every slot succeeded, PartialSuccess when at
// least one forecast survived alongside at least one gap, Failed when
// nothing survived.
func runStatus(merged []models.ForecastPoint, gaps []models.GapMarker) (models.PipelineStatus, models.FailureKind) {
	switch {
	case len(gaps) == 0:
		return models.StatusComplete, ""
	case len(merged) > 0:
		return models.StatusPartialSuccess, ""
	default:
		return models.StatusFailed, models.FailureForecasting
	}
}
