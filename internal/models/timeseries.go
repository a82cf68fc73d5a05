package models

import (
	"fmt"
	"time"
)

// Frequency is the declared sampling interval of a series. Stages must
// honor the declared frequency and echo it back unchanged; the core
// never infers it from the data.
type Frequency string

const (
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Interval returns the nominal spacing between consecutive points.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		// Calendar months vary; contiguity checks for monthly series use
		// Step instead of a fixed duration.
		return 0
	default:
		return 0
	}
}

// Step advances t by one frequency interval, calendar-aware for monthly.
func (f Frequency) Step(t time.Time) time.Time {
	if f == FrequencyMonthly {
		return t.AddDate(0, 1, 0)
	}
	return t.Add(f.Interval())
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// QualityFlag annotates a point's provenance through the pipeline.
type QualityFlag string

const (
	QualityObserved     QualityFlag = "observed"
	QualityInterpolated QualityFlag = "interpolated"
	QualityCorrected    QualityFlag = "corrected"
	QualityMissing      QualityFlag = "missing"
)

// DataPoint is one observation in a series.
type DataPoint struct {
	Timestamp time.Time   `json:"timestamp"`
	Value     float64     `json:"value"`
	Quality   QualityFlag `json:"quality,omitempty"`
}

// TimeSeries is the unit of exchange between every pipeline stage.
// Timestamps are strictly increasing; the declared frequency travels
// with the data so stages never have to guess.
type TimeSeries struct {
	Points    []DataPoint `json:"points"`
	Frequency Frequency   `json:"frequency"`
}

// Validate enforces the stage-contract invariants on a series: a valid
// declared frequency and strictly increasing timestamps.
func (s *TimeSeries) Validate() error {
	if !s.Frequency.Valid() {
		return fmt.Errorf("invalid series frequency %q", s.Frequency)
	}
	if len(s.Points) == 0 {
		return fmt.Errorf("series has no points")
	}
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Timestamp.After(s.Points[i-1].Timestamp) {
			return fmt.Errorf("timestamps not strictly increasing at index %d (%s then %s)",
				i, s.Points[i-1].Timestamp.Format(time.RFC3339), s.Points[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Len returns the number of points in the series.
func (s *TimeSeries) Len() int { return len(s.Points) }

// Slice returns a sub-series over [start, end). The underlying points
// are shared; callers treat series as immutable after creation.
func (s *TimeSeries) Slice(start, end int) *TimeSeries {
	return &TimeSeries{Points: s.Points[start:end], Frequency: s.Frequency}
}

// Segment is a contiguous sub-range of a parent series produced by
// SEGMENT-ENGINE, carrying its index and offsets so the aggregator can
// restore original order regardless of completion order.
type Segment struct {
	Index       int         `json:"index"`
	Label       string      `json:"label,omitempty"`
	StartOffset int         `json:"start_offset"`
	EndOffset   int         `json:"end_offset"` // exclusive
	Series      *TimeSeries `json:"series"`
}

// ValidateSegments checks that segments are indexed 0..N-1, non-empty,
// non-overlapping, and tile the parent's point domain exactly once. A
// violation here is a SEGMENT-ENGINE contract breach, never retried.
func ValidateSegments(parent *TimeSeries, segments []*Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("segmentation returned no segments")
	}
	next := 0
	for i, seg := range segments {
		if seg == nil || seg.Series == nil {
			return fmt.Errorf("segment %d is empty", i)
		}
		if seg.Index != i {
			return fmt.Errorf("segment at position %d carries index %d", i, seg.Index)
		}
		if seg.StartOffset != next {
			return fmt.Errorf("segment %d starts at offset %d, expected %d", i, seg.StartOffset, next)
		}
		if seg.EndOffset <= seg.StartOffset {
			return fmt.Errorf("segment %d has empty offset range [%d,%d)", i, seg.StartOffset, seg.EndOffset)
		}
		if seg.Series.Frequency != parent.Frequency {
			return fmt.Errorf("segment %d changed frequency from %q to %q", i, parent.Frequency, seg.Series.Frequency)
		}
		if got, want := seg.Series.Len(), seg.EndOffset-seg.StartOffset; got != want {
			return fmt.Errorf("segment %d has %d points, offsets claim %d", i, got, want)
		}
		if seg.EndOffset > parent.Len() {
			return fmt.Errorf("segment %d ends at offset %d past the %d-point parent", i, seg.EndOffset, parent.Len())
		}
		for j, p := range seg.Series.Points {
			if !p.Timestamp.Equal(parent.Points[seg.StartOffset+j].Timestamp) {
				return fmt.Errorf("segment %d point %d timestamp diverges from parent", i, j)
			}
		}
		next = seg.EndOffset
	}
	if next != parent.Len() {
		return fmt.Errorf("segments cover %d of %d parent points", next, parent.Len())
	}
	return nil
}

// WholeSeriesSegment wraps a series as a single implicit segment, used
// when SEGMENT-ENGINE is unavailable and the pipeline degrades to
// forecasting the series as one piece.
func WholeSeriesSegment(series *TimeSeries) *Segment {
	return &Segment{
		Index:       0,
		Label:       "whole-series",
		StartOffset: 0,
		EndOffset:   series.Len(),
		Series:      series,
	}
}
