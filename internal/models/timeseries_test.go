package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailySeries(t *testing.T, n int) *TimeSeries {
	t.Helper()
	points := make([]DataPoint, n)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = DataPoint{Timestamp: ts, Value: float64(i)}
		ts = ts.Add(24 * time.Hour)
	}
	return &TimeSeries{Points: points, Frequency: FrequencyDaily}
}

func TestTimeSeries_Validate(t *testing.T) {
	assert.NoError(t, dailySeries(t, 5).Validate())

	empty := &TimeSeries{Frequency: FrequencyDaily}
	assert.Error(t, empty.Validate())

	unknown := dailySeries(t, 3)
	unknown.Frequency = "fortnightly"
	assert.Error(t, unknown.Validate())

	duplicated := dailySeries(t, 3)
	duplicated.Points[2].Timestamp = duplicated.Points[1].Timestamp
	assert.Error(t, duplicated.Validate(), "timestamps must be strictly increasing")
}

func TestFrequency_StepIsCalendarAwareForMonthly(t *testing.T) {
	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), FrequencyMonthly.Step(jan))
	assert.Equal(t, jan.Add(24*time.Hour), FrequencyDaily.Step(jan))
	assert.Equal(t, jan.Add(7*24*time.Hour), FrequencyWeekly.Step(jan))
}

func TestValidateSegments_AcceptsExactTiling(t *testing.T) {
	parent := dailySeries(t, 10)
	segments := []*Segment{
		{Index: 0, StartOffset: 0, EndOffset: 4, Series: parent.Slice(0, 4)},
		{Index: 1, StartOffset: 4, EndOffset: 10, Series: parent.Slice(4, 10)},
	}
	assert.NoError(t, ValidateSegments(parent, segments))
}

func TestValidateSegments_RejectsViolations(t *testing.T) {
	parent := dailySeries(t, 10)

	tests := []struct {
		name     string
		segments []*Segment
	}{
		{"no segments", nil},
		{
			"gap between segments",
			[]*Segment{
				{Index: 0, StartOffset: 0, EndOffset: 4, Series: parent.Slice(0, 4)},
				{Index: 1, StartOffset: 5, EndOffset: 10, Series: parent.Slice(5, 10)},
			},
		},
		{
			"incomplete coverage",
			[]*Segment{
				{Index: 0, StartOffset: 0, EndOffset: 8, Series: parent.Slice(0, 8)},
			},
		},
		{
			"out of order index",
			[]*Segment{
				{Index: 1, StartOffset: 0, EndOffset: 5, Series: parent.Slice(0, 5)},
				{Index: 0, StartOffset: 5, EndOffset: 10, Series: parent.Slice(5, 10)},
			},
		},
		{
			"frequency drift",
			[]*Segment{
				{Index: 0, StartOffset: 0, EndOffset: 10, Series: &TimeSeries{Points: parent.Points, Frequency: FrequencyWeekly}},
			},
		},
		{
			"offsets disagree with point count",
			[]*Segment{
				{Index: 0, StartOffset: 0, EndOffset: 10, Series: parent.Slice(0, 4)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateSegments(parent, tt.segments))
		})
	}
}

func TestValidateSegments_OffsetsPastParentAreAnError(t *testing.T) {
	// A cached or corrupt segment set can claim more points than the
	// parent holds; that must surface as an error, not an index panic.
	parent := dailySeries(t, 4)
	oversized := dailySeries(t, 6)
	segments := []*Segment{
		{Index: 0, StartOffset: 0, EndOffset: 6, Series: oversized},
	}

	var err error
	require.NotPanics(t, func() { err = ValidateSegments(parent, segments) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past the 4-point parent")
}

func TestWholeSeriesSegment(t *testing.T) {
	parent := dailySeries(t, 6)
	seg := WholeSeriesSegment(parent)

	assert.Equal(t, 0, seg.Index)
	assert.Equal(t, 0, seg.StartOffset)
	assert.Equal(t, 6, seg.EndOffset)
	require.NoError(t, ValidateSegments(parent, []*Segment{seg}))
}
