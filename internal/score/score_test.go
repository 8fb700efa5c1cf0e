package score_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseboard/internal/domain"
	"pulseboard/internal/score"
)

func TestHealthScoreSingleFullWeightMetric(t *testing.T) {
	got, err := score.HealthScore([]domain.Metric{
		{ID: "velocity", Value: 80, Weight: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 80, got)
}

func TestHealthScoreWeightedAverage(t *testing.T) {
	got, err := score.HealthScore([]domain.Metric{
		{ID: "a", Value: 100, Weight: 0.5},
		{ID: "b", Value: 0, Weight: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, got)
}

func TestHealthScoreValuesWeightedAsIs(t *testing.T) {
	// No inversion inside the aggregator: a rework-style metric must be
	// stored pre-inverted by the producer.
	got, err := score.HealthScore([]domain.Metric{
		{ID: "reworkRate", Value: 12, Weight: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, got)
}

func TestHealthScoreSelfNormalizesUnbalancedWeights(t *testing.T) {
	got, err := score.HealthScore([]domain.Metric{
		{ID: "a", Value: 80, Weight: 0.2},
		{ID: "b", Value: 40, Weight: 0.2},
	})
	require.NoError(t, err)
	assert.Equal(t, 60, got)
}

func TestHealthScoreRoundsHalfAwayFromZero(t *testing.T) {
	got, err := score.HealthScore([]domain.Metric{
		{ID: "a", Value: 81, Weight: 0.5},
		{ID: "b", Value: 80, Weight: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 81, got, "80.5 rounds up")
}

func TestHealthScoreZeroTotalWeight(t *testing.T) {
	_, err := score.HealthScore([]domain.Metric{
		{ID: "a", Value: 80, Weight: 0},
	})
	assert.ErrorIs(t, err, score.ErrInvalidMetricWeights)

	_, err = score.HealthScore(nil)
	assert.ErrorIs(t, err, score.ErrInvalidMetricWeights)
}

func TestHealthScoreStaysInRangeForBalancedInputs(t *testing.T) {
	sets := [][]domain.Metric{
		{
			{ID: "deliveryRate", Value: 85, Weight: 0.3},
			{ID: "reworkRate", Value: 88, Weight: 0.25},
			{ID: "estimateAccuracy", Value: 78, Weight: 0.25},
			{ID: "nps", Value: 65, Weight: 0.2},
		},
		{
			{ID: "velocity", Value: 0, Weight: 0.4},
			{ID: "quality", Value: 100, Weight: 0.3},
			{ID: "engagement", Value: 50, Weight: 0.3},
		},
	}
	for _, metrics := range sets {
		got, err := score.HealthScore(metrics)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestHealthScoreIdempotent(t *testing.T) {
	metrics := []domain.Metric{
		{ID: "a", Value: 72, Weight: 0.6},
		{ID: "b", Value: 31, Weight: 0.4},
	}
	first, err := score.HealthScore(metrics)
	require.NoError(t, err)
	second, err := score.HealthScore(metrics)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngagementAllFactorsMaxed(t *testing.T) {
	got := score.Engagement(domain.EngagementFactors{
		MeetingAttendance: 100,
		ResponseTime:      1,
		Contributions:     10,
		TeamFeedback:      100,
	})
	assert.Equal(t, 100, got)
}

func TestEngagementAllFactorsFloored(t *testing.T) {
	got := score.Engagement(domain.EngagementFactors{
		MeetingAttendance: 0,
		ResponseTime:      24,
		Contributions:     0,
		TeamFeedback:      0,
	})
	assert.Equal(t, 0, got)
}

func TestEngagementResponseTimeClampsAtZeroHours(t *testing.T) {
	// The raw formula exceeds 100 below 1h; the clamp caps it.
	got := score.Engagement(domain.EngagementFactors{
		MeetingAttendance: 0,
		ResponseTime:      0,
		Contributions:     0,
		TeamFeedback:      0,
	})
	assert.Equal(t, 20, got, "response time factor alone contributes its full 0.20 weight")
}

func TestEngagementResponseTimeBeyondDayIsZero(t *testing.T) {
	got := score.Engagement(domain.EngagementFactors{ResponseTime: 48})
	assert.Equal(t, 0, got)
}

func TestEngagementContributionsSaturate(t *testing.T) {
	ten := score.Engagement(domain.EngagementFactors{ResponseTime: 24, Contributions: 10})
	forty := score.Engagement(domain.EngagementFactors{ResponseTime: 24, Contributions: 40})
	assert.Equal(t, ten, forty)
	assert.Equal(t, 25, ten)
}

func TestEngagementMidpointFactors(t *testing.T) {
	// meeting 80*0.30=24, response 12.5h -> (11.5/23)*100=50 -> 10,
	// contributions 5 -> 50*0.25=12.5, feedback 60*0.25=15; sum 61.5 -> 62.
	got := score.Engagement(domain.EngagementFactors{
		MeetingAttendance: 80,
		ResponseTime:      12.5,
		Contributions:     5,
		TeamFeedback:      60,
	})
	assert.Equal(t, 62, got)
}

func TestEngagementOutOfRangeInputsPropagate(t *testing.T) {
	// Accepted behavior: attendance/feedback above 100 are not clamped.
	got := score.Engagement(domain.EngagementFactors{
		MeetingAttendance: 200,
		ResponseTime:      1,
		Contributions:     10,
		TeamFeedback:      200,
	})
	assert.Greater(t, got, 100)
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		score int
		want  score.Band
	}{
		{100, score.BandExcellent},
		{85, score.BandExcellent},
		{84, score.BandGood},
		{70, score.BandGood},
		{69, score.BandAverage},
		{50, score.BandAverage},
		{49, score.BandPoor},
		{0, score.BandPoor},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, score.Classify(tc.score), "score %d", tc.score)
	}
}

func TestWeightsBalanced(t *testing.T) {
	assert.True(t, score.WeightsBalanced([]domain.Metric{
		{Weight: 0.3}, {Weight: 0.25}, {Weight: 0.25}, {Weight: 0.2},
	}))
	assert.False(t, score.WeightsBalanced([]domain.Metric{
		{Weight: 0.3}, {Weight: 0.3},
	}))
	assert.False(t, score.WeightsBalanced(nil))
}
