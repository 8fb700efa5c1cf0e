// Package score holds the pure health-score and engagement calculators.
// Everything here is arithmetic over in-memory data: no I/O, no storage.
package score

import (
	"errors"
	"math"

	"pulseboard/internal/domain"
)

// ErrInvalidMetricWeights is returned when a metric set's total weight
// is zero and a weighted average cannot be formed.
var ErrInvalidMetricWeights = errors.New("metric weights sum to zero")

// Engagement factor weights. Fixed by contract.
const (
	weightMeetings      = 0.30
	weightResponseTime  = 0.20
	weightContributions = 0.25
	weightFeedback      = 0.25
)

// Engagement derives a 0-100 engagement score from behavioral factors.
// Response time normalizes linearly from 100 at <=1h to 0 at >=24h;
// contributions saturate at 10 per week. Out-of-range meeting attendance
// or team feedback propagates unclamped into the result.
func Engagement(f domain.EngagementFactors) int {
	responseTime := clamp((24-f.ResponseTime)*(100.0/23.0), 0, 100)
	contributions := clamp(f.Contributions/10*100, 0, 100)
	sum := f.MeetingAttendance*weightMeetings +
		responseTime*weightResponseTime +
		contributions*weightContributions +
		f.TeamFeedback*weightFeedback
	return int(math.Round(sum))
}

// HealthScore aggregates a metric set into a single score via weighted
// average. Values are weighted as-is: direction-of-improvement is the
// producer's responsibility, so lower-is-better metrics must already be
// stored inverted.
func HealthScore(metrics []domain.Metric) (int, error) {
	var totalWeight, weightedSum float64
	for _, m := range metrics {
		totalWeight += m.Weight
		weightedSum += m.Value * m.Weight
	}
	if totalWeight == 0 {
		return 0, ErrInvalidMetricWeights
	}
	return int(math.Round(weightedSum / totalWeight)), nil
}

// Band classifies a health score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAverage   Band = "average"
	BandPoor      Band = "poor"
)

// Score thresholds for the health bands.
const (
	ExcellentThreshold = 85
	GoodThreshold      = 70
	AtRiskThreshold    = 50
)

// Classify maps a health score to its band: excellent >=85, good >=70,
// average >=50, poor below.
func Classify(score int) Band {
	switch {
	case score >= ExcellentThreshold:
		return BandExcellent
	case score >= GoodThreshold:
		return BandGood
	case score >= AtRiskThreshold:
		return BandAverage
	}
	return BandPoor
}

// weightTolerance absorbs float drift when checking that weights sum to 1.
const weightTolerance = 0.001

// WeightsBalanced reports whether the metric weights sum to 1.0 within
// tolerance. Advisory only: an unbalanced set still scores, the weighted
// average self-normalizes by the actual total.
func WeightsBalanced(metrics []domain.Metric) bool {
	var total float64
	for _, m := range metrics {
		total += m.Weight
	}
	return math.Abs(total-1.0) <= weightTolerance
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
