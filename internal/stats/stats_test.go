package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pulseboard/internal/domain"
	"pulseboard/internal/stats"
)

func project(name string, health int, sold, allocated float64) domain.Project {
	return domain.Project{
		ID:          name,
		Name:        name,
		HealthScore: health,
		Hours:       &domain.Hours{Sold: sold, Allocated: allocated},
	}
}

func TestComputeEmptyFleet(t *testing.T) {
	o := stats.Compute(nil, 600)
	assert.Equal(t, 0, o.ProjectCount)
	assert.Equal(t, 0, o.AverageHealthScore)
	assert.Equal(t, 0, o.ExcellentCount)
	assert.Equal(t, 0, o.AtRiskCount)
	assert.Equal(t, 600.0, o.AvailableHours)
	assert.Empty(t, o.TopAllocations)
}

func TestComputeHealthBandsPartition(t *testing.T) {
	o := stats.Compute([]domain.Project{
		project("a", 40, 0, 0),
		project("b", 60, 0, 0),
		project("c", 90, 0, 0),
	}, 600)
	assert.Equal(t, 1, o.AtRiskCount)
	assert.Equal(t, 1, o.ExcellentCount)
	assert.Equal(t, 63, o.AverageHealthScore, "round(190/3)")
}

func TestComputeBandBoundaries(t *testing.T) {
	o := stats.Compute([]domain.Project{
		project("edge-excellent", 85, 0, 0),
		project("edge-risk", 50, 0, 0),
		project("below-risk", 49, 0, 0),
	}, 600)
	assert.Equal(t, 1, o.ExcellentCount, "85 counts as excellent")
	assert.Equal(t, 1, o.AtRiskCount, "only scores below 50 are at risk")
}

func TestComputeHoursTotalsAndUtilization(t *testing.T) {
	o := stats.Compute([]domain.Project{
		project("a", 80, 200, 300),
		project("b", 80, 100, 150),
	}, 600)
	assert.Equal(t, 300.0, o.TotalSoldHours)
	assert.Equal(t, 450.0, o.TotalAllocated)
	assert.Equal(t, 75.0, o.HoursUtilization)
	assert.Equal(t, 150.0, o.AvailableHours)
	assert.False(t, o.OverAllocated)
	assert.True(t, o.SoldExceeded, "450 allocated vs 300 sold")
}

func TestComputeMissingHoursFoldAsZeroWithWarning(t *testing.T) {
	o := stats.Compute([]domain.Project{
		project("a", 80, 100, 100),
		{ID: "b", Name: "no-hours", HealthScore: 70},
	}, 600)
	assert.Equal(t, 100.0, o.TotalSoldHours)
	assert.Equal(t, 100.0, o.TotalAllocated)
	assert.Len(t, o.Warnings, 1)
	assert.Contains(t, o.Warnings[0], "no-hours")
}

func TestComputeZeroCapacityGuard(t *testing.T) {
	o := stats.Compute([]domain.Project{
		project("a", 80, 100, 300),
	}, 0)
	assert.Equal(t, 0.0, o.HoursUtilization)
	assert.Equal(t, 0.0, o.AvailableHours)
	assert.False(t, o.OverAllocated)
	assert.NotEmpty(t, o.Warnings)
}

func TestComputeOverAllocation(t *testing.T) {
	o := stats.Compute([]domain.Project{
		project("a", 80, 700, 700),
	}, 600)
	assert.True(t, o.OverAllocated)
	assert.InDelta(t, 116.7, o.HoursUtilization, 0.1)
	assert.Equal(t, 0.0, o.AvailableHours, "available never goes negative")
}

func TestTopAllocationsRankingAndTruncation(t *testing.T) {
	projects := []domain.Project{
		project("p1", 80, 0, 50),
		project("p2", 80, 0, 300),
		project("p3", 80, 0, 120),
		project("p4", 80, 0, 10),
		project("p5", 80, 0, 90),
		project("p6", 80, 0, 200),
	}
	top := stats.TopAllocations(projects, 600, 5)
	assert.Len(t, top, 5)
	assert.Equal(t, "p2", top[0].ProjectID)
	assert.Equal(t, "p6", top[1].ProjectID)
	assert.Equal(t, "p3", top[2].ProjectID)
	assert.Equal(t, 50.0, top[0].Utilization)
	// p4 at 10h falls off the top five.
	for _, entry := range top {
		assert.NotEqual(t, "p4", entry.ProjectID)
	}
}

func TestTopAllocationsDoesNotMutateInput(t *testing.T) {
	projects := []domain.Project{
		project("low", 80, 0, 10),
		project("high", 80, 0, 500),
	}
	stats.TopAllocations(projects, 600, 5)
	assert.Equal(t, "low", projects[0].ID)
	assert.Equal(t, "high", projects[1].ID)
}

func TestSummarizeHoursScenario(t *testing.T) {
	// TeamConfig{developers:5, hoursPerDay:6, workingDays:20} -> 600h/month.
	team := domain.TeamConfig{Developers: 5, HoursPerDay: 6, WorkingDays: 20}
	assert.Equal(t, 600.0, team.TotalHoursPerMonth())

	s := stats.SummarizeHours(project("a", 80, 360, 300), team.TotalHoursPerMonth())
	assert.Equal(t, 50.0, s.Utilization)
	assert.Equal(t, 60.0, s.SoldUtilization)
	assert.False(t, s.OverAllocated)
	assert.False(t, s.SoldExceeded)
}

func TestSummarizeHoursSoldExceeded(t *testing.T) {
	s := stats.SummarizeHours(project("a", 80, 100, 200), 600)
	assert.True(t, s.SoldExceeded)

	missing := stats.SummarizeHours(domain.Project{ID: "b"}, 600)
	assert.Equal(t, 0.0, missing.Utilization)
	assert.False(t, missing.SoldExceeded)
}
