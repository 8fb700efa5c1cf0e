// Package stats computes fleet-wide figures over a collection of
// projects and the team's monthly capacity. All functions are pure
// folds: inputs are never mutated and the only guarded cases are the
// zero denominators (empty fleet, zero capacity).
package stats

import (
	"fmt"
	"math"
	"sort"

	"pulseboard/internal/domain"
	"pulseboard/internal/score"
)

// TopAllocationCount is how many projects the dashboard ranking shows.
const TopAllocationCount = 5

// ProjectAllocation is one entry of the allocation ranking.
type ProjectAllocation struct {
	ProjectID      string  `json:"project_id"`
	Name           string  `json:"name"`
	AllocatedHours float64 `json:"allocated_hours"`
	// Utilization is allocated hours as a percentage of team capacity.
	Utilization float64 `json:"utilization"`
}

// Overview is the dashboard aggregate over a project fleet.
type Overview struct {
	ProjectCount       int     `json:"project_count"`
	AverageHealthScore int     `json:"average_health_score"`
	ExcellentCount     int     `json:"excellent_count"`
	AtRiskCount        int     `json:"at_risk_count"`
	TotalSoldHours     float64 `json:"total_sold_hours"`
	TotalAllocated     float64 `json:"total_allocated_hours"`
	TeamHoursPerMonth  float64 `json:"team_hours_per_month"`
	HoursUtilization   float64 `json:"hours_utilization"`
	AvailableHours     float64 `json:"available_hours"`
	OverAllocated      bool    `json:"over_allocated"`
	// SoldExceeded is set when allocated capacity outruns what was sold.
	SoldExceeded   bool                `json:"sold_exceeded"`
	TopAllocations []ProjectAllocation `json:"top_allocations"`
	Warnings       []string            `json:"warnings,omitempty"`
}

// Compute folds projects and team capacity into an Overview.
// Projects with missing hours data fold as 0 and produce a warning;
// zero team capacity degrades utilization to 0 with a warning instead
// of dividing by zero.
func Compute(projects []domain.Project, teamHoursPerMonth float64) Overview {
	o := Overview{
		ProjectCount:      len(projects),
		TeamHoursPerMonth: teamHoursPerMonth,
	}
	var healthSum int
	for _, p := range projects {
		healthSum += p.HealthScore
		if p.HealthScore >= score.ExcellentThreshold {
			o.ExcellentCount++
		}
		if p.HealthScore < score.AtRiskThreshold {
			o.AtRiskCount++
		}
		if p.Hours == nil {
			o.Warnings = append(o.Warnings, fmt.Sprintf("project %q has no hours data", p.Name))
			continue
		}
		o.TotalSoldHours += p.Hours.Sold
		o.TotalAllocated += p.Hours.Allocated
	}
	if len(projects) > 0 {
		o.AverageHealthScore = int(math.Round(float64(healthSum) / float64(len(projects))))
	}
	if teamHoursPerMonth > 0 {
		o.HoursUtilization = o.TotalAllocated / teamHoursPerMonth * 100
		o.AvailableHours = math.Max(0, teamHoursPerMonth-o.TotalAllocated)
		o.OverAllocated = o.HoursUtilization > 100
		o.SoldExceeded = o.HoursUtilization > o.TotalSoldHours/teamHoursPerMonth*100
	} else {
		o.Warnings = append(o.Warnings, "team capacity is 0 hours/month; utilization not computed")
	}
	o.TopAllocations = TopAllocations(projects, teamHoursPerMonth, TopAllocationCount)
	return o
}

// TopAllocations ranks projects by allocated hours, descending, and
// returns the first n with their share of team capacity. Projects
// without hours data rank as 0. The sort is stable so equal
// allocations keep input order.
func TopAllocations(projects []domain.Project, teamHoursPerMonth float64, n int) []ProjectAllocation {
	ranked := make([]domain.Project, len(projects))
	copy(ranked, projects)
	sort.SliceStable(ranked, func(i, j int) bool {
		return allocated(ranked[i]) > allocated(ranked[j])
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	res := make([]ProjectAllocation, 0, len(ranked))
	for _, p := range ranked {
		alloc := ProjectAllocation{
			ProjectID:      p.ID,
			Name:           p.Name,
			AllocatedHours: allocated(p),
		}
		if teamHoursPerMonth > 0 {
			alloc.Utilization = alloc.AllocatedHours / teamHoursPerMonth * 100
		}
		res = append(res, alloc)
	}
	return res
}

// HoursSummary is the per-project hours view against team capacity.
type HoursSummary struct {
	ProjectID       string  `json:"project_id"`
	SoldHours       float64 `json:"sold_hours"`
	AllocatedHours  float64 `json:"allocated_hours"`
	SoldUtilization float64 `json:"sold_utilization"`
	Utilization     float64 `json:"utilization"`
	OverAllocated   bool    `json:"over_allocated"`
	// SoldExceeded is set when the project consumes more capacity than
	// was sold for it.
	SoldExceeded bool `json:"sold_exceeded"`
}

// SummarizeHours computes a single project's hour utilization figures.
func SummarizeHours(p domain.Project, teamHoursPerMonth float64) HoursSummary {
	s := HoursSummary{ProjectID: p.ID}
	if p.Hours != nil {
		s.SoldHours = p.Hours.Sold
		s.AllocatedHours = p.Hours.Allocated
	}
	if teamHoursPerMonth > 0 {
		s.SoldUtilization = s.SoldHours / teamHoursPerMonth * 100
		s.Utilization = s.AllocatedHours / teamHoursPerMonth * 100
		s.OverAllocated = s.Utilization > 100
		s.SoldExceeded = s.SoldUtilization < s.Utilization
	}
	return s
}

func allocated(p domain.Project) float64 {
	if p.Hours == nil {
		return 0
	}
	return p.Hours.Allocated
}
