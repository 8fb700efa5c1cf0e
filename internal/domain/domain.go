package domain

// Trend is the externally supplied direction indicator for a metric.
// It is informational only and never derived from value/target.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Metric is a single weighted measurement contributing to a project's
// health score. Lower-is-better metrics store pre-inverted values; the
// aggregator always weights value as-is.
type Metric struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
	Trend  Trend   `json:"trend" enum:"up,down,stable"`
	Weight float64 `json:"weight"`
}

// EngagementFactors are the behavioral inputs behind the engagement metric.
// ResponseTime is in hours, Contributions is a per-week count.
type EngagementFactors struct {
	MeetingAttendance float64 `json:"meeting_attendance"`
	ResponseTime      float64 `json:"response_time"`
	Contributions     float64 `json:"contributions"`
	TeamFeedback      float64 `json:"team_feedback"`
}

// Hours is a project's monthly hour budget. A nil *Hours on a project
// means the data was never captured; aggregation treats it as 0/0.
type Hours struct {
	Sold      float64 `json:"sold"`
	Allocated float64 `json:"allocated"`
}

type Project struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Client    string   `json:"client"`
	StartDate string   `json:"start_date" format:"date"`
	Duration  int      `json:"duration"`
	IsNew     bool     `json:"is_new"`
	// HealthScore is derived from Metrics on every create/update and is
	// never an independent source of truth.
	HealthScore int      `json:"health_score"`
	Metrics     []Metric `json:"metrics"`
	Hours       *Hours   `json:"hours,omitempty"`
	Tasks       []Task   `json:"tasks,omitempty"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
	UpdatedAt   string   `json:"updated_at" format:"date-time"`
}

// Metric returns the metric with the given id, or nil.
func (p *Project) Metric(id string) *Metric {
	for i := range p.Metrics {
		if p.Metrics[i].ID == id {
			return &p.Metrics[i]
		}
	}
	return nil
}

// TaskSize maps to a duration in weeks: PP=1, P=2, M=3, G=4, GG=5.
type TaskSize string

const (
	SizePP TaskSize = "PP"
	SizeP  TaskSize = "P"
	SizeM  TaskSize = "M"
	SizeG  TaskSize = "G"
	SizeGG TaskSize = "GG"
)

// DurationWeeks returns the size's duration in weeks, or 0 for an
// unknown size.
func (s TaskSize) DurationWeeks() int {
	switch s {
	case SizePP:
		return 1
	case SizeP:
		return 2
	case SizeM:
		return 3
	case SizeG:
		return 4
	case SizeGG:
		return 5
	}
	return 0
}

type Task struct {
	ID         string   `json:"id"`
	ProjectID  string   `json:"project_id"`
	Title      string   `json:"title"`
	PipefyLink string   `json:"pipefy_link,omitempty"`
	Status     string   `json:"status" enum:"pending,in_progress,completed"`
	Size       TaskSize `json:"size" enum:"PP,P,M,G,GG"`
	CreatedAt  string   `json:"created_at" format:"date-time"`
	UpdatedAt  string   `json:"updated_at" format:"date-time"`
}

type Delivery struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	StartDate   string  `json:"start_date" format:"date"`
	EndDate     string  `json:"end_date" format:"date"`
	Stage       string  `json:"stage" enum:"planning,development,testing,review,deployment"`
	Progress    float64 `json:"progress"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

// TeamConfig is the process-wide capacity configuration.
type TeamConfig struct {
	Developers  int    `json:"developers"`
	HoursPerDay int    `json:"hours_per_day"`
	WorkingDays int    `json:"working_days"`
	UpdatedAt   string `json:"updated_at,omitempty" format:"date-time"`
}

// TotalHoursPerMonth is the team's monthly capacity in hours.
func (c TeamConfig) TotalHoursPerMonth() float64 {
	return float64(c.Developers * c.HoursPerDay * c.WorkingDays)
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// ValidTaskStatus reports whether s is one of the task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case "pending", "in_progress", "completed":
		return true
	}
	return false
}

// ValidStage reports whether s is one of the delivery stages.
func ValidStage(s string) bool {
	switch s {
	case "planning", "development", "testing", "review", "deployment":
		return true
	}
	return false
}

// ValidTaskSize reports whether s is one of the task sizes.
func ValidTaskSize(s TaskSize) bool {
	return s.DurationWeeks() > 0
}
