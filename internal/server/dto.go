package server

import (
	"pulseboard/internal/domain"
	"pulseboard/internal/engine"
	"pulseboard/internal/gantt"
	"pulseboard/internal/score"
	"pulseboard/internal/stats"
)

// Request payloads

type MetricPayload struct {
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Value  *float64 `json:"value,omitempty"`
	Target float64  `json:"target"`
	Trend  string   `json:"trend,omitempty" enum:"up,down,stable"`
	Weight float64  `json:"weight"`
}

type HoursPayload struct {
	Sold      float64 `json:"sold"`
	Allocated float64 `json:"allocated"`
}

type CreateProjectRequest struct {
	Name      string          `json:"name"`
	Client    string          `json:"client,omitempty"`
	StartDate string          `json:"start_date" format:"date"`
	Duration  int             `json:"duration"`
	Template  string          `json:"template,omitempty"`
	Metrics   []MetricPayload `json:"metrics,omitempty"`
	Hours     *HoursPayload   `json:"hours,omitempty"`
}

type UpdateProjectRequest struct {
	Name      *string          `json:"name,omitempty"`
	Client    *string          `json:"client,omitempty"`
	StartDate *string          `json:"start_date,omitempty" format:"date"`
	Duration  *int             `json:"duration,omitempty"`
	IsNew     *bool            `json:"is_new,omitempty"`
	Metrics   *[]MetricPayload `json:"metrics,omitempty"`
	Hours     *HoursPayload    `json:"hours,omitempty"`
}

type EngagementRequest struct {
	MeetingAttendance float64 `json:"meeting_attendance" minimum:"0" maximum:"100"`
	ResponseTime      float64 `json:"response_time" minimum:"0"`
	Contributions     float64 `json:"contributions" minimum:"0"`
	TeamFeedback      float64 `json:"team_feedback" minimum:"0" maximum:"100"`
}

type CreateTaskRequest struct {
	Title      string `json:"title"`
	PipefyLink string `json:"pipefy_link,omitempty"`
	Status     string `json:"status,omitempty" enum:"pending,in_progress,completed"`
	Size       string `json:"size" enum:"PP,P,M,G,GG"`
}

type UpdateTaskRequest struct {
	Title      *string `json:"title,omitempty"`
	PipefyLink *string `json:"pipefy_link,omitempty"`
	Status     *string `json:"status,omitempty" enum:"pending,in_progress,completed"`
	Size       *string `json:"size,omitempty" enum:"PP,P,M,G,GG"`
}

type CreateDeliveryRequest struct {
	ProjectID   string  `json:"project_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	StartDate   string  `json:"start_date" format:"date"`
	EndDate     string  `json:"end_date" format:"date"`
	Stage       string  `json:"stage,omitempty" enum:"planning,development,testing,review,deployment"`
	Progress    float64 `json:"progress,omitempty"`
}

type UpdateDeliveryRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	StartDate   *string  `json:"start_date,omitempty" format:"date"`
	EndDate     *string  `json:"end_date,omitempty" format:"date"`
	Stage       *string  `json:"stage,omitempty" enum:"planning,development,testing,review,deployment"`
	Progress    *float64 `json:"progress,omitempty"`
}

type UpdateTeamRequest struct {
	Developers  *int `json:"developers,omitempty" minimum:"0"`
	HoursPerDay *int `json:"hours_per_day,omitempty" minimum:"1" maximum:"8"`
	WorkingDays *int `json:"working_days,omitempty" minimum:"1" maximum:"23"`
}

// Response payloads

type ProjectResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Client      string          `json:"client,omitempty"`
	StartDate   string          `json:"start_date" format:"date"`
	Duration    int             `json:"duration"`
	IsNew       bool            `json:"is_new"`
	HealthScore int             `json:"health_score"`
	HealthBand  string          `json:"health_band" enum:"excellent,good,average,poor"`
	Metrics     []domain.Metric `json:"metrics"`
	Hours       *domain.Hours   `json:"hours,omitempty"`
	Tasks       []domain.Task   `json:"tasks,omitempty"`
	CreatedAt   string          `json:"created_at" format:"date-time"`
	UpdatedAt   string          `json:"updated_at" format:"date-time"`
}

type TeamResponse struct {
	Developers         int     `json:"developers"`
	HoursPerDay        int     `json:"hours_per_day"`
	WorkingDays        int     `json:"working_days"`
	TotalHoursPerMonth float64 `json:"total_hours_per_month"`
	UpdatedAt          string  `json:"updated_at,omitempty" format:"date-time"`
}

type HoursSummaryResponse struct {
	stats.HoursSummary
}

type DashboardResponse struct {
	Overview stats.Overview    `json:"overview"`
	Team     TeamResponse      `json:"team"`
	Projects []ProjectResponse `json:"projects"`
}

type TimelineResponse struct {
	Start  string        `json:"start" format:"date"`
	End    string        `json:"end" format:"date"`
	Months []gantt.Month `json:"months"`
	Lanes  []gantt.Lane  `json:"lanes"`
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Client:      p.Client,
		StartDate:   p.StartDate,
		Duration:    p.Duration,
		IsNew:       p.IsNew,
		HealthScore: p.HealthScore,
		HealthBand:  string(score.Classify(p.HealthScore)),
		Metrics:     p.Metrics,
		Hours:       p.Hours,
		Tasks:       p.Tasks,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	res := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		res = append(res, projectResponse(p))
	}
	return res
}

func teamResponse(c domain.TeamConfig) TeamResponse {
	return TeamResponse{
		Developers:         c.Developers,
		HoursPerDay:        c.HoursPerDay,
		WorkingDays:        c.WorkingDays,
		TotalHoursPerMonth: c.TotalHoursPerMonth(),
		UpdatedAt:          c.UpdatedAt,
	}
}

func timelineResponse(l gantt.Layout) TimelineResponse {
	res := TimelineResponse{Months: l.Months, Lanes: l.Lanes}
	if !l.Start.IsZero() {
		res.Start = l.Start.Format("2006-01-02")
		res.End = l.End.Format("2006-01-02")
	}
	return res
}

func metricInputs(payloads []MetricPayload) []engine.MetricInput {
	res := make([]engine.MetricInput, 0, len(payloads))
	for _, m := range payloads {
		res = append(res, engine.MetricInput{
			ID:     m.ID,
			Name:   m.Name,
			Value:  m.Value,
			Target: m.Target,
			Trend:  domain.Trend(m.Trend),
			Weight: m.Weight,
		})
	}
	return res
}

func hoursInput(h *HoursPayload) *domain.Hours {
	if h == nil {
		return nil
	}
	return &domain.Hours{Sold: h.Sold, Allocated: h.Allocated}
}
