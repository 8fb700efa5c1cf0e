package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pulseboard/internal/config"
	"pulseboard/internal/domain"
	"pulseboard/internal/events"
	"pulseboard/internal/gantt"
	"pulseboard/internal/repo"
	"pulseboard/internal/score"
	"pulseboard/internal/stats"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Log    *slog.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Log:    slog.Default(),
		Now:    time.Now,
	}
}

// ErrNoEngagementMetric is returned when factors are submitted for a
// project whose metric set has no engagement entry to receive the score.
var ErrNoEngagementMetric = errors.New("project has no engagement metric")

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// MetricInput is a metric as submitted by a client. A nil Value means
// "start at target".
type MetricInput struct {
	ID     string
	Name   string
	Value  *float64
	Target float64
	Trend  domain.Trend
	Weight float64
}

type ProjectCreateOptions struct {
	Name      string
	Client    string
	StartDate string
	Duration  int
	Template  string
	Metrics   []MetricInput
	Hours     *domain.Hours
}

func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	if e.Config == nil {
		return domain.Project{}, errors.New("config not loaded")
	}
	if opts.Name == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if _, err := parseDate(opts.StartDate); err != nil {
		return domain.Project{}, fmt.Errorf("invalid start_date %q: want YYYY-MM-DD", opts.StartDate)
	}
	if opts.Duration < 1 {
		return domain.Project{}, errors.New("duration is required and must be >= 1 month")
	}
	metrics, err := e.resolveMetrics(opts.Template, opts.Metrics)
	if err != nil {
		return domain.Project{}, err
	}
	health, err := score.HealthScore(metrics)
	if err != nil {
		return domain.Project{}, err
	}
	if err := validateHours(opts.Hours); err != nil {
		return domain.Project{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	p := domain.Project{
		ID:          uuid.NewString(),
		Name:        opts.Name,
		Client:      opts.Client,
		StartDate:   opts.StartDate,
		Duration:    opts.Duration,
		IsNew:       true,
		HealthScore: health,
		Metrics:     metrics,
		Hours:       opts.Hours,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.warnUnbalanced(p)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "project.created", p.ID, "project", p.ID, events.EventPayload{"name": p.Name, "health_score": p.HealthScore}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// resolveMetrics builds the metric set for a new project: explicit
// metrics win, otherwise the named (or default) template applies.
func (e Engine) resolveMetrics(template string, inputs []MetricInput) ([]domain.Metric, error) {
	if len(inputs) > 0 {
		return buildMetrics(inputs)
	}
	name := template
	if name == "" {
		name = e.Config.Metrics.Default
	}
	tpl, ok := e.Config.Metrics.Templates[name]
	if !ok {
		return nil, fmt.Errorf("invalid metric template %q", name)
	}
	return tpl.Metrics(), nil
}

func buildMetrics(inputs []MetricInput) ([]domain.Metric, error) {
	seen := map[string]bool{}
	res := make([]domain.Metric, 0, len(inputs))
	for _, in := range inputs {
		if in.ID == "" {
			return nil, errors.New("metric id is required")
		}
		if seen[in.ID] {
			return nil, fmt.Errorf("invalid metrics: duplicate id %q", in.ID)
		}
		seen[in.ID] = true
		if in.Weight < 0 || in.Weight > 1 {
			return nil, fmt.Errorf("invalid weight %v for metric %s: want [0,1]", in.Weight, in.ID)
		}
		if in.Target < 0 || in.Target > 100 {
			return nil, fmt.Errorf("invalid target %v for metric %s: want [0,100]", in.Target, in.ID)
		}
		value := in.Target
		if in.Value != nil {
			value = *in.Value
		}
		if value < 0 || value > 100 {
			return nil, fmt.Errorf("invalid value %v for metric %s: want [0,100]", value, in.ID)
		}
		trend := in.Trend
		if trend == "" {
			trend = domain.TrendStable
		}
		switch trend {
		case domain.TrendUp, domain.TrendDown, domain.TrendStable:
		default:
			return nil, fmt.Errorf("invalid trend %q for metric %s", trend, in.ID)
		}
		name := in.Name
		if name == "" {
			name = in.ID
		}
		res = append(res, domain.Metric{ID: in.ID, Name: name, Value: value, Target: in.Target, Trend: trend, Weight: in.Weight})
	}
	return res, nil
}

func (e Engine) warnUnbalanced(p domain.Project) {
	if !score.WeightsBalanced(p.Metrics) {
		var total float64
		for _, m := range p.Metrics {
			total += m.Weight
		}
		e.log().Warn("metric weights do not sum to 1.0", "project_id", p.ID, "total_weight", total)
	}
}

type ProjectUpdateOptions struct {
	Name      *string
	Client    *string
	StartDate *string
	Duration  *int
	IsNew     *bool
	Metrics   []MetricInput
	// MetricsSet distinguishes "replace with empty" from "leave alone".
	MetricsSet bool
	Hours      *domain.Hours
	HoursSet   bool
}

func (e Engine) UpdateProject(ctx context.Context, id string, opts ProjectUpdateOptions) (domain.Project, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p, err := e.Repo.GetProjectTx(ctx, tx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return domain.Project{}, errors.New("name is required")
		}
		p.Name = *opts.Name
	}
	if opts.Client != nil {
		p.Client = *opts.Client
	}
	if opts.StartDate != nil {
		if _, err := parseDate(*opts.StartDate); err != nil {
			return domain.Project{}, fmt.Errorf("invalid start_date %q: want YYYY-MM-DD", *opts.StartDate)
		}
		p.StartDate = *opts.StartDate
	}
	if opts.Duration != nil {
		if *opts.Duration < 1 {
			return domain.Project{}, errors.New("duration is required and must be >= 1 month")
		}
		p.Duration = *opts.Duration
	}
	if opts.IsNew != nil {
		p.IsNew = *opts.IsNew
	}
	if opts.MetricsSet {
		metrics, err := buildMetrics(opts.Metrics)
		if err != nil {
			return domain.Project{}, err
		}
		p.Metrics = metrics
	}
	if opts.HoursSet {
		if err := validateHours(opts.Hours); err != nil {
			return domain.Project{}, err
		}
		p.Hours = opts.Hours
	}
	p.HealthScore, err = score.HealthScore(p.Metrics)
	if err != nil {
		return domain.Project{}, err
	}
	p.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	e.warnUnbalanced(p)

	if err := e.Repo.UpdateProject(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Events.Append(ctx, tx, "project.updated", p.ID, "project", p.ID, events.EventPayload{"health_score": p.HealthScore}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (e Engine) DeleteProject(ctx context.Context, id string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteProject(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "project.deleted", id, "project", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// SetEngagementFactors stores the behavioral inputs, recomputes the
// engagement metric from them, and refreshes the health score.
func (e Engine) SetEngagementFactors(ctx context.Context, projectID string, f domain.EngagementFactors) (domain.Project, error) {
	if f.MeetingAttendance < 0 || f.MeetingAttendance > 100 {
		return domain.Project{}, errors.New("invalid meeting_attendance: want [0,100]")
	}
	if f.ResponseTime < 0 {
		return domain.Project{}, errors.New("invalid response_time: want >= 0")
	}
	if f.Contributions < 0 {
		return domain.Project{}, errors.New("invalid contributions: want >= 0")
	}
	if f.TeamFeedback < 0 || f.TeamFeedback > 100 {
		return domain.Project{}, errors.New("invalid team_feedback: want [0,100]")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p, err := e.Repo.GetProjectTx(ctx, tx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	m := p.Metric("engagement")
	if m == nil {
		return domain.Project{}, ErrNoEngagementMetric
	}
	engagement := score.Engagement(f)
	m.Value = float64(engagement)
	p.HealthScore, err = score.HealthScore(p.Metrics)
	if err != nil {
		return domain.Project{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	p.UpdatedAt = now

	if err := e.Repo.UpsertEngagementFactors(ctx, tx, p.ID, f, now); err != nil {
		return domain.Project{}, err
	}
	if err := e.Repo.UpdateProject(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Events.Append(ctx, tx, "engagement.updated", p.ID, "project", p.ID, events.EventPayload{"engagement": engagement, "health_score": p.HealthScore}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

type TaskCreateOptions struct {
	ProjectID  string
	Title      string
	PipefyLink string
	Status     string
	Size       domain.TaskSize
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, errors.New("title is required")
	}
	if opts.ProjectID == "" {
		return domain.Task{}, errors.New("project is required")
	}
	if opts.Status == "" {
		opts.Status = "pending"
	}
	if !domain.ValidTaskStatus(opts.Status) {
		return domain.Task{}, fmt.Errorf("invalid status %q", opts.Status)
	}
	if !domain.ValidTaskSize(opts.Size) {
		return domain.Task{}, fmt.Errorf("invalid size %q: want PP, P, M, G or GG", opts.Size)
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Task{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Task{
		ID:         uuid.NewString(),
		ProjectID:  opts.ProjectID,
		Title:      opts.Title,
		PipefyLink: opts.PipefyLink,
		Status:     opts.Status,
		Size:       opts.Size,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.created", t.ProjectID, "task", t.ID, events.EventPayload{"title": t.Title, "size": string(t.Size)}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

type TaskUpdateOptions struct {
	Title      *string
	PipefyLink *string
	Status     *string
	Size       *domain.TaskSize
}

func (e Engine) UpdateTask(ctx context.Context, id string, opts TaskUpdateOptions) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if opts.Title != nil {
		if *opts.Title == "" {
			return domain.Task{}, errors.New("title is required")
		}
		t.Title = *opts.Title
	}
	if opts.PipefyLink != nil {
		t.PipefyLink = *opts.PipefyLink
	}
	if opts.Status != nil {
		if !domain.ValidTaskStatus(*opts.Status) {
			return domain.Task{}, fmt.Errorf("invalid status %q", *opts.Status)
		}
		t.Status = *opts.Status
	}
	if opts.Size != nil {
		if !domain.ValidTaskSize(*opts.Size) {
			return domain.Task{}, fmt.Errorf("invalid size %q: want PP, P, M, G or GG", *opts.Size)
		}
		t.Size = *opts.Size
	}
	// Touched on every mutation, even a no-op payload.
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.updated", t.ProjectID, "task", t.ID, events.EventPayload{"status": t.Status}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (e Engine) DeleteTask(ctx context.Context, id string) error {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteTask(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "task.deleted", t.ProjectID, "task", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

type DeliveryCreateOptions struct {
	ProjectID   string
	Name        string
	Description string
	StartDate   string
	EndDate     string
	Stage       string
	Progress    float64
}

func (e Engine) CreateDelivery(ctx context.Context, opts DeliveryCreateOptions) (domain.Delivery, error) {
	if opts.Name == "" {
		return domain.Delivery{}, errors.New("name is required")
	}
	if opts.ProjectID == "" {
		return domain.Delivery{}, errors.New("project is required")
	}
	start, err := parseDate(opts.StartDate)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("invalid start_date %q: want YYYY-MM-DD", opts.StartDate)
	}
	end, err := parseDate(opts.EndDate)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("invalid end_date %q: want YYYY-MM-DD", opts.EndDate)
	}
	if end.Before(start) {
		return domain.Delivery{}, errors.New("invalid dates: end_date before start_date")
	}
	if opts.Stage == "" {
		opts.Stage = "planning"
	}
	if !domain.ValidStage(opts.Stage) {
		return domain.Delivery{}, fmt.Errorf("invalid stage %q", opts.Stage)
	}
	if opts.Progress < 0 || opts.Progress > 100 {
		return domain.Delivery{}, errors.New("invalid progress: want [0,100]")
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Delivery{}, err
	}
	d := domain.Delivery{
		ID:          uuid.NewString(),
		ProjectID:   opts.ProjectID,
		Name:        opts.Name,
		Description: opts.Description,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		Stage:       opts.Stage,
		Progress:    opts.Progress,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Delivery{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertDelivery(ctx, tx, d); err != nil {
		return domain.Delivery{}, err
	}
	if err := e.Events.Append(ctx, tx, "delivery.created", d.ProjectID, "delivery", d.ID, events.EventPayload{"name": d.Name, "stage": d.Stage}); err != nil {
		return domain.Delivery{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Delivery{}, err
	}
	return d, nil
}

type DeliveryUpdateOptions struct {
	Name        *string
	Description *string
	StartDate   *string
	EndDate     *string
	Stage       *string
	Progress    *float64
}

func (e Engine) UpdateDelivery(ctx context.Context, id string, opts DeliveryUpdateOptions) (domain.Delivery, error) {
	d, err := e.Repo.GetDelivery(ctx, id)
	if err != nil {
		return domain.Delivery{}, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return domain.Delivery{}, errors.New("name is required")
		}
		d.Name = *opts.Name
	}
	if opts.Description != nil {
		d.Description = *opts.Description
	}
	if opts.StartDate != nil {
		d.StartDate = *opts.StartDate
	}
	if opts.EndDate != nil {
		d.EndDate = *opts.EndDate
	}
	start, err := parseDate(d.StartDate)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("invalid start_date %q: want YYYY-MM-DD", d.StartDate)
	}
	end, err := parseDate(d.EndDate)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("invalid end_date %q: want YYYY-MM-DD", d.EndDate)
	}
	if end.Before(start) {
		return domain.Delivery{}, errors.New("invalid dates: end_date before start_date")
	}
	if opts.Stage != nil {
		if !domain.ValidStage(*opts.Stage) {
			return domain.Delivery{}, fmt.Errorf("invalid stage %q", *opts.Stage)
		}
		d.Stage = *opts.Stage
	}
	if opts.Progress != nil {
		if *opts.Progress < 0 || *opts.Progress > 100 {
			return domain.Delivery{}, errors.New("invalid progress: want [0,100]")
		}
		d.Progress = *opts.Progress
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Delivery{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateDelivery(ctx, tx, d); err != nil {
		return domain.Delivery{}, err
	}
	if err := e.Events.Append(ctx, tx, "delivery.updated", d.ProjectID, "delivery", d.ID, events.EventPayload{"stage": d.Stage, "progress": d.Progress}); err != nil {
		return domain.Delivery{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Delivery{}, err
	}
	return d, nil
}

func (e Engine) DeleteDelivery(ctx context.Context, id string) error {
	d, err := e.Repo.GetDelivery(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteDelivery(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "delivery.deleted", d.ProjectID, "delivery", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// TeamConfig returns the stored team config, falling back to the
// workspace config defaults when nothing was ever saved.
func (e Engine) TeamConfig(ctx context.Context) (domain.TeamConfig, error) {
	c, err := e.Repo.GetTeamConfig(ctx)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.TeamConfig{}, err
	}
	if e.Config == nil {
		return domain.TeamConfig{}, errors.New("config not loaded")
	}
	return domain.TeamConfig{
		Developers:  e.Config.Team.Developers,
		HoursPerDay: e.Config.Team.HoursPerDay,
		WorkingDays: e.Config.Team.WorkingDays,
	}, nil
}

type TeamUpdateOptions struct {
	Developers  *int
	HoursPerDay *int
	WorkingDays *int
}

func (e Engine) UpdateTeamConfig(ctx context.Context, opts TeamUpdateOptions) (domain.TeamConfig, error) {
	c, err := e.TeamConfig(ctx)
	if err != nil {
		return domain.TeamConfig{}, err
	}
	if opts.Developers != nil {
		c.Developers = *opts.Developers
	}
	if opts.HoursPerDay != nil {
		c.HoursPerDay = *opts.HoursPerDay
	}
	if opts.WorkingDays != nil {
		c.WorkingDays = *opts.WorkingDays
	}
	if c.Developers < 0 {
		return domain.TeamConfig{}, errors.New("invalid developers: want >= 0")
	}
	if c.HoursPerDay < 1 || c.HoursPerDay > 8 {
		return domain.TeamConfig{}, errors.New("invalid hours_per_day: want [1,8]")
	}
	if c.WorkingDays < 1 || c.WorkingDays > 23 {
		return domain.TeamConfig{}, errors.New("invalid working_days: want [1,23]")
	}
	c.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TeamConfig{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpsertTeamConfig(ctx, tx, c); err != nil {
		return domain.TeamConfig{}, err
	}
	if err := e.Events.Append(ctx, tx, "team.updated", "", "team", "", events.EventPayload{
		"developers": c.Developers, "hours_per_day": c.HoursPerDay, "working_days": c.WorkingDays,
	}); err != nil {
		return domain.TeamConfig{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TeamConfig{}, err
	}
	return c, nil
}

// Dashboard is the aggregate view over the whole fleet.
type Dashboard struct {
	Projects []domain.Project
	Team     domain.TeamConfig
	Overview stats.Overview
}

func (e Engine) Dashboard(ctx context.Context) (Dashboard, error) {
	projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{})
	if err != nil {
		return Dashboard{}, err
	}
	team, err := e.TeamConfig(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	ov := stats.Compute(projects, team.TotalHoursPerMonth())
	for _, w := range ov.Warnings {
		e.log().Warn(w)
	}
	return Dashboard{Projects: projects, Team: team, Overview: ov}, nil
}

// Timeline lays out deliveries as a Gantt chart, optionally narrowed to
// a set of projects.
func (e Engine) Timeline(ctx context.Context, projectIDs []string) (gantt.Layout, error) {
	deliveries, err := e.Repo.ListDeliveries(ctx, projectIDs)
	if err != nil {
		return gantt.Layout{}, err
	}
	return gantt.Compute(deliveries), nil
}

// ProjectHours reports a single project's hour usage against team capacity.
func (e Engine) ProjectHours(ctx context.Context, projectID string) (stats.HoursSummary, error) {
	p, err := e.Repo.GetProject(ctx, projectID)
	if err != nil {
		return stats.HoursSummary{}, err
	}
	team, err := e.TeamConfig(ctx)
	if err != nil {
		return stats.HoursSummary{}, err
	}
	return stats.SummarizeHours(p, team.TotalHoursPerMonth()), nil
}

func validateHours(h *domain.Hours) error {
	if h == nil {
		return nil
	}
	if h.Sold < 0 || h.Allocated < 0 {
		return errors.New("invalid hours: sold and allocated must be >= 0")
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
