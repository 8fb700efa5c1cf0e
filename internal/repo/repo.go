package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pulseboard/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const projectCols = `id,name,client,start_date,duration_months,is_new,health_score,hours_sold,hours_allocated,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var sold, allocated sql.NullFloat64
	err := row.Scan(&p.ID, &p.Name, &p.Client, &p.StartDate, &p.Duration, &p.IsNew, &p.HealthScore, &sold, &allocated, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if sold.Valid || allocated.Valid {
		p.Hours = &domain.Hours{Sold: sold.Float64, Allocated: allocated.Float64}
	}
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects(`+projectCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Client, p.StartDate, p.Duration, p.IsNew, p.HealthScore, hoursSold(p.Hours), hoursAllocated(p.Hours), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	return r.replaceMetrics(ctx, tx, p.ID, p.Metrics)
}

func (r Repo) UpdateProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET name=?, client=?, start_date=?, duration_months=?, is_new=?, health_score=?, hours_sold=?, hours_allocated=?, updated_at=? WHERE id=?`,
		p.Name, p.Client, p.StartDate, p.Duration, p.IsNew, p.HealthScore, hoursSold(p.Hours), hoursAllocated(p.Hours), p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return r.replaceMetrics(ctx, tx, p.ID, p.Metrics)
}

// replaceMetrics rewrites the metric rows for a project. Position keeps
// the caller's ordering stable across reads.
func (r Repo) replaceMetrics(ctx context.Context, tx *sql.Tx, projectID string, metrics []domain.Metric) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM metrics WHERE project_id=?`, projectID); err != nil {
		return err
	}
	for i, m := range metrics {
		if _, err := tx.ExecContext(ctx, `INSERT INTO metrics(project_id,id,name,value,target,trend,weight,position) VALUES (?,?,?,?,?,?,?,?)`,
			projectID, m.ID, m.Name, m.Value, m.Target, m.Trend, m.Weight, i); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectCols+` FROM projects WHERE id=?`, id))
	if err != nil {
		return p, err
	}
	if p.Metrics, err = r.listMetrics(ctx, id); err != nil {
		return p, err
	}
	if p.Tasks, err = r.ListTasks(ctx, TaskFilters{ProjectID: id}); err != nil {
		return p, err
	}
	return p, nil
}

// GetProjectTx reads a project inside tx with the same shape GetProject
// returns, metrics and tasks included.
func (r Repo) GetProjectTx(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	p, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectCols+` FROM projects WHERE id=?`, id))
	if err != nil {
		return p, err
	}
	rows, err := tx.QueryContext(ctx, `SELECT id,name,value,target,trend,weight FROM metrics WHERE project_id=? ORDER BY position`, id)
	if err != nil {
		return p, err
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.Metric
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Target, &m.Trend, &m.Weight); err != nil {
			return p, err
		}
		p.Metrics = append(p.Metrics, m)
	}
	if err := rows.Err(); err != nil {
		return p, err
	}
	taskRows, err := tx.QueryContext(ctx, `SELECT id,project_id,title,pipefy_link,status,size,created_at,updated_at FROM tasks WHERE project_id=? ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return p, err
	}
	defer taskRows.Close()
	for taskRows.Next() {
		var t domain.Task
		if err := taskRows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.PipefyLink, &t.Status, &t.Size, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return p, err
		}
		p.Tasks = append(p.Tasks, t)
	}
	return p, taskRows.Err()
}

func (r Repo) listMetrics(ctx context.Context, projectID string) ([]domain.Metric, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,value,target,trend,weight FROM metrics WHERE project_id=? ORDER BY position`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Metric
	for rows.Next() {
		var m domain.Metric
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Target, &m.Trend, &m.Weight); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

type ProjectFilters struct {
	Query string
}

// ListProjects returns fleet projects with metrics in creation order.
// Timestamps only carry second precision, so rowid is the ordering key.
// Query matches name or client, case-insensitive.
func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	query := `SELECT ` + projectCols + ` FROM projects`
	var args []any
	if f.Query != "" {
		query += ` WHERE lower(name) LIKE ? OR lower(client) LIKE ?`
		pat := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, pat, pat)
	}
	query += ` ORDER BY rowid ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].Metrics, err = r.listMetrics(ctx, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r Repo) DeleteProject(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpsertEngagementFactors(ctx context.Context, tx *sql.Tx, projectID string, f domain.EngagementFactors, updatedAt string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO engagement_factors(project_id,meeting_attendance,response_time_hours,contributions,team_feedback,updated_at) VALUES (?,?,?,?,?,?)
ON CONFLICT(project_id) DO UPDATE SET meeting_attendance=excluded.meeting_attendance, response_time_hours=excluded.response_time_hours, contributions=excluded.contributions, team_feedback=excluded.team_feedback, updated_at=excluded.updated_at`,
		projectID, f.MeetingAttendance, f.ResponseTime, f.Contributions, f.TeamFeedback, updatedAt)
	return err
}

func (r Repo) GetEngagementFactors(ctx context.Context, projectID string) (domain.EngagementFactors, error) {
	var f domain.EngagementFactors
	err := r.DB.QueryRowContext(ctx, `SELECT meeting_attendance,response_time_hours,contributions,team_feedback FROM engagement_factors WHERE project_id=?`, projectID).
		Scan(&f.MeetingAttendance, &f.ResponseTime, &f.Contributions, &f.TeamFeedback)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(id,project_id,title,pipefy_link,status,size,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, t.Title, t.PipefyLink, t.Status, t.Size, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET title=?, pipefy_link=?, status=?, size=?, updated_at=? WHERE id=?`,
		t.Title, t.PipefyLink, t.Status, t.Size, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	var t domain.Task
	err := r.DB.QueryRowContext(ctx, `SELECT id,project_id,title,pipefy_link,status,size,created_at,updated_at FROM tasks WHERE id=?`, id).
		Scan(&t.ID, &t.ProjectID, &t.Title, &t.PipefyLink, &t.Status, &t.Size, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

type TaskFilters struct {
	ProjectID string
	Status    string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT id,project_id,title,pipefy_link,status,size,created_at,updated_at FROM tasks ` + where + ` ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.PipefyLink, &t.Status, &t.Size, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) InsertDelivery(ctx context.Context, tx *sql.Tx, d domain.Delivery) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO deliveries(id,project_id,name,description,start_date,end_date,stage,progress,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		d.ID, d.ProjectID, d.Name, d.Description, d.StartDate, d.EndDate, d.Stage, d.Progress, d.CreatedAt)
	return err
}

func (r Repo) UpdateDelivery(ctx context.Context, tx *sql.Tx, d domain.Delivery) error {
	res, err := tx.ExecContext(ctx, `UPDATE deliveries SET name=?, description=?, start_date=?, end_date=?, stage=?, progress=? WHERE id=?`,
		d.Name, d.Description, d.StartDate, d.EndDate, d.Stage, d.Progress, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteDelivery(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM deliveries WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetDelivery(ctx context.Context, id string) (domain.Delivery, error) {
	var d domain.Delivery
	err := r.DB.QueryRowContext(ctx, `SELECT id,project_id,name,description,start_date,end_date,stage,progress,created_at FROM deliveries WHERE id=?`, id).
		Scan(&d.ID, &d.ProjectID, &d.Name, &d.Description, &d.StartDate, &d.EndDate, &d.Stage, &d.Progress, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

// ListDeliveries returns deliveries grouped by project insertion order
// so the timeline discovers lanes deterministically; created_at has only
// second precision, so project rowid breaks the inevitable ties. Bars
// within a project are chronological. ProjectIDs narrows the result;
// empty means all.
func (r Repo) ListDeliveries(ctx context.Context, projectIDs []string) ([]domain.Delivery, error) {
	query := `SELECT d.id,d.project_id,d.name,d.description,d.start_date,d.end_date,d.stage,d.progress,d.created_at
FROM deliveries d JOIN projects p ON p.id=d.project_id`
	var args []any
	if len(projectIDs) > 0 {
		query += ` WHERE d.project_id IN (?` + strings.Repeat(",?", len(projectIDs)-1) + `)`
		for _, id := range projectIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY p.rowid ASC, d.start_date ASC, d.rowid ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Name, &d.Description, &d.StartDate, &d.EndDate, &d.Stage, &d.Progress, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// GetTeamConfig returns the singleton team config row, or ErrNotFound
// when it was never seeded.
func (r Repo) GetTeamConfig(ctx context.Context) (domain.TeamConfig, error) {
	var c domain.TeamConfig
	err := r.DB.QueryRowContext(ctx, `SELECT developers,hours_per_day,working_days,updated_at FROM team_config WHERE id=1`).
		Scan(&c.Developers, &c.HoursPerDay, &c.WorkingDays, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) UpsertTeamConfig(ctx context.Context, tx *sql.Tx, c domain.TeamConfig) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO team_config(id,developers,hours_per_day,working_days,updated_at) VALUES (1,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET developers=excluded.developers, hours_per_day=excluded.hours_per_day, working_days=excluded.working_days, updated_at=excluded.updated_at`,
		c.Developers, c.HoursPerDay, c.WorkingDays, c.UpdatedAt)
	return err
}

// LatestEvents returns events newest first, optionally filtered.
func (r Repo) LatestEvents(ctx context.Context, limit int, projectID, evtType string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if projectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, projectID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,project_id,entity_kind,entity_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var projID, entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &projID, &e.EntityKind, &entityID, &e.Payload); err != nil {
			return nil, err
		}
		if projID.Valid {
			e.ProjectID = projID.String
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventsAfter returns events with IDs greater than the cursor in
// ascending order, honoring the same filters as LatestEvents.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, projectID, evtType string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	clauses := []string{"1=1"}
	var args []any
	if projectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, projectID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if cursor > 0 {
		clauses = append(clauses, "id>?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,project_id,entity_kind,entity_id,payload_json FROM events %s ORDER BY id ASC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var projID, entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &projID, &e.EntityKind, &entityID, &e.Payload); err != nil {
			return nil, err
		}
		if projID.Valid {
			e.ProjectID = projID.String
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func hoursSold(h *domain.Hours) any {
	if h == nil {
		return nil
	}
	return h.Sold
}

func hoursAllocated(h *domain.Hours) any {
	if h == nil {
		return nil
	}
	return h.Allocated
}
