package pulseboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Pulseboard HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Metric represents one weighted health metric.
type Metric struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
	Trend  string  `json:"trend"`
	Weight float64 `json:"weight"`
}

// Hours is a project's monthly hour budget.
type Hours struct {
	Sold      float64 `json:"sold"`
	Allocated float64 `json:"allocated"`
}

// Project represents the API project model.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Client      string   `json:"client"`
	StartDate   string   `json:"start_date"`
	Duration    int      `json:"duration"`
	IsNew       bool     `json:"is_new"`
	HealthScore int      `json:"health_score"`
	HealthBand  string   `json:"health_band"`
	Metrics     []Metric `json:"metrics"`
	Hours       *Hours   `json:"hours,omitempty"`
}

// ProjectCreate is the payload for creating a project.
type ProjectCreate struct {
	Name      string `json:"name"`
	Client    string `json:"client,omitempty"`
	StartDate string `json:"start_date"`
	Duration  int    `json:"duration"`
	Template  string `json:"template,omitempty"`
	Hours     *Hours `json:"hours,omitempty"`
}

// EngagementFactors are the behavioral engagement inputs.
type EngagementFactors struct {
	MeetingAttendance float64 `json:"meeting_attendance"`
	ResponseTime      float64 `json:"response_time"`
	Contributions     float64 `json:"contributions"`
	TeamFeedback      float64 `json:"team_feedback"`
}

// Task represents the API task model.
type Task struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	PipefyLink string `json:"pipefy_link,omitempty"`
	Status     string `json:"status"`
	Size       string `json:"size"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req ProjectCreate) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "v0/projects", req, &resp)
	return resp, err
}

// Projects lists projects, optionally filtered by a name/client query.
func (c *Client) Projects(ctx context.Context, query string) ([]Project, error) {
	endpoint := "v0/projects"
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	var resp []Project
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Project fetches a project by id.
func (c *Client) Project(ctx context.Context, id string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, "v0/projects/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v0/projects/"+url.PathEscape(id), nil, nil)
}

// SetEngagement submits engagement factors and returns the updated project.
func (c *Client) SetEngagement(ctx context.Context, projectID string, f EngagementFactors) (Project, error) {
	var resp Project
	endpoint := fmt.Sprintf("v0/projects/%s/engagement", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPut, endpoint, f, &resp)
	return resp, err
}

// CreateTask creates a task in a project.
func (c *Client) CreateTask(ctx context.Context, projectID, title, size string) (Task, error) {
	body := map[string]any{
		"title": title,
		"size":  size,
	}
	var resp Task
	endpoint := fmt.Sprintf("v0/projects/%s/tasks", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Tasks lists tasks, optionally filtered by project and status.
func (c *Client) Tasks(ctx context.Context, projectID, status string) ([]Task, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	if status != "" {
		q.Set("status", status)
	}
	endpoint := "v0/tasks"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Task
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, limit int, projectID string) ([]Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	endpoint := "v0/events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
