package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"

	"pulseboard/internal/config"
	"pulseboard/internal/db"
	"pulseboard/internal/domain"
	"pulseboard/internal/engine"
	"pulseboard/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func createProject(t *testing.T, srv *testServer, body map[string]any) ProjectResponse {
	t.Helper()
	if body == nil {
		body = map[string]any{}
	}
	if body["name"] == nil {
		body["name"] = "Acme Portal"
	}
	if body["start_date"] == nil {
		body["start_date"] = "2024-01-15"
	}
	if body["duration"] == nil {
		body["duration"] = 6
	}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/projects", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project status %d: %s", res.StatusCode, string(data))
	}
	var p ProjectResponse
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	return p
}

func TestProjectCRUD(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	p := createProject(t, srv, nil)
	if p.ID == "" || !p.IsNew {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.HealthScore != 86 || p.HealthBand != "excellent" {
		t.Fatalf("health = %d/%s, want 86/excellent", p.HealthScore, p.HealthBand)
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/"+p.ID, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/tasks", map[string]any{
		"title": "kickoff", "size": "P",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/projects/"+p.ID, map[string]any{
		"client": "Acme Corp",
		"hours":  map[string]any{"sold": 120, "allocated": 90},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d: %s", res.StatusCode, string(data))
	}
	var updated ProjectResponse
	_ = json.Unmarshal(data, &updated)
	if updated.Client != "Acme Corp" || updated.Hours == nil || updated.Hours.Sold != 120 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	// PATCH responses carry the same representation as GET.
	if len(updated.Tasks) != 1 || updated.Tasks[0].Title != "kickoff" {
		t.Fatalf("patch response tasks: %+v", updated.Tasks)
	}

	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/v0/projects/"+p.ID, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/"+p.ID, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.StatusCode)
	}
}

func TestProjectSearch(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	createProject(t, srv, map[string]any{"name": "Checkout Revamp", "client": "Acme"})
	createProject(t, srv, map[string]any{"name": "Mobile App", "client": "Globex"})

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects?q=globex", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("search status %d: %s", res.StatusCode, string(data))
	}
	var items []ProjectResponse
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Mobile App" {
		t.Fatalf("search results: %+v", items)
	}
}

func TestEngagementEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	p := createProject(t, srv, map[string]any{"template": "classic"})
	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v0/projects/"+p.ID+"/engagement", map[string]any{
		"meeting_attendance": 100,
		"response_time":      1,
		"contributions":      10,
		"team_feedback":      100,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set engagement status %d: %s", res.StatusCode, string(data))
	}
	var updated ProjectResponse
	_ = json.Unmarshal(data, &updated)
	if updated.HealthScore != 88 {
		t.Fatalf("health after engagement = %d, want 88", updated.HealthScore)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/"+p.ID+"/engagement", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get engagement status %d: %s", res.StatusCode, string(data))
	}
	var f domain.EngagementFactors
	_ = json.Unmarshal(data, &f)
	if f.Contributions != 10 {
		t.Fatalf("factors roundtrip: %+v", f)
	}

	// delivery template has no engagement metric
	other := createProject(t, srv, map[string]any{"name": "Other"})
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v0/projects/"+other.ID+"/engagement", map[string]any{
		"meeting_attendance": 80,
		"response_time":      4,
		"contributions":      5,
		"team_feedback":      70,
	})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(data))
	}
}

func TestTaskEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	p := createProject(t, srv, nil)
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/tasks", map[string]any{
		"title": "Ship login",
		"size":  "M",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}
	var task domain.Task
	_ = json.Unmarshal(data, &task)
	if task.Status != "pending" {
		t.Fatalf("task status %q, want pending", task.Status)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/tasks/"+task.ID, map[string]any{
		"status": "completed",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update task status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/tasks?project_id="+p.ID+"&status=completed", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list tasks status %d: %s", res.StatusCode, string(data))
	}
	var tasks []domain.Task
	_ = json.Unmarshal(data, &tasks)
	if len(tasks) != 1 {
		t.Fatalf("completed tasks = %d, want 1", len(tasks))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/tasks", map[string]any{
		"title": "Bad size",
		"size":  "XL",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad size, got %d: %s", res.StatusCode, string(data))
	}

	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/v0/tasks/"+task.ID, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete task status %d", res.StatusCode)
	}
}

func TestDeliveryAndTimelineEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	p := createProject(t, srv, nil)
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/deliveries", map[string]any{
		"project_id": p.ID,
		"name":       "MVP",
		"start_date": "2024-02-01",
		"end_date":   "2024-03-15",
		"stage":      "development",
		"progress":   25,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create delivery status %d: %s", res.StatusCode, string(data))
	}
	var d domain.Delivery
	_ = json.Unmarshal(data, &d)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/timeline", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("timeline status %d: %s", res.StatusCode, string(data))
	}
	var tl TimelineResponse
	if err := json.Unmarshal(data, &tl); err != nil {
		t.Fatal(err)
	}
	if len(tl.Lanes) != 1 || tl.Lanes[0].ProjectID != p.ID {
		t.Fatalf("timeline lanes: %+v", tl.Lanes)
	}
	// window expands one month either side
	if tl.Start != "2024-01-01" || tl.End != "2024-04-15" {
		t.Fatalf("window = %s..%s", tl.Start, tl.End)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/deliveries", map[string]any{
		"project_id": p.ID,
		"name":       "Backwards",
		"start_date": "2024-03-01",
		"end_date":   "2024-02-01",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed dates, got %d: %s", res.StatusCode, string(data))
	}
}

func TestDashboardAndTeamEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	createProject(t, srv, map[string]any{"name": "Alpha", "hours": map[string]any{"sold": 200, "allocated": 150}})
	createProject(t, srv, map[string]any{"name": "Beta", "hours": map[string]any{"sold": 100, "allocated": 150}})

	res, data := doJSON(t, client, http.MethodPatch, srv.URL+"/v0/team", map[string]any{"developers": 5})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch team status %d: %s", res.StatusCode, string(data))
	}
	var team TeamResponse
	_ = json.Unmarshal(data, &team)
	if team.TotalHoursPerMonth != 600 {
		t.Fatalf("team hours = %v, want 600", team.TotalHoursPerMonth)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/dashboard", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status %d: %s", res.StatusCode, string(data))
	}
	var dash DashboardResponse
	if err := json.Unmarshal(data, &dash); err != nil {
		t.Fatal(err)
	}
	if dash.Overview.ProjectCount != 2 || dash.Overview.HoursUtilization != 50 {
		t.Fatalf("overview: %+v", dash.Overview)
	}
	if len(dash.Projects) != 2 {
		t.Fatalf("projects = %d", len(dash.Projects))
	}
}

func TestEventsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	p := createProject(t, srv, nil)
	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/events?project_id="+p.ID, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, string(data))
	}
	var events []domain.Event
	_ = json.Unmarshal(data, &events)
	if len(events) == 0 || events[0].Type != "project.created" {
		t.Fatalf("events: %+v", events)
	}
	cursor := events[0].ID

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/tasks", map[string]any{
		"title": "audited", "size": "M",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}

	// The type filter applies on the cursor path too.
	url := fmt.Sprintf("%s/v0/events?after=%d&type=task.created", srv.URL, cursor)
	res, data = doJSON(t, client, http.MethodGet, url, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events after status %d: %s", res.StatusCode, string(data))
	}
	var after []domain.Event
	_ = json.Unmarshal(data, &after)
	if len(after) != 1 || after[0].Type != "task.created" {
		t.Fatalf("filtered cursor events: %+v", after)
	}

	url = fmt.Sprintf("%s/v0/events?after=%d&type=project.created", srv.URL, cursor)
	res, data = doJSON(t, client, http.MethodGet, url, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events after status %d: %s", res.StatusCode, string(data))
	}
	var none []domain.Event
	_ = json.Unmarshal(data, &none)
	if len(none) != 0 {
		t.Fatalf("expected no project.created events past the cursor, got %+v", none)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var body map[string]string
	_ = json.Unmarshal(data, &body)
	if body["status"] != "ok" {
		t.Fatalf("health body: %s", string(data))
	}
}
