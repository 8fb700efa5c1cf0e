package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"pulseboard/internal/domain"
	"pulseboard/internal/engine"
	"pulseboard/internal/repo"
	"pulseboard/internal/score"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"project not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Pulseboard API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	hcfg := huma.DefaultConfig("Pulseboard API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerProjects(group, cfg.Engine)
	registerEngagement(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerDeliveries(group, cfg.Engine)
	registerTimeline(group, cfg.Engine)
	registerDashboard(group, cfg.Engine)
	registerTeam(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, engine.ErrNoEngagementMetric) {
		return newAPIError(http.StatusUnprocessableEntity, "no_engagement_metric", err.Error(), nil)
	}
	if errors.Is(err, score.ErrInvalidMetricWeights) {
		return newAPIError(http.StatusUnprocessableEntity, "invalid_metric_weights", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required") || strings.Contains(lowered, "duplicate"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Pulseboard API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		p, err := e.CreateProject(ctx, engine.ProjectCreateOptions{
			Name:      input.Body.Name,
			Client:    input.Body.Client,
			StartDate: input.Body.StartDate,
			Duration:  input.Body.Duration,
			Template:  input.Body.Template,
			Metrics:   metricInputs(input.Body.Metrics),
			Hours:     hoursInput(input.Body.Hours),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, input *struct {
		Query string `query:"q" doc:"Filter by name or client, case-insensitive"`
	}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{Query: input.Query})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := e.Repo.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		opts := engine.ProjectUpdateOptions{
			Name:      input.Body.Name,
			Client:    input.Body.Client,
			StartDate: input.Body.StartDate,
			Duration:  input.Body.Duration,
			IsNew:     input.Body.IsNew,
		}
		if input.Body.Metrics != nil {
			opts.Metrics = metricInputs(*input.Body.Metrics)
			opts.MetricsSet = true
		}
		if input.Body.Hours != nil {
			opts.Hours = hoursInput(input.Body.Hours)
			opts.HoursSet = true
		}
		p, err := e.UpdateProject(ctx, input.ProjectID, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{project_id}",
		Summary:       "Delete project",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		if err := e.DeleteProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project-hours",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/hours",
		Summary:     "Project hour utilization",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body HoursSummaryResponse `json:"body"`
	}, error) {
		h, err := e.ProjectHours(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HoursSummaryResponse `json:"body"`
		}{Body: HoursSummaryResponse{HoursSummary: h}}, nil
	})
}

func registerEngagement(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "set-engagement",
		Method:      http.MethodPut,
		Path:        "/projects/{project_id}/engagement",
		Summary:     "Set engagement factors",
		Description: "Stores the behavioral factors, recomputes the engagement metric and the health score.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string            `path:"project_id"`
		Body      EngagementRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		p, err := e.SetEngagementFactors(ctx, input.ProjectID, domain.EngagementFactors{
			MeetingAttendance: input.Body.MeetingAttendance,
			ResponseTime:      input.Body.ResponseTime,
			Contributions:     input.Body.Contributions,
			TeamFeedback:      input.Body.TeamFeedback,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-engagement",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/engagement",
		Summary:     "Get engagement factors",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.EngagementFactors `json:"body"`
	}, error) {
		if _, err := e.Repo.GetProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		f, err := e.Repo.GetEngagementFactors(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.EngagementFactors `json:"body"`
		}{Body: f}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string            `path:"project_id"`
		Body      CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			ProjectID:  input.ProjectID,
			Title:      input.Body.Title,
			PipefyLink: input.Body.PipefyLink,
			Status:     input.Body.Status,
			Size:       domain.TaskSize(input.Body.Size),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
		Status    string `query:"status" enum:"pending,in_progress,completed"`
	}) (*struct {
		Body []domain.Task `json:"body"`
	}, error) {
		items, err := e.Repo.ListTasks(ctx, repo.TaskFilters{ProjectID: input.ProjectID, Status: input.Status})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Task `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		opts := engine.TaskUpdateOptions{
			Title:      input.Body.Title,
			PipefyLink: input.Body.PipefyLink,
			Status:     input.Body.Status,
		}
		if input.Body.Size != nil {
			size := domain.TaskSize(*input.Body.Size)
			opts.Size = &size
		}
		t, err := e.UpdateTask(ctx, input.TaskID, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{task_id}",
		Summary:       "Delete task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		if err := e.DeleteTask(ctx, input.TaskID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerDeliveries(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-delivery",
		Method:        http.MethodPost,
		Path:          "/deliveries",
		Summary:       "Create delivery",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateDeliveryRequest `json:"body"`
	}) (*struct {
		Body domain.Delivery `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		d, err := e.CreateDelivery(ctx, engine.DeliveryCreateOptions{
			ProjectID:   input.Body.ProjectID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			StartDate:   input.Body.StartDate,
			EndDate:     input.Body.EndDate,
			Stage:       input.Body.Stage,
			Progress:    input.Body.Progress,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Delivery `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-deliveries",
		Method:      http.MethodGet,
		Path:        "/deliveries",
		Summary:     "List deliveries",
	}, func(ctx context.Context, input *struct {
		ProjectIDs []string `query:"project_ids" doc:"Narrow to these projects"`
	}) (*struct {
		Body []domain.Delivery `json:"body"`
	}, error) {
		items, err := e.Repo.ListDeliveries(ctx, input.ProjectIDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Delivery `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-delivery",
		Method:      http.MethodPatch,
		Path:        "/deliveries/{delivery_id}",
		Summary:     "Update delivery",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		DeliveryID string                `path:"delivery_id"`
		Body       UpdateDeliveryRequest `json:"body"`
	}) (*struct {
		Body domain.Delivery `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		d, err := e.UpdateDelivery(ctx, input.DeliveryID, engine.DeliveryUpdateOptions{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			StartDate:   input.Body.StartDate,
			EndDate:     input.Body.EndDate,
			Stage:       input.Body.Stage,
			Progress:    input.Body.Progress,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Delivery `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-delivery",
		Method:        http.MethodDelete,
		Path:          "/deliveries/{delivery_id}",
		Summary:       "Delete delivery",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DeliveryID string `path:"delivery_id"`
	}) (*struct{}, error) {
		if err := e.DeleteDelivery(ctx, input.DeliveryID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerTimeline(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "timeline",
		Method:      http.MethodGet,
		Path:        "/timeline",
		Summary:     "Delivery timeline",
		Description: "Gantt layout over all deliveries: one lane per project, bar positions as percentages of the window.",
	}, func(ctx context.Context, input *struct {
		ProjectIDs []string `query:"project_ids"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		layout, err := e.Timeline(ctx, input.ProjectIDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: timelineResponse(layout)}, nil
	})
}

func registerDashboard(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Dashboard overview",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DashboardResponse `json:"body"`
	}, error) {
		dash, err := e.Dashboard(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DashboardResponse `json:"body"`
		}{Body: DashboardResponse{
			Overview: dash.Overview,
			Team:     teamResponse(dash.Team),
			Projects: mapProjects(dash.Projects),
		}}, nil
	})
}

func registerTeam(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-team",
		Method:      http.MethodGet,
		Path:        "/team",
		Summary:     "Get team config",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TeamResponse `json:"body"`
	}, error) {
		c, err := e.TeamConfig(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TeamResponse `json:"body"`
		}{Body: teamResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-team",
		Method:      http.MethodPatch,
		Path:        "/team",
		Summary:     "Update team config",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body UpdateTeamRequest `json:"body"`
	}) (*struct {
		Body TeamResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		c, err := e.UpdateTeamConfig(ctx, engine.TeamUpdateOptions{
			Developers:  input.Body.Developers,
			HoursPerDay: input.Body.HoursPerDay,
			WorkingDays: input.Body.WorkingDays,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TeamResponse `json:"body"`
		}{Body: teamResponse(c)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
		Type      string `query:"type"`
		Limit     int    `query:"limit"`
		After     int64  `query:"after" doc:"Return events with IDs greater than this cursor, oldest first"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		var items []domain.Event
		var err error
		if input.After > 0 {
			items, err = e.Repo.EventsAfter(ctx, input.Limit, input.After, input.ProjectID, input.Type)
		} else {
			items, err = e.Repo.LatestEvents(ctx, input.Limit, input.ProjectID, input.Type)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}
