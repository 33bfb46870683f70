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

	"consite/internal/domain"
	"consite/internal/engine"
	"consite/internal/engine/auth"
	"consite/internal/mirror"
	"consite/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	Sync     *mirror.Coalescer
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"illegal_transition"`
	Message string         `json:"message" example:"invalid entry transition approved -> approved"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"entry_id\":\"…\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Consite API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the requested envelope.
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
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Consite API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMe(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	registerProjects(group, cfg.Engine)
	registerWorkLog(group, cfg.Engine, cfg.Sync)
	registerChecklist(group, cfg.Engine, cfg.Sync)
	registerSync(group, cfg.Sync)
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
	var pe auth.PermissionError
	if errors.As(err, &pe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"role": string(pe.Role), "action": pe.Action})
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"index": ve.Index, "field": ve.Field})
	}
	var te engine.IllegalTransitionError
	if errors.As(err, &te) {
		return newAPIError(http.StatusConflict, "illegal_transition", err.Error(), map[string]any{"entry_id": te.EntryID, "from": te.From, "to": te.To})
	}
	if errors.Is(err, mirror.ErrSyncBusy) {
		return newAPIError(http.StatusConflict, "sync_busy", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required") || strings.Contains(lowered, "unknown"):
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
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func scheduleFlush(sync *mirror.Coalescer) {
	if sync != nil {
		sync.ScheduleFlush()
	}
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
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Consite API Docs</title>
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
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
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

func registerMe(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Authenticated user",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		u, err := e.Repo.GetUser(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, input *struct {
		Assignable bool `query:"assignable" doc:"Only users who can take checklist items"`
	}) (*struct {
		Body UserListResponse `json:"body"`
	}, error) {
		var (
			users []domain.User
			err   error
		)
		if input.Assignable {
			users, err = e.AssignableUsers(ctx)
		} else {
			users, err = e.Repo.ListUsers(ctx)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserListResponse `json:"body"`
		}{Body: UserListResponse{Items: users}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		role, err := domain.ParseRole(input.Body.Role)
		if err != nil {
			return nil, handleError(err)
		}
		u, err := e.CreateUser(ctx, input.Body.DisplayName, role)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ProjectListResponse `json:"body"`
	}, error) {
		projects, err := e.Repo.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectListResponse `json:"body"`
		}{Body: ProjectListResponse{Items: projects}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := e.CreateProject(ctx, input.Body.Code, input.Body.Name, input.Body.StartDate, input.Body.EndDate)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := e.Repo.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-stats",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/stats",
		Summary:     "Project dashboard stats",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.ProjectStats `json:"body"`
	}, error) {
		stats, err := e.ProjectStats(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectStats `json:"body"`
		}{Body: stats}, nil
	})
}

func registerWorkLog(api huma.API, e engine.Engine, sync *mirror.Coalescer) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-entries",
		Method:        http.MethodPost,
		Path:          "/worklog/submit",
		Summary:       "Submit work-log entries",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body SubmitEntriesRequest
	}) (*struct {
		Body EntryListResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		drafts := make([]engine.EntryDraft, 0, len(input.Body.Entries))
		for _, d := range input.Body.Entries {
			drafts = append(drafts, engine.EntryDraft{
				ProjectID: d.ProjectID,
				Category:  d.Category,
				Process:   d.Process,
				Content:   d.Content,
				Ratio:     d.Ratio,
			})
		}
		entries, err := e.SubmitEntries(ctx, engine.SubmitOptions{
			WriterID: actorID,
			Date:     input.Body.Date,
			Drafts:   drafts,
		})
		if err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct {
			Body EntryListResponse `json:"body"`
		}{Body: EntryListResponse{Items: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entries",
		Method:      http.MethodGet,
		Path:        "/worklog",
		Summary:     "List work-log entries",
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
		WriterID  string `query:"writer_id"`
		Status    string `query:"status" enum:",submitted,approved,rejected"`
		Date      string `query:"date"`
		Limit     int    `query:"limit"`
	}) (*struct {
		Body EntryListResponse `json:"body"`
	}, error) {
		entries, err := e.ListEntries(ctx, repo.EntryFilters{
			ProjectID: input.ProjectID,
			WriterID:  input.WriterID,
			Status:    input.Status,
			Date:      input.Date,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntryListResponse `json:"body"`
		}{Body: EntryListResponse{Items: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pending-entries",
		Method:      http.MethodGet,
		Path:        "/worklog/pending",
		Summary:     "Pending submissions grouped by writer and date",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body PendingResponse `json:"body"`
	}, error) {
		groups, err := e.PendingGroups(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		count, err := e.CountPending(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PendingResponse `json:"body"`
		}{Body: PendingResponse{Count: count, Groups: groups}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-entries",
		Method:      http.MethodPost,
		Path:        "/worklog/approve",
		Summary:     "Approve a batch of submitted entries",
	}, func(ctx context.Context, input *struct {
		Body DecideEntriesRequest
	}) (*struct {
		Body EntryListResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		entries, err := e.ApproveEntries(ctx, input.Body.EntryIDs, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct {
			Body EntryListResponse `json:"body"`
		}{Body: EntryListResponse{Items: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-entries",
		Method:      http.MethodPost,
		Path:        "/worklog/reject",
		Summary:     "Reject a batch of submitted entries",
	}, func(ctx context.Context, input *struct {
		Body DecideEntriesRequest
	}) (*struct {
		Body EntryListResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		entries, err := e.RejectEntries(ctx, input.Body.EntryIDs, actorID, input.Body.Reason)
		if err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct {
			Body EntryListResponse `json:"body"`
		}{Body: EntryListResponse{Items: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calendar-day",
		Method:      http.MethodGet,
		Path:        "/calendar/{date}",
		Summary:     "Approved entries for a date grouped by project",
	}, func(ctx context.Context, input *struct {
		Date     string `path:"date"`
		Category string `query:"category"`
	}) (*struct {
		Body CalendarDayResponse `json:"body"`
	}, error) {
		byProject, err := e.CalendarDay(ctx, input.Date, input.Category)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CalendarDayResponse `json:"body"`
		}{Body: CalendarDayResponse{Date: input.Date, Projects: byProject}}, nil
	})
}

func registerChecklist(api huma.API, e engine.Engine, sync *mirror.Coalescer) {
	huma.Register(api, huma.Operation{
		OperationID: "list-checklist",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/checklist",
		Summary:     "List checklist items",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ChecklistListResponse `json:"body"`
	}, error) {
		items, err := e.ListChecklistItems(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ChecklistListResponse `json:"body"`
		}{Body: ChecklistListResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-checklist-item",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/checklist",
		Summary:       "Create checklist item",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Body      CreateChecklistItemRequest
	}) (*struct {
		Body domain.ChecklistItem `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		item, err := e.CreateChecklistItem(ctx, engine.ChecklistCreateOptions{
			ProjectID:     input.ProjectID,
			Title:         input.Body.Title,
			Description:   input.Body.Description,
			AttachmentRef: input.Body.AttachmentRef,
			WriterID:      actorID,
			AssigneeID:    input.Body.AssigneeID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct {
			Body domain.ChecklistItem `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-checklist-done",
		Method:      http.MethodPost,
		Path:        "/checklist/{item_id}/done",
		Summary:     "Toggle checklist completion",
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
		Body   SetChecklistDoneRequest
	}) (*struct {
		Body domain.ChecklistItem `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		item, err := e.SetChecklistDone(ctx, input.ItemID, actorID, input.Body.Done)
		if err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct {
			Body domain.ChecklistItem `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-checklist-item",
		Method:      http.MethodPost,
		Path:        "/checklist/{item_id}/confirm",
		Summary:     "Confirm checklist item",
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct {
		Body domain.ChecklistItem `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		item, err := e.ConfirmChecklistItem(ctx, input.ItemID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct {
			Body domain.ChecklistItem `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-checklist-item",
		Method:        http.MethodDelete,
		Path:          "/checklist/{item_id}",
		Summary:       "Delete checklist item",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteChecklistItem(ctx, input.ItemID, actorID); err != nil {
			return nil, handleError(err)
		}
		scheduleFlush(sync)
		return &struct{}{}, nil
	})
}

func registerSync(api huma.API, sync *mirror.Coalescer) {
	if sync == nil {
		return
	}
	huma.Register(api, huma.Operation{
		OperationID: "sync-status",
		Method:      http.MethodGet,
		Path:        "/sync",
		Summary:     "Sync state",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: map[string]any{
			"state":   sync.State().String(),
			"pulling": sync.Pulling(),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sync-push",
		Method:      http.MethodPost,
		Path:        "/sync/push",
		Summary:     "Push local state to the mirror now",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := sync.Flush(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "pushed"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sync-pull",
		Method:      http.MethodPost,
		Path:        "/sync/pull",
		Summary:     "Pull the mirror into local state",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if _, err := sync.Pull(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "pulled"}}, nil
	})
}
