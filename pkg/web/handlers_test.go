package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/metrics"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence/file"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/services"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/templates"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/uistate"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	app, _ := setupTestAppWithMetrics(t)

	return app
}

func setupTestAppWithMetrics(t *testing.T) (*fiber.App, *metrics.Metrics) {
	t.Helper()

	tempDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)
	persistence := file.NewPersistence(tempDir)

	catalog, err := templates.Builtin()
	require.NoError(t, err)

	m := metrics.New()
	workflowService := services.NewWorkflow(persistence, logger, services.WithTemplates(catalog), services.WithMetrics(m))
	runService := services.NewRun(persistence, logger, services.WithMetrics(m))
	uiState := uistate.NewManager(uistate.NewFileStore(tempDir), logger)

	handlers := web.NewAPIHandlers(logger, workflowService, runService, catalog, uiState, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Use(web.RequestMetrics(m))
	handlers.Routes(app)

	return app, m
}

func doRequest(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	switch p := payload.(type) {
	case nil:
	case string:
		reader = strings.NewReader(p)
	default:
		data, err := json.Marshal(p)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var value T

	require.NoError(t, json.Unmarshal(body, &value), string(body))

	return value
}

func createWorkflow(t *testing.T, app *fiber.App, payload any) models.Workflow {
	t.Helper()

	resp, body := doRequest(t, app, http.MethodPost, "/workflows", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	return decode[models.Workflow](t, body)
}

func assertProblem(t *testing.T, resp *http.Response, body []byte, status int, problemType string) {
	t.Helper()

	assert.Equal(t, status, resp.StatusCode, string(body))
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	problem := decode[map[string]any](t, body)
	assert.Equal(t, problemType, problem["type"])
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name:           "successful creation",
			requestBody:    map[string]any{"name": "My Assistant", "description": "helps"},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				workflow := decode[models.Workflow](t, body)
				assert.Equal(t, "My Assistant", workflow.Name)
				assert.Equal(t, "my-assistant", workflow.Slug)
				assert.Equal(t, "helps", workflow.Description)
				assert.Equal(t, 1, workflow.Version)
				assert.NotEmpty(t, workflow.ID)
			},
		},
		{
			name:           "empty body uses default name",
			requestBody:    nil,
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				workflow := decode[models.Workflow](t, body)
				assert.Equal(t, models.DefaultWorkflowName, workflow.Name)
				assert.Equal(t, "untitled-workflow", workflow.Slug)
			},
		},
		{
			name:           "nodes must be an array",
			requestBody:    `{"name":"Broken","graph":{"nodes":"nope"}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			requestBody:    `{"name":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "node without id",
			requestBody:    map[string]any{"name": "Broken", "graph": map[string]any{"nodes": []any{map[string]any{"type": "log"}}}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "name too long",
			requestBody:    map[string]any{"name": strings.Repeat("x", 201)},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			resp, body := doRequest(t, app, http.MethodPost, "/workflows", tt.requestBody)

			if tt.expectedStatus == http.StatusBadRequest {
				assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")

				return
			}

			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(body))

			if tt.validateResult != nil {
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_CreateWorkflowFromTemplate(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflow(t, app, map[string]any{"name": "Onboarding", "template_id": "client-onboarding"})

	resp, body := doRequest(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	details := decode[services.WorkflowDetails](t, body)
	require.NotNil(t, details.Version)
	assert.Len(t, details.Version.Graph.Nodes, 3)
	assert.Len(t, details.Version.Graph.Edges, 2)
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflow(t, app, map[string]any{"name": "Fetched"})

	resp, body := doRequest(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	details := decode[map[string]any](t, body)
	assert.Contains(t, details, "workflow")
	assert.Contains(t, details, "version")

	graph := details["version"].(map[string]any)["graph"].(map[string]any)
	assert.Equal(t, []any{}, graph["nodes"])
	assert.Equal(t, []any{}, graph["edges"])

	resp, body = doRequest(t, app, http.MethodGet, "/workflows/missing", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "workflow_not_found")
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Workflow](t, body))

	createWorkflow(t, app, map[string]any{"name": "One"})
	createWorkflow(t, app, map[string]any{"name": "Two"})

	resp, body = doRequest(t, app, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Workflow](t, body), 2)

	resp, body = doRequest(t, app, http.MethodGet, "/workflows?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Workflow](t, body), 1)

	resp, body = doRequest(t, app, http.MethodGet, "/workflows?limit=abc", nil)
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflow(t, app, map[string]any{"name": "Before"})

	resp, body := doRequest(t, app, http.MethodPatch, "/workflows/"+workflow.ID, map[string]any{"name": "After", "description": "renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	updated := decode[models.Workflow](t, body)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "renamed", updated.Description)
	assert.Equal(t, "before", updated.Slug)
	assert.Equal(t, 1, updated.Version)

	resp, body = doRequest(t, app, http.MethodPatch, "/workflows/"+workflow.ID, `{"name": 42}`)
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")

	resp, body = doRequest(t, app, http.MethodPatch, "/workflows/missing", map[string]any{"name": "x"})
	assertProblem(t, resp, body, http.StatusNotFound, "workflow_not_found")
}

func TestAPIHandlers_Versions(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflow(t, app, map[string]any{"name": "Versioned"})
	versionsPath := "/workflows/" + workflow.ID + "/versions"

	graph := map[string]any{
		"nodes": []any{
			map[string]any{"id": "a", "type": "trigger.manual", "label": "Start", "position": map[string]any{"x": 0, "y": 0}, "config": map[string]any{}},
		},
		"edges": []any{
			map[string]any{"source": "a", "target": "ghost"},
		},
	}

	resp, body := doRequest(t, app, http.MethodPost, versionsPath, map[string]any{"graph": graph, "note": "dangling"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	appended := decode[web.AppendVersionResponse](t, body)
	assert.Equal(t, 2, appended.Version.Version)
	assert.Equal(t, "dangling", appended.Version.Note)
	assert.Equal(t, "e-a-ghost", appended.Version.Graph.Edges[0].ID)
	assert.Len(t, appended.Warnings, 1)

	resp, body = doRequest(t, app, http.MethodGet, versionsPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	summaries := decode[[]models.VersionSummary](t, body)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].Version)
	assert.Equal(t, 1, summaries[1].Version)

	resp, body = doRequest(t, app, http.MethodGet, versionsPath+"/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Start", decode[models.Version](t, body).Graph.Nodes[0].Label)

	resp, body = doRequest(t, app, http.MethodGet, versionsPath+"/abc", nil)
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")

	resp, body = doRequest(t, app, http.MethodGet, versionsPath+"/9", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "version_not_found")

	resp, body = doRequest(t, app, http.MethodPost, versionsPath, map[string]any{"note": "no graph"})
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")

	resp, body = doRequest(t, app, http.MethodPost, versionsPath, map[string]any{"graph": map[string]any{"edges": []any{map[string]any{"target": "b"}}}})
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")

	resp, body = doRequest(t, app, http.MethodPost, "/workflows/missing/versions", map[string]any{"graph": graph})
	assertProblem(t, resp, body, http.StatusNotFound, "workflow_not_found")

	resp, body = doRequest(t, app, http.MethodGet, "/workflows/missing/versions", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "workflow_not_found")
}

func TestAPIHandlers_Runs(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflow(t, app, map[string]any{"name": "Runnable"})
	runsPath := "/workflows/" + workflow.ID + "/runs"

	resp, body := doRequest(t, app, http.MethodPost, runsPath, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	run := decode[web.RunResponse](t, body)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, models.ExecutionStatusSucceeded, run.Status)
	require.NotNil(t, run.DurationMs)
	assert.GreaterOrEqual(t, *run.DurationMs, int64(0))
	assert.Equal(t, 1, run.Version)

	resp, body = doRequest(t, app, http.MethodGet, "/runs/"+run.RunID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, run.RunID, decode[web.RunResponse](t, body).RunID)

	resp, body = doRequest(t, app, http.MethodGet, runsPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]web.RunResponse](t, body), 1)

	resp, body = doRequest(t, app, http.MethodPost, "/workflows/missing/runs", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "workflow_not_found")

	resp, body = doRequest(t, app, http.MethodGet, "/workflows/missing/runs", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "workflow_not_found")

	resp, body = doRequest(t, app, http.MethodGet, "/runs/missing", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "execution_not_found")
}

func TestAPIHandlers_Templates(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	summaries := decode[[]models.TemplateSummary](t, body)
	require.Len(t, summaries, 3)
	assert.Equal(t, "client-onboarding", summaries[0].ID)

	resp, body = doRequest(t, app, http.MethodGet, "/templates/expense-approval", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[models.Template](t, body).Graph.Nodes, 3)

	resp, body = doRequest(t, app, http.MethodGet, "/templates/nope", nil)
	assertProblem(t, resp, body, http.StatusNotFound, "template_not_found")
}

func TestAPIHandlers_UIState(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/ui-state/session-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decode[models.UIState](t, body)
	assert.True(t, state.SidebarOpen)
	assert.Equal(t, models.ThemeSystem, state.Theme)

	resp, body = doRequest(t, app, http.MethodPut, "/ui-state/session-1", map[string]any{
		"sidebar_open":    false,
		"theme":           "dark",
		"expanded_groups": []string{"workflows"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doRequest(t, app, http.MethodGet, "/ui-state/session-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state = decode[models.UIState](t, body)
	assert.False(t, state.SidebarOpen)
	assert.Equal(t, models.ThemeDark, state.Theme)
	assert.Equal(t, []string{"workflows"}, state.ExpandedGroups)

	resp, body = doRequest(t, app, http.MethodPut, "/ui-state/session-1", map[string]any{"theme": "neon"})
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")

	resp, body = doRequest(t, app, http.MethodGet, "/ui-state/bad.session", nil)
	assertProblem(t, resp, body, http.StatusBadRequest, "validation_error")
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
}

func TestRequestMetrics(t *testing.T) {
	t.Parallel()

	app, m := setupTestAppWithMetrics(t)

	createWorkflow(t, app, map[string]any{"name": "Counted"})
	doRequest(t, app, http.MethodGet, "/workflows/missing", nil)

	assert.Equal(t, 2, promtestutil.CollectAndCount(m.HTTPRequests))
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/workflows/:id", "404")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.WorkflowsCreated), 0)
}
