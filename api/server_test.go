package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vinayprograms/slackagent/agent"
	"github.com/vinayprograms/slackagent/llm"
	"github.com/vinayprograms/slackagent/tasks"
	"github.com/vinayprograms/slackagent/tools"
)

type fakeMessenger struct{}

func (f *fakeMessenger) SendMessage(ctx context.Context, channel, text string) (map[string]interface{}, error) {
	return map[string]interface{}{"ok": true, "channel": channel}, nil
}

func newTestServer(t *testing.T, start bool) (*Server, *tasks.Executor) {
	t.Helper()

	mock := llm.NewMockProvider()
	mock.SetResponse("done")
	registry := tools.NewSlackRegistry(&fakeMessenger{})

	slackAgent, err := agent.New(mock, registry)
	if err != nil {
		t.Fatalf("agent.New() error = %v", err)
	}

	executor := tasks.NewExecutor(slackAgent)
	if start {
		if err := executor.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		t.Cleanup(func() { executor.Stop(context.Background()) })
	}

	return NewServer(executor, slackAgent, registry), executor
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["status"] != "healthy" || body["agent"] != "slack-agent" {
		t.Errorf("body = %v", body)
	}
}

func TestAgentCardEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/.well-known/agent-card", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["name"] != "slack-agent" {
		t.Errorf("name = %v", body["name"])
	}
	if tools, ok := body["tools"].([]interface{}); !ok || len(tools) != 2 {
		t.Errorf("tools = %v", body["tools"])
	}
}

func TestTaskSubmitAndStatus(t *testing.T) {
	srv, _ := newTestServer(t, true)
	handler := srv.Handler()

	rec := doRequest(t, handler, http.MethodPost, "/tasks", `{"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeJSON(t, rec)
	taskID, _ := body["task_id"].(string)
	if taskID == "" {
		t.Fatalf("missing task_id in %v", body)
	}
	if body["status"] != "pending" {
		t.Errorf("status = %v", body["status"])
	}

	rec = doRequest(t, handler, http.MethodGet, "/tasks/"+taskID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	body = decodeJSON(t, rec)
	if body["status"] != "pending" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestTaskSubmitRequiresMessage(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/tasks", `{"metadata":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodPost, "/tasks", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTaskSubmitBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/tasks", `{"message":"hello"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestTaskStatusNotFound(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/tasks/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTaskExecute(t *testing.T) {
	srv, _ := newTestServer(t, true)
	handler := srv.Handler()

	rec := doRequest(t, handler, http.MethodPost, "/tasks", `{"message":"hello"}`)
	taskID := decodeJSON(t, rec)["task_id"].(string)

	rec = doRequest(t, handler, http.MethodPost, "/tasks/"+taskID+"/execute", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("execute status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeJSON(t, rec)
	result, ok := body["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result in %v", body)
	}
	if result["success"] != true {
		t.Errorf("result = %v", result)
	}

	// Status reflects completion afterwards.
	rec = doRequest(t, handler, http.MethodGet, "/tasks/"+taskID, "")
	if got := decodeJSON(t, rec)["status"]; got != "completed" {
		t.Errorf("status = %v, want completed", got)
	}
}

func TestTaskExecuteNotFound(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/tasks/nope/execute", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTaskExecuteBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/tasks/whatever/execute", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMCPInfoEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/mcp/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["name"] != tools.MCPServerName {
		t.Errorf("name = %v", body["name"])
	}
	if body["transport"] != "sse" {
		t.Errorf("transport = %v", body["transport"])
	}
}

func TestMetricsEndpointOptIn(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics without opt-in: status = %d, want 404", rec.Code)
	}

	mock := llm.NewMockProvider()
	registry := tools.NewSlackRegistry(&fakeMessenger{})
	slackAgent, _ := agent.New(mock, registry)
	executor := tasks.NewExecutor(slackAgent)
	withMetrics := NewServer(executor, slackAgent, registry, WithMetrics())

	rec = doRequest(t, withMetrics.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("metrics with opt-in: status = %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodOptions, "/tasks", "")
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
