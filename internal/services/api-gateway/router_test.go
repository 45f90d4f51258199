package api_gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/repository/memory"
	"github.com/NordCoder/apiwatch/internal/services/executor"
	run_worker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

var now = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type env struct {
	t   *testing.T
	api *httptest.Server
	up  *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(up.Close)

	clk := clock.Fixed(now)
	tests := memory.NewAPITestRepo(clk)
	mons := memory.NewMonitorRepo(clk)
	exec := executor.New(up.Client(), tests, clk, zap.NewNop(), executor.Config{})
	tx := &memory.Transactor{}
	runner := &run_worker.Handler{
		Monitors:   mons,
		Tests:      tests,
		Exec:       exec,
		Transactor: tx,
		Alerter:    run_worker.LogAlerter{Log: zap.NewNop()},
		Clock:      clk,
		Log:        zap.NewNop(),
	}

	h, err := NewHandler(Deps{
		Tests:          tests,
		Monitors:       mons,
		Exec:           exec,
		Runner:         runner,
		Transactor:     tx,
		Clock:          clk,
		AllowedOrigins: []string{"*"},
		LogLevel:       zap.NewAtomicLevelAt(zap.InfoLevel),
	})
	require.NoError(t, err)
	api := httptest.NewServer(h)
	t.Cleanup(api.Close)
	return &env{t: t, api: api, up: up}
}

func (e *env) do(method, path string, body any) (*http.Response, []byte) {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.api.URL+path, rd)
	require.NoError(e.t, err)
	resp, err := e.api.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, out
}

func (e *env) decode(b []byte) map[string]any {
	e.t.Helper()
	var m map[string]any
	require.NoError(e.t, json.Unmarshal(b, &m), string(b))
	return m
}

func TestTestsLifecycle(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(http.MethodPost, "/v1/tests", map[string]any{"url": e.up.URL})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "test name is required", e.decode(body)["error"])

	resp, body = e.do(http.MethodPost, "/v1/tests", map[string]any{
		"name": "ok", "url": e.up.URL + "/ok", "query_params": map[string]string{"a": "1"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	id := e.decode(body)["id"].(string)
	require.NotEmpty(t, id)

	resp, body = e.do(http.MethodPost, "/v1/tests/"+id+"/send", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	res := e.decode(body)
	assert.EqualValues(t, 200, res["status"])
	assert.Equal(t, `{"ok":true}`, res["response"])
	assert.Contains(t, res["pretty_response"], "\n")

	resp, body = e.do(http.MethodGet, "/v1/tests/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := e.decode(body)
	assert.EqualValues(t, 200, saved["status"])
	assert.NotEmpty(t, saved["last_tested"])

	resp, body = e.do(http.MethodPut, "/v1/tests/"+id, map[string]any{"name": "renamed", "url": e.up.URL + "/ok"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	upd := e.decode(body)
	assert.Equal(t, "renamed", upd["name"])
	assert.EqualValues(t, 200, upd["status"])

	resp, body = e.do(http.MethodPost, "/v1/requests/send", map[string]any{"id": id, "url": e.up.URL + "/fail"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.EqualValues(t, 500, e.decode(body)["status"])

	// the ephemeral send left the saved test alone
	_, body = e.do(http.MethodGet, "/v1/tests/"+id, nil)
	assert.EqualValues(t, 200, e.decode(body)["status"])

	resp, _ = e.do(http.MethodDelete, "/v1/tests/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(http.MethodGet, "/v1/tests/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMonitorFlow(t *testing.T) {
	e := newEnv(t)

	_, body := e.do(http.MethodPost, "/v1/tests", map[string]any{"name": "users", "url": e.up.URL + "/ok"})
	testID := e.decode(body)["id"].(string)

	resp, body := e.do(http.MethodPost, "/v1/monitors", map[string]any{"name": "m", "test_id": testID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = e.do(http.MethodPost, "/v1/monitors", map[string]any{
		"name": "users monitor", "test_id": testID, "notification_email": "ops@example.com",
		"frequency": "hourly", "success_threshold": 60000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	m := e.decode(body)
	id := m["id"].(string)
	assert.Equal(t, true, m["active"])
	assert.Equal(t, "users", m["test_name"])
	assert.Equal(t, "pending", m["health"])
	assert.Equal(t, now.Add(time.Hour).Format(time.RFC3339), m["next_run"])

	resp, body = e.do(http.MethodPost, "/v1/monitors/"+id+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	entry := e.decode(body)["entry"].(map[string]any)
	assert.Equal(t, true, entry["success"])
	assert.EqualValues(t, 200, entry["status"])

	_, body = e.do(http.MethodGet, "/v1/monitors/"+id+"/stats", nil)
	stats := e.decode(body)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total_runs"])
	assert.Equal(t, "healthy", stats["health"])

	resp, body = e.do(http.MethodGet, "/v1/monitors/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	counts := e.decode(body)["counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["healthy"])

	resp, body = e.do(http.MethodPost, "/v1/monitors/"+id+"/active", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "inactive", e.decode(body)["health"])

	resp, body = e.do(http.MethodGet, "/v1/analytics?range=24h&monitor="+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	rep := e.decode(body)
	assert.Equal(t, "24h", rep["range"])
	assert.EqualValues(t, 100, rep["uptime_percentage"])
	assert.EqualValues(t, 1, rep["totals"].(map[string]any)["total_requests"])

	resp, body = e.do(http.MethodGet, "/v1/analytics/export?range=7d", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="api-analytics-2024-05-06.csv"`, resp.Header.Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], `"users monitor",2024-05-06 07:08:09,200,`), lines[1])

	// dangling test reference
	e.do(http.MethodDelete, "/v1/tests/"+testID, nil)
	_, body = e.do(http.MethodGet, "/v1/monitors", nil)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Unknown", list[0]["test_name"])

	resp, _ = e.do(http.MethodPost, "/v1/monitors/"+id+"/run", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = e.do(http.MethodGet, "/v1/monitors/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTemplates(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(http.MethodGet, "/v1/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups []map[string]any
	require.NoError(t, json.Unmarshal(body, &groups))
	assert.Len(t, groups, 5)

	resp, body = e.do(http.MethodPost, "/v1/templates/get-user/use", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, e.decode(body)["error"], "get-users")

	resp, body = e.do(http.MethodPost, "/v1/templates/cors-test/use", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "OPTIONS", e.decode(body)["method"])

	_, body = e.do(http.MethodGet, "/v1/tests", nil)
	var tests []map[string]any
	require.NoError(t, json.Unmarshal(body, &tests))
	assert.Len(t, tests, 1)
}

func TestInfraRoutes(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, _ = e.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(http.MethodGet, "/loglevel", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "info", e.decode(body)["level"])

	resp, body = e.do(http.MethodGet, "/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", e.decode(body)["error"])
}
