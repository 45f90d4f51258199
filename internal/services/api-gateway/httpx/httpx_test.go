package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/query"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("get: %w", query.ErrNotFound)))
	assert.Equal(t, http.StatusConflict, StatusFor(query.ErrConflict))
	assert.Equal(t, http.StatusBadRequest, StatusFor(apitest.ErrURLRequired))
	assert.Equal(t, http.StatusBadRequest, StatusFor(monitor.ErrInvalidFrequency))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestDecode(t *testing.T) {
	var v struct{ Name string }
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"x"}`))
	require.NoError(t, Decode(r, &v))
	assert.Equal(t, "x", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, Decode(r, &v), ErrBadRequest)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.ErrorIs(t, Decode(r, &v), ErrBadRequest)
}

func TestErrorHidesServerErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	Error(w, r, zap.NewNop(), http.StatusInternalServerError, errors.New("dsn=secret"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())

	w = httptest.NewRecorder()
	Error(w, r, zap.NewNop(), http.StatusBadRequest, apitest.ErrNameRequired)
	assert.JSONEq(t, `{"error":"test name is required"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS([]string{"http://console.local"})(next)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://console.local")
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "http://console.local", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://evil.local")
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodOptions, "/v1/tests", nil)
	r.Header.Set("Origin", "http://console.local")
	r.Header.Set("Access-Control-Request-Method", "POST")
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://anything")
	CORS([]string{"*"})(next).ServeHTTP(w, r)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
