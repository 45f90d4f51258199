// Package httpx holds the JSON plumbing shared by the gateway route groups.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/query"
	"github.com/NordCoder/apiwatch/internal/obs"
)

const maxBody = 1 << 20

var ErrBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

// Route is one HandlePath registration.
type Route struct {
	Method  string
	Pattern string
	Handler runtime.HandlerFunc
}

// Register adds routes in order. runtime.ServeMux tries the most recently
// registered pattern first, so literal paths go after their {param} siblings.
func Register(mux *runtime.ServeMux, routes ...Route) error {
	for _, r := range routes {
		if err := mux.HandlePath(r.Method, r.Pattern, r.Handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.Method, r.Pattern, err)
		}
	}
	return nil
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads a JSON body into dst. Unknown fields are ignored.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// StatusFor maps store and validation errors; anything else is a 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, query.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), apitest.ValidationError(err), monitor.ValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes {"error": ...}. Server errors are logged and their text hidden.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		obs.WithTrace(r.Context(), log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	JSON(w, status, errorBody{Error: msg})
}

// CORS answers preflights and sets Access-Control-Allow-Origin for the
// allowed origins. "*" allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	wildcard := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, ok := allowed[origin]
				switch {
				case wildcard:
					w.Header().Set("Access-Control-Allow-Origin", "*")
				case ok:
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
