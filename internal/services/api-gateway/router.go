// Package api_gateway assembles the HTTP API of the console.
package api_gateway

import (
	"context"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/obs"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/apitests"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/httpx"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/monitors"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/reports"
)

type Deps struct {
	Log            *zap.Logger
	Tests          apitest.Repo
	Monitors       monitor.Repo
	Exec           apitests.Sender
	Runner         monitors.Runner
	Transactor     monitors.Transactor
	Clock          clock.Clock
	Health         func(ctx context.Context) error
	AllowedOrigins []string
	// LogLevel, when set, is served at /loglevel.
	LogLevel http.Handler
}

func routingError(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, _ *http.Request, status int) {
	httpx.JSON(w, status, map[string]string{"error": http.StatusText(status)})
}

// NewHandler wires the route groups onto one mux with /metrics, /healthz and
// /loglevel beside them.
func NewHandler(d Deps) (http.Handler, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Health == nil {
		d.Health = func(context.Context) error { return nil }
	}

	tests := apitests.NewServer(d.Log, apitests.New(d.Tests, d.Exec))
	mons := monitors.NewServer(d.Log, monitors.New(d.Monitors, d.Tests, d.Runner, d.Transactor, d.Clock))
	reps := reports.NewServer(d.Log, reports.New(d.Monitors, d.Clock))

	mux := runtime.NewServeMux(runtime.WithRoutingErrorHandler(routingError))
	for _, routes := range [][]httpx.Route{tests.Routes(), mons.Routes(), reps.Routes()} {
		if err := httpx.Register(mux, routes...); err != nil {
			return nil, err
		}
	}

	root := http.NewServeMux()
	root.Handle("/", mux)
	root.Handle("/metrics", obs.MetricsHandler())
	root.Handle("/healthz", obs.HealthHandler(d.Health))
	if d.LogLevel != nil {
		root.Handle("/loglevel", d.LogLevel)
	}

	return obs.HTTPHandler(httpx.CORS(d.AllowedOrigins)(root), "api-gateway"), nil
}
