package reports

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/analytics"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/httpx"
)

type Server struct {
	log *zap.Logger
	uc  *Usecase
}

func NewServer(log *zap.Logger, uc *Usecase) *Server {
	return &Server{log: log.With(zap.String("component", "reports")), uc: uc}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodGet, Pattern: "/v1/analytics", Handler: s.report},
		{Method: http.MethodGet, Pattern: "/v1/analytics/export", Handler: s.export},
	}
}

func params(r *http.Request) (analytics.Range, string) {
	q := r.URL.Query()
	filter := q.Get("monitor")
	if filter == "" {
		filter = analytics.AllMonitors
	}
	return analytics.ParseRange(q.Get("range")), filter
}

func (s *Server) report(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	rng, filter := params(r)
	rep, err := s.uc.Report(r.Context(), rng, filter)
	if err != nil {
		httpx.Error(w, r, s.log, httpx.StatusFor(err), err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	rng, filter := params(r)

	// buffered so a store error can still become a JSON error response
	var buf bytes.Buffer
	name, rows, err := s.uc.Export(r.Context(), &buf, rng, filter)
	if err != nil {
		httpx.Error(w, r, s.log, httpx.StatusFor(err), err)
		return
	}
	s.log.Debug("export", zap.String("range", string(rng)), zap.String("monitor", filter), zap.Int("rows", rows))

	w.Header().Set("Content-Type", analytics.CSVContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
