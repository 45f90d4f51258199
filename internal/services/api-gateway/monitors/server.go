// Package monitors serves the monitoring console routes.
package monitors

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/services/api-gateway/httpx"
	run_worker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

type Server struct {
	log *zap.Logger
	uc  *Usecase
}

func NewServer(log *zap.Logger, uc *Usecase) *Server {
	return &Server{log: log.With(zap.String("component", "monitors")), uc: uc}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodGet, Pattern: "/v1/monitors", Handler: s.list},
		{Method: http.MethodPost, Pattern: "/v1/monitors", Handler: s.create},
		{Method: http.MethodGet, Pattern: "/v1/monitors/{id}", Handler: s.get},
		{Method: http.MethodPut, Pattern: "/v1/monitors/{id}", Handler: s.update},
		{Method: http.MethodDelete, Pattern: "/v1/monitors/{id}", Handler: s.delete},
		{Method: http.MethodPost, Pattern: "/v1/monitors/{id}/active", Handler: s.setActive},
		{Method: http.MethodPost, Pattern: "/v1/monitors/{id}/run", Handler: s.run},
		{Method: http.MethodGet, Pattern: "/v1/monitors/{id}/stats", Handler: s.stats},
		// after /v1/monitors/{id} so it takes precedence
		{Method: http.MethodGet, Pattern: "/v1/monitors/health", Handler: s.health},
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.StatusFor(err)
	var ref *run_worker.ReferenceError
	if errors.As(err, &ref) {
		status = http.StatusUnprocessableEntity
	}
	httpx.Error(w, r, s.log, status, err)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	out, err := s.uc.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in Input
	if err := httpx.Decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.uc.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("monitor created", zap.String("id", v.ID), zap.String("frequency", string(v.Frequency)))
	httpx.JSON(w, http.StatusCreated, v)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, p map[string]string) {
	v, err := s.uc.Get(r.Context(), p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var in Input
	if err := httpx.Decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.uc.Update(r.Context(), p["id"], in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, p map[string]string) {
	if err := s.uc.Delete(r.Context(), p["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var in struct {
		Active *bool `json:"active"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.Active == nil {
		s.fail(w, r, errors.Join(httpx.ErrBadRequest, errors.New("active is required")))
		return
	}
	v, err := s.uc.SetActive(r.Context(), p["id"], *in.Active)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, p map[string]string) {
	out, err := s.uc.Run(r.Context(), p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request, p map[string]string) {
	c, err := s.uc.Charts(r.Context(), p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	o, err := s.uc.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
