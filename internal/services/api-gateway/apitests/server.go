// Package apitests serves saved tests, ad-hoc requests and templates.
package apitests

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/httpx"
	"github.com/NordCoder/apiwatch/internal/templates"
)

type Server struct {
	log *zap.Logger
	uc  *Usecase
}

func NewServer(log *zap.Logger, uc *Usecase) *Server {
	return &Server{log: log.With(zap.String("component", "tests")), uc: uc}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodGet, Pattern: "/v1/tests", Handler: s.list},
		{Method: http.MethodPost, Pattern: "/v1/tests", Handler: s.create},
		{Method: http.MethodGet, Pattern: "/v1/tests/{id}", Handler: s.get},
		{Method: http.MethodPut, Pattern: "/v1/tests/{id}", Handler: s.update},
		{Method: http.MethodDelete, Pattern: "/v1/tests/{id}", Handler: s.delete},
		{Method: http.MethodPost, Pattern: "/v1/tests/{id}/send", Handler: s.send},
		{Method: http.MethodPost, Pattern: "/v1/requests/send", Handler: s.sendEphemeral},
		{Method: http.MethodGet, Pattern: "/v1/templates", Handler: s.listTemplates},
		{Method: http.MethodGet, Pattern: "/v1/templates/{id}", Handler: s.getTemplate},
		{Method: http.MethodPost, Pattern: "/v1/templates/{id}/use", Handler: s.useTemplate},
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.StatusFor(err)
	var nf *templates.NotFoundError
	if errors.As(err, &nf) {
		status = http.StatusNotFound
	}
	httpx.Error(w, r, s.log, status, err)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	out, err := s.uc.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if out == nil {
		out = []*apitest.Test{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in apitest.Test
	if err := httpx.Decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.uc.Create(r.Context(), &in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("test created", zap.String("id", t.ID), zap.String("name", t.Name))
	httpx.JSON(w, http.StatusCreated, t)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, p map[string]string) {
	t, err := s.uc.Get(r.Context(), p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var in apitest.Test
	if err := httpx.Decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.uc.Update(r.Context(), p["id"], &in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, p map[string]string) {
	if err := s.uc.Delete(r.Context(), p["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) send(w http.ResponseWriter, r *http.Request, p map[string]string) {
	res, err := s.uc.Send(r.Context(), p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (s *Server) sendEphemeral(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in apitest.Test
	if err := httpx.Decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.uc.SendEphemeral(r.Context(), &in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	gs, err := templates.Grouped()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gs)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request, p map[string]string) {
	tpl, err := templates.Get(p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

func (s *Server) useTemplate(w http.ResponseWriter, r *http.Request, p map[string]string) {
	t, err := s.uc.UseTemplate(r.Context(), p["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}
