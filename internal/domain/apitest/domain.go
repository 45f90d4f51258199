package apitest

import (
	"errors"
	"strings"
	"time"
)

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions}

func (m Method) Valid() bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMethod is case-insensitive; an empty method means GET.
func ParseMethod(s string) (Method, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return MethodGet, nil
	}
	m := Method(s)
	if !m.Valid() {
		return "", ErrInvalidMethod
	}
	return m, nil
}

var (
	ErrNameRequired  = errors.New("test name is required")
	ErrURLRequired   = errors.New("test url is required")
	ErrInvalidMethod = errors.New("unsupported http method")
)

// Test is a saved request definition plus the result of its last execution.
type Test struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Method        Method            `json:"method"`
	URL           string            `json:"url"`
	Headers       map[string]string `json:"headers"`
	QueryParams   map[string]string `json:"query_params"`
	Body          string            `json:"body"`
	Documentation string            `json:"documentation"`
	Tags          []string          `json:"tags"`

	Status          int               `json:"status"`
	Response        string            `json:"response"`
	ResponseHeaders map[string]string `json:"response_headers"`
	LastTested      *time.Time        `json:"last_tested,omitempty"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"updated_date"`
}

// Normalize fills absent fields with their defaults.
func (t *Test) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.URL = strings.TrimSpace(t.URL)
	if t.Method == "" {
		t.Method = MethodGet
	}
	t.Method = Method(strings.ToUpper(string(t.Method)))
	if t.Headers == nil {
		t.Headers = map[string]string{}
	}
	if t.QueryParams == nil {
		t.QueryParams = map[string]string{}
	}
	if t.ResponseHeaders == nil {
		t.ResponseHeaders = map[string]string{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

func (t *Test) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(t.URL) == "" {
		return ErrURLRequired
	}
	if !t.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}

// RecordResult stores the outcome of an execution on the test.
func (t *Test) RecordResult(status int, body string, headers map[string]string, at time.Time) {
	t.Status = status
	t.Response = body
	t.ResponseHeaders = headers
	ts := at.UTC()
	t.LastTested = &ts
}

// Saved reports whether the test has been persisted.
func (t *Test) Saved() bool { return t.ID != "" }

func (t *Test) Clone() *Test {
	cp := *t
	cp.Headers = cloneMap(t.Headers)
	cp.QueryParams = cloneMap(t.QueryParams)
	cp.ResponseHeaders = cloneMap(t.ResponseHeaders)
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	if t.LastTested != nil {
		ts := *t.LastTested
		cp.LastTested = &ts
	}
	return &cp
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidationError reports whether err is one of the test validation errors.
func ValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) || errors.Is(err, ErrURLRequired) || errors.Is(err, ErrInvalidMethod)
}
