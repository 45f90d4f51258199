package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/obs"
)

// StatusNetworkError is reported when no HTTP response was received.
const StatusNetworkError = 0

var (
	mRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "executor_requests_total",
		Help: "Outbound test requests by outcome.",
	}, []string{"outcome"})
	mLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "executor_response_time_seconds",
		Help:    "Time until response headers were received.",
		Buckets: prometheus.DefBuckets,
	})
)

// Result is the outcome of sending one test request.
type Result struct {
	Status       int               `json:"status"`
	Body         string            `json:"response"`
	PrettyBody   string            `json:"pretty_response,omitempty"`
	Headers      map[string]string `json:"response_headers"`
	ResponseTime int64             `json:"response_time"`
	Truncated    bool              `json:"truncated,omitempty"`
	At           time.Time         `json:"timestamp"`

	// Test is a copy of the input with the result recorded on it.
	Test *apitest.Test `json:"test"`
}

// NetworkError reports whether the request never produced an HTTP response.
func (r Result) NetworkError() bool { return r.Status == StatusNetworkError }

type Executor struct {
	client *http.Client
	tests  apitest.Repo
	clock  clock.Clock
	log    *zap.Logger
	cfg    Config
}

func New(client *http.Client, tests apitest.Repo, clk clock.Clock, log *zap.Logger, cfg Config) *Executor {
	cfg = cfg.withDefaults()
	if client == nil {
		client = NewHTTPClient(cfg)
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		client: client,
		tests:  tests,
		clock:  clk,
		log:    log.With(zap.String("component", "executor")),
		cfg:    cfg,
	}
}

// Execute sends the request described by t. Transport failures become a
// result with status 0 and the error text as body; they are never returned.
// When the request got a response and t is saved, the result is written back
// to the store and a store failure is returned.
func (e *Executor) Execute(ctx context.Context, t *apitest.Test) (Result, error) {
	out := t.Clone()
	out.Normalize()
	log := obs.WithTrace(ctx, e.log).With(zap.String("method", string(out.Method)), zap.String("url", out.URL))

	res := e.send(ctx, out)
	out.RecordResult(res.Status, res.Body, res.Headers, res.At)
	res.Test = out

	if res.NetworkError() {
		mRequests.WithLabelValues("network_error").Inc()
		log.Info("request failed", zap.String("error", res.Body))
		return res, nil
	}
	mRequests.WithLabelValues(outcome(res.Status)).Inc()
	log.Debug("request done", zap.Int("status", res.Status), zap.Int64("response_time_ms", res.ResponseTime))

	if out.Saved() && e.tests != nil {
		if err := e.tests.Update(ctx, out); err != nil {
			return res, fmt.Errorf("save test result: %w", err)
		}
	}
	return res, nil
}

func (e *Executor) send(ctx context.Context, t *apitest.Test) Result {
	fail := func(err error) Result {
		return Result{Status: StatusNetworkError, Body: err.Error(), Headers: map[string]string{}, At: e.clock.Now()}
	}

	target, err := BuildURL(t.URL, t.QueryParams)
	if err != nil {
		return fail(err)
	}

	var body io.Reader
	if t.Body != "" && t.Method != apitest.MethodGet {
		body = strings.NewReader(t.Body)
	}
	req, err := http.NewRequestWithContext(ctx, string(t.Method), target, body)
	if err != nil {
		return fail(err)
	}
	for k, v := range t.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if strings.EqualFold(k, "host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" && e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()
	mLatency.Observe(elapsed.Seconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes+1))
	if err != nil {
		return fail(fmt.Errorf("read response body: %w", err))
	}
	truncated := int64(len(raw)) > e.cfg.MaxBodyBytes
	if truncated {
		raw = raw[:e.cfg.MaxBodyBytes]
	}

	return Result{
		Status:       resp.StatusCode,
		Body:         string(raw),
		PrettyBody:   PrettyJSON(raw),
		Headers:      FlattenHeaders(resp.Header),
		ResponseTime: Millis(elapsed),
		Truncated:    truncated,
		At:           e.clock.Now(),
	}
}

// BuildURL appends every query parameter whose name and value are both
// non-empty to raw, keeping any query already present.
func BuildURL(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL: %q", raw)
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return u.String(), nil
	}
	sort.Strings(keys)

	extra := url.Values{}
	for _, k := range keys {
		extra.Add(k, params[k])
	}
	// Encode sorts by key, matching the order above.
	if u.RawQuery == "" {
		u.RawQuery = extra.Encode()
	} else {
		u.RawQuery += "&" + extra.Encode()
	}
	return u.String(), nil
}

// FlattenHeaders lowercases names and joins repeated values with ", ".
func FlattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

// PrettyJSON indents body when it is a JSON document and returns "" otherwise.
func PrettyJSON(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return ""
	}
	return buf.String()
}

// Millis rounds d to whole milliseconds.
func Millis(d time.Duration) int64 { return d.Round(time.Millisecond).Milliseconds() }

func outcome(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}
