package executor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/repository/memory"
)

var testNow = time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)

type seen struct {
	method string
	query  string
	body   string
	header http.Header
}

func echoServer(t *testing.T, status int, respBody string) (*httptest.Server, *seen) {
	t.Helper()
	s := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.method, s.query, s.body, s.header = r.Method, r.URL.RawQuery, string(b), r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, s
}

func newExecutor(repo apitest.Repo) *Executor {
	return New(nil, repo, clock.Fixed(testNow), nil, Config{Timeout: 5 * time.Second, UserAgent: "apiwatch-test"})
}

func TestExecuteSendsRequestAndPersistsSavedTest(t *testing.T) {
	ctx := context.Background()
	srv, got := echoServer(t, http.StatusCreated, `{"id":1}`)
	repo := memory.NewAPITestRepo(nil)

	test := &apitest.Test{
		Name:        "create",
		Method:      apitest.MethodPost,
		URL:         srv.URL + "/users?fixed=1",
		Headers:     map[string]string{"X-Token": "t"},
		QueryParams: map[string]string{"b": "2", "a": "1", "empty": "", "": "x"},
		Body:        `{"name":"x"}`,
	}
	require.NoError(t, repo.Create(ctx, test))

	res, err := newExecutor(repo).Execute(ctx, test)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "fixed=1&a=1&b=2", got.query)
	assert.Equal(t, `{"name":"x"}`, got.body)
	assert.Equal(t, "t", got.header.Get("X-Token"))
	assert.Equal(t, "apiwatch-test", got.header.Get("User-Agent"))

	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, `{"id":1}`, res.Body)
	assert.Equal(t, "{\n  \"id\": 1\n}", res.PrettyBody)
	assert.Equal(t, "a, b", res.Headers["x-multi"])
	assert.GreaterOrEqual(t, res.ResponseTime, int64(0))

	stored, err := repo.Get(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, stored.Status)
	assert.Equal(t, `{"id":1}`, stored.Response)
	require.NotNil(t, stored.LastTested)
	assert.True(t, testNow.Equal(*stored.LastTested))

	// caller's value is left alone
	assert.Nil(t, test.LastTested)
}

func TestExecuteOmitsBodyForGET(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, "plain")
	res, err := newExecutor(nil).Execute(context.Background(), &apitest.Test{
		Method: apitest.MethodGet, URL: srv.URL, Body: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "", got.body)
	assert.Equal(t, "", res.PrettyBody)
	assert.Equal(t, "plain", res.Test.Response)
}

func TestExecuteNetworkErrorIsAResult(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	repo := &countingRepo{}
	res, err := newExecutor(repo).Execute(context.Background(), &apitest.Test{ID: "saved", URL: url})
	require.NoError(t, err)
	assert.Equal(t, StatusNetworkError, res.Status)
	assert.True(t, res.NetworkError())
	assert.NotEmpty(t, res.Body)
	assert.Empty(t, res.Headers)
	assert.Zero(t, repo.updates)
}

func TestExecuteInvalidURL(t *testing.T) {
	res, err := newExecutor(nil).Execute(context.Background(), &apitest.Test{URL: "not a url"})
	require.NoError(t, err)
	assert.Equal(t, StatusNetworkError, res.Status)
	assert.Contains(t, res.Body, "invalid URL")
}

func TestExecuteReturnsStoreError(t *testing.T) {
	srv, _ := echoServer(t, http.StatusOK, "{}")
	repo := &countingRepo{err: errors.New("db down")}
	res, err := newExecutor(repo).Execute(context.Background(), &apitest.Test{ID: "saved", URL: srv.URL})
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestExecuteTruncatesLargeBodies(t *testing.T) {
	srv, _ := echoServer(t, http.StatusOK, "0123456789")
	e := New(nil, nil, clock.Fixed(testNow), nil, Config{MaxBodyBytes: 4})
	res, err := e.Execute(context.Background(), &apitest.Test{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "0123", res.Body)
	assert.True(t, res.Truncated)
}

func TestBuildURL(t *testing.T) {
	u, err := BuildURL("https://api.example.com/data", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/data", u)

	u, err = BuildURL("https://api.example.com/weather", map[string]string{"q": "London,uk", "units": "metric"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/weather?q=London%2Cuk&units=metric", u)

	_, err = BuildURL("/relative", nil)
	assert.Error(t, err)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, int64(3), Millis(2500*time.Microsecond))
	assert.Equal(t, int64(2), Millis(2499*time.Microsecond))
}

type countingRepo struct {
	apitest.Repo
	updates int
	err     error
}

func (c *countingRepo) Update(context.Context, *apitest.Test) error {
	c.updates++
	return c.err
}

func TestHTTPClientZeroConfigIsStrict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	plain := httptest.NewServer(mux)
	t.Cleanup(plain.Close)

	resp, err := NewHTTPClient(Config{}).Get(plain.URL + "/old")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = NewHTTPClient(Config{NoFollowRedirects: true}).Get(plain.URL + "/old")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	selfSigned := httptest.NewTLSServer(mux)
	t.Cleanup(selfSigned.Close)

	_, err = NewHTTPClient(Config{}).Get(selfSigned.URL + "/new")
	require.Error(t, err)

	resp, err = NewHTTPClient(Config{InsecureSkipVerify: true}).Get(selfSigned.URL + "/new")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
