package apitest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("post")
	require.NoError(t, err)
	assert.Equal(t, MethodPost, m)

	m, err = ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodGet, m)

	_, err = ParseMethod("TRACE")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestValidate(t *testing.T) {
	tt := &Test{URL: "https://example.com"}
	tt.Normalize()
	assert.ErrorIs(t, tt.Validate(), ErrNameRequired)

	tt.Name = "ping"
	tt.URL = "  "
	assert.ErrorIs(t, tt.Validate(), ErrURLRequired)

	tt.URL = "https://example.com"
	require.NoError(t, tt.Validate())
	assert.Equal(t, MethodGet, tt.Method)
	assert.NotNil(t, tt.Headers)
	assert.NotNil(t, tt.Tags)
}

func TestRecordResult(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tt := &Test{Name: "x", URL: "http://x"}
	tt.RecordResult(201, `{"ok":true}`, map[string]string{"content-type": "application/json"}, at)

	assert.Equal(t, 201, tt.Status)
	assert.Equal(t, `{"ok":true}`, tt.Response)
	require.NotNil(t, tt.LastTested)
	assert.True(t, at.Equal(*tt.LastTested))
}

func TestClone(t *testing.T) {
	orig := &Test{Headers: map[string]string{"a": "1"}, Tags: []string{"x"}}
	cp := orig.Clone()
	cp.Headers["a"] = "2"
	cp.Tags[0] = "y"
	assert.Equal(t, "1", orig.Headers["a"])
	assert.Equal(t, "x", orig.Tags[0])
}
