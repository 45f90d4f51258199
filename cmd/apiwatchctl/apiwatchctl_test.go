package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTemplatesList(t *testing.T) {
	out, err := execute(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "REST APIs")
	assert.Contains(t, out, "graphql-query")
	assert.Contains(t, out, "OPTIONS")
}

func TestTemplatesShow(t *testing.T) {
	out, err := execute(t, "tpl", "show", "weather-api")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Get Weather", got["name"])

	out, err = execute(t, "templates", "show", "wether-api")
	require.Error(t, err)
	assert.Contains(t, out, `did you mean "weather-api"`)
}

func TestCommandsNeedingDBRejectMemoryMode(t *testing.T) {
	t.Setenv("MEMORY", "true")
	_, err := execute(t, "analytics", "--range", "24h")
	assert.ErrorIs(t, err, errNeedsDB)

	_, err = execute(t, "migrate")
	assert.ErrorIs(t, err, errNeedsDB)
}

func TestUnknownRange(t *testing.T) {
	_, err := execute(t, "export", "--range", "1y")
	assert.ErrorContains(t, err, "unknown range")
}

func TestRunRequiresID(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)
}
