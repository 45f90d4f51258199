package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/query"
)

func TestAPITestRepoListSortsNilLast(t *testing.T) {
	ctx := context.Background()
	r := NewAPITestRepo(clock.Fixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	early := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	for _, tc := range []struct {
		id string
		at *time.Time
	}{{"a", &early}, {"b", nil}, {"c", &late}} {
		require.NoError(t, r.Create(ctx, &apitest.Test{ID: tc.id, Name: tc.id, URL: "http://x", LastTested: tc.at}))
	}

	got, err := r.List(ctx, query.Sort{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(got))

	got, err = r.List(ctx, query.ParseSort("last_tested"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(got))
}

func ids(ts []*apitest.Test) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestAPITestRepoCopies(t *testing.T) {
	ctx := context.Background()
	r := NewAPITestRepo(nil)
	in := &apitest.Test{Name: "n", URL: "http://x", Headers: map[string]string{"a": "1"}}
	require.NoError(t, r.Create(ctx, in))
	require.NotEmpty(t, in.ID)

	in.Headers["a"] = "changed"
	got, err := r.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Headers["a"])

	assert.ErrorIs(t, r.Update(ctx, &apitest.Test{ID: "missing"}), query.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "missing"), query.ErrNotFound)
}

func TestMonitorRepoFetchDue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewMonitorRepo(clock.Fixed(now))

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	require.NoError(t, r.Create(ctx, &monitor.Monitor{ID: "due", Active: true, Frequency: monitor.Hourly, NextRun: &past}))
	require.NoError(t, r.Create(ctx, &monitor.Monitor{ID: "paused", Active: false, NextRun: &past}))
	require.NoError(t, r.Create(ctx, &monitor.Monitor{ID: "later", Active: true, NextRun: &future}))

	due, err := r.FetchDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)

	again, err := r.FetchDue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	m, err := r.Get(ctx, "due")
	require.NoError(t, err)
	assert.True(t, now.Add(time.Hour).Equal(*m.NextRun))
}
