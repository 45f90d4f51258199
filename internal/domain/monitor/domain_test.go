package monitor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestFrequencyNext(t *testing.T) {
	assert.Equal(t, t0.Add(time.Hour), Hourly.Next(t0))
	assert.Equal(t, t0.Add(24*time.Hour), Daily.Next(t0))
	assert.Equal(t, t0.Add(7*24*time.Hour), Weekly.Next(t0))
	assert.Equal(t, t0.Add(24*time.Hour), Frequency("monthly").Next(t0))
}

func TestClassify(t *testing.T) {
	assert.True(t, Classify(200, 200, 200))
	assert.True(t, Classify(299, 10, 200))
	assert.False(t, Classify(200, 250, 200))
	assert.False(t, Classify(300, 10, 200))
	assert.False(t, Classify(0, 10, 200))
	assert.False(t, Classify(199, 10, 200))
}

func TestNewEntryUsesDefaultThreshold(t *testing.T) {
	m := &Monitor{}
	e := m.NewEntry(t0, 200, 250)
	assert.False(t, e.Success)
	assert.Equal(t, int64(200), e.SuccessThreshold)

	m.SuccessThreshold = 500
	e = m.NewEntry(t0, 200, 250)
	assert.True(t, e.Success)
	assert.Equal(t, int64(500), e.SuccessThreshold)
}

func TestRecordCapsHistory(t *testing.T) {
	m := &Monitor{Frequency: Hourly}
	for i := 0; i < 150; i++ {
		at := t0.Add(time.Duration(i) * time.Minute)
		m.Record(m.NewEntry(at, 200, int64(i)), at)
	}
	require.Len(t, m.History, HistoryLimit)
	assert.Equal(t, int64(149), m.History[0].ResponseTime)
	assert.Equal(t, int64(50), m.History[HistoryLimit-1].ResponseTime)

	last := t0.Add(149 * time.Minute)
	require.NotNil(t, m.LastRun)
	require.NotNil(t, m.NextRun)
	assert.Equal(t, last, *m.LastRun)
	assert.Equal(t, last.Add(time.Hour), *m.NextRun)
}

func TestRecordKeepsPastSuccessOnThresholdChange(t *testing.T) {
	m := &Monitor{Frequency: Daily, SuccessThreshold: 500}
	m.Record(m.NewEntry(t0, 200, 300), t0)
	m.SuccessThreshold = 100
	m.Record(m.NewEntry(t0.Add(time.Hour), 200, 300), t0.Add(time.Hour))

	require.Len(t, m.History, 2)
	assert.False(t, m.History[0].Success)
	assert.Equal(t, int64(100), m.History[0].SuccessThreshold)
	assert.True(t, m.History[1].Success)
	assert.Equal(t, int64(500), m.History[1].SuccessThreshold)
}

func TestValidate(t *testing.T) {
	m := &Monitor{Name: "api", TestID: "t1", NotificationEmail: "ops@example.com"}
	m.Normalize()
	require.NoError(t, m.Validate())
	assert.Equal(t, Daily, m.Frequency)
	assert.Equal(t, DefaultSuccessThreshold, m.SuccessThreshold)

	cases := map[string]struct {
		mut  func(*Monitor)
		want error
	}{
		"name":      {func(m *Monitor) { m.Name = "" }, ErrNameRequired},
		"test":      {func(m *Monitor) { m.TestID = "" }, ErrTestRequired},
		"email":     {func(m *Monitor) { m.NotificationEmail = "" }, ErrEmailRequired},
		"bad email": {func(m *Monitor) { m.NotificationEmail = "nope" }, ErrInvalidEmail},
		"frequency": {func(m *Monitor) { m.Frequency = "monthly" }, ErrInvalidFrequency},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cp := *m
			tc.mut(&cp)
			err := cp.Validate()
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, ValidationError(err))
		})
	}
}

func TestHealth(t *testing.T) {
	m := &Monitor{}
	assert.Equal(t, HealthInactive, m.Health())
	m.Active = true
	assert.Equal(t, HealthPending, m.Health())
	m.History = []Entry{{Success: true}}
	assert.Equal(t, HealthHealthy, m.Health())
	m.History = []Entry{{Success: false}, {Success: true}}
	assert.Equal(t, HealthFailing, m.Health())
}

func TestStatsTrend(t *testing.T) {
	m := &Monitor{Active: true}
	for i := 0; i < 10; i++ {
		rt := int64(100)
		if i < 5 {
			rt = 50
		}
		m.History = append(m.History, Entry{ResponseTime: rt, Success: i%2 == 0})
	}
	s := m.Stats()
	assert.Equal(t, 10, s.TotalRuns)
	assert.Equal(t, 5, s.SuccessfulRuns)
	assert.Equal(t, 5, s.FailedRuns)
	assert.InDelta(t, 50.0, s.SuccessRate, 0.001)
	assert.InDelta(t, 75.0, s.AvgResponseTime, 0.001)
	assert.Equal(t, TrendImproving, s.Trend)

	m.History[0].ResponseTime = 1000
	assert.Equal(t, TrendDegrading, m.Stats().Trend)

	short := &Monitor{History: m.History[:9]}
	assert.Equal(t, TrendNeutral, short.Stats().Trend)
	assert.Equal(t, TrendNeutral, (&Monitor{}).Stats().Trend)
}

func TestEntryJSONTolerant(t *testing.T) {
	var entries []Entry
	raw := `[{"timestamp":"2024-01-01T10:00:00Z","status":200,"response_time":12,"success":true,"success_threshold":200},
	{"timestamp":"not a date","status":500},
	{"status":404}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	require.Len(t, entries, 3)
	assert.True(t, entries[0].HasTimestamp())
	assert.False(t, entries[1].HasTimestamp())
	assert.False(t, entries[2].HasTimestamp())

	b, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2024-01-01T10:00:00Z","status":200,"response_time":12,"success":true,"success_threshold":200}`, string(b))
}

func TestEntryTimestampSurvivesRewrite(t *testing.T) {
	var m Monitor
	raw := `{"history":[
	{"timestamp":"2024-01-01T10:00:00","status":200,"response_time":10,"success":true,"success_threshold":200},
	{"timestamp":"2024-01-02","status":200},
	{"timestamp":"yesterday-ish","status":500}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	require.Len(t, m.History, 3)

	assert.True(t, m.History[0].HasTimestamp())
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), m.History[0].Timestamp)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), m.History[1].Timestamp)
	assert.False(t, m.History[2].HasTimestamp())

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Record(m.NewEntry(now, 200, 15), now)
	require.Len(t, m.History, 4)

	b, err := json.Marshal(m.History[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2024-01-01T10:00:00Z","status":200,"response_time":10,"success":true,"success_threshold":200}`, string(b))

	b, err = json.Marshal(m.History[3])
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"yesterday-ish","status":500,"response_time":0,"success":false,"success_threshold":0}`, string(b))
}
