package monitor

import (
	"encoding/json"
	"time"
)

// Entry is one run outcome. Success is fixed at write time together with the
// threshold that produced it.
type Entry struct {
	Timestamp        time.Time `json:"timestamp"`
	Status           int       `json:"status"`
	ResponseTime     int64     `json:"response_time"`
	Success          bool      `json:"success"`
	SuccessThreshold int64     `json:"success_threshold"`

	// rawTimestamp holds a stored timestamp that could not be parsed so it
	// survives the next write unchanged.
	rawTimestamp string
}

type entryJSON struct {
	Timestamp        string `json:"timestamp"`
	Status           int    `json:"status"`
	ResponseTime     int64  `json:"response_time"`
	Success          bool   `json:"success"`
	SuccessThreshold int64  `json:"success_threshold"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	ts := e.rawTimestamp
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(entryJSON{
		Timestamp:        ts,
		Status:           e.Status,
		ResponseTime:     e.ResponseTime,
		Success:          e.Success,
		SuccessThreshold: e.SuccessThreshold,
	})
}

// UnmarshalJSON accepts missing or malformed timestamps; they decode to the zero
// time and are left out of every time-bucketed view. Zone-less values are UTC.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Entry{
		Status:           raw.Status,
		ResponseTime:     raw.ResponseTime,
		Success:          raw.Success,
		SuccessThreshold: raw.SuccessThreshold,
	}
	if raw.Timestamp != "" {
		if ts, ok := parseTimestamp(raw.Timestamp); ok {
			e.Timestamp = ts
		} else {
			e.rawTimestamp = raw.Timestamp
		}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// HasTimestamp is false for entries whose timestamp was missing or unparsable.
func (e Entry) HasTimestamp() bool { return !e.Timestamp.IsZero() }

type Health string

const (
	HealthInactive Health = "inactive"
	HealthPending  Health = "pending"
	HealthHealthy  Health = "healthy"
	HealthFailing  Health = "failing"
)

func (m *Monitor) Health() Health {
	if !m.Active {
		return HealthInactive
	}
	last, ok := m.Latest()
	if !ok {
		return HealthPending
	}
	if last.Success {
		return HealthHealthy
	}
	return HealthFailing
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDegrading Trend = "degrading"
	TrendNeutral   Trend = "neutral"
)

const trendWindow = 5

type Stats struct {
	TotalRuns       int     `json:"total_runs"`
	SuccessfulRuns  int     `json:"successful_runs"`
	FailedRuns      int     `json:"failed_runs"`
	SuccessRate     float64 `json:"success_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
	Trend           Trend   `json:"trend"`
	Health          Health  `json:"health"`
}

// Stats summarises the whole retained history. The trend compares the mean
// response time of the newest five runs with the five before them.
func (m *Monitor) Stats() Stats {
	s := Stats{Trend: TrendNeutral, Health: m.Health()}
	if len(m.History) == 0 {
		return s
	}
	var totalRT int64
	for _, e := range m.History {
		if e.Success {
			s.SuccessfulRuns++
		}
		totalRT += e.ResponseTime
	}
	s.TotalRuns = len(m.History)
	s.FailedRuns = s.TotalRuns - s.SuccessfulRuns
	s.SuccessRate = float64(s.SuccessfulRuns) / float64(s.TotalRuns) * 100
	s.AvgResponseTime = float64(totalRT) / float64(s.TotalRuns)

	if s.TotalRuns >= 2*trendWindow {
		recent := meanRT(m.History[:trendWindow])
		previous := meanRT(m.History[trendWindow : 2*trendWindow])
		switch {
		case recent < previous:
			s.Trend = TrendImproving
		case recent > previous:
			s.Trend = TrendDegrading
		}
	}
	return s
}

func meanRT(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum int64
	for _, e := range entries {
		sum += e.ResponseTime
	}
	return float64(sum) / float64(len(entries))
}
