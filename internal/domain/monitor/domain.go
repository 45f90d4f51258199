package monitor

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	HistoryLimit            = 100
	DefaultSuccessThreshold = int64(200)
)

type Frequency string

const (
	Hourly Frequency = "hourly"
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case Hourly, Daily, Weekly:
		return true
	}
	return false
}

// Interval is the scheduling offset. Unknown frequencies run daily.
func (f Frequency) Interval() time.Duration {
	switch f {
	case Hourly:
		return time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Next is measured from now, not from the previously scheduled run.
func (f Frequency) Next(now time.Time) time.Time { return now.Add(f.Interval()) }

var (
	ErrNameRequired     = errors.New("monitor name is required")
	ErrTestRequired     = errors.New("monitor test_id is required")
	ErrEmailRequired    = errors.New("monitor notification_email is required")
	ErrInvalidEmail     = errors.New("monitor notification_email is not a valid address")
	ErrInvalidFrequency = errors.New("monitor frequency must be hourly, daily or weekly")
	ErrInvalidThreshold = errors.New("monitor success_threshold must be positive")
)

type Monitor struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	TestID            string     `json:"test_id"`
	Frequency         Frequency  `json:"frequency"`
	NotificationEmail string     `json:"notification_email"`
	Active            bool       `json:"active"`
	SuccessThreshold  int64      `json:"success_threshold"`
	History           []Entry    `json:"history"`
	NextRun           *time.Time `json:"next_run,omitempty"`
	LastRun           *time.Time `json:"last_run,omitempty"`
	CreatedAt         time.Time  `json:"created_date"`
	UpdatedAt         time.Time  `json:"updated_date"`
}

// Threshold returns the effective success threshold in ms.
func (m *Monitor) Threshold() int64 {
	if m.SuccessThreshold > 0 {
		return m.SuccessThreshold
	}
	return DefaultSuccessThreshold
}

// Classify decides whether a run with the given outcome counts as a success.
func Classify(status int, responseTime, threshold int64) bool {
	return status >= 200 && status < 300 && responseTime <= threshold
}

// NewEntry builds a history entry, snapshotting the current threshold.
func (m *Monitor) NewEntry(at time.Time, status int, responseTime int64) Entry {
	th := m.Threshold()
	return Entry{
		Timestamp:        at.UTC(),
		Status:           status,
		ResponseTime:     responseTime,
		Success:          Classify(status, responseTime, th),
		SuccessThreshold: th,
	}
}

// Record prepends e, keeps the newest HistoryLimit entries and reschedules the monitor.
func (m *Monitor) Record(e Entry, now time.Time) {
	h := make([]Entry, 0, min(len(m.History)+1, HistoryLimit))
	h = append(h, e)
	for _, old := range m.History {
		if len(h) == HistoryLimit {
			break
		}
		h = append(h, old)
	}
	m.History = h

	last := now.UTC()
	next := m.Frequency.Next(last)
	m.LastRun = &last
	m.NextRun = &next
}

// Schedule sets the first run relative to now.
func (m *Monitor) Schedule(now time.Time) {
	next := m.Frequency.Next(now.UTC())
	m.NextRun = &next
}

func (m *Monitor) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.TestID = strings.TrimSpace(m.TestID)
	m.NotificationEmail = strings.TrimSpace(m.NotificationEmail)
	if m.Frequency == "" {
		m.Frequency = Daily
	}
	if m.SuccessThreshold == 0 {
		m.SuccessThreshold = DefaultSuccessThreshold
	}
	if m.History == nil {
		m.History = []Entry{}
	}
}

func (m *Monitor) Validate() error {
	if m.Name == "" {
		return ErrNameRequired
	}
	if m.TestID == "" {
		return ErrTestRequired
	}
	if m.NotificationEmail == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(m.NotificationEmail); err != nil {
		return ErrInvalidEmail
	}
	if !m.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if m.SuccessThreshold < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// Latest returns the newest history entry.
func (m *Monitor) Latest() (Entry, bool) {
	if len(m.History) == 0 {
		return Entry{}, false
	}
	return m.History[0], true
}

// ValidationError reports whether err is one of the monitor validation errors.
func ValidationError(err error) bool {
	for _, e := range []error{ErrNameRequired, ErrTestRequired, ErrEmailRequired, ErrInvalidEmail, ErrInvalidFrequency, ErrInvalidThreshold} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
