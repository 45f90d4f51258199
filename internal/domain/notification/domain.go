package notification

import (
	"context"
	"time"
)

// Alert describes a failed monitor run that should be reported by email.
type Alert struct {
	MonitorID    string    `json:"monitor_id"`
	MonitorName  string    `json:"monitor_name"`
	Email        string    `json:"email"`
	Status       int       `json:"status"`
	ResponseTime int64     `json:"response_time"`
	Threshold    int64     `json:"success_threshold"`
	URL          string    `json:"url"`
	Method       string    `json:"method"`
	At           time.Time `json:"at"`
}

type Notification struct {
	ID        int64     `json:"id"`
	MonitorID string    `json:"monitor_id"`
	Email     string    `json:"email"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	SentAt    time.Time `json:"sent_at"`
	Payload   string    `json:"payload"`
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Alerter hands a failed run over to the notification pipeline.
type Alerter interface {
	MonitorFailed(ctx context.Context, a Alert) error
}
