package kafka

import (
	"context"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
)

// RunRequest asks a run worker to execute one monitor.
type RunRequest struct {
	MonitorID   string    `json:"monitor_id"`
	RequestedAt time.Time `json:"requested_at"`
}

type MonitorEvents interface {
	PublishRunRequested(ctx context.Context, monitorID string) error
	PublishAlert(ctx context.Context, a notification.Alert) error
}
