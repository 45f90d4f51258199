package run_worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/domain/outbox"
)

var (
	_ notification.Alerter = OutboxAlerter{}
	_ notification.Alerter = LogAlerter{}
)

// OutboxAlerter stores the alert in the outbox; the outbox runner publishes it.
type OutboxAlerter struct {
	Outbox outbox.Repository
}

func (a OutboxAlerter) MonitorFailed(ctx context.Context, al notification.Alert) error {
	b, err := json.Marshal(al)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	key := "alert:" + al.MonitorID + ":" + uuid.NewString()
	if err := a.Outbox.Enqueue(ctx, key, outbox.KindMonitorAlert, b); err != nil {
		return fmt.Errorf("outbox enqueue: %w", err)
	}
	return nil
}

// LogAlerter only logs. Used when no outbox is available.
type LogAlerter struct {
	Log *zap.Logger
}

func (a LogAlerter) MonitorFailed(_ context.Context, al notification.Alert) error {
	a.Log.Warn("monitor failed",
		zap.String("monitor_id", al.MonitorID),
		zap.String("monitor", al.MonitorName),
		zap.String("email", al.Email),
		zap.Int("status", al.Status),
		zap.Int64("response_time_ms", al.ResponseTime),
	)
	return nil
}
