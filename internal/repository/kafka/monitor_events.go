package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/kafka"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
)

var ErrNoProducer = errors.New("no producer configured for topic")

// MonitorEventsKafka publishes run requests and alerts. Either producer may be
// nil when the service only emits one kind of event.
type MonitorEventsKafka struct {
	runs   *Producer
	alerts *Producer
	now    func() time.Time
}

func NewMonitorEventsKafka(runs, alerts *Producer) *MonitorEventsKafka {
	return &MonitorEventsKafka{runs: runs, alerts: alerts, now: func() time.Time { return time.Now().UTC() }}
}

var _ kafka.MonitorEvents = (*MonitorEventsKafka)(nil)

func (e *MonitorEventsKafka) PublishRunRequested(ctx context.Context, monitorID string) error {
	if e.runs == nil {
		return ErrNoProducer
	}
	return e.runs.PublishJSON(ctx, []byte(monitorID), kafka.RunRequest{
		MonitorID:   monitorID,
		RequestedAt: e.now(),
	})
}

func (e *MonitorEventsKafka) PublishAlert(ctx context.Context, a notification.Alert) error {
	if e.alerts == nil {
		return ErrNoProducer
	}
	return e.alerts.PublishJSON(ctx, []byte(a.MonitorID), a)
}
