package run_worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/domain/query"
	"github.com/NordCoder/apiwatch/internal/obs"
	"github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/executor"
)

var (
	mRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runworker_runs_total", Help: "Monitor runs by result (success, failure, error).",
	}, []string{"result"})
	mAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runworker_alerts_total", Help: "Alert hand-offs by result.",
	}, []string{"result"})
	mResponseTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "runworker_response_time_ms",
		Help:    "Response time recorded in monitor history.",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000},
	})
)

type Executor interface {
	Execute(ctx context.Context, t *apitest.Test) (executor.Result, error)
}

type MonitorStore interface {
	Get(ctx context.Context, id string) (*monitor.Monitor, error)
	GetForUpdate(ctx context.Context, id string) (*monitor.Monitor, error)
	Update(ctx context.Context, m *monitor.Monitor) error
}

type TestStore interface {
	Get(ctx context.Context, id string) (*apitest.Test, error)
}

type Handler struct {
	Monitors   MonitorStore
	Tests      TestStore
	Exec       Executor
	Transactor postgres.Transactor
	Alerter    notification.Alerter
	Clock      clock.Clock
	Log        *zap.Logger
}

// Outcome is what one run produced.
type Outcome struct {
	Monitor *monitor.Monitor `json:"monitor"`
	Entry   monitor.Entry    `json:"entry"`
	Result  executor.Result  `json:"result"`
	Alerted bool             `json:"alerted"`
}

// RunMonitor executes the monitor's test, prepends the outcome to its history
// and reschedules it. The monitor row is re-read under lock so concurrent runs
// of one monitor cannot drop entries. A failed run with a notification email
// is handed to the Alerter after the monitor is stored; alert errors are
// logged and never fail the run.
func (h *Handler) RunMonitor(ctx context.Context, monitorID string) (*Outcome, error) {
	ctx, span := otel.Tracer("run-worker").Start(ctx, "monitor.run")
	defer span.End()
	span.SetAttributes(attribute.String("monitor.id", monitorID))
	log := obs.WithTrace(ctx, h.Log).With(zap.String("monitor_id", monitorID))

	out, err := h.run(ctx, monitorID)
	if err != nil {
		span.RecordError(err)
		mRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	result := "failure"
	if out.Entry.Success {
		result = "success"
	}
	mRuns.WithLabelValues(result).Inc()
	mResponseTime.Observe(float64(out.Entry.ResponseTime))
	span.SetAttributes(
		attribute.Int("http.status_code", out.Entry.Status),
		attribute.Bool("monitor.success", out.Entry.Success),
	)
	log.Info("monitor run",
		zap.Int("status", out.Entry.Status),
		zap.Int64("response_time_ms", out.Entry.ResponseTime),
		zap.Bool("success", out.Entry.Success),
	)

	if !out.Entry.Success && out.Monitor.NotificationEmail != "" && h.Alerter != nil {
		if err := h.Alerter.MonitorFailed(ctx, alertFor(out)); err != nil {
			mAlerts.WithLabelValues("error").Inc()
			log.Error("alert hand-off failed", zap.Error(err))
		} else {
			mAlerts.WithLabelValues("ok").Inc()
			out.Alerted = true
		}
	}
	return out, nil
}

func (h *Handler) run(ctx context.Context, monitorID string) (*Outcome, error) {
	m, err := h.Monitors.Get(ctx, monitorID)
	if err != nil {
		return nil, fmt.Errorf("get monitor: %w", err)
	}

	t, err := h.Tests.Get(ctx, m.TestID)
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			return nil, &ReferenceError{MonitorID: m.ID, TestID: m.TestID}
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	res, err := h.Exec.Execute(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("execute test: %w", err)
	}

	out := &Outcome{Result: res}
	err = h.Transactor.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := h.Monitors.GetForUpdate(txCtx, monitorID)
		if err != nil {
			return fmt.Errorf("lock monitor: %w", err)
		}
		out.Entry = cur.NewEntry(res.At, res.Status, res.ResponseTime)
		cur.Record(out.Entry, h.Clock.Now())
		if err := h.Monitors.Update(txCtx, cur); err != nil {
			return fmt.Errorf("update monitor: %w", err)
		}
		out.Monitor = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func alertFor(o *Outcome) notification.Alert {
	a := notification.Alert{
		MonitorID:    o.Monitor.ID,
		MonitorName:  o.Monitor.Name,
		Email:        o.Monitor.NotificationEmail,
		Status:       o.Entry.Status,
		ResponseTime: o.Entry.ResponseTime,
		Threshold:    o.Entry.SuccessThreshold,
		At:           o.Entry.Timestamp,
	}
	if t := o.Result.Test; t != nil {
		a.URL = t.URL
		a.Method = string(t.Method)
	}
	return a
}
