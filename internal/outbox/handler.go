package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NordCoder/apiwatch/internal/domain/kafka"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/domain/outbox"
	"github.com/NordCoder/apiwatch/internal/obs/retry"
)

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

// instrument retries h under pol inside one span and records latency and
// final errors per kind.
func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle", trace.WithAttributes(attribute.String("outbox.kind", kind)))
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func(ctx context.Context) error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// MakeGlobalOutboxHandler routes stored messages to the event publisher.
func MakeGlobalOutboxHandler(events kafka.MonitorEvents, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindMonitorAlert:
			base := func(ctx context.Context, data []byte) error {
				var a notification.Alert
				if err := json.Unmarshal(data, &a); err != nil {
					return retry.Permanent(fmt.Errorf("unmarshal monitor alert payload: %w", err))
				}
				return events.PublishAlert(ctx, a)
			}
			return instrument("monitor_alert", base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
