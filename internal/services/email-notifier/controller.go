package notifier

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
	kafkax "github.com/NordCoder/apiwatch/internal/repository/kafka"
)

var (
	mConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_messages_consumed_total",
		Help: "Alert events consumed",
	})
	mSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_emails_sent_total",
		Help: "Emails sent",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_errors_total",
		Help: "Errors",
	})
)

type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler
}

func (c *Controller) Run(ctx context.Context) error {
	return c.Sub.Consume(ctx, kafkax.JSONHandler(c.Handle))
}

// Handle is the consumer callback. Alerts without a recipient are dropped.
func (c *Controller) Handle(ctx context.Context, _ []byte, a notification.Alert) error {
	mConsumed.Inc()
	err := c.UC.HandleAlert(ctx, a)
	switch {
	case err == nil:
		mSent.Inc()
		return nil
	case errors.Is(err, ErrNoRecipient):
		c.Log.Warn("alert without recipient", zap.String("monitor_id", a.MonitorID))
		return nil
	}
	mErrors.Inc()
	return err
}
