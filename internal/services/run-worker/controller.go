package run_worker

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	domain "github.com/NordCoder/apiwatch/internal/domain/kafka"
	"github.com/NordCoder/apiwatch/internal/domain/query"
	kafkax "github.com/NordCoder/apiwatch/internal/repository/kafka"
)

var mMsgs = promauto.NewCounter(prometheus.CounterOpts{
	Name: "runworker_messages_consumed_total", Help: "RunRequest messages consumed",
})

type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler
}

func (c *Controller) Run(ctx context.Context) error {
	return c.Sub.Consume(ctx, kafkax.JSONHandler(c.Handle))
}

// Handle processes one run request. Requests that can never succeed
// (empty id, deleted monitor, missing test) are dropped so they get committed.
func (c *Controller) Handle(ctx context.Context, _ []byte, msg domain.RunRequest) error {
	mMsgs.Inc()
	log := c.Log.With(zap.String("monitor_id", msg.MonitorID))
	if msg.MonitorID == "" {
		log.Warn("run request without monitor id")
		return nil
	}

	_, err := c.UC.RunMonitor(ctx, msg.MonitorID)
	var refErr *ReferenceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &refErr):
		log.Warn("skip run", zap.Error(err))
		return nil
	case errors.Is(err, query.ErrNotFound):
		log.Info("monitor gone", zap.Error(err))
		return nil
	}
	return err
}
