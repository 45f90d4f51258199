package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	config "github.com/NordCoder/apiwatch/internal/config/scheduler"
)

var (
	mFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_monitors_fetched_total", Help: "Due monitors fetched from DB",
	})
	mSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_messages_sent_total", Help: "RunRequest published to Kafka",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_errors_total", Help: "Errors in scheduler loop",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "scheduler_loop_duration_seconds", Help: "Scheduler tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.SchedCfg
}

func New(log *zap.Logger, uc *Usecase, cfg *config.SchedCfg) *Runner {
	return &Runner{Log: log.With(zap.String("component", "scheduler")), UC: uc, Cfg: cfg}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	fetched, sent, errs, err := r.UC.Tick(ctx, r.Cfg.BatchLimit)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	if fetched > 0 {
		mFetched.Add(float64(fetched))
		mSent.Add(float64(sent))
		if errs > 0 {
			mErr.Add(float64(errs))
			r.Log.Warn("run requests not published", zap.Int("errors", errs))
		}
		r.Log.Debug("scheduled batch", zap.Int("fetched", fetched), zap.Int("sent", sent), zap.Int("errors", errs))
	}
	mLoopDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	tick := r.Cfg.Tick
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
