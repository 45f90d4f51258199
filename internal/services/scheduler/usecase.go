package scheduler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/services/scheduler/repo"
)

type Usecase struct {
	Repo   repo.MonitorRepo
	Events repo.Events
	Log    *zap.Logger
}

func NewUC(repo repo.MonitorRepo, events repo.Events, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{Repo: repo, Events: events, Log: log}
}

// Tick claims up to limit due monitors and publishes a run request for each.
// It returns how many were fetched, sent and failed to publish.
func (u *Usecase) Tick(ctx context.Context, limit int) (int, int, int, error) {
	if limit <= 0 {
		limit = 100
	}

	tr := otel.Tracer("scheduler.uc")
	ctxTick, span := tr.Start(ctx, "scheduler.tick",
		trace.WithAttributes(attribute.Int("batch.limit", limit)),
	)
	defer span.End()

	due, err := u.Repo.FetchDue(ctxTick, limit)
	if err != nil {
		span.RecordError(err)
		return 0, 0, 1, fmt.Errorf("fetch due: %w", err)
	}
	span.SetAttributes(attribute.Int("batch.fetched", len(due)))
	if len(due) == 0 {
		return 0, 0, 0, nil
	}

	sent, errs := 0, 0
	for _, m := range due {
		pubCtx, sp := tr.Start(ctxTick, "scheduler.publish",
			trace.WithAttributes(
				attribute.String("monitor.id", m.ID),
				attribute.String("monitor.frequency", string(m.Frequency)),
			),
		)
		if err := u.Events.PublishRunRequested(pubCtx, m.ID); err != nil {
			errs++
			sp.RecordError(err)
			sp.SetAttributes(attribute.String("publish.status", "error"))
			if rerr := u.Repo.Release(pubCtx, m); rerr != nil {
				sp.RecordError(rerr)
				u.Log.Warn("run request lost until next interval",
					zap.String("monitor_id", m.ID), zap.Error(err), zap.NamedError("release_error", rerr))
			} else {
				u.Log.Warn("run request not published, retrying next tick",
					zap.String("monitor_id", m.ID), zap.Error(err))
			}
			sp.End()
			continue
		}
		sent++
		sp.SetAttributes(attribute.String("publish.status", "ok"))
		sp.End()
	}

	span.SetAttributes(
		attribute.Int("batch.sent", sent),
		attribute.Int("batch.errors", errs),
	)
	return len(due), sent, errs, nil
}
