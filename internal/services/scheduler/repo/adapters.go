package repo

import (
	"context"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/kafka"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
)

// Due is the slice of a monitor the scheduler needs to dispatch a run.
type Due struct {
	ID        string
	Name      string
	Frequency monitor.Frequency
	// NextRun is the slot that was claimed, before FetchDue moved it forward.
	NextRun time.Time
}

type MonitorRepo struct{ R monitor.Repo }
type Events struct{ P kafka.MonitorEvents }

func (a MonitorRepo) FetchDue(ctx context.Context, limit int) ([]Due, error) {
	list, err := a.R.FetchDue(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Due, 0, len(list))
	for _, m := range list {
		d := Due{ID: m.ID, Name: m.Name, Frequency: m.Frequency}
		if m.NextRun != nil {
			d.NextRun = *m.NextRun
		}
		out = append(out, d)
	}
	return out, nil
}

// Release returns a claimed monitor to the due set so the next tick retries it.
func (a MonitorRepo) Release(ctx context.Context, d Due) error {
	return a.R.ReleaseDue(ctx, d.ID, d.NextRun)
}

func (e Events) PublishRunRequested(ctx context.Context, monitorID string) error {
	return e.P.PublishRunRequested(ctx, monitorID)
}
