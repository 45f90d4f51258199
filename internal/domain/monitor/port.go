package monitor

import (
	"context"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/query"
)

type Repo interface {
	List(ctx context.Context, sort query.Sort) ([]*Monitor, error)
	Get(ctx context.Context, id string) (*Monitor, error)
	// GetForUpdate locks the row for the enclosing transaction.
	GetForUpdate(ctx context.Context, id string) (*Monitor, error)
	Create(ctx context.Context, m *Monitor) error
	Update(ctx context.Context, m *Monitor) error
	Delete(ctx context.Context, id string) error
	FetchDue(ctx context.Context, limit int) ([]*Monitor, error)
	// ReleaseDue puts back the next run a FetchDue claim moved forward.
	ReleaseDue(ctx context.Context, id string, nextRun time.Time) error
}
