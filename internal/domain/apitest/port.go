package apitest

import (
	"context"

	"github.com/NordCoder/apiwatch/internal/domain/query"
)

type Repo interface {
	List(ctx context.Context, sort query.Sort) ([]*Test, error)
	Get(ctx context.Context, id string) (*Test, error)
	Create(ctx context.Context, t *Test) error
	Update(ctx context.Context, t *Test) error
	Delete(ctx context.Context, id string) error
}
