package apitests

import (
	"context"
	"fmt"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/query"
	"github.com/NordCoder/apiwatch/internal/services/executor"
	"github.com/NordCoder/apiwatch/internal/templates"
)

type Sender interface {
	Execute(ctx context.Context, t *apitest.Test) (executor.Result, error)
}

type Usecase struct {
	repo apitest.Repo
	exec Sender
}

func New(repo apitest.Repo, exec Sender) *Usecase {
	return &Usecase{repo: repo, exec: exec}
}

func (u *Usecase) List(ctx context.Context, sort string) ([]*apitest.Test, error) {
	return u.repo.List(ctx, query.ParseSort(sort))
}

func (u *Usecase) Get(ctx context.Context, id string) (*apitest.Test, error) {
	return u.repo.Get(ctx, id)
}

func (u *Usecase) Create(ctx context.Context, t *apitest.Test) (*apitest.Test, error) {
	t.ID = ""
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := u.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the request definition. The last result stays until the
// test is sent again.
func (u *Usecase) Update(ctx context.Context, id string, upd *apitest.Test) (*apitest.Test, error) {
	cur, err := u.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	cur.Name = upd.Name
	cur.Method = upd.Method
	cur.URL = upd.URL
	cur.Headers = upd.Headers
	cur.QueryParams = upd.QueryParams
	cur.Body = upd.Body
	cur.Documentation = upd.Documentation
	cur.Tags = upd.Tags

	if err := u.repo.Update(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (u *Usecase) Delete(ctx context.Context, id string) error {
	return u.repo.Delete(ctx, id)
}

// Send executes a saved test and stores the result on it.
func (u *Usecase) Send(ctx context.Context, id string) (executor.Result, error) {
	t, err := u.repo.Get(ctx, id)
	if err != nil {
		return executor.Result{}, err
	}
	return u.exec.Execute(ctx, t)
}

// SendEphemeral executes an unsaved request; nothing is stored.
func (u *Usecase) SendEphemeral(ctx context.Context, t *apitest.Test) (executor.Result, error) {
	t.ID = ""
	t.Normalize()
	if t.URL == "" {
		return executor.Result{}, apitest.ErrURLRequired
	}
	if !t.Method.Valid() {
		return executor.Result{}, apitest.ErrInvalidMethod
	}
	return u.exec.Execute(ctx, t)
}

// UseTemplate saves a new test built from the named template.
func (u *Usecase) UseTemplate(ctx context.Context, id string) (*apitest.Test, error) {
	tpl, err := templates.Get(id)
	if err != nil {
		return nil, err
	}
	t := tpl.ToTest()
	if err := u.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create test from template %s: %w", tpl.ID, err)
	}
	return t, nil
}
