package monitors

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/apiwatch/internal/analytics"
	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/query"
	run_worker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

// UnknownTest is shown for monitors whose test was deleted.
const UnknownTest = "Unknown"

type Runner interface {
	RunMonitor(ctx context.Context, monitorID string) (*run_worker.Outcome, error)
}

// Transactor scopes a locked read-modify-write of one monitor so edits do not
// drop history appended by a concurrent run.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// View is a monitor as listed in the console.
type View struct {
	*monitor.Monitor
	TestName string         `json:"test_name"`
	Health   monitor.Health `json:"health"`
}

// Input is the editable part of a monitor. Active defaults to true on create.
type Input struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	TestID            string            `json:"test_id"`
	Frequency         monitor.Frequency `json:"frequency"`
	NotificationEmail string            `json:"notification_email"`
	Active            *bool             `json:"active"`
	SuccessThreshold  int64             `json:"success_threshold"`
}

func (in Input) apply(m *monitor.Monitor) {
	m.Name = in.Name
	m.Description = in.Description
	m.TestID = in.TestID
	m.Frequency = in.Frequency
	m.NotificationEmail = in.NotificationEmail
	m.SuccessThreshold = in.SuccessThreshold
	if in.Active != nil {
		m.Active = *in.Active
	}
}

type Overview struct {
	Counts map[monitor.Health]int  `json:"counts"`
	Trend  []analytics.HealthPoint `json:"trend"`
}

type Usecase struct {
	repo   monitor.Repo
	tests  apitest.Repo
	runner Runner
	tx     Transactor
	clk    clock.Clock
}

func New(repo monitor.Repo, tests apitest.Repo, runner Runner, tx Transactor, clk clock.Clock) *Usecase {
	if clk == nil {
		clk = clock.System{}
	}
	if tx == nil {
		tx = noTx{}
	}
	return &Usecase{repo: repo, tests: tests, runner: runner, tx: tx, clk: clk}
}

func (u *Usecase) view(ctx context.Context, m *monitor.Monitor, names map[string]string) (View, error) {
	v := View{Monitor: m, TestName: UnknownTest, Health: m.Health()}
	if names != nil {
		if n, ok := names[m.TestID]; ok {
			v.TestName = n
		}
		return v, nil
	}
	t, err := u.tests.Get(ctx, m.TestID)
	switch {
	case err == nil:
		v.TestName = t.Name
	case !errors.Is(err, query.ErrNotFound):
		return v, fmt.Errorf("resolve test %s: %w", m.TestID, err)
	}
	return v, nil
}

func (u *Usecase) List(ctx context.Context, sort string) ([]View, error) {
	ms, err := u.repo.List(ctx, query.ParseSort(sort))
	if err != nil {
		return nil, err
	}
	ts, err := u.tests.List(ctx, query.Sort{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(ts))
	for _, t := range ts {
		names[t.ID] = t.Name
	}

	out := make([]View, 0, len(ms))
	for _, m := range ms {
		v, _ := u.view(ctx, m, names)
		out = append(out, v)
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, id string) (View, error) {
	m, err := u.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return u.view(ctx, m, nil)
}

// Create validates the input and schedules the first run one frequency
// interval from now.
func (u *Usecase) Create(ctx context.Context, in Input) (View, error) {
	m := &monitor.Monitor{Active: true}
	in.apply(m)
	m.Normalize()
	if err := m.Validate(); err != nil {
		return View{}, err
	}
	m.Schedule(u.clk.Now())
	if err := u.repo.Create(ctx, m); err != nil {
		return View{}, err
	}
	return u.view(ctx, m, nil)
}

// edit applies fn to the row-locked monitor and stores the result.
func (u *Usecase) edit(ctx context.Context, id string, fn func(m *monitor.Monitor) error) (*monitor.Monitor, error) {
	var out *monitor.Monitor
	err := u.tx.WithTx(ctx, func(txCtx context.Context) error {
		m, err := u.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		if err := u.repo.Update(txCtx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// Update replaces the editable fields. History is kept; a frequency change
// reschedules from now.
func (u *Usecase) Update(ctx context.Context, id string, in Input) (View, error) {
	m, err := u.edit(ctx, id, func(m *monitor.Monitor) error {
		prev := m.Frequency
		in.apply(m)
		m.Normalize()
		if err := m.Validate(); err != nil {
			return err
		}
		if m.Frequency != prev || m.NextRun == nil {
			m.Schedule(u.clk.Now())
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return u.view(ctx, m, nil)
}

func (u *Usecase) Delete(ctx context.Context, id string) error {
	return u.repo.Delete(ctx, id)
}

func (u *Usecase) SetActive(ctx context.Context, id string, active bool) (View, error) {
	m, err := u.edit(ctx, id, func(m *monitor.Monitor) error {
		m.Active = active
		if active && m.NextRun == nil {
			m.Schedule(u.clk.Now())
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return u.view(ctx, m, nil)
}

// Run executes the monitor now, outside its schedule.
func (u *Usecase) Run(ctx context.Context, id string) (*run_worker.Outcome, error) {
	return u.runner.RunMonitor(ctx, id)
}

func (u *Usecase) Charts(ctx context.Context, id string) (analytics.MonitorCharts, error) {
	m, err := u.repo.Get(ctx, id)
	if err != nil {
		return analytics.MonitorCharts{}, err
	}
	return analytics.ChartsFor(m), nil
}

func (u *Usecase) Overview(ctx context.Context) (Overview, error) {
	ms, err := u.repo.List(ctx, query.Sort{})
	if err != nil {
		return Overview{}, err
	}
	o := Overview{
		Counts: map[monitor.Health]int{
			monitor.HealthHealthy:  0,
			monitor.HealthFailing:  0,
			monitor.HealthPending:  0,
			monitor.HealthInactive: 0,
		},
		Trend: analytics.OverallHealth(ms),
	}
	for _, m := range ms {
		o.Counts[m.Health()]++
	}
	return o, nil
}
