// Package memory keeps the entity store in process memory. It backs unit
// tests and the gateway when no database is configured. Values are copied on
// the way in and out.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/domain/query"
)

var (
	_ apitest.Repo      = (*APITestRepo)(nil)
	_ monitor.Repo      = (*MonitorRepo)(nil)
	_ notification.Repo = (*NotificationRepo)(nil)
)

type APITestRepo struct {
	mu    sync.RWMutex
	clock clock.Clock
	items map[string]*apitest.Test
}

func NewAPITestRepo(clk clock.Clock) *APITestRepo {
	if clk == nil {
		clk = clock.System{}
	}
	return &APITestRepo{clock: clk, items: map[string]*apitest.Test{}}
}

func (r *APITestRepo) List(_ context.Context, s query.Sort) ([]*apitest.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*apitest.Test, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t.Clone())
	}
	if s.IsZero() {
		s = query.Desc("last_tested")
	}
	sortBy(out, s, func(t *apitest.Test) string { return t.ID }, func(t *apitest.Test, field string) (any, bool) {
		switch field {
		case "name":
			return t.Name, true
		case "method":
			return string(t.Method), true
		case "url":
			return t.URL, true
		case "status":
			return t.Status, true
		case "last_tested":
			return t.LastTested, true
		case "created_date":
			return t.CreatedAt, true
		case "updated_date":
			return t.UpdatedAt, true
		}
		return nil, false
	})
	return out, nil
}

func (r *APITestRepo) Get(_ context.Context, id string) (*apitest.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, query.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *APITestRepo) Create(_ context.Context, t *apitest.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := r.items[t.ID]; ok {
		return query.ErrConflict
	}
	t.Normalize()
	now := r.clock.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.items[t.ID] = t.Clone()
	return nil
}

func (r *APITestRepo) Update(_ context.Context, t *apitest.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.items[t.ID]
	if !ok {
		return query.ErrNotFound
	}
	t.Normalize()
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = r.clock.Now()
	r.items[t.ID] = t.Clone()
	return nil
}

func (r *APITestRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return query.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type MonitorRepo struct {
	mu    sync.RWMutex
	clock clock.Clock
	items map[string]*monitor.Monitor
}

func NewMonitorRepo(clk clock.Clock) *MonitorRepo {
	if clk == nil {
		clk = clock.System{}
	}
	return &MonitorRepo{clock: clk, items: map[string]*monitor.Monitor{}}
}

func cloneMonitor(m *monitor.Monitor) *monitor.Monitor {
	cp := *m
	cp.History = append([]monitor.Entry(nil), m.History...)
	if cp.History == nil {
		cp.History = []monitor.Entry{}
	}
	if m.NextRun != nil {
		t := *m.NextRun
		cp.NextRun = &t
	}
	if m.LastRun != nil {
		t := *m.LastRun
		cp.LastRun = &t
	}
	return &cp
}

func (r *MonitorRepo) List(_ context.Context, s query.Sort) ([]*monitor.Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*monitor.Monitor, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, cloneMonitor(m))
	}
	if s.IsZero() {
		s = query.Desc("created_date")
	}
	sortBy(out, s, func(m *monitor.Monitor) string { return m.ID }, func(m *monitor.Monitor, field string) (any, bool) {
		switch field {
		case "name":
			return m.Name, true
		case "frequency":
			return string(m.Frequency), true
		case "active":
			return m.Active, true
		case "next_run":
			return m.NextRun, true
		case "last_run":
			return m.LastRun, true
		case "created_date":
			return m.CreatedAt, true
		case "updated_date":
			return m.UpdatedAt, true
		}
		return nil, false
	})
	return out, nil
}

func (r *MonitorRepo) Get(_ context.Context, id string) (*monitor.Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.items[id]
	if !ok {
		return nil, query.ErrNotFound
	}
	return cloneMonitor(m), nil
}

// GetForUpdate is Get; Transactor serializes the callers instead of row locks.
func (r *MonitorRepo) GetForUpdate(ctx context.Context, id string) (*monitor.Monitor, error) {
	return r.Get(ctx, id)
}

func (r *MonitorRepo) Create(_ context.Context, m *monitor.Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, ok := r.items[m.ID]; ok {
		return query.ErrConflict
	}
	if m.History == nil {
		m.History = []monitor.Entry{}
	}
	now := r.clock.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	r.items[m.ID] = cloneMonitor(m)
	return nil
}

func (r *MonitorRepo) Update(_ context.Context, m *monitor.Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.items[m.ID]
	if !ok {
		return query.ErrNotFound
	}
	if m.History == nil {
		m.History = []monitor.Entry{}
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = r.clock.Now()
	r.items[m.ID] = cloneMonitor(m)
	return nil
}

func (r *MonitorRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return query.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// FetchDue returns active monitors whose next run has passed and pushes their
// next run one interval ahead, as the postgres repo does.
func (r *MonitorRepo) FetchDue(_ context.Context, limit int) ([]*monitor.Monitor, error) {
	if limit <= 0 {
		limit = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var due []*monitor.Monitor
	for _, m := range r.items {
		if m.Active && m.NextRun != nil && !m.NextRun.After(now) {
			due = append(due, m)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextRun.Equal(*due[j].NextRun) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextRun.Before(*due[j].NextRun)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]*monitor.Monitor, 0, len(due))
	for _, m := range due {
		out = append(out, cloneMonitor(m))
		m.Schedule(now)
		m.UpdatedAt = now
	}
	return out, nil
}

func (r *MonitorRepo) ReleaseDue(_ context.Context, id string, nextRun time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return query.ErrNotFound
	}
	at := nextRun.UTC()
	m.NextRun = &at
	m.UpdatedAt = r.clock.Now()
	return nil
}

type NotificationRepo struct {
	mu    sync.Mutex
	seq   int64
	items []*notification.Notification
}

func NewNotificationRepo() *NotificationRepo { return &NotificationRepo{} }

func (r *NotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = r.seq
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

// ListByMonitor returns the newest notifications first.
func (r *NotificationRepo) ListByMonitor(_ context.Context, monitorID string, limit int) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].MonitorID != monitorID {
			continue
		}
		cp := *r.items[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Transactor runs functions one at a time. It does not roll back.
type Transactor struct {
	mu sync.Mutex
}

func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// sortBy orders items by the named field, nil timestamps last, then by id.
// Unknown fields keep id order.
func sortBy[T any](items []T, s query.Sort, id func(T) string, field func(T, string) (any, bool)) {
	sort.SliceStable(items, func(i, j int) bool {
		a, okA := field(items[i], s.Field)
		b, _ := field(items[j], s.Field)
		if okA {
			if c := compare(a, b); c != 0 {
				if c == nilLast || c == -nilLast {
					return c == -nilLast
				}
				if s.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return id(items[i]) < id(items[j])
	})
}

// nilLast marks a comparison where one side is a nil timestamp; those sort
// after every set value regardless of direction.
const nilLast = 2

func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		return strings.Compare(x, b.(string))
	case int:
		y := b.(int)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case time.Time:
		return x.Compare(b.(time.Time))
	case *time.Time:
		y := b.(*time.Time)
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return nilLast
		case y == nil:
			return -nilLast
		}
		return x.Compare(*y)
	}
	return 0
}
