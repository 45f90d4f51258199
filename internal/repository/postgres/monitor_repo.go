package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/query"
)

var _ monitor.Repo = (*MonitorRepoImpl)(nil)

type MonitorRepoImpl struct {
	db *DB
}

func NewMonitorRepo(db *DB) *MonitorRepoImpl { return &MonitorRepoImpl{db: db} }

var monitorColumns = map[string]string{
	"name":         "name",
	"frequency":    "frequency",
	"active":       "active",
	"next_run":     "next_run",
	"last_run":     "last_run",
	"created_date": "created_date",
	"updated_date": "updated_date",
}

var monitorDefaultSort = query.Desc("created_date")

const (
	monitorCols = `id, name, description, test_id, frequency, notification_email, active,
       success_threshold, history, next_run, last_run, created_date, updated_date`

	monitorSelect = `SELECT ` + monitorCols + ` FROM api_monitors`

	qMonitorInsert = `
INSERT INTO api_monitors (id, name, description, test_id, frequency, notification_email, active,
                          success_threshold, history, next_run, last_run)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
RETURNING created_date, updated_date;`

	qMonitorUpdate = `
UPDATE api_monitors
SET name = $2, description = $3, test_id = $4, frequency = $5, notification_email = $6,
    active = $7, success_threshold = $8, history = $9::jsonb, next_run = $10, last_run = $11,
    updated_date = now()
WHERE id = $1
RETURNING created_date, updated_date;`

	qMonitorDelete = `DELETE FROM api_monitors WHERE id = $1;`

	qMonitorFetchDue = monitorSelect + `
WHERE active = TRUE AND next_run IS NOT NULL AND next_run <= now()
ORDER BY next_run
FOR UPDATE SKIP LOCKED
LIMIT $1;`

	// Pushes next_run forward so the same monitor is not dispatched again on the
	// next tick; the worker sets the authoritative value after the run.
	qMonitorBumpNextRun = `
UPDATE api_monitors
SET next_run = now() + CASE frequency
        WHEN 'hourly' THEN INTERVAL '1 hour'
        WHEN 'weekly' THEN INTERVAL '7 days'
        ELSE INTERVAL '1 day'
    END,
    updated_date = now()
WHERE id = ANY($1);`

	qMonitorReleaseDue = `
UPDATE api_monitors SET next_run = $2, updated_date = now() WHERE id = $1;`
)

func scanMonitor(row pgx.Row, m *monitor.Monitor) error {
	var (
		freq    string
		history []byte
	)
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.TestID,
		&freq,
		&m.NotificationEmail,
		&m.Active,
		&m.SuccessThreshold,
		&history,
		&m.NextRun,
		&m.LastRun,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if err := mapPgErr(err); err == ErrNotFound {
			return err
		}
		return fmt.Errorf("scan monitor: %w", err)
	}
	m.Frequency = monitor.Frequency(freq)
	if err := fromJSON(history, &m.History); err != nil {
		return fmt.Errorf("decode monitor %s history: %w", m.ID, err)
	}
	if m.History == nil {
		m.History = []monitor.Entry{}
	}
	return nil
}

func (r *MonitorRepoImpl) list(ctx context.Context, q string, args ...any) ([]*monitor.Monitor, error) {
	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query monitors: %w", err)
	}
	defer rows.Close()

	var out []*monitor.Monitor
	for rows.Next() {
		var m monitor.Monitor
		if err := scanMonitor(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *MonitorRepoImpl) List(ctx context.Context, sort query.Sort) ([]*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return r.list(ctx, monitorSelect+orderBy(sort, monitorColumns, monitorDefaultSort))
}

func (r *MonitorRepoImpl) get(ctx context.Context, q, id string) (*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m monitor.Monitor
	if err := scanMonitor(r.db.execQueryer(ctx).QueryRow(ctx, q, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MonitorRepoImpl) Get(ctx context.Context, id string) (*monitor.Monitor, error) {
	return r.get(ctx, monitorSelect+` WHERE id = $1;`, id)
}

func (r *MonitorRepoImpl) GetForUpdate(ctx context.Context, id string) (*monitor.Monitor, error) {
	if _, err := extractTx(ctx); err != nil {
		return nil, fmt.Errorf("get monitor for update: %w", err)
	}
	return r.get(ctx, monitorSelect+` WHERE id = $1 FOR UPDATE;`, id)
}

func (r *MonitorRepoImpl) Create(ctx context.Context, m *monitor.Monitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.History == nil {
		m.History = []monitor.Entry{}
	}
	history, err := toJSON(m.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	err = r.db.execQueryer(ctx).QueryRow(ctx, qMonitorInsert,
		m.ID, m.Name, m.Description, m.TestID, string(m.Frequency), m.NotificationEmail, m.Active,
		m.SuccessThreshold, history, m.NextRun, m.LastRun,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert monitor: %w", mapPgErr(err))
	}
	return nil
}

func (r *MonitorRepoImpl) Update(ctx context.Context, m *monitor.Monitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if m.History == nil {
		m.History = []monitor.Entry{}
	}
	history, err := toJSON(m.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	err = r.db.execQueryer(ctx).QueryRow(ctx, qMonitorUpdate,
		m.ID, m.Name, m.Description, m.TestID, string(m.Frequency), m.NotificationEmail, m.Active,
		m.SuccessThreshold, history, m.NextRun, m.LastRun,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err := mapPgErr(err); err == ErrNotFound {
			return err
		}
		return fmt.Errorf("update monitor: %w", mapPgErr(err))
	}
	return nil
}

func (r *MonitorRepoImpl) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qMonitorDelete, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MonitorRepoImpl) ReleaseDue(ctx context.Context, id string, nextRun time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qMonitorReleaseDue, id, nextRun)
	if err != nil {
		return fmt.Errorf("release due monitor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MonitorRepoImpl) FetchDue(ctx context.Context, limit int) ([]*monitor.Monitor, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, qMonitorFetchDue, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due: %w", err)
	}

	var (
		out []*monitor.Monitor
		ids []string
	)
	for rows.Next() {
		var m monitor.Monitor
		if err := scanMonitor(rows, &m); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, &m)
		ids = append(ids, m.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(ctx, qMonitorBumpNextRun, ids); err != nil {
		return nil, fmt.Errorf("bump next_run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}
