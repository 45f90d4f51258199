package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const (
	qNotifInsert = `
INSERT INTO notifications (monitor_id, email, type, subject, sent_at, payload)
VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6)
RETURNING id, sent_at;
`
	qNotifByMonitor = `
SELECT id, monitor_id, email, type, subject, sent_at, payload
FROM notifications
WHERE monitor_id = $1
ORDER BY sent_at DESC
LIMIT $2;
`
)

func (r *NotificationRepoImpl) Create(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifInsert,
		n.MonitorID,
		n.Email,
		n.Type,
		n.Subject,
		nullTime(n.SentAt),
		n.Payload,
	).Scan(&n.ID, &n.SentAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepoImpl) ListByMonitor(ctx context.Context, monitorID string, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qNotifByMonitor, monitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0, limit)
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.MonitorID, &n.Email, &n.Type, &n.Subject, &n.SentAt, &n.Payload); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
