package notification

import "context"

type Repo interface {
	Create(ctx context.Context, n *Notification) error
	ListByMonitor(ctx context.Context, monitorID string, limit int) ([]*Notification, error)
}
