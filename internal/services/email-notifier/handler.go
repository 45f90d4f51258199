package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/obs/retry"
)

var ErrNoRecipient = errors.New("alert has no recipient")

const TypeEmail = "email"

type Handler struct {
	Store notification.Repo
	Out   notification.EmailSender
	Clock clock.Clock
	Log   *zap.Logger
	// Retry wraps the SMTP hand-off; the zero value sends once.
	Retry retry.Policy
}

// HandleAlert emails the alert and records it. A failed record is logged only;
// the email has already gone out.
func (h *Handler) HandleAlert(ctx context.Context, a notification.Alert) error {
	if a.Email == "" {
		return ErrNoRecipient
	}
	subject := Subject(a)
	body, err := RenderHTML(a)
	if err != nil {
		return err
	}

	send := func(ctx context.Context) error { return h.Out.Send(ctx, a.Email, subject, body) }
	if err := retry.Do(ctx, send, h.Retry); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if h.Store == nil {
		return nil
	}
	if err := h.Store.Create(ctx, &notification.Notification{
		MonitorID: a.MonitorID,
		Email:     a.Email,
		Type:      TypeEmail,
		Subject:   subject,
		SentAt:    h.Clock.Now().UTC(),
		Payload:   body,
	}); err != nil {
		h.Log.Warn("store notification", zap.String("monitor_id", a.MonitorID), zap.Error(err))
	}
	return nil
}
