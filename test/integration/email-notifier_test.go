//go:build integration

package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
)

func TestEmailNotifierHappyPath(t *testing.T) {
	cfg := LoadCfg()
	MailhogPurge(t, cfg.MailhogAPI)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.AlertsTopic)
	db := DBOpen(t, cfg.DBDSN)

	alert := notification.Alert{
		MonitorID:    UniqueID("mon"),
		MonitorName:  "it orders",
		Email:        "ops@example.com",
		Status:       503,
		ResponseTime: 120,
		Threshold:    200,
		URL:          "http://example.com/orders",
		Method:       "GET",
		At:           time.Now().UTC(),
	}
	PublishJSON(t, cfg.KafkaBootstrap, cfg.AlertsTopic, []byte(alert.MonitorID), alert)

	rep := WaitMailhogCount(t, cfg.MailhogAPI, 1, 25*time.Second)
	require.NotEmpty(t, rep.Items, "no mail")
	body := rep.Items[0].Content.Body
	assert.True(t, strings.Contains(body, "example.com/orders"), "bad body: %q", body)

	var (
		ok      bool
		subject string
	)
	require.Eventually(t, func() bool {
		ok, subject = FindNotification(t, db, alert.MonitorID)
		return ok
	}, 10*time.Second, 250*time.Millisecond, "notification not stored")
	assert.Contains(t, subject, "it orders")
}

func TestEmailNotifierAlertWithoutRecipientIgnored(t *testing.T) {
	cfg := LoadCfg()
	MailhogPurge(t, cfg.MailhogAPI)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.AlertsTopic)

	alert := notification.Alert{MonitorID: UniqueID("mon"), MonitorName: "silent", Status: 500}
	PublishJSON(t, cfg.KafkaBootstrap, cfg.AlertsTopic, []byte(alert.MonitorID), alert)
	ExpectNoMailhog(t, cfg.MailhogAPI, 6*time.Second)
}
