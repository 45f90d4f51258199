//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/NordCoder/apiwatch/internal/domain/kafka"
)

func TestRunWorkerRecordsRequestedRun(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.RWHealthURL, 60*time.Second)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.RunsTopic)
	db := DBOpen(t, cfg.DBDSN)

	testID := UniqueID("test")
	monID := UniqueID("mon")
	SeedTest(t, db, testID, cfg.AGBaseURL+"/healthz")
	SeedMonitor(t, db, monID, testID, "")

	PublishJSON(t, cfg.KafkaBootstrap, cfg.RunsTopic, []byte(monID), domain.RunRequest{
		MonitorID:   monID,
		RequestedAt: time.Now().UTC(),
	})

	require.Eventually(t, func() bool {
		return MonitorHistoryLen(t, db, monID) >= 1
	}, 30*time.Second, 500*time.Millisecond, "run was not recorded")
}

func TestRunWorkerFailedRunRaisesAlert(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.RWHealthURL, 60*time.Second)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.RunsTopic)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.AlertsTopic)
	db := DBOpen(t, cfg.DBDSN)

	testID := UniqueID("test")
	monID := UniqueID("mon")
	// nothing listens on port 9 so the run records status 0
	SeedTest(t, db, testID, "http://127.0.0.1:9/down")
	SeedMonitor(t, db, monID, testID, "ops@example.com")

	PublishJSON(t, cfg.KafkaBootstrap, cfg.RunsTopic, []byte(monID), domain.RunRequest{MonitorID: monID})

	require.Eventually(t, func() bool {
		ok, _ := FindNotification(t, db, monID)
		return ok
	}, 45*time.Second, time.Second, "alert never reached the notifier")
}
