package email_notifier_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SMTP_FROM", "alerts@example.com")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "alerts@example.com", cfg.SMTP.From)
	assert.Equal(t, 5*time.Second, cfg.SMTP.Timeout)
	assert.Equal(t, "apiwatch.monitor.alert", cfg.In.Topic)
	assert.Equal(t, "email-notifier", cfg.In.GroupID)
}
