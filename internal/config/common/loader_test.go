package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViperFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\nkafka_in:\n  topic: from-file\n"), 0o600))
	t.Setenv("KAFKA_IN_TOPIC", "from-env")

	v := NewViper(path)
	SetAppDefaults(v, "svc")

	assert.Equal(t, "debug", v.GetString("log.level"))
	assert.Equal(t, "from-env", v.GetString("kafka_in.topic"))
	assert.Equal(t, "apiwatch/svc", v.GetString("app.name"))
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	v := NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	SetDBDefaults(v, 7, 1)
	assert.Equal(t, 7, v.GetInt("db.max_conns"))
	assert.Contains(t, v.GetString("db.dsn"), "apiwatch")
}

func TestAsConfigs(t *testing.T) {
	app := App{Name: "apiwatch/x", Env: "prod", Version: "1.2.3"}
	lc := Log{Level: "warn", Pretty: true}.AsLoggerConfig(app)
	assert.Equal(t, "apiwatch/x", lc.App)
	assert.Equal(t, "1.2.3", lc.Ver)

	cc := KafkaIn{Brokers: []string{"b:1"}, Topic: "t", GroupID: "g", Partitions: 3}.AsConsumerConfig()
	assert.Equal(t, 3, cc.Partitions)
	assert.Equal(t, "g", cc.GroupID)

	oc := OTEL{Enable: true, OTLPEndpoint: "collector:4317"}.AsOTELConfig(app)
	assert.Equal(t, "collector:4317", oc.Endpoint)
	assert.Equal(t, "1.2.3", oc.ServiceVersion)
	assert.Equal(t, "prod", oc.Environment)
}
