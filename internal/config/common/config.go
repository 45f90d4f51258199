package common

import (
	"time"

	"github.com/NordCoder/apiwatch/internal/obs"
	kafkax "github.com/NordCoder/apiwatch/internal/repository/kafka"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc OTEL) AsOTELConfig(app App) *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:         oc.Enable,
		Endpoint:       oc.OTLPEndpoint,
		Insecure:       oc.Insecure,
		ServiceName:    oc.ServiceName,
		ServiceVersion: app.Version,
		Environment:    app.Env,
		SampleRatio:    oc.SampleRatio,
	}
}

type KafkaIn struct {
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	GroupID    string   `mapstructure:"group_id"`
	Partitions int      `mapstructure:"partitions"`
}

func (k KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers:    k.Brokers,
		GroupID:    k.GroupID,
		Topic:      k.Topic,
		Partitions: k.Partitions,
	}
}

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

const (
	TopicRunRequests = "apiwatch.monitor.run"
	TopicAlerts      = "apiwatch.monitor.alert"
)
