package run_worker_config

import (
	"github.com/NordCoder/apiwatch/internal/config/common"
	pginfra "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/executor"
)

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	App    common.App      `mapstructure:"app"`
	Log    common.Log      `mapstructure:"log"`
	OTEL   common.OTEL     `mapstructure:"otel"`
	DB     pginfra.Config  `mapstructure:"db"`
	In     common.KafkaIn  `mapstructure:"kafka_in"`
	Alerts common.KafkaOut `mapstructure:"kafka_alerts"`
	Outbox common.Outbox   `mapstructure:"outbox"`
	HTTP   executor.Config `mapstructure:"http"`
	Server Server          `mapstructure:"server"`
}
