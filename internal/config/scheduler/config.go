package scheduler_config

import (
	"time"

	"github.com/NordCoder/apiwatch/internal/config/common"
	pginfra "github.com/NordCoder/apiwatch/internal/repository/postgres"
)

type SchedCfg struct {
	Tick        time.Duration `mapstructure:"tick"`
	BatchLimit  int           `mapstructure:"batch_limit"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type Config struct {
	App   common.App      `mapstructure:"app"`
	Log   common.Log      `mapstructure:"log"`
	OTEL  common.OTEL     `mapstructure:"otel"`
	DB    pginfra.Config  `mapstructure:"db"`
	Kafka common.KafkaOut `mapstructure:"kafka"`
	Sched SchedCfg        `mapstructure:"sched"`
}
