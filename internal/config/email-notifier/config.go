package email_notifier_config

import (
	"time"

	"github.com/NordCoder/apiwatch/internal/config/common"
	pginfra "github.com/NordCoder/apiwatch/internal/repository/postgres"
)

type SMTP struct {
	Addr     string        `mapstructure:"addr"`
	From     string        `mapstructure:"from"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	App    common.App     `mapstructure:"app"`
	Log    common.Log     `mapstructure:"log"`
	OTEL   common.OTEL    `mapstructure:"otel"`
	DB     pginfra.Config `mapstructure:"db"`
	In     common.KafkaIn `mapstructure:"kafka_in"`
	SMTP   SMTP           `mapstructure:"smtp"`
	Server Server         `mapstructure:"server"`
}
