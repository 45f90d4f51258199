package api_gateway_config

import (
	"time"

	"github.com/NordCoder/apiwatch/internal/config/common"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/executor"
)

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type Config struct {
	App    common.App      `mapstructure:"app"`
	Server Server          `mapstructure:"server"`
	DB     pg.Config       `mapstructure:"db"`
	OTEL   common.OTEL     `mapstructure:"otel"`
	Log    common.Log      `mapstructure:"log"`
	HTTP   executor.Config `mapstructure:"http"`
	// Memory keeps everything in process instead of Postgres.
	Memory bool `mapstructure:"memory"`
}
