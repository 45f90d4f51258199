package api_gateway_config

import (
	"errors"

	"github.com/NordCoder/apiwatch/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)
	common.SetAppDefaults(v, "api-gateway")
	common.SetDBDefaults(v, 20, 5)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "5s")
	// sending a test waits for the remote API
	v.SetDefault("server.write_timeout", "45s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.user_agent", "apiwatch/1.0")
	v.SetDefault("http.no_follow_redirects", false)
	v.SetDefault("http.insecure_skip_verify", false)
	v.SetDefault("http.max_body_bytes", 5<<20)

	v.SetDefault("memory", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if !cfg.Memory && cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required unless memory is set")
	}
	return &cfg, nil
}
