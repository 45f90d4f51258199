package run_worker_config

import (
	"github.com/NordCoder/apiwatch/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)
	common.SetAppDefaults(v, "run-worker")
	common.SetDBDefaults(v, 20, 5)
	common.SetOutboxDefaults(v)

	v.SetDefault("kafka_in.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka_in.topic", common.TopicRunRequests)
	v.SetDefault("kafka_in.group_id", "run-worker")
	v.SetDefault("kafka_in.partitions", 3)

	v.SetDefault("kafka_alerts.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka_alerts.topic", common.TopicAlerts)

	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.user_agent", "apiwatch-monitor/1.0")
	v.SetDefault("http.no_follow_redirects", false)
	v.SetDefault("http.insecure_skip_verify", false)
	v.SetDefault("http.max_body_bytes", 5<<20)

	v.SetDefault("server.metrics_addr", ":8083")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
