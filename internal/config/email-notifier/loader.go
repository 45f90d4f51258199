package email_notifier_config

import (
	"github.com/NordCoder/apiwatch/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)
	common.SetAppDefaults(v, "email-notifier")
	common.SetDBDefaults(v, 10, 2)

	v.SetDefault("kafka_in.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka_in.topic", common.TopicAlerts)
	v.SetDefault("kafka_in.group_id", "email-notifier")
	v.SetDefault("kafka_in.partitions", 1)

	v.SetDefault("smtp.addr", "localhost:1025")
	v.SetDefault("smtp.from", "noreply@apiwatch.dev")
	v.SetDefault("smtp.use_tls", false)
	v.SetDefault("smtp.timeout", "5s")

	v.SetDefault("server.metrics_addr", ":8084")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
