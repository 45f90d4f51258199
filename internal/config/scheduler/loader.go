package scheduler_config

import (
	"github.com/NordCoder/apiwatch/internal/config/common"
)

func Load(path string) (*Config, error) {
	v := common.NewViper(path)
	common.SetAppDefaults(v, "scheduler")
	common.SetDBDefaults(v, 10, 2)

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", common.TopicRunRequests)

	v.SetDefault("sched.tick", "1s")
	v.SetDefault("sched.batch_limit", 100)
	v.SetDefault("sched.metrics_addr", ":8082")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
