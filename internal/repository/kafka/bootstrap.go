package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const bootstrapWait = 5 * time.Second

// BootstrapConsumer creates the consumer's topic when it is missing. A broker
// that is not up yet is tolerated: the reader keeps retrying on its own.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, logger *zap.Logger) *Consumer {
	_ = EnsureTopics(ctx, cfg.Brokers, logger, TopicSpec{
		Name:          cfg.Topic,
		NumPartitions: cfg.Partitions,
		MaxWait:       bootstrapWait,
	})
	return NewConsumer(cfg)
}

// BootstrapProducer makes sure the topic exists before the first write.
func BootstrapProducer(ctx context.Context, brokers []string, topic string, logger *zap.Logger) *Producer {
	_ = EnsureTopics(ctx, brokers, logger, TopicSpec{Name: topic, MaxWait: bootstrapWait})
	return NewProducer(brokers, topic).WithLogger(logger)
}
