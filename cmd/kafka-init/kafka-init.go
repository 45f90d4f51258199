package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/config/common"
	"github.com/NordCoder/apiwatch/internal/obs"
	kafkaRepo "github.com/NordCoder/apiwatch/internal/repository/kafka"
)

var defaultTopics = common.TopicRunRequests + "," + common.TopicAlerts

func main() {
	brokers := strings.Split(env("KAFKA_BROKERS", "kafka:9092"), ",")
	partitions := envInt("KAFKA_PARTITIONS", 3)
	rf := envInt("KAFKA_RF", 1)

	l, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "apiwatch/kafka-init"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	var specs []kafkaRepo.TopicSpec
	for _, t := range strings.Split(env("KAFKA_TOPICS", defaultTopics), ",") {
		if t = strings.TrimSpace(t); t != "" {
			specs = append(specs, kafkaRepo.TopicSpec{
				Name:              t,
				NumPartitions:     partitions,
				ReplicationFactor: rf,
				MaxWait:           30 * time.Second,
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	// the broker container is often still starting
	for attempt := 1; ; attempt++ {
		err = kafkaRepo.EnsureTopics(ctx, brokers, l, specs...)
		if err == nil || ctx.Err() != nil {
			break
		}
		l.Warn("kafka not ready", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		l.Fatal("ensure topics", zap.Error(err))
	}
	l.Info("kafka-init ok", zap.Int("topics", len(specs)))
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
