package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/apiwatch/internal/config/scheduler"
	"github.com/NordCoder/apiwatch/internal/obs"
	kafkaRepo "github.com/NordCoder/apiwatch/internal/repository/kafka"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/scheduler"
	"github.com/NordCoder/apiwatch/internal/services/scheduler/repo"
)

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "../config/scheduler.yaml"
}

func main() {
	// init
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting scheduler",
		zap.Any("kafka_out", cfg.Kafka),
		zap.Duration("tick", cfg.Sched.Tick),
		zap.String("metrics_addr", cfg.Sched.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	prod := kafkaRepo.BootstrapProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
	defer func() { _ = prod.Close() }()
	events := kafkaRepo.NewMonitorEventsKafka(prod, nil)

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Sched.MetricsAddr, db.Ping, l)

	// wiring
	uc := scheduler.NewUC(
		repo.MonitorRepo{R: pg.NewMonitorRepo(db)},
		repo.Events{P: events},
		l,
	)
	runner := scheduler.New(l, uc, &cfg.Sched)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()
	l.Info("scheduler started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
