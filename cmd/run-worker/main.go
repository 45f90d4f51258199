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

	config "github.com/NordCoder/apiwatch/internal/config/run-worker"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/obs"
	"github.com/NordCoder/apiwatch/internal/obs/retry"
	"github.com/NordCoder/apiwatch/internal/outbox"
	"github.com/NordCoder/apiwatch/internal/repository/kafka"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/executor"
	runworker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "../config/run-worker.yaml"
}

func wire(cfg *config.Config, db *pg.DB, events *kafka.MonitorEventsKafka, cons *kafka.Consumer, l *zap.Logger) (*outbox.Runner, *runworker.Controller) {
	outboxRepo := pg.NewOutboxRepo(db)
	tests := pg.NewAPITestRepo(db)

	dispatch := outbox.MakeGlobalOutboxHandler(events, retry.DefaultKafkaPolicy(l))
	outboxRunner := outbox.NewOutboxRunner(
		l,
		outboxRepo,
		dispatch,
		cfg.Outbox.Workers,
		cfg.Outbox.BatchSize,
		cfg.Outbox.WaitTime,
		cfg.Outbox.InProgressTTL,
	)

	exec := executor.New(executor.NewHTTPClient(cfg.HTTP), tests, clock.System{}, l, cfg.HTTP)
	uc := &runworker.Handler{
		Monitors:   pg.NewMonitorRepo(db),
		Tests:      tests,
		Exec:       exec,
		Transactor: pg.NewTransactor(db, l),
		Alerter:    runworker.OutboxAlerter{Outbox: outboxRepo},
		Clock:      clock.System{},
		Log:        l,
	}

	return outboxRunner, &runworker.Controller{Log: l, Sub: cons, UC: uc}
}

func main() {
	// init
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
	l.Info("starting run-worker",
		zap.Any("kafka_in", cfg.In),
		zap.Any("kafka_alerts", cfg.Alerts),
		zap.Duration("http_timeout", cfg.HTTP.Timeout),
	)

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(root, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Ping, l)

	// kafka
	cons := kafka.BootstrapConsumer(root, cfg.In.AsConsumerConfig(), l).WithLogger(l)
	defer func() { _ = cons.Close() }()

	prod := kafka.BootstrapProducer(root, cfg.Alerts.Brokers, cfg.Alerts.Topic, l)
	defer func() { _ = prod.Close() }()
	events := kafka.NewMonitorEventsKafka(nil, prod)

	// wiring
	outboxRunner, ctrl := wire(cfg, db, events, cons, l)

	// start
	outboxRunner.Start(root)
	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Run(root) }()

	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("controller error", zap.Error(err))
		}
	}
	stop()
	outboxRunner.Wait()

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
