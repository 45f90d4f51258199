package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/apiwatch/internal/config/api-gateway"
	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/repository/memory"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	runworker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

// stores is the persistence the gateway runs on: Postgres, or process memory
// when cfg.Memory is set.
type stores struct {
	tests      apitest.Repo
	monitors   monitor.Repo
	transactor pg.Transactor
	alerter    notification.Alerter
	health     func(context.Context) error
	close      func()
}

func initStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Memory {
		logger.Warn("memory mode: data is lost on restart and alerts are only logged")
		clk := clock.System{}
		return &stores{
			tests:      memory.NewAPITestRepo(clk),
			monitors:   memory.NewMonitorRepo(clk),
			transactor: &memory.Transactor{},
			alerter:    runworker.LogAlerter{Log: logger},
			health:     func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &stores{
		tests:      pg.NewAPITestRepo(db),
		monitors:   pg.NewMonitorRepo(db),
		transactor: pg.NewTransactor(db, logger),
		alerter:    runworker.OutboxAlerter{Outbox: pg.NewOutboxRepo(db)},
		health:     db.Ping,
		close:      db.Close,
	}, nil
}
