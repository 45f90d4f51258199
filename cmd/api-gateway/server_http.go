package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/apiwatch/internal/config/api-gateway"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	gateway "github.com/NordCoder/apiwatch/internal/services/api-gateway"
	"github.com/NordCoder/apiwatch/internal/services/executor"
	runworker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel, st *stores) (*http.Server, error) {
	clk := clock.System{}
	exec := executor.New(executor.NewHTTPClient(cfg.HTTP), st.tests, clk, logger, cfg.HTTP)
	runner := &runworker.Handler{
		Monitors:   st.monitors,
		Tests:      st.tests,
		Exec:       exec,
		Transactor: st.transactor,
		Alerter:    st.alerter,
		Clock:      clk,
		Log:        logger,
	}

	handler, err := gateway.NewHandler(gateway.Deps{
		Log:            logger,
		Tests:          st.tests,
		Monitors:       st.monitors,
		Exec:           exec,
		Runner:         runner,
		Transactor:     st.transactor,
		Clock:          clk,
		Health:         st.health,
		LogLevel:       level,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
