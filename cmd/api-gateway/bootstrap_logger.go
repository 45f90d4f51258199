package main

import (
	"go.uber.org/zap"

	config "github.com/NordCoder/apiwatch/internal/config/api-gateway"
	"github.com/NordCoder/apiwatch/internal/obs"
)

// initLogger also returns the level so /loglevel can change it at runtime.
func initLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	return obs.NewLeveledLogger(cfg.Log.AsLoggerConfig(cfg.App))
}
