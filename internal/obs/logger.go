// Package obs is the logging, tracing and metrics plumbing shared by every
// apiwatch binary.
package obs

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogConfig struct {
	Level  string
	Pretty bool
	App    string
	Env    string
	Ver    string
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	l, _, err := NewLeveledLogger(c)
	return l, err
}

// NewLeveledLogger is NewLogger plus the level handle, which can be changed
// while the process runs (zap.AtomicLevel serves GET and PUT over HTTP).
func NewLeveledLogger(c LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	cfg := zap.NewProductionConfig()
	if c.Pretty {
		cfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var static []zap.Field
	for _, f := range [][2]string{{"service", c.App}, {"env", c.Env}, {"version", c.Ver}} {
		if f[1] != "" {
			static = append(static, zap.String(f[0], f[1]))
		}
	}
	l, err := cfg.Build(zap.Fields(static...))
	if err != nil {
		return nil, level, err
	}
	return l, level, nil
}

// WithTrace tags log with the trace and span ids of the span in ctx, if any.
func WithTrace(ctx context.Context, log *zap.Logger) *zap.Logger {
	if log == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
