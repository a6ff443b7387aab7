// Package logging builds the zap loggers shared by the binaries.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for production/staging and a
// console development logger otherwise. An empty level keeps the preset's default.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "staging":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	if strings.TrimSpace(level) != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build()
}

// Must is New that falls back to a no-op logger instead of failing.
func Must(env, level string) *zap.Logger {
	logger, err := New(env, level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// PrintfLogger adapts a zap logger to Printf/Fatalf style consumers (goose).
type PrintfLogger struct {
	sugar *zap.SugaredLogger
}

func NewPrintfLogger(logger *zap.Logger) *PrintfLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintfLogger{sugar: logger.Sugar()}
}

func (l *PrintfLogger) Printf(format string, v ...any) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l *PrintfLogger) Fatalf(format string, v ...any) {
	l.sugar.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}
