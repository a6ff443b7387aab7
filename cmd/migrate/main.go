package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/config"
	"github.com/fdg312/activelife/internal/dbmigrate"
	"github.com/fdg312/activelife/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/migrate [up|status|down] [migrations-dir]")
		os.Exit(2)
	}

	command := os.Args[1]
	switch command {
	case "up", "status", "down":
	default:
		fmt.Fprintf(os.Stderr, "unsupported command %q (allowed: up, status, down)\n", command)
		os.Exit(2)
	}

	// пустой каталог — встроенные миграции
	dir := ""
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	cfg := config.Load()
	logger := logging.Must(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	if warning != "" {
		logger.Warn("migrate", zap.String("warning", warning))
	}
	logger.Info("migrate", zap.String("command", command), zap.String("using", source))

	if err := dbmigrate.Run(context.Background(), command, dbURL, dir, logger.Named("goose")); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	logger.Info("migrate completed", zap.String("command", command))
}
