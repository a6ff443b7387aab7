package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/logging"
	"github.com/fdg312/activelife/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Run applies a goose command using migrations from disk.
// An empty migrationsDir selects the embedded set.
func Run(ctx context.Context, command string, dbURL string, migrationsDir string, logger *zap.Logger) error {
	if migrationsDir == "" {
		return RunFS(ctx, command, dbURL, migrations.FS, ".", logger)
	}
	return RunFS(ctx, command, dbURL, nil, migrationsDir, logger)
}

// RunFS applies a goose command with migrations read from fsys (nil = OS filesystem).
func RunFS(ctx context.Context, command string, dbURL string, fsys fs.FS, dir string, logger *zap.Logger) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(logging.NewPrintfLogger(logger))

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}
