package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/activity"
	"github.com/fdg312/activelife/internal/config"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/logging"
	"github.com/fdg312/activelife/internal/reports"
	"github.com/fdg312/activelife/internal/storage"
	"github.com/fdg312/activelife/internal/storage/postgres"
)

// OpenFunc opens the ledger store the commands run against.
type OpenFunc func(ctx context.Context, databaseURL string) (storage.Ledger, error)

// app — сервисы, собранные для одной команды
type app struct {
	ledger   *ledger.Service
	activity *activity.Service
	reports  *reports.Service
}

type rootOptions struct {
	open        OpenFunc
	now         func() time.Time
	databaseURL string
	userID      string
	verbose     bool
}

func openPostgres(ctx context.Context, databaseURL string) (storage.Ledger, error) {
	if databaseURL == "" {
		return nil, errors.New("no database configured: set DATABASE_URL or pass --database-url")
	}
	return postgres.New(ctx, databaseURL)
}

// newRootCommand builds the command tree; open and now are replaceable in tests.
func newRootCommand(open OpenFunc, now func() time.Time) *cobra.Command {
	opts := &rootOptions{open: open, now: now}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "ledgerctl inspects and repairs the ActiveLife daily ledger",
		Long:          "ledgerctl runs maintenance and logging operations directly against the ledger database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres URL (default: DATABASE_URL / DB_* from env)")
	root.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "User id")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log service events to stderr")

	root.AddCommand(
		newTodayCmd(opts),
		newLogWaterCmd(opts),
		newLogActivityCmd(opts),
		newStatsCmd(opts),
		newRecalcNetCmd(opts),
		newReportCmd(opts),
		newClearAllCmd(opts),
	)
	return root
}

// withApp opens the store, wires the services and closes the store afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load()
	dbURL := o.databaseURL
	if dbURL == "" {
		dbURL = cfg.DatabaseURL
	}

	logger := zap.NewNop()
	if o.verbose {
		logger = logging.Must("local", "debug")
	}

	store, err := o.open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	loc := cfg.LedgerTimezone
	if loc == nil {
		loc = time.UTC
	}
	ledgerService := ledger.NewService(store, loc, logger.Named("ledger"))
	if o.now != nil {
		ledgerService.SetClock(o.now)
	}

	return run(ctx, &app{
		ledger:   ledgerService,
		activity: activity.NewService(ledgerService, logger.Named("activity")),
		reports:  reports.NewService(ledgerService, nil, cfg.ReportsMaxDays, 0, logger.Named("reports")),
	})
}

func (o *rootOptions) requireUser() (string, error) {
	if o.userID == "" {
		return "", errors.New("--user is required")
	}
	return o.userID, nil
}

func execute() {
	if err := newRootCommand(openPostgres, nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
