package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/blob"
	"github.com/fdg312/activelife/internal/config"
	"github.com/fdg312/activelife/internal/conversation"
	"github.com/fdg312/activelife/internal/dbmigrate"
	"github.com/fdg312/activelife/internal/httpserver"
	"github.com/fdg312/activelife/internal/logging"
	"github.com/fdg312/activelife/internal/nutrition"
	"github.com/fdg312/activelife/internal/storage"
	"github.com/fdg312/activelife/internal/storage/memory"
	"github.com/fdg312/activelife/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v, using defaults\n", err)
		logger = logging.Must(cfg.Env, "")
	}
	defer logger.Sync()

	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}

	printStartupBanner(logger, cfg)
	validateProductionConfig(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			logger.Fatal("startup migrations", zap.Error(err))
		}

		logger.Info("startup migrations", zap.String("command", "up"), zap.String("using", source))
		if err := dbmigrate.Run(ctx, "up", dbURL, "", logger.Named("goose")); err != nil {
			logger.Fatal("startup migrations failed", zap.Error(err))
		}
		logger.Info("startup migrations completed")
	}

	ledgerStore := openStorage(ctx, logger, cfg)

	sessions, closeSessions := openSessions(ctx, logger, cfg)
	defer closeSessions()

	blobStore, blobMode, err := blob.NewBlobStore(ctx, cfg.Blob, logger.Named("blob"))
	if err != nil {
		logger.Fatal("blob store", zap.Error(err))
	}
	logger.Info("reports export", zap.String("blob_mode", blobMode))

	server := httpserver.New(cfg, httpserver.Deps{
		Ledger: ledgerStore,
		Nutrition: nutrition.NewOpenFoodFacts(
			cfg.Nutrition.BaseURL,
			cfg.Nutrition.UserAgent,
			time.Duration(cfg.Nutrition.TimeoutSeconds)*time.Second,
		),
		Sessions: sessions,
		Blob:     blobStore,
	}, logger)
	defer server.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// openStorage подключает Postgres; без DATABASE_URL — in-memory.
// Локально ошибка подключения откатывается на memory, в production — fatal.
func openStorage(ctx context.Context, logger *zap.Logger, cfg *config.Config) storage.Ledger {
	if cfg.DatabaseURL == "" {
		logger.Info("storage", zap.String("backend", "memory"))
		return memory.New()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pg, err := postgres.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		if isProd(cfg) {
			logger.Fatal("postgres connection failed", zap.Error(err))
		}
		logger.Warn("postgres connection failed, fallback to in-memory storage", zap.Error(err))
		return memory.New()
	}

	logger.Info("storage", zap.String("backend", "postgres"))
	return pg
}

// openSessions returns the conversation session store and its closer.
func openSessions(ctx context.Context, logger *zap.Logger, cfg *config.Config) (conversation.SessionStore, func()) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return conversation.NewMemoryStore(cfg.SessionTTL()), func() {}
	}

	client, err := conversation.NewRedisClient(ctx, cfg.Redis, logger.Named("redis"))
	if err != nil {
		if isProd(cfg) {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		logger.Warn("redis connection failed, sessions kept in memory", zap.Error(err))
		return conversation.NewMemoryStore(cfg.SessionTTL()), func() {}
	}

	return conversation.NewRedisStore(client, cfg.SessionTTL()), func() { _ = client.Close() }
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// No secrets are ever printed, only masked indicators ("set" / "not set").
func printStartupBanner(logger *zap.Logger, cfg *config.Config) {
	fields := []zap.Field{
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
		zap.String("ledger_timezone", timezoneName(cfg)),

		zap.String("db_runtime_url", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled)),
		zap.String("db_direct", setOrNot(cfg.DatabaseURLDirect)),
		zap.Bool("migrations_on_startup", cfg.RunMigrationsOnStartup),

		zap.String("auth_mode", cfg.AuthMode),
		zap.Bool("auth_required", cfg.AuthRequired),
		zap.String("jwt_secret", secretStatus(cfg.JWTSecret, "change_me")),
		zap.String("admin_token", setOrNot(cfg.AdminToken)),

		zap.String("session_store", cfg.SessionStore),
		zap.Int("session_ttl_minutes", cfg.SessionTTLMinutes),

		zap.String("nutrition_base_url", nonEmptyOrDash(cfg.Nutrition.BaseURL)),
		zap.Int("nutrition_cache_ttl_minutes", cfg.Nutrition.CacheTTLMinutes),

		zap.String("blob_mode", cfg.Blob.Mode),
		zap.Int("reports_max_days", cfg.ReportsMaxDays),
	}
	if cfg.SessionStore == config.SessionStoreRedis {
		fields = append(fields,
			zap.String("redis_url", setOrNot(cfg.Redis.URL)),
			zap.String("redis_addr", cfg.Redis.Addr),
		)
	}
	if cfg.Blob.Mode != config.BlobModeLocal {
		fields = append(fields, zap.String("s3", cfg.Blob.S3.DiagnosticsSummary()))
	}

	logger.Info("ActiveLife API", fields...)
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(logger *zap.Logger, cfg *config.Config) {
	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			logger.Fatal("BLOB_MODE is 's3' but S3 config is incomplete",
				zap.String("missing", strings.Join(missing, ", ")))
		}
	}

	if !isProd(cfg) {
		return
	}

	if cfg.AuthMode == config.AuthModeJWT && cfg.JWTSecret == "change_me" {
		logger.Fatal("JWT_SECRET must not be 'change_me'", zap.String("env", cfg.Env))
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("no DATABASE_URL configured", zap.String("env", cfg.Env))
	}
}

// ---- helpers (no secrets) ----

func isProd(cfg *config.Config) bool {
	return cfg.Env == "production" || cfg.Env == "staging"
}

func timezoneName(cfg *config.Config) string {
	if cfg.LedgerTimezone == nil {
		return "UTC"
	}
	return cfg.LedgerTimezone.String()
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT — insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
