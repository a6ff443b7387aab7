package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"

	AuthModeNone = "none"
	AuthModeJWT  = "jwt"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PresignTTLSeconds int
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) Diagnostics() (level string, code string, msg string) {
	allEmpty := strings.TrimSpace(c.Endpoint) == "" &&
		strings.TrimSpace(c.Region) == "" &&
		strings.TrimSpace(c.Bucket) == "" &&
		strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == ""

	if allEmpty {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	missing := c.MissingRequired()
	if len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary returns a summary for logging (no secrets)
func (c S3Config) DiagnosticsSummary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s presign_ttl=%ds access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		c.PresignTTLSeconds,
		SetOrNot(c.AccessKeyID),
		SetOrNot(c.SecretAccessKey),
	)
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

type NutritionConfig struct {
	BaseURL         string
	UserAgent       string
	TimeoutSeconds  int
	CacheTTLMinutes int
}

// Config содержит конфигурацию приложения
type Config struct {
	Env      string // local | staging | production
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct > DB_* params)
	DatabaseURLRaw    string // DATABASE_URL as provided
	DatabaseURLPooled string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	RunMigrationsOnStartup bool

	// Ledger
	LedgerTimezone *time.Location

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Authentication
	AuthMode      string // none | jwt
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int
	AdminToken    string

	// Conversation sessions
	SessionStore      string // memory | redis
	SessionTTLMinutes int
	Redis             RedisConfig

	Nutrition NutritionConfig

	Blob           BlobConfig
	ReportsMaxDays int

	// Warnings collected while parsing; logged once a logger exists.
	Warnings []string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	port := envInt("PORT", 8080)

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "debug"
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT > DB_HOST/...
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}
	if runtimeDB == "" {
		runtimeDB = databaseURLFromParams()
		if dbURL == "" {
			dbURL = runtimeDB
		}
	}

	runMigrationsOnStartup := parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP")

	// ---------- Ledger ----------
	location := time.UTC
	if tz := strings.TrimSpace(os.Getenv("LEDGER_TIMEZONE")); tz != "" {
		loaded, err := time.LoadLocation(tz)
		if err != nil {
			warnf("unknown LEDGER_TIMEZONE=%q, fallback to UTC", tz)
		} else {
			location = loaded
		}
	}

	// ---------- CORS ----------
	corsOrigins := parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env)
	corsAllowCreds := parseBoolEnv("CORS_ALLOW_CREDENTIALS")

	// ---------- Rate Limiting ----------
	rateLimitRPS := envInt("RATE_LIMIT_RPS", 0)
	rateLimitBurst := envInt("RATE_LIMIT_BURST", 0)

	// ---------- Auth ----------
	authMode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	if authMode == "" {
		authMode = AuthModeNone
	}
	if authMode != AuthModeNone && authMode != AuthModeJWT {
		warnf("unknown AUTH_MODE=%q, fallback to none", authMode)
		authMode = AuthModeNone
	}
	authRequired := authMode != AuthModeNone && parseBoolEnv("AUTH_REQUIRED")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change_me"
	}
	if jwtSecret == "change_me" && env != "local" {
		warnf("JWT_SECRET is set to 'change_me' in non-local environment")
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "activelife"
	}
	jwtTTLMinutes := envInt("JWT_TTL_MINUTES", 10080)

	// ---------- Sessions ----------
	sessionStore := strings.ToLower(strings.TrimSpace(os.Getenv("SESSION_STORE")))
	if sessionStore == "" {
		sessionStore = SessionStoreMemory
	}
	if sessionStore != SessionStoreMemory && sessionStore != SessionStoreRedis {
		warnf("unknown SESSION_STORE=%q, fallback to memory", sessionStore)
		sessionStore = SessionStoreMemory
	}
	sessionTTL := envInt("SESSION_TTL_MINUTES", 60)
	if sessionTTL <= 0 {
		sessionTTL = 60
	}
	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	// ---------- Nutrition lookup ----------
	nutritionTimeout := envInt("NUTRITION_TIMEOUT_SECONDS", 12)
	if nutritionTimeout <= 0 {
		nutritionTimeout = 12
	}
	nutritionUA := strings.TrimSpace(os.Getenv("NUTRITION_USER_AGENT"))
	if nutritionUA == "" {
		nutritionUA = "activelife/1.0 (+https://github.com/fdg312/activelife)"
	}

	// ---------- Blob / S3 ----------
	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}
	blobMode, ok := parseBlobMode(os.Getenv("BLOB_MODE"), BlobModeLocal)
	if !ok {
		warnf("unknown BLOB_MODE=%q, fallback to %s", os.Getenv("BLOB_MODE"), BlobModeLocal)
	}

	reportsMaxDays := envInt("REPORTS_MAX_DAYS", 90)
	if reportsMaxDays <= 0 {
		reportsMaxDays = 90
	}

	return &Config{
		Env:      env,
		Port:     port,
		LogLevel: logLevel,

		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		RunMigrationsOnStartup: runMigrationsOnStartup,

		LedgerTimezone: location,

		CORSAllowedOrigins:   corsOrigins,
		CORSAllowCredentials: corsAllowCreds,

		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,

		AuthMode:      authMode,
		AuthRequired:  authRequired,
		JWTSecret:     jwtSecret,
		JWTIssuer:     jwtIssuer,
		JWTTTLMinutes: jwtTTLMinutes,
		AdminToken:    strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),

		SessionStore:      sessionStore,
		SessionTTLMinutes: sessionTTL,
		Redis: RedisConfig{
			URL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},

		Nutrition: NutritionConfig{
			BaseURL:         strings.TrimSpace(os.Getenv("NUTRITION_BASE_URL")),
			UserAgent:       nutritionUA,
			TimeoutSeconds:  nutritionTimeout,
			CacheTTLMinutes: envInt("NUTRITION_CACHE_TTL_MINUTES", 60),
		},

		Blob: BlobConfig{
			Mode: blobMode,
			S3: S3Config{
				Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
				Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
				Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
				AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
				SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
				PresignTTLSeconds: s3PresignTTL,
			},
		},
		ReportsMaxDays: reportsMaxDays,

		Warnings: warnings,
	}
}

// SessionTTL returns the conversation session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// databaseURLFromParams builds a postgres URL from the discrete DB_* variables.
// Returns "" when DB_HOST is not set.
func databaseURLFromParams() string {
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		return ""
	}
	port := strings.TrimSpace(os.Getenv("DB_PORT"))
	if port == "" {
		port = "5432"
	}
	name := strings.TrimSpace(os.Getenv("DB_NAME"))
	if name == "" {
		name = "health_tracker"
	}
	user := strings.TrimSpace(os.Getenv("DB_USER"))
	if user == "" {
		user = "postgres"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, os.Getenv("DB_PASSWORD")),
		Host:   host + ":" + port,
		Path:   "/" + name,
	}
	if mode := strings.TrimSpace(os.Getenv("DB_SSLMODE")); mode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(mode)
	}
	return u.String()
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081"}
		}
		return nil
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(raw string, defaultVal string) (string, bool) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		return defaultVal, true
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode, true
	default:
		return defaultVal, false
	}
}

// SetOrNot masks a secret for logging.
func SetOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
