package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/activity"
	"github.com/fdg312/activelife/internal/auth"
	"github.com/fdg312/activelife/internal/blob"
	"github.com/fdg312/activelife/internal/config"
	"github.com/fdg312/activelife/internal/conversation"
	"github.com/fdg312/activelife/internal/food"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/nutrition"
	"github.com/fdg312/activelife/internal/profiles"
	"github.com/fdg312/activelife/internal/reports"
	"github.com/fdg312/activelife/internal/storage"
	"github.com/fdg312/activelife/internal/storage/memory"
)

// Deps — собранные в main зависимости. Пустые поля получают значения
// по умолчанию: memory storage, OpenFoodFacts, memory sessions, без blob.
type Deps struct {
	Ledger    storage.Ledger
	Nutrition nutrition.Searcher
	Sessions  conversation.SessionStore
	Blob      blob.Store
	Now       func() time.Time
}

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	logger         *zap.Logger
	mux            *http.ServeMux
	storage        storage.Ledger
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config: cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.storage = deps.Ledger
	if s.storage == nil {
		logger.Info("using in-memory storage")
		s.storage = memory.New()
	}

	s.routes(deps)
	return s
}

// routes регистрирует маршруты
func (s *Server) routes(deps Deps) {
	cfg := s.config
	loc := cfg.LedgerTimezone
	if loc == nil {
		loc = time.UTC
	}

	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API
	authService := auth.NewService(cfg)
	s.authMiddleware = auth.NewMiddleware(cfg, authService, s.logger.Named("auth"))
	authHandler := auth.NewHandlers(authService, s.authMiddleware, s.logger.Named("auth"))

	// POST /v1/auth/token - issue JWT for a user id
	s.mux.HandleFunc("POST /v1/auth/token", authHandler.HandleIssueToken)

	// Ledger
	ledgerService := ledger.NewService(s.storage, loc, s.logger.Named("ledger"))
	if deps.Now != nil {
		ledgerService.SetClock(deps.Now)
	}
	ledgerHandler := ledger.NewHandlers(ledgerService, s.logger.Named("ledger"))

	// POST /v1/water - add water to today
	s.mux.HandleFunc("POST /v1/water", ledgerHandler.HandleLogWater)

	// GET /v1/records/today - today's record, created on first access
	s.mux.HandleFunc("GET /v1/records/today", ledgerHandler.HandleGetToday)

	// GET /v1/records/latest - latest record without creating one
	s.mux.HandleFunc("GET /v1/records/latest", ledgerHandler.HandleGetLatest)

	// DELETE /v1/admin/records - wipe everything (ADMIN_TOKEN)
	s.mux.Handle("DELETE /v1/admin/records", s.authMiddleware.RequireAdmin(http.HandlerFunc(ledgerHandler.HandleClearAll)))

	// Profiles API
	profileService := profiles.NewService(ledgerService, s.logger.Named("profiles"))
	profileHandler := profiles.NewHandler(profileService, s.logger.Named("profiles"))

	// POST /v1/profile - register / update profile
	s.mux.HandleFunc("POST /v1/profile", profileHandler.HandleRegister)

	// GET /v1/profile - latest record with progress
	s.mux.HandleFunc("GET /v1/profile", profileHandler.HandleView)

	// Activities API
	activityService := activity.NewService(ledgerService, s.logger.Named("activity"))
	activityHandler := activity.NewHandlers(activityService, s.logger.Named("activity"))

	s.mux.HandleFunc("POST /v1/activities", activityHandler.HandleLog)
	s.mux.HandleFunc("GET /v1/activities/today", activityHandler.HandleToday)
	s.mux.HandleFunc("GET /v1/activities/stats", activityHandler.HandleStats)
	s.mux.HandleFunc("GET /v1/activities/types", activityHandler.HandleRates)

	// Nutrition lookup
	searcher := deps.Nutrition
	if searcher == nil {
		searcher = nutrition.NewOpenFoodFacts(
			cfg.Nutrition.BaseURL,
			cfg.Nutrition.UserAgent,
			time.Duration(cfg.Nutrition.TimeoutSeconds)*time.Second,
		)
	}
	cacheTTL := time.Duration(cfg.Nutrition.CacheTTLMinutes) * time.Minute
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	cached := nutrition.NewCached(searcher, cacheTTL)
	nutritionHandler := nutrition.NewHandlers(cached, s.logger.Named("nutrition"))

	// GET /v1/nutrition/search?q= - calories per 100 g
	s.mux.HandleFunc("GET /v1/nutrition/search", nutritionHandler.HandleSearch)

	// Food API
	foodService := food.NewService(ledgerService, cached, s.logger.Named("food"))
	foodHandler := food.NewHandlers(foodService, s.logger.Named("food"))

	s.mux.HandleFunc("POST /v1/food", foodHandler.HandleLog)
	s.mux.HandleFunc("GET /v1/food/today", foodHandler.HandleToday)

	// Conversation API
	sessions := deps.Sessions
	if sessions == nil {
		sessions = conversation.NewMemoryStore(cfg.SessionTTL())
	}
	controller := conversation.NewController(
		sessions,
		profileService,
		ledgerService,
		activityService,
		foodService,
		s.logger.Named("conversation"),
	)
	conversationHandler := conversation.NewHandlers(controller, s.logger.Named("conversation"))

	// POST /v1/conversation/messages - one dialog turn
	s.mux.HandleFunc("POST /v1/conversation/messages", conversationHandler.HandleMessage)

	// Reports API
	presignTTL := time.Duration(cfg.Blob.S3.PresignTTLSeconds) * time.Second
	reportsService := reports.NewService(ledgerService, deps.Blob, cfg.ReportsMaxDays, presignTTL, s.logger.Named("reports"))
	reportsHandler := reports.NewHandlers(reportsService, s.logger.Named("reports"))

	// GET /v1/reports/daily - csv/pdf download
	s.mux.HandleFunc("GET /v1/reports/daily", reportsHandler.HandleDaily)

	// POST /v1/reports/daily/export - upload to blob, presigned URL
	s.mux.HandleFunc("POST /v1/reports/daily/export", reportsHandler.HandleExport)
}

// Handler builds the middleware chain (outermost first):
// CORS → Rate Limit → Auth → user match → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = RequireMatchingUser(s.config, handler)
	handler = s.authMiddleware.Wrap(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер; блокируется до Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server started",
		zap.String("addr", addr),
		zap.String("healthz", fmt.Sprintf("http://localhost%s/healthz", addr)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
