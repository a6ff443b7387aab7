package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/config"
	"github.com/fdg312/activelife/internal/httpx"
)

// AdminTokenHeader carries ADMIN_TOKEN for administrative endpoints.
const AdminTokenHeader = "X-Admin-Token"

// Middleware — middleware для проверки авторизации
type Middleware struct {
	config  *config.Config
	service *Service
	logger  *zap.Logger
}

func NewMiddleware(cfg *config.Config, service *Service, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		config:  cfg,
		service: service,
		logger:  logger,
	}
}

// Wrap picks RequireAuth when AUTH_REQUIRED is on, otherwise OptionalAuth.
// With AUTH_MODE=none requests pass through and identity comes from user_id.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m.config.AuthMode != config.AuthModeJWT {
		return next
	}
	if m.config.AuthRequired {
		return m.RequireAuth(next)
	}
	return m.OptionalAuth(next)
}

// RequireAuth — middleware для защиты эндпоинтов
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(r.Header.Get("Authorization"))
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth validates Bearer token only when it is provided.
// Without token, requests pass through unchanged.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(authHeader)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		m.logger.Debug("auth token accepted",
			zap.String("sub", userID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// RequireAdmin guards administrative endpoints with ADMIN_TOKEN.
// Without a configured token they are disabled.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.adminAllowed(r) {
			if m.config.AdminToken == "" {
				httpx.WriteError(w, http.StatusForbidden, "admin_disabled", "ADMIN_TOKEN is not configured")
				return
			}
			m.logger.Warn("admin token rejected", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) adminAllowed(r *http.Request) bool {
	expected := m.config.AdminToken
	if expected == "" {
		return false
	}
	got := strings.TrimSpace(r.Header.Get(AdminTokenHeader))
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}

	return m.service.VerifyJWT(parts[1])
}

func isPublicPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
