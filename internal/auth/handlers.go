package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/httpx"
)

type Handlers struct {
	service    *Service
	middleware *Middleware
	logger     *zap.Logger
}

func NewHandlers(service *Service, middleware *Middleware, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{service: service, middleware: middleware, logger: logger}
}

// HandleIssueToken handles POST /v1/auth/token.
// With ADMIN_TOKEN set the caller must present it; without one tokens are
// issued freely outside production (dev mode).
func (h *Handlers) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	cfg := h.middleware.config
	switch {
	case cfg.AdminToken != "":
		if !h.middleware.adminAllowed(r) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid admin token")
			return
		}
	case cfg.Env == "production":
		httpx.WriteError(w, http.StatusForbidden, "token_issuing_disabled", "Set ADMIN_TOKEN to issue tokens in production")
		return
	}

	var req TokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "user_id_required", "user_id is required")
		return
	}

	resp, err := h.service.IssueToken(req.UserID)
	if err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
