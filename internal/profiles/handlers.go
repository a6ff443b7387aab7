package profiles

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/httpx"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/userctx"
)

// Handler содержит HTTP обработчики профиля
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler создаёт новый handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleRegister обрабатывает POST /v1/profile
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	userID, ok := userctx.Resolve(r.Context(), req.UserID)
	if !ok {
		httpx.WriteAppError(w, h.logger, ledger.ErrUserRequired)
		return
	}
	req.UserID = userID

	view, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}

// HandleView обрабатывает GET /v1/profile
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.Resolve(r.Context(), r.URL.Query().Get("user_id"))
	if !ok {
		httpx.WriteAppError(w, h.logger, ledger.ErrUserRequired)
		return
	}

	view, err := h.service.View(r.Context(), userID)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}
