package ledger

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/httpx"
	"github.com/fdg312/activelife/internal/userctx"
)

type Handlers struct {
	service *Service
	logger  *zap.Logger
}

func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// HandleLogWater handles POST /v1/water
func (h *Handlers) HandleLogWater(w http.ResponseWriter, r *http.Request) {
	var req WaterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	userID, ok := userctx.Resolve(r.Context(), req.UserID)
	if !ok {
		httpx.WriteAppError(w, h.logger, ErrUserRequired)
		return
	}

	rec, err := h.service.ApplyWaterDelta(r.Context(), userID, req.AmountML)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, NewRecordResponse(rec))
}

// HandleGetToday handles GET /v1/records/today
func (h *Handlers) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.Resolve(r.Context(), r.URL.Query().Get("user_id"))
	if !ok {
		httpx.WriteAppError(w, h.logger, ErrUserRequired)
		return
	}

	rec, err := h.service.GetOrCreateToday(r.Context(), userID)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, NewRecordResponse(rec))
}

// HandleGetLatest handles GET /v1/records/latest
func (h *Handlers) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.Resolve(r.Context(), r.URL.Query().Get("user_id"))
	if !ok {
		httpx.WriteAppError(w, h.logger, ErrUserRequired)
		return
	}

	rec, err := h.service.GetLatest(r.Context(), userID)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, NewRecordResponse(rec))
}

// HandleClearAll handles DELETE /v1/admin/records
func (h *Handlers) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
