package food

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/httpx"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/userctx"
)

type Handlers struct {
	service *Service
	logger  *zap.Logger
}

func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// HandleLog handles POST /v1/food
func (h *Handlers) HandleLog(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	userID, ok := userctx.Resolve(r.Context(), req.UserID)
	if !ok {
		httpx.WriteAppError(w, h.logger, ledger.ErrUserRequired)
		return
	}

	if !ValidGrams(req.Grams) {
		httpx.WriteAppError(w, h.logger, ErrInvalidGrams)
		return
	}

	rate := req.CaloriesPer100g
	if rate == 0 {
		resolved, err := h.service.ResolveCaloriesPer100g(r.Context(), req.FoodName)
		if err != nil {
			httpx.WriteAppError(w, h.logger, err)
			return
		}
		rate = resolved
	}

	result, err := h.service.LogFood(r.Context(), userID, req.FoodName, req.Grams, rate)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, result)
}

// HandleToday handles GET /v1/food/today
func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.Resolve(r.Context(), r.URL.Query().Get("user_id"))

	resp, err := h.service.TodayFood(r.Context(), userID)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
