package activity

import (
	"net/http"
	"strconv"
	"strings"

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

// HandleLog handles POST /v1/activities
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

	result, err := h.service.LogActivity(r.Context(), userID, req.ActivityType, req.DurationMinutes)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, result)
}

// HandleToday handles GET /v1/activities/today
func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.Resolve(r.Context(), r.URL.Query().Get("user_id"))

	events, err := h.service.TodayActivities(r.Context(), userID)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, EventsResponse{Activities: events})
}

// HandleStats handles GET /v1/activities/stats?days=7
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.Resolve(r.Context(), r.URL.Query().Get("user_id"))

	days := DefaultStatsDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteAppError(w, h.logger, ErrInvalidDays)
			return
		}
		days = v
	}

	stats, err := h.service.Statistics(r.Context(), userID, days)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stats)
}

// HandleRates handles GET /v1/activities/types
func (h *Handlers) HandleRates(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, RatesResponse{Rates: RateTable, DefaultRate: DefaultRate})
}
