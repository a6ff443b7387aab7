package reports

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/httpx"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/userctx"
)

// Handlers handles HTTP requests for reports
type Handlers struct {
	service *Service
	logger  *zap.Logger
}

// NewHandlers creates new handlers
func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// HandleDaily handles GET /v1/reports/daily?format=csv|pdf&days=N
func (h *Handlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, ok := userctx.Resolve(r.Context(), q.Get("user_id"))
	if !ok {
		httpx.WriteAppError(w, h.logger, ledger.ErrUserRequired)
		return
	}

	days, err := parseDays(q.Get("days"))
	if err != nil {
		httpx.WriteAppError(w, h.logger, h.service.errInvalidDays())
		return
	}

	data, ct, report, err := h.service.Render(r.Context(), userID, q.Get("format"), days)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	ext := FormatCSV
	if strings.HasPrefix(ct, "application/pdf") {
		ext = FormatPDF
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="activelife-%s-%dd.%s"`, report.To, report.Days, ext))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleExport handles POST /v1/reports/daily/export
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	userID, ok := userctx.Resolve(r.Context(), req.UserID)
	if !ok {
		httpx.WriteAppError(w, h.logger, ledger.ErrUserRequired)
		return
	}
	if req.Days == 0 {
		req.Days = DefaultDays
	}

	resp, err := h.service.Export(r.Context(), userID, req.Format, req.Days)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func parseDays(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultDays, nil
	}
	return strconv.Atoi(raw)
}
