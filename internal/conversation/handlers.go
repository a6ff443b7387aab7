package conversation

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/httpx"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/userctx"
)

var ErrEmptyMessage = apperr.Validation("empty_message", "either text or action is required")

type Handlers struct {
	controller *Controller
	logger     *zap.Logger
}

func NewHandlers(controller *Controller, logger *zap.Logger) *Handlers {
	return &Handlers{controller: controller, logger: logger}
}

// HandleMessage handles POST /v1/conversation/messages
func (h *Handlers) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := httpx.DecodeJSON(r, &msg); err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	userID, ok := userctx.Resolve(r.Context(), msg.UserID)
	if !ok {
		httpx.WriteAppError(w, h.logger, ledger.ErrUserRequired)
		return
	}
	msg.UserID = userID

	if strings.TrimSpace(msg.Text) == "" && strings.TrimSpace(msg.Action) == "" {
		httpx.WriteAppError(w, h.logger, ErrEmptyMessage)
		return
	}

	resp, err := h.controller.Handle(r.Context(), msg)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
