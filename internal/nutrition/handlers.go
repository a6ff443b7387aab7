package nutrition

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/httpx"
)

type Handlers struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewHandlers(searcher Searcher, logger *zap.Logger) *Handlers {
	return &Handlers{searcher: searcher, logger: logger}
}

// HandleSearch handles GET /v1/nutrition/search?q=
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) < 2 {
		httpx.WriteAppError(w, h.logger, ErrEmptyQuery)
		return
	}

	product, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		httpx.WriteAppError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, product)
}
