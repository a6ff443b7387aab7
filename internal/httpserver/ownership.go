package httpserver

import (
	"net/http"
	"strings"

	"github.com/fdg312/activelife/internal/config"
	"github.com/fdg312/activelife/internal/httpx"
	"github.com/fdg312/activelife/internal/userctx"
)

// RequireMatchingUser rejects requests whose user_id query parameter names
// someone other than the authenticated subject. Without auth the parameter
// is the identity and nothing is checked.
func RequireMatchingUser(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.AuthMode != config.AuthModeJWT {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := userctx.GetUserID(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		requested := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if requested != "" && requested != subject {
			// 404, не 403: не раскрываем существование чужих данных
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}

		next.ServeHTTP(w, r)
	})
}
