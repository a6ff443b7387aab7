package userctx

import (
	"context"
	"strings"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// Resolve prefers the authenticated subject; without one it falls back to
// the caller-supplied id (auth disabled).
func Resolve(ctx context.Context, fallback string) (string, bool) {
	if userID, ok := GetUserID(ctx); ok {
		return userID, true
	}
	fallback = strings.TrimSpace(fallback)
	return fallback, fallback != ""
}
