// Package httpx holds the JSON response helpers shared by feature handlers.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
)

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON encodes before writing the header; an unencodable value (NaN, Inf) yields 500.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: ErrorDetail{Code: "encode_failed", Message: "Failed to encode response"}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteAppError maps a typed failure onto its status; untyped errors become 500.
// Causes are logged, never sent to the client.
func WriteAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	typed, ok := apperr.As(err)
	if !ok {
		if logger != nil {
			logger.Error("unhandled error", zap.Error(err))
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal error")
		return
	}

	status := apperr.HTTPStatus(typed.Kind)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Warn("request failed",
			zap.String("kind", string(typed.Kind)),
			zap.String("code", typed.Code),
			zap.Error(typed.Err),
		)
	}
	WriteError(w, status, typed.Code, typed.Message)
}

// DecodeJSON decodes a request body, rejecting unknown fields and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid_json", "Invalid JSON body")
	}
	if dec.More() {
		return apperr.Validation("invalid_json", "Invalid JSON body")
	}
	return nil
}
