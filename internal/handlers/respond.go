package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vidtube/backend/internal/account"
	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/mutate"
)

// apiResponse is the success envelope shared by every endpoint.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the failure envelope shared by every endpoint.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError is the single translation point from errors to the failure
// envelope. Typed business errors keep their category's status and message;
// anything unexpected becomes a generic 500 that leaks nothing.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	if errors.Is(err, mutate.ErrNoChanges) || errors.Is(err, account.ErrNoChanges) {
		writeJSON(ctx, w, http.StatusBadRequest, apiError{
			StatusCode: http.StatusBadRequest,
			Message:    "no changes provided",
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := appErr.Status()
		payload := apiError{StatusCode: status, Message: appErr.Message}
		if appErr.Field != "" {
			payload.Errors = []string{fmt.Sprintf("%s: %s", appErr.Field, appErr.Message)}
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "status", status, "error", appErr.Unwrap())
		} else {
			logger.Warn("request rejected", "status", status, "message", appErr.Message)
		}
		writeJSON(ctx, w, status, payload)
		return
	}

	logger.Error("unexpected error", "error", err)
	writeJSON(ctx, w, http.StatusInternalServerError, apiError{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.InvalidInput("body", "invalid request body")
	}
	return nil
}
