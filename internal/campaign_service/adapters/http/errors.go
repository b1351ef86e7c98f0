package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
)

// writeAppError maps application errors to HTTP status codes.
func writeAppError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, operation string, resourceID string) {
	logEntry := logger.With("operation", operation, "resource_id", resourceID, "error", err)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		logEntry.WarnContext(ctx, "Resource not found")
		http.Error(w, "Resource not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidSchedule):
		logEntry.WarnContext(ctx, "Invalid campaign schedule")
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidTransition):
		logEntry.WarnContext(ctx, "Rejected campaign status transition")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrSubscriberNotClaimed),
		errors.Is(err, domain.ErrDuplicateEntry):
		logEntry.WarnContext(ctx, "Conflicting state")
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logEntry.WarnContext(ctx, "Request cancelled")
		http.Error(w, "Request timed out", http.StatusServiceUnavailable)
	default:
		logEntry.ErrorContext(ctx, "Unhandled application error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}
