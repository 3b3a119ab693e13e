// Package api provides the HTTP handlers for the JoinMe scheduling API,
// including standardized error handling.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeForbidden indicates the request is forbidden.
	ErrCodeForbidden = "forbidden"

	// ErrCodeConflict indicates a conflict with the current state.
	ErrCodeConflict = "conflict"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeAuthRequired indicates the gateway supplied no user identity.
	ErrCodeAuthRequired = "auth_required"

	// ErrCodeStorage indicates a storage collaborator failure.
	ErrCodeStorage = "storage_error"

	// ErrCodeInconsistentState indicates a broken data relationship, e.g. a
	// serie referencing a group that cannot be loaded. Distinct from
	// storage_error so clients can tell relational breakage from connectivity.
	ErrCodeInconsistentState = "inconsistent_state"

	// ErrCodeCascadePartial indicates the schedule cascade stopped partway;
	// already-shifted events keep their new start times.
	ErrCodeCascadePartial = "cascade_partial_failure"

	// ErrCodeSerieHasEvents indicates a serie deletion was refused because
	// member events still exist.
	ErrCodeSerieHasEvents = "serie_has_events"

	// ErrCodeGroupFieldFrozen indicates an edit to a field inherited from a
	// group.
	ErrCodeGroupFieldFrozen = "group_field_frozen"

	// ErrCodeEventFull indicates a join on an event at capacity.
	ErrCodeEventFull = "event_full"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure:
// {"error": {"code": "...", "message": "...", "fields": {...}}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code, a human-readable message, and for
// validation failures a per-field message map.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError writes a standardized JSON error response and records the error
// code for the logging middleware.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	writeErrorDetail(w, ctx, status, ErrorDetail{Code: code, Message: message})
}

// WriteValidationError writes a validation_error response carrying per-field
// messages.
func WriteValidationError(w http.ResponseWriter, ctx context.Context, fields map[string]string) {
	writeErrorDetail(w, ctx, http.StatusBadRequest, ErrorDetail{
		Code:    ErrCodeValidation,
		Message: "One or more fields are invalid",
		Fields:  fields,
	})
}

func writeErrorDetail(w http.ResponseWriter, ctx context.Context, status int, detail ErrorDetail) {
	middleware.SetErrorCode(ctx, detail.Code)

	data, err := json.Marshal(ErrorResponse{Error: detail})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// WriteJSON writes a JSON success response with the given status.
func WriteJSON(w http.ResponseWriter, ctx context.Context, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
