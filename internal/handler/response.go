package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "invalid_enum", "message": "gender \"x\" is not one of [...]", "field": "gender"}
//
// "error" is a machine-readable kind, "message" is for humans and "field"
// (omitted when not applicable) names the offending JSON field.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/user-service/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error kind (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // JSON field that caused the error
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKinds maps each sentinel to its status code and wire name. Order
// matters: the specific validation kinds come before ErrValidation, which
// they all match.
var errorKinds = []struct {
	sentinel error
	status   int
	kind     string
}{
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrDuplicateEmail, http.StatusBadRequest, "duplicate_email"},
	{apperror.ErrInvalidFormat, http.StatusBadRequest, "invalid_format"},
	{apperror.ErrInvalidEnum, http.StatusBadRequest, "invalid_enum"},
	{apperror.ErrFutureDate, http.StatusBadRequest, "future_date"},
	{apperror.ErrTooOld, http.StatusBadRequest, "too_old"},
	{apperror.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The service layer never knows about HTTP; this is the one place where
// apperror sentinels become status codes. errors.As walks the wrap chain,
// so fmt.Errorf("creating user: %w", appErr) still maps correctly.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, k := range errorKinds {
			if errors.Is(err, k.sentinel) {
				writeJSON(w, k.status, ErrorResponse{
					Error:   k.kind,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	// Unknown error: never expose internals (SQL, file paths) to the client.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// writeBadRequest reports a malformed request (bad JSON, bad query number).
func writeBadRequest(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
		Field:   field,
	})
}
