package handler

// RESPONSE HELPERS:
// These functions standardise how handlers send JSON and map domain errors
// to HTTP. Every error response has the same shape:
//
//	{"error": "not_found", "message": "event not found with id 3"}
//
// so a frontend always knows what fields to expect, whatever the status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/goldendays/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status MUST be set before the body: the first Write (which
// Encode does internally) sends them, and changes after that are silently
// ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// This is the single place domain errors meet HTTP. The services return
// apperror sentinels; errors.Is walks the wrap chain so the mapping works no
// matter how many fmt.Errorf layers are in between:
//
//	validation  → 400 (caller sent something the edge rejects)
//	not found   → 404 (update/delete/read of a missing id)
//	foreign key → 422 (media referencing a nonexistent event — a well-formed
//	                   request the store cannot honor)
//	storage     → 500 (database unreachable; nothing the client did)
//
// Unknown errors become a generic 500 — raw internals (SQL text, file paths)
// are never echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForeignKey):
			status = http.StatusUnprocessableEntity
			errorType = "foreign_key_violation"
		case errors.Is(err, apperror.ErrStorage):
			status = http.StatusInternalServerError
			errorType = "storage_failure"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
