package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so every error body
// has the same shape:
//
//	{"error": "not_found", "message": "Class Not Found"}
//
// writeError is the single place where apperror values become status codes.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/classroom/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate body is an
// assignment with free-text notes.
const maxBodyBytes = 1 << 20

const msgInternal = "An internal error occurred"

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code. Headers must be
// set before WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error to its HTTP status and machine-readable type.
//
//	ErrValidation   → 400 validation_error
//	ErrConflict     → 400 conflict
//	ErrUnauthorized → 401 unauthorized
//	ErrForbidden    → 403 forbidden
//	ErrNotFound     → 404 not_found
//	anything else   → 500 internal_error
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps err to a status code and sends it.
//
// Only *apperror.AppError messages reach the caller. Anything else is logged
// with the request id and answered with a generic 500: raw errors can carry
// SQL, file paths or driver details.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, errType := statusFor(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: msgInternal,
		})
		return
	}

	writeJSON(w, logger, status, ErrorResponse{
		Error:   errType,
		Message: appErr.Message,
	})
}

// decodeJSON reads the request body into dst. An empty body leaves dst at its
// zero value, so the service reports the first missing field instead of a
// parse error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("", "Request body too large")
		}
		return apperror.ValidationFailed("", "Invalid JSON body")
	}
	return nil
}

// pathID parses the {id} URL parameter. Non-numeric and non-positive ids are
// rejected before any lookup.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return id, nil
}
