package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "post not found with id abc123"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
)

// maxBodyBytes caps request bodies; posts are at most a few KB.
const maxBodyBytes = 64 << 10

// ErrorResponse is the standard error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type
	Message string `json:"message"` // human-readable description
}

// UserResponse is the public view of a user. The password never leaves the
// server.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// writeJSON sets headers, then status, then encodes the body. Headers written
// after the body are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to a status code and error type.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Raw errors can carry SQL or file paths; never echo them.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status, errorType = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrDuplicateKey):
		status, errorType = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrStorageUnavailable):
		status, errorType = http.StatusServiceUnavailable, "storage_unavailable"
	}

	writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "sign in required",
	})
}

// decodeJSON reads a JSON body into dst. Malformed bodies become validation
// errors so writeError answers 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}
