// Package httpapi exposes the auth service over a thin JSON/HTTP boundary.
// Handlers only decode, call the service, and encode; all decisions live in
// the services package.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spetrenko/authkeeper/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes data with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps sentinel errors to HTTP status codes. Unauthorized-family
// errors share one body so the caller cannot tell which check failed.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "user with this email already exists"})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
