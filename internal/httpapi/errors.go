package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"mtexp/internal/runstore"
	"mtexp/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeServiceError maps well-known service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var he HTTPError
	switch {
	case runstore.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &he):
		writeJSONError(w, he.StatusCode(), he.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
