package httputil

import (
	"encoding/json"
	"net/http"
)

// JSON writes v with the given status. A nil v sends just the status line
// and headers.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Decode reads a JSON request body into dst. Bodies over 1 MiB are refused.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

// BadRequest is for requests that are malformed before they reach a service.
func BadRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: msg})
}

// NotFound mirrors the error renderer's shape for routing-level misses.
func NotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: "not found"})
}

// Unauthorized is the API answer where a browser flow would redirect to
// login.
func Unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, ErrorBody{Code: "UNAUTHORIZED", Message: "authentication required"})
}

func TooManyRequests(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, ErrorBody{Code: "RATE_LIMITED", Message: "too many requests"})
}
