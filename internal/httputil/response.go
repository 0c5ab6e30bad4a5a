// Package httputil writes responses in the Writely envelope format:
// successes as {message, status, data, metadata, links}, failures as
// {status, error: {code, message, details}, metadata}.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"
)

// WriteSuccess writes a success envelope. data and metadata may be nil.
func WriteSuccess(w http.ResponseWriter, status int, message string, data, metadata any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, status, map[string]any{
		"message":  message,
		"status":   "success",
		"data":     data,
		"metadata": metadata,
		"links":    map[string]any{},
	})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]any{
		"status": "error",
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": map[string]any{},
		},
		"metadata": map[string]any{
			"timestamps": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// WriteBadRequest writes a 400 failure.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 failure.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, http.StatusUnauthorized, message)
}

// WriteNotFound writes a 404 failure.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, http.StatusNotFound, message)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers already sent; nothing useful left to do.
		return
	}
}
