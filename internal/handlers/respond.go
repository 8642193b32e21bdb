package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
)

// writeJSON writes a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an error to its HTTP status and the uniform
// {"message": ...} envelope. Internal causes are logged, never leaked.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("handlers: internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"message": apperr.PublicMessage(err)})
}

// pageParams parses the shared pagination query parameters: before as an
// RFC3339 timestamp and limit as a positive integer. Malformed values are
// ignored and the service defaults apply.
func pageParams(r *http.Request) (*time.Time, int64) {
	var before *time.Time
	if bStr := r.URL.Query().Get("before"); bStr != "" {
		if t, err := time.Parse(time.RFC3339, bStr); err == nil {
			before = &t
		}
	}

	var limit int64
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if parsed, err := strconv.ParseInt(lStr, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return before, limit
}
