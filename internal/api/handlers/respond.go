package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// parseDate reads an optional YYYY-MM-DD query parameter.
// An absent parameter yields the zero time.
func parseDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(panel.DateLayout, raw)
}
