package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/workfree/search-briefing/internal/notify"
)

// HealthHandler reports service liveness and notifier configuration.
type HealthHandler struct {
	Notifier notify.Notifier
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "healthy",
		"smtp_configured": h.Notifier.Configured(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// Root returns the service banner.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service": "search-briefing",
		"status":  "running",
		"endpoints": map[string]string{
			"schedule":  "/schedule",
			"schedules": "/schedules",
			"search":    "/api/search",
			"email":     "/api/email",
			"health":    "/health",
			"metrics":   "/metrics",
		},
	})
}
