package handler

import (
	"net/http"

	"github.com/wanderai/travel-gateway/internal/events"
	"github.com/wanderai/travel-gateway/internal/provider"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	dispatcher *provider.Dispatcher
	publisher  events.Publisher
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(dispatcher *provider.Dispatcher, pub events.Publisher) *HealthHandler {
	return &HealthHandler{
		dispatcher: dispatcher,
		publisher:  pub,
	}
}

// Health handles GET /health. It reports which providers are configured but
// never invokes one.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	providers := h.dispatcher.Providers()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"providers":        providers,
		"events_connected": h.publisher.Connected(),
	})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if len(h.dispatcher.Providers()) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "no providers configured",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
