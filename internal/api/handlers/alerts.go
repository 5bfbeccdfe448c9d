package handlers

import (
	"net/http"

	"github.com/salesops/stackranker/internal/alerts"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

// AlertsHandler evaluates alert rules against the stored snapshots.
type AlertsHandler struct {
	store  *store.Store
	config alerts.Config
	logger *logger.Logger
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(s *store.Store, cfg alerts.Config, log *logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		store:  s,
		config: cfg,
		logger: log,
	}
}

// GetAlerts evaluates the current snapshot against the previous one and
// returns the triggered alerts.
// GET /api/alerts
func (h *AlertsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	current, previous := h.store.Snapshots()
	if current == nil {
		respondError(w, http.StatusNotFound, "No dataset loaded")
		return
	}

	events := alerts.Evaluate(current, previous, h.config)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":  len(events),
			"alerts": events,
		},
	})
}
