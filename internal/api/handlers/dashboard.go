package handlers

import (
	"net/http"
	"strconv"

	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

// DashboardHandler serves snapshot views of the current metrics.
type DashboardHandler struct {
	store  *store.Store
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(s *store.Store, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:  s,
		logger: log,
	}
}

// GetDashboard returns the full current snapshot.
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		respondError(w, http.StatusNotFound, "No dataset loaded")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snap,
	})
}

// GetReps returns the rep ranking, optionally trimmed to the top N.
// GET /api/reps?top=N
func (h *DashboardHandler) GetReps(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		respondError(w, http.StatusNotFound, "No dataset loaded")
		return
	}

	reps := snap.RepPerformance
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		top, err := strconv.Atoi(topStr)
		if err != nil || top < 1 {
			respondError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		reps = snap.TopReps(top)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":             len(reps),
			"reps":              reps,
			"above_plan_count":  snap.AbovePlanCount(),
			"avg_attainment":    snap.AvgAttainment(),
			"median_attainment": snap.MedianAttainment(),
		},
	})
}

// GetStages returns the stage distribution and pipeline health.
// GET /api/stages
func (h *DashboardHandler) GetStages(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		respondError(w, http.StatusNotFound, "No dataset loaded")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"stages": snap.StageDistribution,
			"health": snap.PipelineHealth,
		},
	})
}

// GetSources returns both source rollups.
// GET /api/sources
func (h *DashboardHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		respondError(w, http.StatusNotFound, "No dataset loaded")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"sources":      snap.SourceBreakdown,
			"lead_sources": snap.LeadSourceBreakdown,
		},
	})
}
