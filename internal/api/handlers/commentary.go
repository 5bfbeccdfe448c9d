package handlers

import (
	"net/http"

	"github.com/salesops/stackranker/internal/commentary"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

// CommentaryHandler serves the narrative summary of the current snapshot.
type CommentaryHandler struct {
	store  *store.Store
	client *commentary.Client
	logger *logger.Logger
}

// NewCommentaryHandler creates a new commentary handler.
func NewCommentaryHandler(s *store.Store, client *commentary.Client, log *logger.Logger) *CommentaryHandler {
	return &CommentaryHandler{
		store:  s,
		client: client,
		logger: log,
	}
}

// GetCommentary returns generated commentary for the current snapshot.
// GET /api/commentary
func (h *CommentaryHandler) GetCommentary(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		respondError(w, http.StatusNotFound, "No dataset loaded")
		return
	}

	text := h.client.Generate(r.Context(), snap)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"commentary": text,
			"generated":  h.client.Enabled(),
			"as_of":      snap.AsOf,
		},
	})
}
