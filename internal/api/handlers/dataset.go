package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/salesops/stackranker/internal/loader"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// DatasetHandler manages the loaded dataset: uploads, status, the CSV
// template and synthetic sample generation.
type DatasetHandler struct {
	store  *store.Store
	logger *logger.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(s *store.Store, log *logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		store:  s,
		logger: log,
	}
}

// Upload replaces the dataset from an uploaded CSV. The file is read from
// the "file" multipart field, or from the raw request body when the request
// is not multipart.
// POST /api/dataset
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	reader := r.Body
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Multipart upload requires a \"file\" field")
			return
		}
		defer file.Close()
		reader = file
	}

	ds, err := loader.LoadCSV(reader)
	if err != nil {
		var structural *loader.StructuralLoadError
		if errors.As(err, &structural) {
			respondError(w, http.StatusBadRequest, structural.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to load uploaded dataset")
		respondError(w, http.StatusInternalServerError, "Failed to load dataset")
		return
	}

	snap, err := h.store.Replace(ds, time.Now().UTC())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute snapshot for uploaded dataset")
		respondError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"rows":           ds.Len(),
		"malformed_rows": ds.MalformedRows,
	}).Info("Dataset replaced from upload")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"rows":        ds.Len(),
			"diagnostics": snap.Diagnostics,
		},
	})
}

// GetStatus reports whether a dataset is loaded and its shape.
// GET /api/dataset
func (h *DatasetHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ds := h.store.Dataset()
	if ds == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"loaded": false},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"loaded":                true,
			"rows":                  ds.Len(),
			"malformed_rows":        ds.MalformedRows,
			"has_late_stage_column": ds.HasLateStageColumn,
		},
	})
}

// Template returns a two-row example CSV with the expected columns.
// GET /api/dataset/template
func (h *DatasetHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := loader.TemplateCSV()
	if err != nil {
		h.logger.WithError(err).Error("Failed to build CSV template")
		respondError(w, http.StatusInternalServerError, "Failed to build template")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales_pipeline_template.csv"`)
	w.Write(data)
}

// GenerateSample replaces the dataset with synthetic data.
// POST /api/dataset/sample?rows=N&seed=S
func (h *DatasetHandler) GenerateSample(w http.ResponseWriter, r *http.Request) {
	rows := 200
	if rowsStr := r.URL.Query().Get("rows"); rowsStr != "" {
		parsed, err := strconv.Atoi(rowsStr)
		if err != nil || parsed < 1 || parsed > 100000 {
			respondError(w, http.StatusBadRequest, "rows must be between 1 and 100000")
			return
		}
		rows = parsed
	}

	seed := time.Now().UnixNano()
	if seedStr := r.URL.Query().Get("seed"); seedStr != "" {
		parsed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "seed must be an integer")
			return
		}
		seed = parsed
	}

	asOf := time.Now().UTC()
	ds := loader.Generate(rows, seed, asOf)

	snap, err := h.store.Replace(ds, asOf)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute snapshot for sample dataset")
		respondError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"rows":        ds.Len(),
			"seed":        seed,
			"diagnostics": snap.Diagnostics,
		},
	})
}
