package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/salesops/stackranker/internal/api/handlers"
	"github.com/salesops/stackranker/pkg/logger"
)

// NewRouter creates and configures the HTTP router. All routes are declared
// here and nowhere else.
func NewRouter(
	dashboard *handlers.DashboardHandler,
	dataset *handlers.DatasetHandler,
	alerts *handlers.AlertsHandler,
	commentary *handlers.CommentaryHandler,
	live *handlers.LiveHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Snapshot views
	api.HandleFunc("/dashboard", dashboard.GetDashboard).Methods("GET")
	api.HandleFunc("/reps", dashboard.GetReps).Methods("GET")
	api.HandleFunc("/stages", dashboard.GetStages).Methods("GET")
	api.HandleFunc("/sources", dashboard.GetSources).Methods("GET")

	// Dataset management
	api.HandleFunc("/dataset", dataset.Upload).Methods("POST")
	api.HandleFunc("/dataset", dataset.GetStatus).Methods("GET")
	api.HandleFunc("/dataset/template", dataset.Template).Methods("GET")
	api.HandleFunc("/dataset/sample", dataset.GenerateSample).Methods("POST")

	// Derived services
	api.HandleFunc("/alerts", alerts.GetAlerts).Methods("GET")
	api.HandleFunc("/commentary", commentary.GetCommentary).Methods("GET")

	// Live snapshot feed
	api.HandleFunc("/live", live.Serve)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stackranker-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
