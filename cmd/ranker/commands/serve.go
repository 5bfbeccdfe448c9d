package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesops/stackranker/internal/alerts"
	"github.com/salesops/stackranker/internal/api"
	"github.com/salesops/stackranker/internal/api/handlers"
	"github.com/salesops/stackranker/internal/commentary"
	"github.com/salesops/stackranker/internal/digest"
	"github.com/salesops/stackranker/internal/loader"
	"github.com/salesops/stackranker/internal/scheduler"
	"github.com/salesops/stackranker/internal/scheduler/jobs"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/config"
	"github.com/salesops/stackranker/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and scheduler",
	Long: `Starts the HTTP API server together with the scheduled jobs.

On startup the dataset is loaded from DATA_PATH; when the file is missing
a synthetic dataset is generated so the dashboard is usable immediately.

Endpoints:
  GET  /health                - Health check
  GET  /api/dashboard         - Full metrics snapshot
  GET  /api/reps              - Rep rankings
  GET  /api/stages            - Stage distribution and pipeline health
  GET  /api/sources           - Source rollups
  GET  /api/alerts            - Triggered alerts
  GET  /api/commentary        - Narrative summary
  GET  /api/dataset           - Dataset status
  POST /api/dataset           - Replace dataset from CSV upload
  GET  /api/dataset/template  - CSV template download
  POST /api/dataset/sample    - Generate synthetic dataset
  GET  /api/live              - WebSocket snapshot feed

Example:
  go run ./cmd/ranker serve
  go run ./cmd/ranker serve --port 8080 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "disable scheduled jobs")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing server")

	// Session state and initial dataset
	s := store.New()
	loadInitialDataset(s, cfg, log)

	// Supporting services
	renderer, err := digest.NewRenderer()
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	mailer := digest.NewMailer(cfg.SMTP, log)
	commentaryClient := commentary.New(cfg.Commentary, log)

	alertConfig := alerts.Config{
		DropFraction:           cfg.Alerts.DropFraction,
		AgingDaysThreshold:     cfg.Alerts.AgingDaysThreshold,
		RepPerformanceFraction: cfg.Alerts.RepPerformanceFraction,
	}
	if err := alertConfig.Validate(); err != nil {
		return fmt.Errorf("alert config: %w", err)
	}

	// Handlers and router
	router := api.NewRouter(
		handlers.NewDashboardHandler(s, log),
		handlers.NewDatasetHandler(s, log),
		handlers.NewAlertsHandler(s, alertConfig, log),
		handlers.NewCommentaryHandler(s, commentaryClient, log),
		handlers.NewLiveHandler(s, log),
		log,
	)

	server := api.New(cfg, log, router)

	// Scheduled jobs
	var sched *scheduler.Scheduler
	if !serveNoScheduler {
		sched = scheduler.New(log)
		jobList := []scheduler.Job{
			jobs.NewDigestJob(s, renderer, mailer, log),
			jobs.NewAlertSweepJob(s, alertConfig, renderer, mailer, log),
			jobs.NewRefreshJob(s, cfg.DataPath, log),
		}
		for _, job := range jobList {
			if err := sched.AddJob(job); err != nil {
				return fmt.Errorf("add job: %w", err)
			}
		}
		sched.Start()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// loadInitialDataset loads the CSV feed, falling back to synthetic data so
// the service always starts with something to show.
func loadInitialDataset(s *store.Store, cfg *config.Config, log *logger.Logger) {
	asOf := time.Now().UTC()

	ds, err := loader.LoadFile(cfg.DataPath)
	if err != nil {
		log.WithError(err).WithField("path", cfg.DataPath).
			Warn("Failed to load dataset, generating synthetic data")
		ds = loader.Generate(200, 42, asOf)
	}

	if _, err := s.Replace(ds, asOf); err != nil {
		log.WithError(err).Error("Failed to compute initial snapshot")
		return
	}

	log.WithField("rows", ds.Len()).Info("Initial dataset loaded")
}
