package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/salesops/stackranker/internal/alerts"
	"github.com/salesops/stackranker/internal/digest"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

// AlertSweepJob evaluates the alert rules and emails a notification for
// each triggered alert.
type AlertSweepJob struct {
	store    *store.Store
	config   alerts.Config
	renderer *digest.Renderer
	mailer   *digest.Mailer
	logger   *logger.Logger
}

// NewAlertSweepJob creates a new alert sweep job.
func NewAlertSweepJob(s *store.Store, cfg alerts.Config, renderer *digest.Renderer, mailer *digest.Mailer, log *logger.Logger) *AlertSweepJob {
	return &AlertSweepJob{
		store:    s,
		config:   cfg,
		renderer: renderer,
		mailer:   mailer,
		logger:   log,
	}
}

// Name returns the job name.
func (j *AlertSweepJob) Name() string {
	return "alert_sweep"
}

// Schedule returns the cron schedule (every 4 hours).
func (j *AlertSweepJob) Schedule() string {
	return "0 0 */4 * * *"
}

// Run evaluates the alert rules against the stored snapshots.
func (j *AlertSweepJob) Run(ctx context.Context) error {
	current, previous := j.store.Snapshots()
	if current == nil {
		j.logger.Warn("No dataset loaded, skipping alert sweep")
		return nil
	}

	events := alerts.Evaluate(current, previous, j.config)
	if len(events) == 0 {
		j.logger.Debug("No alerts triggered")
		return nil
	}

	now := time.Now()
	for _, event := range events {
		html, err := j.renderer.RenderAlert(event, now)
		if err != nil {
			return fmt.Errorf("render alert %s: %w", event.Type, err)
		}

		subject := event.Type.Label() + " Alert - " + now.Format("Jan 2, 2006")
		if err := j.mailer.Send(subject, html); err != nil {
			return fmt.Errorf("send alert %s: %w", event.Type, err)
		}
	}

	j.logger.WithField("alerts", len(events)).Info("Alert sweep completed")
	return nil
}
