package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/salesops/stackranker/internal/digest"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

// DigestJob sends the daily pipeline digest email.
type DigestJob struct {
	store    *store.Store
	renderer *digest.Renderer
	mailer   *digest.Mailer
	logger   *logger.Logger
}

// NewDigestJob creates a new digest job.
func NewDigestJob(s *store.Store, renderer *digest.Renderer, mailer *digest.Mailer, log *logger.Logger) *DigestJob {
	return &DigestJob{
		store:    s,
		renderer: renderer,
		mailer:   mailer,
		logger:   log,
	}
}

// Name returns the job name.
func (j *DigestJob) Name() string {
	return "daily_digest"
}

// Schedule returns the cron schedule (every day at 9 AM).
func (j *DigestJob) Schedule() string {
	return "0 0 9 * * *"
}

// Run renders and sends the digest for the current snapshot.
func (j *DigestJob) Run(ctx context.Context) error {
	snap := j.store.Snapshot()
	if snap == nil {
		j.logger.Warn("No dataset loaded, skipping digest")
		return nil
	}

	html, err := j.renderer.RenderDigest(snap, quarterStart(snap.AsOf), snap.AsOf)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	subject := "Sales Pipeline Digest - " + snap.AsOf.Format("Jan 2, 2006")
	if err := j.mailer.Send(subject, html); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	j.logger.WithField("as_of", snap.AsOf).Info("Daily digest sent")
	return nil
}

// quarterStart returns the first day of t's calendar quarter.
func quarterStart(t time.Time) time.Time {
	quarterMonth := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
}
