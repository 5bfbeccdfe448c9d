package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/salesops/stackranker/internal/loader"
	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

// RefreshJob reloads the CSV feed from disk so the snapshot tracks CRM
// exports dropped into place between uploads.
type RefreshJob struct {
	store  *store.Store
	path   string
	logger *logger.Logger
}

// NewRefreshJob creates a new dataset refresh job.
func NewRefreshJob(s *store.Store, path string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		store:  s,
		path:   path,
		logger: log,
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "dataset_refresh"
}

// Schedule returns the cron schedule (hourly).
func (j *RefreshJob) Schedule() string {
	return "0 0 * * * *"
}

// Run reloads the dataset and recomputes the snapshot.
func (j *RefreshJob) Run(ctx context.Context) error {
	ds, err := loader.LoadFile(j.path)
	if err != nil {
		return fmt.Errorf("load %s: %w", j.path, err)
	}

	snap, err := j.store.Replace(ds, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("compute snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"path":           j.path,
		"rows":           ds.Len(),
		"malformed_rows": snap.Diagnostics.MalformedRows,
	}).Info("Dataset refreshed from disk")

	return nil
}
