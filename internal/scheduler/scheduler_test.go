package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesops/stackranker/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	fail     int32 // fail the first N runs
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.runs.Add(1)
	if n <= j.fail {
		return errors.New("transient failure")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.NewWriter(io.Discard, "error"))
	s.retryDelay = time.Millisecond
	return s
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "daily_digest", schedule: "0 0 9 * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Contains(t, s.GetAllJobs(), "daily_digest")

	err := s.AddJob(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestScheduler_AddJobInvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(&fakeJob{name: "bad", schedule: "not a schedule"})
	assert.Error(t, err)
}

func TestScheduler_RunJob(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "alert_sweep", schedule: "0 0 */4 * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("alert_sweep"))

	require.Eventually(t, func() bool {
		history, err := s.GetJobHistory("alert_sweep")
		return err == nil && len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	history, err := s.GetJobHistory("alert_sweep")
	require.NoError(t, err)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 1.0, history.GetSuccessRate())
}

func TestScheduler_RunJobRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "dataset_refresh", schedule: "0 0 * * * *", fail: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("dataset_refresh"))

	require.Eventually(t, func() bool {
		history, err := s.GetJobHistory("dataset_refresh")
		return err == nil && len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Two failures then a success inside one scheduled run.
	assert.Equal(t, int32(3), job.runs.Load())

	history, err := s.GetJobHistory("dataset_refresh")
	require.NoError(t, err)
	assert.True(t, history.Results[0].Success)
}

func TestScheduler_RunJobUnknown(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}

	h.AddResult(JobResult{JobName: "a", Success: true})
	h.AddResult(JobResult{JobName: "a", Success: false, Error: "boom"})
	h.AddResult(JobResult{JobName: "a", Success: true})

	assert.Len(t, h.GetLatestResults(2), 2)
	assert.Len(t, h.GetFailedResults(), 1)
	assert.InDelta(t, 2.0/3.0, h.GetSuccessRate(), 1e-9)
}

func TestJobHistory_Cap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "a", Success: true})
	}
	assert.Len(t, h.Results, 100)
}
