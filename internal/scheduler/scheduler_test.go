package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	err      error
}

func (j *fakeJob) Name() string                { return j.name }
func (j *fakeJob) Schedule() string            { return j.schedule }
func (j *fakeJob) Run(_ context.Context) error { return j.err }

func TestAddJob_RejectsDuplicates(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(&fakeJob{name: "ingest", schedule: "0 0 6 * * *"}))
	err := s.AddJob(&fakeJob{name: "ingest", schedule: "0 0 7 * * *"})
	assert.Error(t, err)
}

func TestAddJob_RejectsBadSchedule(t *testing.T) {
	s := New(logger.NewNop())

	err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron expression"})
	assert.Error(t, err)
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.RunJob("missing"))
}

func TestJobs_ListsRegisteredNames(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(&fakeJob{name: "ingest", schedule: "0 0 6 * * *"}))

	assert.Equal(t, []string{"ingest"}, s.Jobs())

	history, err := s.History("ingest")
	require.NoError(t, err)
	assert.Empty(t, history.Results)
}

func TestJobHistory_KeepsBoundedResults(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{JobName: "ingest", Success: i%2 == 0, StartTime: time.Now()})
	}

	assert.Len(t, h.Results, historyLimit)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, "ingest", latest.JobName)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.02)
}
