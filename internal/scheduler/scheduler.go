// Package scheduler runs the recurring pipeline jobs on cron schedules
// with retry and bounded run history.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/movers/pkg/logger"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 1 * time.Minute
)

// Scheduler owns the cron runner and the per-job run history.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger

	mu      sync.RWMutex
	jobs    map[string]Job
	history map[string]*JobHistory

	maxRetries int
	retryDelay time.Duration
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		log:        log,
		jobs:       make(map[string]Job),
		history:    make(map[string]*JobHistory),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// AddJob registers a job under its cron expression. Job names must be
// unique; the schedule is validated here rather than at Start.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.execute(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &JobHistory{}

	s.log.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// Start begins firing schedules. Returns immediately.
func (s *Scheduler) Start() {
	s.log.Info("Scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and blocks until in-flight jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// RunJob fires a registered job immediately in the background,
// outside its schedule.
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}

	go s.execute(job)
	return nil
}

// execute runs the job through the retry loop and records the outcome.
func (s *Scheduler) execute(job Job) {
	name := job.Name()
	started := time.Now()
	s.log.WithField("job", name).Info("Job started")

	err := s.attempt(job)

	result := JobResult{
		JobName:   name,
		StartTime: started,
		EndTime:   time.Now(),
		Success:   err == nil,
	}
	result.Duration = result.EndTime.Sub(started)
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.AddResult(result)
	}
	s.mu.Unlock()

	fields := map[string]interface{}{"job": name, "duration": result.Duration}
	if err != nil {
		fields["error"] = err.Error()
		s.log.WithFields(fields).Error("Job failed after all retries")
		return
	}
	s.log.WithFields(fields).Info("Job completed")
}

func (s *Scheduler) attempt(job Job) error {
	var err error
	for try := 0; try <= s.maxRetries; try++ {
		if try > 0 {
			time.Sleep(s.retryDelay)
		}
		if err = job.Run(context.Background()); err == nil {
			return nil
		}
		s.log.WithFields(map[string]interface{}{
			"job":     job.Name(),
			"attempt": try + 1,
			"error":   err.Error(),
		}).Warn("Job attempt failed")
	}
	return err
}

// History returns the run history for a registered job.
func (s *Scheduler) History(name string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.history[name]
	if !ok {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return h, nil
}

// Jobs returns the registered job names in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
