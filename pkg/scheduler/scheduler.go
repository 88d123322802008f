// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scheduler runs named maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	// ErrJobRunning is returned by TriggerNow while the job is still running.
	ErrJobRunning = errors.New("previous execution still running")
	// ErrUnknownJob is returned for names that were never added.
	ErrUnknownJob = errors.New("unknown job")
)

// Job is one named unit of scheduled work.
type Job struct {
	Name string
	// Schedule is a standard 5-field cron expression or a descriptor such
	// as "@daily" or "@every 1h".
	Schedule string
	Run      func(ctx context.Context) error
}

// JobStatus is a snapshot of a job's schedule and history.
type JobStatus struct {
	Name      string
	Schedule  string
	Next      time.Time
	LastRun   time.Time
	LastError error
	Runs      int
	Failures  int
	Skipped   int
}

// Config contains scheduler configuration.
type Config struct {
	Logger *zap.Logger
	// Location for schedule evaluation. Defaults to local time.
	Location *time.Location
}

type entry struct {
	job     Job
	id      cron.EntryID
	running bool
	status  JobStatus
}

// Scheduler manages cron-based job execution. Runs of the same job never
// overlap; a tick that finds the job still running is skipped.
type Scheduler struct {
	mu         sync.Mutex
	cronEngine *cron.Cron
	entries    map[string]*entry
	logger     *zap.Logger

	// ctx is handed to every run and cancelled once Stop has drained.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler.
func New(config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	logger := config.Logger.Named("scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cronEngine: cron.New(
			cron.WithLocation(config.Location),
			cron.WithChain(cron.Recover(cronLogger{logger.Sugar()})),
		),
		entries: make(map[string]*entry),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a job. Names are unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.Name)
	}
	schedule, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", job.Schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("job %s already exists", job.Name)
	}
	e := &entry{job: job, status: JobStatus{Name: job.Name, Schedule: job.Schedule}}
	e.id = s.cronEngine.Schedule(schedule, cron.FuncJob(func() {
		if err := s.run(s.ctx, job.Name); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		}
	}))
	s.entries[job.Name] = e
	s.logger.Info("job scheduled", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	return nil
}

// Remove unschedules a job. Runs already in progress finish.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cronEngine.Remove(e.id)
	delete(s.entries, name)
	return true
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cronEngine.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Jobs())))
}

// Stop stops firing schedules and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cronEngine.Stop()
	defer s.cancel()

	select {
	case <-cronCtx.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler shutdown timeout, some jobs may still be running")
		return ctx.Err()
	}
}

// TriggerNow runs a job immediately in the calling goroutine.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	return s.run(ctx, name)
}

func (s *Scheduler) run(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.running {
		e.status.Skipped++
		s.mu.Unlock()
		s.logger.Info("skipping execution, previous still running", zap.String("job", name))
		return ErrJobRunning
	}
	e.running = true
	run := e.job.Run
	s.mu.Unlock()

	start := time.Now()
	err := run(ctx)

	s.mu.Lock()
	e.running = false
	e.status.Runs++
	e.status.LastRun = start
	e.status.LastError = err
	if err != nil {
		e.status.Failures++
	}
	s.mu.Unlock()

	s.logger.Debug("job finished",
		zap.String("job", name),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", err == nil))
	return err
}

// Jobs returns every job sorted by name.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		st := e.status
		st.Next = s.cronEngine.Entry(e.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes cron's own messages, including recovered panics, to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
