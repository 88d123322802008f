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

package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teradata-labs/devflow/pkg/board"
)

func noop(context.Context) error { return nil }

func TestAdd_Validation(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})

	tests := []struct {
		name    string
		job     Job
		wantErr string
	}{
		{"missing name", Job{Schedule: "@daily", Run: noop}, "job name is required"},
		{"missing run", Job{Name: "a", Schedule: "@daily"}, "has no run function"},
		{"bad cron", Job{Name: "a", Schedule: "every day", Run: noop}, "invalid cron expression"},
		{"six fields", Job{Name: "a", Schedule: "0 0 0 * * *", Run: noop}, "invalid cron expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.job)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, s.Add(Job{Name: "a", Schedule: "*/5 * * * *", Run: noop}))
	assert.ErrorContains(t, s.Add(Job{Name: "a", Schedule: "@daily", Run: noop}), "already exists")
}

func TestScheduledRuns(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	var runs atomic.Int32
	require.NoError(t, s.Add(Job{Name: "tick", Schedule: "@every 1s", Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "@every 1s", jobs[0].Schedule)

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	jobs = s.Jobs()
	assert.GreaterOrEqual(t, jobs[0].Runs, 1)
	assert.False(t, jobs[0].LastRun.IsZero())
}

func TestTriggerNow(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	boom := errors.New("boom")
	require.NoError(t, s.Add(Job{Name: "fail", Schedule: "@daily", Run: func(context.Context) error { return boom }}))

	assert.ErrorIs(t, s.TriggerNow(context.Background(), "fail"), boom)
	assert.ErrorIs(t, s.TriggerNow(context.Background(), "missing"), ErrUnknownJob)

	st := s.Jobs()[0]
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 1, st.Failures)
	assert.ErrorIs(t, st.LastError, boom)
}

func TestTriggerNow_SkipsWhileRunning(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Add(Job{Name: "slow", Schedule: "@daily", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))

	done := make(chan error, 1)
	go func() { done <- s.TriggerNow(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, s.TriggerNow(context.Background(), "slow"), ErrJobRunning)
	close(release)
	require.NoError(t, <-done)

	st := s.Jobs()[0]
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 1, st.Skipped)
}

func TestRemove(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Add(Job{Name: "a", Schedule: "@hourly", Run: noop}))
	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Empty(t, s.Jobs())
}

func TestStop_WaitsForRunningJobs(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	var finished atomic.Bool
	started := make(chan struct{}, 1)
	require.NoError(t, s.Add(Job{Name: "slow", Schedule: "@every 1s", Run: func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}}))
	s.Start()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}
	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())
}

func TestStop_Timeout(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	require.NoError(t, s.Add(Job{Name: "stuck", Schedule: "@every 1s", Run: func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}}))
	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

func TestScheduledFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := New(Config{Logger: zap.New(core)})
	require.NoError(t, s.Add(Job{Name: "fail", Schedule: "@every 1s", Run: func(context.Context) error {
		return errors.New("disk full")
	}}))
	s.Start()
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	require.Eventually(t, func() bool {
		return logs.FilterMessage("scheduled job failed").Len() > 0
	}, 5*time.Second, 20*time.Millisecond)
	entry := logs.FilterMessage("scheduled job failed").All()[0]
	assert.Equal(t, "fail", entry.ContextMap()["job"])
	assert.Equal(t, "disk full", entry.ContextMap()["error"])
}

func TestBackupJob(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := board.Open(ctx, board.Options{DSN: filepath.Join(dir, "devflow.db"), Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := New(Config{Logger: zaptest.NewLogger(t)})
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, s.Add(BackupJob("@daily", store, board.BackupOptions{Dir: backupDir, Compress: true}, zaptest.NewLogger(t))))

	require.NoError(t, s.TriggerNow(ctx, BackupJobName))
	backups, err := board.ListBackups(backupDir, "devflow.db")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, ".zst", filepath.Ext(backups[0]))

	mem, err := board.Open(ctx, board.Options{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	require.NoError(t, s.Add(Job{Name: "mem", Schedule: "@daily", Run: BackupJob("@daily", mem, board.BackupOptions{}, nil).Run}))
	assert.ErrorIs(t, s.TriggerNow(ctx, "mem"), board.ErrUnsupported)
}
