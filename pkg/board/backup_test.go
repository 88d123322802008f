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

package board

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.CreateProject(ctx, ProjectInput{Name: "Backed up"})
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := svc.Store().Backup(ctx, BackupOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "board.db.backup."))
	require.NoError(t, VerifyBackup(ctx, path))

	restored, err := Open(ctx, Options{DSN: path})
	require.NoError(t, err)
	defer restored.Close()
	projects, err := NewService(restored, ServiceConfig{}).ListProjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Backed up", projects[0].Name)
}

func TestBackup_CompressAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.CreateProject(ctx, ProjectInput{Name: "Compressed"})
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := svc.Store().Backup(ctx, BackupOptions{Dir: dir, Compress: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".zst"))
	assert.NoFileExists(t, strings.TrimSuffix(path, ".zst"))

	plain, err := DecompressBackup(path)
	require.NoError(t, err)
	require.NoError(t, VerifyBackup(ctx, plain))

	_, err = DecompressBackup(plain)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBackup_Retention(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	dir := t.TempDir()

	var paths []string
	for range 4 {
		// The store clock steps one second per reading, so names differ.
		path, err := svc.Store().Backup(ctx, BackupOptions{Dir: dir, Keep: 2})
		require.NoError(t, err)
		paths = append(paths, path)
	}

	// Unrelated files in the directory are left alone.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "board.db.backup.notes"), []byte("x"), 0o600))

	kept, err := ListBackups(dir, "board.db")
	require.NoError(t, err)
	assert.Equal(t, []string{paths[3], paths[2]}, kept)
	assert.FileExists(t, filepath.Join(dir, "board.db.backup.notes"))
}

func TestBackup_Unsupported(t *testing.T) {
	store, err := Open(context.Background(), Options{DSN: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Backup(context.Background(), BackupOptions{Dir: t.TempDir()})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestVerifyBackup_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("not a database ", 100)), 0o600))
	assert.Error(t, VerifyBackup(context.Background(), path))
}

func TestBackupTime(t *testing.T) {
	ts, ok := backupTime("devflow.db.backup.20260102T030405.123.zst")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 123_000_000, time.UTC), ts)

	_, ok = backupTime("devflow.db.backup.notes")
	assert.False(t, ok)
	_, ok = backupTime("devflow.db")
	assert.False(t, ok)
}
