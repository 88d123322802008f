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
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/pkg/board"
)

// BackupJobName is the name the database backup job is registered under.
const BackupJobName = "database-backup"

// BackupJob backs up the board database on schedule. Failures are logged by
// the scheduler and never stop it.
func BackupJob(schedule string, store *board.Store, opts board.BackupOptions, logger *zap.Logger) Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Job{
		Name:     BackupJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			path, err := store.Backup(ctx, opts)
			if err != nil {
				return err
			}
			logger.Info("scheduled backup written", zap.String("file", filepath.Base(path)))
			return nil
		},
	}
}
