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

package main

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/devflow/pkg/board"
)

var (
	backupDir      string
	backupCompress bool
	backupKeep     int
	backupList     bool
	backupRestore  string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the SQLite database",
	Long: heredoc.Doc(`
		Write a verified copy of the SQLite board database. Settings default to
		the backup section of the config file.

		--list shows existing backups, newest first. --restore decompresses a
		.zst backup next to itself so it can be copied over the database.
	`),
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "backup directory (default: backup.dir)")
	backupCmd.Flags().BoolVar(&backupCompress, "compress", false, "compress with zstd (default: backup.compress)")
	backupCmd.Flags().IntVar(&backupKeep, "keep", 0, "backups to keep, 0 keeps all (default: backup.keep)")
	backupCmd.Flags().BoolVar(&backupList, "list", false, "list backups instead of writing one")
	backupCmd.Flags().StringVar(&backupRestore, "restore", "", "decompress and verify this backup")
}

func runBackup(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	opts := board.BackupOptions{Dir: cfg.Backup.Dir, Compress: cfg.Backup.Compress, Keep: cfg.Backup.Keep}
	if cmd.Flags().Changed("dir") {
		opts.Dir = backupDir
	}
	if cmd.Flags().Changed("compress") {
		opts.Compress = backupCompress
	}
	if cmd.Flags().Changed("keep") {
		opts.Keep = backupKeep
	}

	switch {
	case backupList:
		paths, err := board.ListBackups(opts.Dir, filepath.Base(cfg.Database.DSN))
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
		return nil
	case backupRestore != "":
		path, err := board.DecompressBackup(backupRestore)
		if err != nil {
			return err
		}
		if err := board.VerifyBackup(ctx, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Restored backup: %s\n", path)
		return nil
	}

	logger, _, err := setupLogger()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	path, err := store.Backup(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Backup written: %s\n", path)
	return nil
}
