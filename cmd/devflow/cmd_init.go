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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teradata-labs/devflow/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory, config file and database",
	Long: heredoc.Doc(`
		Create the DevFlow data directory ($DEVFLOW_DATA_DIR, default ~/.devflow),
		write a devflow.yaml with the current settings if none exists, and apply
		database migrations.

		Running init again is safe: existing files are kept and only pending
		migrations are applied.
	`),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	out := cmd.OutOrStdout()
	cfgPath := filepath.Join(cfg.DataDir, config.ConfigFileName)
	if err := viper.SafeWriteConfigAs(cfgPath); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if !errors.As(err, &exists) {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "Config file kept: %s\n", cfgPath)
	} else {
		fmt.Fprintf(out, "Config file written: %s\n", cfgPath)
	}

	logger, _, err := setupLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Fprintf(out, "Database ready (%s)\n", cfg.Database.Driver)
	return nil
}
