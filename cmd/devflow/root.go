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
	"context"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/log"
	"github.com/teradata-labs/devflow/internal/version"
	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "devflow",
	Short: "Kanban board for coordinating human and AI agent work",
	Long: heredoc.Doc(`
		DevFlow tracks projects, features and tasks on a kanban board shared by
		people in the browser and AI agents over MCP.

		Agent changes reach open browsers through a local websocket relay; the
		board API keeps working when the relay is unavailable.
	`),
	Version:       version.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations["skipConfig"] == "true" {
			return nil
		}
		var err error
		cfg, err = config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("devflow {{.Version}}\n")

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $DEVFLOW_DATA_DIR/devflow.yaml)")

	// Server flags
	rootCmd.PersistentFlags().String("host", "localhost", "HTTP API host")
	rootCmd.PersistentFlags().Int("http-port", 3000, "HTTP API port")
	rootCmd.PersistentFlags().String("relay-host", "localhost", "websocket relay host")

	// Database flags
	rootCmd.PersistentFlags().String("db-driver", "sqlite3", "database driver (sqlite3, postgres, mysql)")
	rootCmd.PersistentFlags().String("db", "", "database path or DSN (default: $DEVFLOW_DATA_DIR/devflow.db)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "log file (default: stderr)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("server.http_port", rootCmd.PersistentFlags().Lookup("http-port"))
	_ = viper.BindPFlag("relay.host", rootCmd.PersistentFlags().Lookup("relay-host"))
	_ = viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddCommand(initCmd, serveCmd, relayCmd, mcpCmd, boardCmd, backupCmd, exportCmd, versionCmd)
}

// setupLogger builds the process logger from cfg and installs it. Logs go
// to the configured file or stderr, never stdout.
func setupLogger() (*zap.Logger, zap.AtomicLevel, error) {
	logger, level, err := log.New(log.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, level, err
	}
	log.SetLogger(logger)
	return logger, level, nil
}

func openStore(ctx context.Context, logger *zap.Logger) (*board.Store, error) {
	store, err := board.Open(ctx, board.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
