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
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/log"
	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/config"
	"github.com/teradata-labs/devflow/pkg/notify"
	"github.com/teradata-labs/devflow/pkg/relay"
	"github.com/teradata-labs/devflow/pkg/scheduler"
	"github.com/teradata-labs/devflow/pkg/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the update relay",
	Long: heredoc.Doc(`
		Start the DevFlow HTTP API and the websocket relay that pushes agent
		changes to open browsers.

		The server will:
		- Start the relay unless another process already owns its port
		- Serve the REST API, /health and the /api/events stream
		- Run scheduled backups when backup.schedule is set
		- Apply logging.level changes from the config file without a restart

		Press Ctrl+C to gracefully shutdown.
	`),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, level, err := setupLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	relayServer := relay.NewServer(relay.ServerConfig{
		Host:   cfg.Relay.Host,
		Port:   cfg.Relay.Port,
		Logger: logger,
	})
	notifier, relayClient := relayNotifier(ctx, relayServer, logger)
	if relayClient != nil {
		defer relayClient.Disconnect()
	}

	svc := board.NewService(store, board.ServiceConfig{Notifier: notifier, Logger: logger})
	httpServer := server.New(server.Config{
		Addr:    cfg.HTTPAddr(),
		Service: svc,
		Relay:   relayServer,
		Events:  server.NewEvents(eventSource(relayServer, relayClient), logger),
		CORS:    corsConfig(),
		Logger:  logger,
	})

	sched, err := startScheduler(store, logger)
	if err != nil {
		return err
	}

	if watcher := watchConfig(ctx, cmd, level, logger); watcher != nil {
		defer func() { _ = watcher.Stop() }()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Start(ctx) }()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler shutdown", zap.Error(err))
		}
	}
	if err := relayServer.Close(shutdownCtx); err != nil {
		logger.Warn("relay shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return serveErr
}

// relayNotifier starts the relay and picks how board changes reach it: by
// injection when this process owns the relay, through a client when another
// process does. Relay trouble never stops the API.
func relayNotifier(ctx context.Context, rs *relay.Server, logger *zap.Logger) (notify.Notifier, *relay.Client) {
	state, err := rs.Start(ctx)
	switch state {
	case relay.StateRunning:
		logger.Info("relay started", zap.Int("port", rs.Port()))
		return notify.ServerNotifier{Server: rs, Logger: logger}, nil
	case relay.StateDeclined:
		logger.Info("relay already running in another process", zap.String("url", cfg.RelayURL()))
		client := relay.NewClient(relay.ClientConfig{URL: cfg.RelayURL(), Logger: logger})
		return notify.ClientNotifier{Client: client}, client
	default:
		logger.Warn("relay unavailable, /api/events stays silent and browsers will poll for changes",
			zap.Stringer("state", state), zap.Error(err))
		return notify.Nop{}, nil
	}
}

// eventSource picks what feeds /api/events. A declined relay never runs in
// this process, so the stream follows the client connected to the owner.
func eventSource(rs *relay.Server, rc *relay.Client) server.FrameSource {
	if rc != nil {
		return rc
	}
	return rs
}

func corsConfig() server.CORSConfig {
	cors := server.DefaultCORSConfig()
	cors.Enabled = cfg.Server.CORS.Enabled
	if len(cfg.Server.CORS.AllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.Server.CORS.AllowedOrigins
	}
	return cors
}

// startScheduler returns nil when no backup schedule is configured.
func startScheduler(store *board.Store, logger *zap.Logger) (*scheduler.Scheduler, error) {
	if cfg.Backup.Schedule == "" {
		return nil, nil
	}
	sched := scheduler.New(scheduler.Config{Logger: logger})
	job := scheduler.BackupJob(cfg.Backup.Schedule, store, board.BackupOptions{
		Dir:      cfg.Backup.Dir,
		Compress: cfg.Backup.Compress,
		Keep:     cfg.Backup.Keep,
	}, logger)
	if err := sched.Add(job); err != nil {
		return nil, fmt.Errorf("backup schedule: %w", err)
	}
	sched.Start()
	return sched, nil
}

// watchConfig reapplies logging.level when the config file changes. A
// --log-level flag pins the level.
func watchConfig(ctx context.Context, cmd *cobra.Command, level zap.AtomicLevel, logger *zap.Logger) *config.Watcher {
	if cfg.File == "" || cmd.Flags().Changed("log-level") {
		return nil
	}
	watcher, err := config.NewWatcher(config.WatcherConfig{
		Path:   cfg.File,
		Logger: logger,
		OnChange: func(path string) {
			reloaded, err := config.Load(viper.New(), path)
			if err != nil {
				logger.Warn("ignoring invalid config change", zap.Error(err))
				return
			}
			next := log.ParseLevel(reloaded.Logging.Level)
			if next != level.Level() {
				level.SetLevel(next)
				logger.Info("log level changed", zap.Stringer("level", next))
			}
		},
	})
	if err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
		return nil
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
		_ = watcher.Stop()
		return nil
	}
	return watcher
}
