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

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/pubsub"
	"github.com/teradata-labs/devflow/pkg/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run only the websocket update relay",
	Long: heredoc.Doc(`
		Run the websocket relay without the HTTP API. Every message a peer sends
		is forwarded to all other connected peers.

		The port comes from DEVFLOW_WS_PORT (default 3001). When another process
		already listens there, relay exits successfully without starting.
	`),
	RunE: runRelay,
}

func runRelay(cmd *cobra.Command, _ []string) error {
	logger, _, err := setupLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs := relay.NewServer(relay.ServerConfig{
		Host:   cfg.Relay.Host,
		Port:   cfg.Relay.Port,
		Logger: logger,
	})
	state, err := rs.Start(ctx)
	switch state {
	case relay.StateRunning:
	case relay.StateDeclined:
		fmt.Fprintf(cmd.OutOrStdout(), "Relay already running at %s\n", cfg.RelayURL())
		return nil
	default:
		return fmt.Errorf("relay %s: %w", state, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Relay listening at %s\n", relay.URL(cfg.Relay.Host, rs.Port()))

	// Peer churn is only interesting at debug level.
	for ev := range rs.Subscribe(ctx) {
		switch ev.Type {
		case pubsub.CreatedEvent:
			logger.Debug("peer connected", zap.Uint64("peer", ev.Payload.PeerID), zap.Int("connections", rs.ConnectionCount()))
		case pubsub.DeletedEvent:
			logger.Debug("peer disconnected", zap.Uint64("peer", ev.Payload.PeerID), zap.Int("connections", rs.ConnectionCount()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return rs.Close(shutdownCtx)
}
