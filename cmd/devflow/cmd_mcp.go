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
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/version"
	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/mcp/server"
	"github.com/teradata-labs/devflow/pkg/mcp/transport"
	"github.com/teradata-labs/devflow/pkg/notify"
	"github.com/teradata-labs/devflow/pkg/relay"
	"github.com/teradata-labs/devflow/pkg/tools"
)

const mcpServerName = "devflow"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the board to AI agents over MCP (stdio)",
	Long: heredoc.Doc(`
		Run an MCP server on stdin/stdout. Agents get one tool per board
		operation and can read every project as a resource.

		Changes are pushed to the relay so open browsers refresh; when no relay
		is running the client keeps retrying in the background.

		Logs never go to stdout. Use --log-file to keep them.

		Claude Desktop configuration (claude_desktop_config.json):

		  {
		    "mcpServers": {
		      "devflow": {"command": "devflow", "args": ["mcp"]}
		    }
		  }
	`),
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	logger, _, err := setupLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting devflow MCP server",
		zap.String("version", version.Get()),
		zap.String("relay", cfg.RelayURL()))

	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client := relay.NewClient(relay.ClientConfig{URL: cfg.RelayURL(), Logger: logger})
	defer client.Disconnect()

	// The MCP server is created after the service, so the list_changed hook
	// looks it up late.
	var mcpServer *server.Server
	notifier := notify.Multi{
		notify.ClientNotifier{Client: client},
		notify.NotifierFunc(func(_ context.Context, m notify.Message) {
			if mcpServer != nil && tools.IsProjectChange(m.Type) {
				mcpServer.NotifyResourceListChanged()
			}
		}),
	}

	svc := board.NewService(store, board.ServiceConfig{Notifier: notifier, Logger: logger})
	toolset := tools.New(svc, logger)
	mcpServer = server.New(mcpServerName, version.Get(), logger,
		server.WithToolProvider(toolset),
		server.WithResourceProvider(toolset),
		server.WithInstructions(tools.Instructions),
	)

	// Stdout belongs to the protocol.
	stdio := transport.NewStdio(os.Stdin, os.Stdout)
	defer func() { _ = stdio.Close() }()

	err = mcpServer.Serve(ctx, stdio)
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		logger.Info("MCP server stopped")
		return nil
	default:
		return err
	}
}
