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
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/config"
	"github.com/teradata-labs/devflow/pkg/notify"
	"github.com/teradata-labs/devflow/pkg/relay"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func seedBoard(t *testing.T, dsn string) {
	t.Helper()
	ctx := context.Background()
	store, err := board.Open(ctx, board.Options{DSN: dsn, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	svc := board.NewService(store, board.ServiceConfig{})
	p, err := svc.CreateProject(ctx, board.ProjectInput{Name: "Web App"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, board.TaskInput{ProjectID: p.ID, Title: "Login form", Status: board.TaskTodo})
	require.NoError(t, err)
}

func TestCommands(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv(config.DataDirEnv, dataDir)
	t.Setenv("DEVFLOW_LOGGING_LEVEL", "error")

	out := execute(t, "init")
	assert.Contains(t, out, "Config file written: "+filepath.Join(dataDir, config.ConfigFileName))
	assert.Contains(t, out, "Database ready (sqlite3)")
	assert.FileExists(t, filepath.Join(dataDir, config.DatabaseFileName))

	out = execute(t, "init")
	assert.Contains(t, out, "Config file kept")

	seedBoard(t, filepath.Join(dataDir, config.DatabaseFileName))

	out = execute(t, "board", "web app")
	assert.Contains(t, out, "Web App")
	assert.Contains(t, out, "To Do (1)")
	assert.Contains(t, out, "Login form")

	out = execute(t, "export", "Web App")
	assert.Contains(t, out, "name: Web App")
	assert.Contains(t, out, "title: Login form")

	out = execute(t, "backup")
	require.True(t, strings.HasPrefix(out, "Backup written: "), out)
	written := strings.TrimSpace(strings.TrimPrefix(out, "Backup written: "))
	assert.FileExists(t, written)
	assert.Equal(t, filepath.Join(dataDir, "backups"), filepath.Dir(written))

	out = execute(t, "backup", "--list")
	assert.Equal(t, written, strings.TrimSpace(out))

	out = execute(t, "version")
	assert.True(t, strings.HasPrefix(out, "devflow "), out)
}

func TestFindProject(t *testing.T) {
	ctx := context.Background()
	store, err := board.Open(ctx, board.Options{DSN: ":memory:", Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	svc := board.NewService(store, board.ServiceConfig{})

	_, err = findProject(ctx, svc, "")
	assert.EqualError(t, err, "no active project found")

	p, err := svc.CreateProject(ctx, board.ProjectInput{Name: "Web App"})
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  string
	}{
		{"first active", ""},
		{"by id", p.ID},
		{"by name", "WEB APP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findProject(ctx, svc, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, p.ID, got.ID)
		})
	}

	_, err = findProject(ctx, svc, "nope")
	assert.EqualError(t, err, `project "nope" not found`)

	_, err = findProject(ctx, svc, "wbapp")
	assert.EqualError(t, err, `project "wbapp" not found (did you mean "Web App"?)`)
}

func TestCORSConfig(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = &config.Config{Server: config.ServerConfig{CORS: config.CORSConfig{Enabled: true}}}
	cors := corsConfig()
	assert.True(t, cors.Enabled)
	assert.Equal(t, []string{"*"}, cors.AllowedOrigins)

	cfg.Server.CORS = config.CORSConfig{Enabled: false, AllowedOrigins: []string{"http://board.local"}}
	cors = corsConfig()
	assert.False(t, cors.Enabled)
	assert.Equal(t, []string{"http://board.local"}, cors.AllowedOrigins)
}

func TestRelayNotifier_DeclinedFollowsOwner(t *testing.T) {
	logger := zaptest.NewLogger(t)
	owner := relay.NewServer(relay.ServerConfig{Host: "127.0.0.1", Logger: logger})
	_, err := owner.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = owner.Close(context.Background()) })

	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg = &config.Config{Relay: config.RelayConfig{Host: "127.0.0.1", Port: owner.Port()}}

	rs := relay.NewServer(relay.ServerConfig{Host: "127.0.0.1", Port: owner.Port(), Logger: logger})
	notifier, client := relayNotifier(context.Background(), rs, logger)
	require.NotNil(t, client)
	t.Cleanup(client.Disconnect)

	assert.Equal(t, relay.StateDeclined, rs.State())
	assert.IsType(t, notify.ClientNotifier{}, notifier)
	assert.Same(t, client, eventSource(rs, client))
	assert.Same(t, rs, eventSource(rs, nil))
	require.Eventually(t, client.IsConnected, 2*time.Second, 5*time.Millisecond)
}
