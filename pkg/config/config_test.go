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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/devflow/pkg/relay"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)
	t.Setenv(relay.PortEnv, "")
	t.Chdir(dir)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Empty(t, cfg.File)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"*"}, cfg.Server.CORS.AllowedOrigins)
	assert.Equal(t, relay.DefaultPort, cfg.Relay.Port)
	assert.Equal(t, "ws://localhost:3001", cfg.RelayURL())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dir, DatabaseFileName), cfg.Database.DSN)
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.Backup.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "localhost:3000", cfg.HTTPAddr())
}

func TestLoad_FileInDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)
	t.Setenv(relay.PortEnv, "")
	path := writeConfig(t, dir, `
server:
  http_port: 8081
relay:
  host: 127.0.0.1
  port: 4500
logging:
  level: debug
backup:
  schedule: "0 3 * * *"
  keep: 2
`)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 8081, cfg.Server.HTTPPort)
	assert.Equal(t, 4500, cfg.Relay.Port)
	assert.Equal(t, "ws://127.0.0.1:4500", cfg.RelayURL())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.Equal(t, 2, cfg.Backup.Keep)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)
	writeConfig(t, dir, "relay:\n  port: 4500\nlogging:\n  level: debug\n")
	t.Setenv(relay.PortEnv, "8080")
	t.Setenv("DEVFLOW_LOGGING_LEVEL", "warn")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Relay.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidRelayPortFallsBack(t *testing.T) {
	for _, val := range []string{"0", "-1", "65536", "abc"} {
		t.Run(val, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv(DataDirEnv, dir)
			t.Setenv(relay.PortEnv, val)

			cfg, err := Load(viper.New(), "")
			require.NoError(t, err)
			assert.Equal(t, relay.DefaultPort, cfg.Relay.Port)
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, t.TempDir())
	t.Setenv(relay.PortEnv, "")
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: postgres\n  dsn: postgres://localhost/devflow\n"), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/devflow", cfg.Database.DSN)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "server: [unclosed"},
		{name: "unknown driver", body: "database:\n  driver: oracle\n  dsn: x\n"},
		{name: "postgres without dsn", body: "database:\n  driver: postgres\n"},
		{name: "bad http port", body: "server:\n  http_port: 70000\n"},
		{name: "negative keep", body: "backup:\n  keep: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv(DataDirEnv, dir)
			writeConfig(t, dir, tt.body)

			_, err := Load(viper.New(), "")
			assert.Error(t, err)
		})
	}
}

func TestLoad_RelayURL(t *testing.T) {
	t.Setenv(DataDirEnv, t.TempDir())
	t.Setenv(relay.PortEnv, " 9001 ")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:9001", cfg.RelayURL())
}
