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

// Package config loads devflow settings from flags, environment, an
// optional YAML file in the data directory, and defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teradata-labs/devflow/pkg/relay"
)

// EnvPrefix is prepended to every environment override, e.g.
// DEVFLOW_SERVER_HTTP_PORT for server.http_port.
const EnvPrefix = "DEVFLOW"

// Config is the resolved devflow configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Backup   BackupConfig   `mapstructure:"backup"`

	// DataDir is resolved from DEVFLOW_DATA_DIR, never from the file.
	DataDir string `mapstructure:"-"`
	// File is the config file that was read, empty when none exists.
	File string `mapstructure:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host     string     `mapstructure:"host"`
	HTTPPort int        `mapstructure:"http_port"`
	CORS     CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds CORS settings for the HTTP API.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RelayConfig locates the websocket relay.
type RelayConfig struct {
	Host string `mapstructure:"host"`
	// Port is validated separately; see resolveRelayPort.
	Port int `mapstructure:"-"`
}

// DatabaseConfig selects the board store.
type DatabaseConfig struct {
	// Driver is sqlite3, postgres or mysql.
	Driver string `mapstructure:"driver"`
	// DSN is a file path for sqlite3 and a connection string otherwise.
	DSN string `mapstructure:"dsn"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// BackupConfig configures scheduled SQLite backups.
type BackupConfig struct {
	// Schedule is a cron expression; empty disables scheduled backups.
	Schedule string `mapstructure:"schedule"`
	Dir      string `mapstructure:"dir"`
	Compress bool   `mapstructure:"compress"`
	// Keep is the number of backups retained; 0 keeps all.
	Keep int `mapstructure:"keep"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.http_port", 3000)
	v.SetDefault("server.cors.enabled", true)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})

	v.SetDefault("relay.host", "localhost")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	v.SetDefault("backup.schedule", "")
	v.SetDefault("backup.dir", "")
	v.SetDefault("backup.compress", true)
	v.SetDefault("backup.keep", 7)
}

// Load reads configuration into v and returns the resolved Config.
//
// Sources in order of priority:
// 1. Flags bound to v by the caller
// 2. Environment variables (DEVFLOW_ prefix)
// 3. Config file (cfgFile, or devflow.yaml in the data directory)
// 4. Defaults
//
// A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	dataDir := DataDir()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dataDir)
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The relay port keeps its historical variable name.
	_ = v.BindEnv("relay.port", relay.PortEnv, EnvPrefix+"_RELAY_PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DataDir = dataDir
	cfg.File = v.ConfigFileUsed()
	cfg.Relay.Port = resolveRelayPort(v.GetString("relay.port"))
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite3" {
		cfg.Database.DSN = DefaultDatabasePath()
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = SubDir("backups")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveRelayPort applies the relay port rules: a valid value in (0, 65536)
// wins, anything else falls back to the default.
func resolveRelayPort(s string) int {
	if s == "" {
		return relay.DefaultPort
	}
	if port, ok := relay.ParsePort(s); ok {
		return port
	}
	return relay.DefaultPort
}

// RelayURL is the websocket endpoint clients dial.
func (c *Config) RelayURL() string {
	return relay.URL(c.Relay.Host, c.Relay.Port)
}

// HTTPAddr is the listen address of the HTTP API.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q (want sqlite3, postgres or mysql)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort >= 65536 {
		return fmt.Errorf("invalid server.http_port %d", c.Server.HTTPPort)
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative")
	}
	return nil
}
