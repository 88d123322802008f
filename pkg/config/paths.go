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
	"strings"
)

const (
	// DataDirEnv overrides the data directory.
	DataDirEnv = "DEVFLOW_DATA_DIR"
	// ConfigFileName is the config file looked up in the data directory.
	ConfigFileName = "devflow.yaml"
	// DatabaseFileName is the default SQLite database inside the data directory.
	DatabaseFileName = "devflow.db"
)

// DataDir returns the devflow data directory.
//
// Priority:
// 1. DEVFLOW_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.devflow (default)
//
// The returned path is always absolute. Tilde (~) is expanded and relative
// paths are resolved against the working directory.
//
// This reads os.Getenv directly, not viper, because it is needed to find the
// config file itself.
func DataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return expandPath(dir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".devflow"
	}
	return filepath.Join(homeDir, ".devflow")
}

// SubDir returns a path inside the data directory.
// Example: SubDir("backups") returns ~/.devflow/backups
func SubDir(name string) string {
	return filepath.Join(DataDir(), name)
}

// DefaultDatabasePath is the SQLite database used when database.dsn is unset.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), DatabaseFileName)
}

// expandPath expands ~ and resolves to absolute path
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
