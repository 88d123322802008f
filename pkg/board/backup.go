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

package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/sqlitedriver"
)

const (
	backupTimeFormat = "20060102T150405.000"
	zstdExt          = ".zst"
)

// BackupOptions configures Backup.
type BackupOptions struct {
	// Dir receives the backup file. Defaults to the database directory.
	Dir string
	// Compress writes a zstd-compressed copy and removes the plain one.
	Compress bool
	// Keep prunes all but the newest Keep backups; zero keeps everything.
	Keep int
}

// Backup writes a consistent copy of a SQLite board database with VACUUM
// INTO, verifies it with an integrity check and returns its path. Other
// drivers return ErrUnsupported.
func (s *Store) Backup(ctx context.Context, opts BackupOptions) (string, error) {
	if !s.dialect.IsSQLite() || s.dsn == ":memory:" {
		return "", fmt.Errorf("%w: backup needs a file-backed sqlite database", ErrUnsupported)
	}
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Dir(s.dsn)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("backup: create %q: %w", dir, err)
	}

	base := filepath.Base(s.dsn)
	path := filepath.Join(dir, base+".backup."+s.now().UTC().Format(backupTimeFormat))
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("backup: vacuum into %q: %w", path, err)
	}
	if err := VerifyBackup(ctx, path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("backup: %w", err)
	}

	if opts.Compress {
		compressed, err := compressFile(path)
		if err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("backup: %w", err)
		}
		_ = os.Remove(path)
		path = compressed
	}
	s.logger.Info("database backed up", zap.String("path", path))

	if opts.Keep > 0 {
		if err := pruneBackups(dir, base, opts.Keep); err != nil {
			s.logger.Warn("failed to prune old backups", zap.Error(err))
		}
	}
	return path, nil
}

// VerifyBackup runs PRAGMA integrity_check against a SQLite file.
func VerifyBackup(ctx context.Context, path string) error {
	db, err := sql.Open(sqlitedriver.DriverName, path)
	if err != nil {
		return fmt.Errorf("verify %q: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("verify %q: integrity check: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("verify %q: integrity check failed: %s", path, result)
	}
	return nil
}

// DecompressBackup expands a .zst backup next to itself and returns the
// path of the plain SQLite file.
func DecompressBackup(path string) (string, error) {
	if !strings.HasSuffix(path, zstdExt) {
		return "", fmt.Errorf("%w: %q is not a compressed backup", ErrInvalidArgument, path)
	}
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = in.Close() }()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("decompress %q: %w", path, err)
	}
	defer dec.Close()

	outPath := strings.TrimSuffix(path, zstdExt)
	if err := writeFile(outPath, dec); err != nil {
		return "", fmt.Errorf("decompress %q: %w", path, err)
	}
	return outPath, nil
}

func compressFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = in.Close() }()

	outPath := path + zstdExt
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = out.Close()
		_ = os.Remove(outPath)
		return "", err
	}
	_, copyErr := io.Copy(enc, in)
	closeErr := errors.Join(enc.Close(), out.Close())
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("compress %q: %w", path, err)
	}
	return outPath, nil
}

func writeFile(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}

// ListBackups returns the backups of the database named base in dir,
// newest first.
func ListBackups(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := base + ".backup."
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if _, ok := backupTime(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	// The timestamp suffix sorts lexically.
	slices.Sort(names)
	slices.Reverse(names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

func pruneBackups(dir, base string, keep int) error {
	paths, err := ListBackups(dir, base)
	if err != nil {
		return err
	}
	if len(paths) <= keep {
		return nil
	}
	var errs []error
	for _, p := range paths[keep:] {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// backupTime parses the timestamp embedded in a backup file name.
func backupTime(name string) (time.Time, bool) {
	i := strings.LastIndex(name, ".backup.")
	if i < 0 {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(name[i+len(".backup."):], zstdExt)
	t, err := time.Parse(backupTimeFormat, stamp)
	return t, err == nil
}
