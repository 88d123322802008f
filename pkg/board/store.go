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

// Package board persists devflow projects, features, tasks, files and the
// agent activity log, and exposes the operations agents and the web UI
// perform on them.
package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures Open.
type Options struct {
	// Driver is sqlite3 (default), postgres or mysql.
	Driver string
	// DSN is a file path or ":memory:" for sqlite3, a connection string
	// otherwise.
	DSN    string
	Logger *zap.Logger
	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// Store is the database handle shared by the board service.
type Store struct {
	db      *sql.DB
	dialect Dialect
	dsn     string
	logger  *zap.Logger
	now     func() time.Time
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = SQLite.Name
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("%w: database DSN is required", ErrInvalidArgument)
	}

	if dialect.IsSQLite() && opts.DSN != ":memory:" && !strings.HasPrefix(opts.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.Name, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect.Name, err)
	}

	s := &Store{db: db, dialect: dialect, dsn: opts.DSN, logger: opts.Logger, now: opts.Now}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	opts.Logger.Debug("board store opened", zap.String("driver", dialect.Name))
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if s.dialect.IsSQLite() {
		// One connection keeps per-connection pragmas and in-memory
		// databases consistent.
		s.db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		}
		if s.dsn != ":memory:" {
			pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		}
		for _, p := range pragmas {
			if _, err := s.db.ExecContext(ctx, p); err != nil {
				return fmt.Errorf("failed to set %q: %w", p, err)
			}
		}
	}

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s database: %w", s.dialect.Name, err)
	}

	migrator, err := NewMigrator(s.db, s.dialect)
	if err != nil {
		return err
	}
	migrator.now = s.now
	if err := migrator.MigrateUp(ctx); err != nil {
		return fmt.Errorf("migrate %s database: %w", s.dialect.Name, err)
	}
	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if version < migrator.Latest() {
		return fmt.Errorf("%s schema at version %d, want %d", s.dialect.Name, version, migrator.Latest())
	}
	s.logger.Debug("database schema ready", zap.String("driver", s.dialect.Name), zap.Int("version", version))
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Path returns the SQLite database file, empty for other drivers and
// in-memory databases.
func (s *Store) Path() string {
	if !s.dialect.IsSQLite() || s.dsn == ":memory:" {
		return ""
	}
	path := strings.TrimPrefix(s.dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

const (
	projectCols  = "id, name, description, status, created_at, updated_at"
	featureCols  = "id, project_id, name, description, status, sort_order, created_at, updated_at"
	taskCols     = "id, project_id, feature_id, title, description, status, priority, context, execution_plan, assigned_agent, sort_order, created_at, updated_at"
	fileCols     = "id, project_id, feature_id, task_id, name, type, content, path, mime_type, size, created_at, updated_at"
	activityCols = "id, task_id, agent_name, action, details, timestamp"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*Project, error) {
	var (
		p        Project
		desc     sql.NullString
		statusDB string
		created  int64
		updated  int64
	)
	if err := sc.Scan(&p.ID, &p.Name, &desc, &statusDB, &created, &updated); err != nil {
		return nil, err
	}
	p.Description = fromNull(desc)
	p.Status = ProjectStatus(statusDB)
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &p, nil
}

func scanFeature(sc scanner) (*Feature, error) {
	var (
		f        Feature
		desc     sql.NullString
		statusDB string
		created  int64
		updated  int64
	)
	if err := sc.Scan(&f.ID, &f.ProjectID, &f.Name, &desc, &statusDB, &f.Order, &created, &updated); err != nil {
		return nil, err
	}
	f.Description = fromNull(desc)
	f.Status = FeatureStatus(statusDB)
	f.CreatedAt, f.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &f, nil
}

func scanTask(sc scanner) (*Task, error) {
	var (
		t                                     Task
		featureID, desc, taskCtx, plan, agent sql.NullString
		statusDB, priorityDB                  string
		created, updated                      int64
	)
	if err := sc.Scan(&t.ID, &t.ProjectID, &featureID, &t.Title, &desc, &statusDB, &priorityDB,
		&taskCtx, &plan, &agent, &t.Order, &created, &updated); err != nil {
		return nil, err
	}
	t.FeatureID = fromNull(featureID)
	t.Description = fromNull(desc)
	t.Status = TaskStatus(statusDB)
	t.Priority = Priority(priorityDB)
	t.Context = fromNull(taskCtx)
	t.ExecutionPlan = fromNull(plan)
	t.AssignedAgent = fromNull(agent)
	t.CreatedAt, t.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &t, nil
}

func scanFile(sc scanner) (*File, error) {
	var (
		f                            File
		projectID, featureID, taskID sql.NullString
		content, path, mime          sql.NullString
		typeDB                       string
		size                         sql.NullInt64
		created, updated             int64
	)
	if err := sc.Scan(&f.ID, &projectID, &featureID, &taskID, &f.Name, &typeDB, &content, &path,
		&mime, &size, &created, &updated); err != nil {
		return nil, err
	}
	f.ProjectID, f.FeatureID, f.TaskID = fromNull(projectID), fromNull(featureID), fromNull(taskID)
	f.Type = FileType(typeDB)
	f.Content, f.Path, f.MimeType = fromNull(content), fromNull(path), fromNull(mime)
	if size.Valid {
		n := size.Int64
		f.Size = &n
	}
	f.CreatedAt, f.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &f, nil
}

func scanActivity(sc scanner) (*Activity, error) {
	var (
		a       Activity
		details sql.NullString
		ts      int64
	)
	if err := sc.Scan(&a.ID, &a.TaskID, &a.AgentName, &a.Action, &details, &ts); err != nil {
		return nil, err
	}
	a.Details = fromNull(details)
	a.Timestamp = fromMillis(ts)
	return &a, nil
}

// collect scans every row with scan. It never returns a nil slice so empty
// results encode as [].
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()
	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// one scans a single row and maps sql.ErrNoRows to a not-found error.
func one[T any](row *sql.Row, scan func(scanner) (*T, error), kind, id string) (*T, error) {
	v, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", strings.ToLower(kind), id, err)
	}
	return v, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// nullable maps "" to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullablePtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// setClause accumulates an UPDATE's assignments.
type setClause struct {
	cols []string
	args []any
}

func (c *setClause) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *setClause) empty() bool {
	return len(c.cols) == 0
}

// update runs UPDATE table SET ... WHERE id = ? and reports a missing row.
func (s *Store) update(ctx context.Context, q querier, table, kind, id string, set *setClause) error {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(set.cols, ", "))
	res, err := s.exec(ctx, q, query, append(set.args, id)...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", strings.ToLower(kind), id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", strings.ToLower(kind), id, err)
	}
	if n == 0 {
		// MySQL reports 0 for rows matched but unchanged; confirm existence.
		if ok, err := s.exists(ctx, q, table, id); err != nil {
			return err
		} else if !ok {
			return notFound(kind, id)
		}
	}
	return nil
}

func (s *Store) delete(ctx context.Context, table, kind, id string) error {
	res, err := s.exec(ctx, s.db, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", strings.ToLower(kind), id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", strings.ToLower(kind), id, err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, q querier, table, id string) (bool, error) {
	var n int
	if err := s.queryRow(ctx, q, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table), id).Scan(&n); err != nil {
		return false, fmt.Errorf("check %s %s: %w", table, id, err)
	}
	return n > 0, nil
}
