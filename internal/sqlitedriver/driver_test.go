package sqlitedriver_test

import (
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/devflow/internal/sqlitedriver"
)

func TestDriverRegistered(t *testing.T) {
	assert.True(t, slices.Contains(sql.Drivers(), sqlitedriver.DriverName))
	assert.NotEmpty(t, sqlitedriver.Implementation)
}

func TestForeignKeysCascade(t *testing.T) {
	db, err := sql.Open(sqlitedriver.DriverName, filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE parent (id TEXT PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE child (id TEXT PRIMARY KEY, parent_id TEXT REFERENCES parent(id) ON DELETE CASCADE)")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO parent (id) VALUES (?)", "p1")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO child (id, parent_id) VALUES (?, ?)", "c1", "p1")
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM parent WHERE id = ?", "p1")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM child").Scan(&n))
	assert.Equal(t, 0, n)
}
