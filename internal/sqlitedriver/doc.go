// Package sqlitedriver registers the SQLite database/sql driver used by the
// board store under DriverName. CGO builds link go-sqlcipher; builds without
// CGO use the pure-Go modernc.org/sqlite driver. Both speak the same SQL
// dialect, so callers only ever refer to DriverName.
//
// Import for side effects:
//
//	import _ "github.com/teradata-labs/devflow/internal/sqlitedriver"
package sqlitedriver

// DriverName is the database/sql driver name registered by this package.
const DriverName = "sqlite3"
