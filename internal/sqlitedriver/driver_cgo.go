//go:build cgo

package sqlitedriver

import (
	_ "github.com/mutecomm/go-sqlcipher/v4" // registers "sqlite3"
)

// Implementation names the linked SQLite driver.
const Implementation = "sqlcipher"
