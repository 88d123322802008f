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
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/lib/pq"              // registers "postgres"

	"github.com/teradata-labs/devflow/internal/sqlitedriver"
)

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	// Name is the database/sql driver name.
	Name string
	// dollarParams is set for drivers that number placeholders as $1, $2.
	dollarParams bool
	// insertIgnore is the statement prefix that skips duplicate keys.
	insertIgnore string
	// conflictSuffix completes insertIgnore for dialects that use a suffix.
	conflictSuffix string
}

var (
	SQLite = Dialect{
		Name:           sqlitedriver.DriverName,
		insertIgnore:   "INSERT INTO",
		conflictSuffix: " ON CONFLICT DO NOTHING",
	}
	Postgres = Dialect{
		Name:           "postgres",
		dollarParams:   true,
		insertIgnore:   "INSERT INTO",
		conflictSuffix: " ON CONFLICT DO NOTHING",
	}
	MySQL = Dialect{
		Name:         "mysql",
		insertIgnore: "INSERT IGNORE INTO",
	}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case SQLite.Name, "sqlite":
		return SQLite, nil
	case Postgres.Name, "postgresql", "pgx":
		return Postgres, nil
	case MySQL.Name:
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("%w: database driver %q", ErrUnsupported, driver)
	}
}

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.dollarParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertIgnore builds an insert that skips rows whose key already exists.
func (d Dialect) InsertIgnore(table, columns, values string) string {
	return fmt.Sprintf("%s %s (%s) VALUES (%s)%s", d.insertIgnore, table, columns, values, d.conflictSuffix)
}

// IsSQLite reports whether the dialect is SQLite.
func (d Dialect) IsSQLite() bool {
	return d.Name == SQLite.Name
}
