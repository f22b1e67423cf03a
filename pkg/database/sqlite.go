package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// sqliteDialector opens a pure Go SQLite database. SQLite has no row locks,
// so callers limit the pool to one connection to serialise writers.
func sqliteDialector(path string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
}
