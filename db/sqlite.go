package db

import (
	"database/sql"

	"modernc.org/sqlite"
)

// xorm looks up the sqlite dialect by the "sqlite3" driver name
func init() {
	sql.Register(driverSQLite, &sqlite.Driver{})
}
