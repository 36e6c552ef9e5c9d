package db

const (
	defaultMaxConns = 10
	driverSQLite    = "sqlite3"
)

// Roll sources
const (
	SourceHTTP = "http"
	SourceGame = "game"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
