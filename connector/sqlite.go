package connector

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// connectSQLite opens the file named by cfg.Database. An in-memory database
// lives in a single connection, so the pool is pinned to one.
func connectSQLite(_ context.Context, cfg Config, opts ...database.Option) (Connection, error) {
	db, err := sql.Open("sqlite", cfg.Database)
	if err != nil {
		return nil, err
	}
	pool := cfg.Pool
	if cfg.Database == ":memory:" || strings.Contains(cfg.Database, "mode=memory") {
		pool.MaxOpen = 1
	}
	return newSQLConnection(db, dialect.NewSQLiteDialect(), pool, opts), nil
}
