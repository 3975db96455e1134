package connector

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// SQLConnection wraps a database/sql pool for the drivers registered with it.
type SQLConnection struct {
	db      *sql.DB
	wrapped *database.SQLDatabase
}

func newSQLConnection(db *sql.DB, d dialect.Dialect, pool PoolConfig, opts []database.Option) *SQLConnection {
	if pool.MaxOpen > 0 {
		db.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxIdle > 0 {
		db.SetMaxIdleConns(pool.MaxIdle)
	}
	if pool.MaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.MaxLifetime)
	}
	if pool.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.MaxIdleTime)
	}
	return &SQLConnection{db: db, wrapped: database.NewSQLDatabase(db, d, opts...)}
}

func (c *SQLConnection) Database() database.Database { return c.wrapped }

func (c *SQLConnection) Dialect() dialect.Dialect { return c.wrapped.Dialect() }

func (c *SQLConnection) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLConnection) Stats() ConnectionStats {
	return sqlStats(c.db.Stats())
}

func (c *SQLConnection) Close() error {
	return c.wrapped.Close()
}
