package connector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// PgxConnection represents a PostgreSQL connection pool opened with pgx.
type PgxConnection struct {
	pool *pgxpool.Pool
	db   *database.PgxDatabase
}

func connectPgx(ctx context.Context, cfg Config, opts ...database.Option) (Connection, error) {
	u := postgresURL(cfg)
	poolCfg, err := pgxpool.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("parse pgx config for %s: %w", u.Redacted(), err)
	}
	if cfg.Pool.MaxOpen > 0 {
		poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	}
	if cfg.Pool.MaxIdle > 0 {
		poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	}
	if cfg.Pool.MaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	}
	if cfg.Pool.MaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	return &PgxConnection{pool: pool, db: database.NewPgxDatabase(pool, opts...)}, nil
}

func (p *PgxConnection) Database() database.Database { return p.db }

func (p *PgxConnection) Dialect() dialect.Dialect { return p.db.Dialect() }

func (p *PgxConnection) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PgxConnection) Stats() ConnectionStats {
	return pgxStats(p.pool.Stat())
}

func (p *PgxConnection) Close() error {
	return p.db.Close()
}

// connectPostgres opens PostgreSQL through database/sql and lib/pq.
func connectPostgres(_ context.Context, cfg Config, opts ...database.Option) (Connection, error) {
	db, err := sql.Open("postgres", postgresURL(cfg).String())
	if err != nil {
		return nil, err
	}
	return newSQLConnection(db, dialect.NewPostgresDialect(), cfg.Pool, opts), nil
}

