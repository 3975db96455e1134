package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// pgxQuerier is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxDatabase implements Database for a pgx connection pool.
type PgxDatabase struct {
	pool    *pgxpool.Pool
	dialect dialect.Dialect
	opts    options

	mu sync.Mutex
	tx pgx.Tx
}

func NewPgxDatabase(pool *pgxpool.Pool, opts ...Option) *PgxDatabase {
	return &PgxDatabase{pool: pool, dialect: dialect.NewPostgresDialect(), opts: newOptions(opts)}
}

// Pool returns the underlying pool.
func (p *PgxDatabase) Pool() *pgxpool.Pool { return p.pool }

func (p *PgxDatabase) Dialect() dialect.Dialect { return p.dialect }

func (p *PgxDatabase) conn() pgxQuerier {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tx != nil {
		return p.tx
	}
	return p.pool
}

func (p *PgxDatabase) Select(ctx context.Context, query string, params map[string]any, limit, offset int) ([]Row, error) {
	bound, args, err := Bind(query+p.dialect.LimitOffset(limit, offset), params, p.dialect)
	if err != nil {
		return nil, err
	}
	p.opts.logger.Debug("select", "sql", bound, "args", len(args))

	rows, err := p.conn().Query(ctx, bound, args...)
	if err != nil {
		return nil, fmt.Errorf("database: query: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("database: scan: %w", err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: rows: %w", err)
	}
	return out, nil
}

func (p *PgxDatabase) SelectFirst(ctx context.Context, query string, params map[string]any) (Row, error) {
	rows, err := p.Select(ctx, query, params, 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (p *PgxDatabase) Execute(ctx context.Context, query string, params map[string]any) (int64, error) {
	bound, args, err := Bind(query, params, p.dialect)
	if err != nil {
		return 0, err
	}
	p.opts.logger.Debug("execute", "sql", bound, "args", len(args))

	tag, err := p.conn().Exec(ctx, bound, args...)
	if err != nil {
		return 0, fmt.Errorf("database: exec: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LastInsertID reads the session's lastval(), the value most recently
// produced by a sequence on this connection. Outside a transaction the pool
// may hand out a different connection, so callers that need it should run
// the insert in a transaction.
func (p *PgxDatabase) LastInsertID(ctx context.Context) (int64, error) {
	var id int64
	if err := p.conn().QueryRow(ctx, "select lastval()").Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoInsertID
		}
		return 0, fmt.Errorf("database: lastval: %w", err)
	}
	return id, nil
}

func (p *PgxDatabase) StartTransaction(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tx != nil {
		return ErrTransactionActive
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database: begin: %w", err)
	}
	p.tx = tx
	p.opts.logger.Debug("transaction started")
	return nil
}

func (p *PgxDatabase) Commit(ctx context.Context) error {
	tx, err := p.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	p.opts.logger.Debug("transaction committed")
	return nil
}

func (p *PgxDatabase) Rollback(ctx context.Context) error {
	tx, err := p.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Rollback(ctx); err != nil {
		return fmt.Errorf("database: rollback: %w", err)
	}
	p.opts.logger.Debug("transaction rolled back")
	return nil
}

func (p *PgxDatabase) takeTx() (pgx.Tx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tx == nil {
		return nil, ErrNoTransaction
	}
	tx := p.tx
	p.tx = nil
	return tx, nil
}

func (p *PgxDatabase) InTransaction() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tx != nil
}

func (p *PgxDatabase) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close rolls back an active transaction and closes the pool.
func (p *PgxDatabase) Close() error {
	if tx, err := p.takeTx(); err == nil {
		_ = tx.Rollback(context.Background())
	}
	p.pool.Close()
	return nil
}

var _ Database = (*PgxDatabase)(nil)
