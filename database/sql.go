package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// querier is the statement surface shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLDatabase implements Database on top of database/sql, for any driver
// registered with it.
type SQLDatabase struct {
	db      *sql.DB
	dialect dialect.Dialect
	opts    options

	mu      sync.Mutex
	tx      *sql.Tx
	lastID  int64
	hasLast bool
}

func NewSQLDatabase(db *sql.DB, d dialect.Dialect, opts ...Option) *SQLDatabase {
	return &SQLDatabase{db: db, dialect: d, opts: newOptions(opts)}
}

// DB returns the underlying pool.
func (s *SQLDatabase) DB() *sql.DB { return s.db }

func (s *SQLDatabase) Dialect() dialect.Dialect { return s.dialect }

func (s *SQLDatabase) conn() querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *SQLDatabase) Select(ctx context.Context, query string, params map[string]any, limit, offset int) ([]Row, error) {
	bound, args, err := Bind(query+s.dialect.LimitOffset(limit, offset), params, s.dialect)
	if err != nil {
		return nil, err
	}
	s.opts.logger.Debug("select", "sql", bound, "args", len(args))

	rows, err := s.conn().QueryContext(ctx, bound, args...)
	if err != nil {
		return nil, fmt.Errorf("database: query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *SQLDatabase) SelectFirst(ctx context.Context, query string, params map[string]any) (Row, error) {
	rows, err := s.Select(ctx, query, params, 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (s *SQLDatabase) Execute(ctx context.Context, query string, params map[string]any) (int64, error) {
	bound, args, err := Bind(query, params, s.dialect)
	if err != nil {
		return 0, err
	}
	s.opts.logger.Debug("execute", "sql", bound, "args", len(args))

	res, err := s.conn().ExecContext(ctx, bound, args...)
	if err != nil {
		return 0, fmt.Errorf("database: exec: %w", err)
	}

	// Drivers without insert ids (lib/pq) return an error here; lastval()
	// covers them in LastInsertID.
	if id, err := res.LastInsertId(); err == nil {
		s.mu.Lock()
		s.lastID, s.hasLast = id, true
		s.mu.Unlock()
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("database: rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLDatabase) LastInsertID(ctx context.Context) (int64, error) {
	if s.dialect.Name() == "postgres" {
		var id int64
		if err := s.conn().QueryRowContext(ctx, "select lastval()").Scan(&id); err != nil {
			return 0, fmt.Errorf("database: lastval: %w", err)
		}
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasLast {
		return 0, ErrNoInsertID
	}
	return s.lastID, nil
}

func (s *SQLDatabase) StartTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrTransactionActive
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin: %w", err)
	}
	s.tx = tx
	s.opts.logger.Debug("transaction started")
	return nil
}

func (s *SQLDatabase) Commit(context.Context) error {
	tx, err := s.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	s.opts.logger.Debug("transaction committed")
	return nil
}

func (s *SQLDatabase) Rollback(context.Context) error {
	tx, err := s.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("database: rollback: %w", err)
	}
	s.opts.logger.Debug("transaction rolled back")
	return nil
}

// takeTx detaches the active transaction; the database is back on the pool
// whatever the outcome of commit or rollback.
func (s *SQLDatabase) takeTx() (*sql.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil, ErrNoTransaction
	}
	tx := s.tx
	s.tx = nil
	return tx, nil
}

func (s *SQLDatabase) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

func (s *SQLDatabase) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLDatabase) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.mu.Unlock()
	return s.db.Close()
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("database: columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
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

var _ Database = (*SQLDatabase)(nil)
