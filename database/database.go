package database

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// Row is one result row, column values in select order.
type Row []any

// Database is the connection an entity manager runs its statements on.
// Statements use :name placeholders; implementations bind them to the
// dialect's positional form. While a transaction is active every statement
// runs inside it.
type Database interface {
	// Select runs a row query. A positive limit or offset is appended in
	// the dialect's syntax.
	Select(ctx context.Context, query string, params map[string]any, limit, offset int) ([]Row, error)
	// SelectFirst returns the first row, or nil when there is none.
	SelectFirst(ctx context.Context, query string, params map[string]any) (Row, error)
	// Execute runs a statement and returns the affected row count.
	Execute(ctx context.Context, query string, params map[string]any) (int64, error)
	LastInsertID(ctx context.Context) (int64, error)

	StartTransaction(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTransaction() bool

	Dialect() dialect.Dialect
	Ping(ctx context.Context) error
	Close() error
}

var (
	ErrMissingParameter  = errors.New("database: missing parameter")
	ErrTransactionActive = errors.New("database: transaction already active")
	ErrNoTransaction     = errors.New("database: no active transaction")
	ErrNoInsertID        = errors.New("database: no insert id available")
)

type options struct {
	logger *slog.Logger
}

type Option func(*options)

// WithLogger sets the logger statements are traced to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
