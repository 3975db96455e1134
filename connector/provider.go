package connector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// Connection is an open pool together with the Database view the entity
// manager works on.
type Connection interface {
	Database() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

// Provider opens connections for one driver.
type Provider interface {
	Connect(ctx context.Context, cfg Config, opts ...database.Option) (Connection, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, cfg Config, opts ...database.Option) (Connection, error)

func (f ProviderFunc) Connect(ctx context.Context, cfg Config, opts ...database.Option) (Connection, error) {
	return f(ctx, cfg, opts...)
}

var (
	mu        sync.RWMutex
	providers = map[string]Provider{}
)

func init() {
	Register("pgx", ProviderFunc(connectPgx))
	Register("postgres", ProviderFunc(connectPostgres))
	Register("mysql", ProviderFunc(connectMySQL))
	Register("sqlite", ProviderFunc(connectSQLite))
}

// Register makes a provider available to Open under name.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[strings.ToLower(name)] = p
}

// Drivers lists the registered driver names in sorted order.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects with the provider registered for cfg.Driver, bounded by
// ConnectTimeout and retried per cfg.Retry.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mu.RLock()
	p, ok := providers[strings.ToLower(cfg.Driver)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not registered (known: %s)", cfg.Driver, strings.Join(Drivers(), ", "))
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	connect := func(ctx context.Context) (Connection, error) {
		conn, err := p.Connect(ctx, cfg, database.WithLogger(logger))
		if err != nil {
			logger.Warn("connect failed", "driver", cfg.Driver, "host", cfg.Host, "error", err)
			return nil, err
		}
		if err := conn.Health(ctx); err != nil {
			_ = conn.Close()
			logger.Warn("health check failed", "driver", cfg.Driver, "host", cfg.Host, "error", err)
			return nil, err
		}
		logger.Debug("connected", "driver", cfg.Driver, "host", cfg.Host, "pool", conn.Stats())
		return conn, nil
	}

	if cfg.Retry == nil {
		return connect(ctx)
	}
	conn, err := retryConnect(ctx, cfg.Retry, connect)
	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d attempts: %w", cfg.Retry.MaxRetries, err)
	}
	return conn, nil
}
