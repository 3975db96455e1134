package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/query"
	"github.com/Konsultn-Engineering/xqlorm/schema"
	"github.com/Konsultn-Engineering/xqlorm/xql"
)

// Manager is the unit of work over one database: it compiles queries for
// its declared entities, tracks loaded and persisted instances in an
// identity map and writes only what changed.
type Manager struct {
	db        database.Database
	catalog   schema.Catalog
	factories map[string]func() schema.Entity
	compiler  *xql.Compiler
	logger    *slog.Logger

	mu      sync.Mutex
	tracked map[uint64]*tracked
}

func New(db database.Database, opts ...Option) (*Manager, error) {
	o := newOptions(opts)

	m := &Manager{
		db:        db,
		catalog:   make(schema.Catalog, len(o.entities)),
		factories: make(map[string]func() schema.Entity, len(o.entities)),
		logger:    o.logger,
		tracked:   make(map[uint64]*tracked),
	}
	for _, decl := range o.entities {
		if decl.Name == "" || decl.Factory == nil {
			return nil, fmt.Errorf("engine: declaration needs a name and a factory")
		}
		e := decl.Factory()
		if err := schema.Verify(e); err != nil {
			return nil, fmt.Errorf("engine: declare %s: %w", decl.Name, err)
		}
		if err := m.catalog.Add(decl.Name, e.Model()); err != nil {
			return nil, fmt.Errorf("engine: declare %s: %w", decl.Name, err)
		}
		m.factories[decl.Name] = decl.Factory
	}

	m.compiler = xql.New(m.catalog, db.Dialect(),
		xql.WithCacheSize(o.cacheSize),
		xql.WithLogger(o.logger),
	)
	return m, nil
}

func (m *Manager) Compiler() *xql.Compiler     { return m.compiler }
func (m *Manager) Database() database.Database { return m.db }

// Model returns the model declared under name.
func (m *Manager) Model(name string) (*schema.Model, bool) {
	return m.catalog.Model(name)
}

// Entities returns the declared entity names, sorted.
func (m *Manager) Entities() []string {
	return m.catalog.Names()
}

// Instantiate returns a fresh, untracked instance of the named entity.
func (m *Manager) Instantiate(name string) (schema.Entity, error) {
	factory, ok := m.factories[name]
	if !ok {
		return nil, &Error{Op: "instantiate", Entity: name, Err: ErrUnknownEntity}
	}
	return factory(), nil
}

// Query returns a builder, pre-populated from src unless src is empty.
func (m *Manager) Query(src string) (*query.Builder, error) {
	if src == "" {
		return query.New(m), nil
	}
	return query.Parse(m, src)
}

// Get loads the named entity by its primary key values, given in the order
// the model declares its key properties. It returns nil when no row
// matches. A loaded instance already tracked is returned as tracked.
func (m *Manager) Get(ctx context.Context, name string, pk ...any) (schema.Entity, error) {
	model, ok := m.catalog.Model(name)
	if !ok {
		return nil, &Error{Op: "get", Entity: name, Err: ErrUnknownEntity}
	}
	keys := model.PrimaryKeys()
	if len(pk) != len(keys) {
		return nil, &Error{Op: "get", Entity: name,
			Err: fmt.Errorf("%w: want %d, have %d", ErrPrimaryKeyArity, len(keys), len(pk))}
	}

	b, err := query.Parse(m, xql.SelectByPrimaryKey(name, model, "e"))
	if err != nil {
		return nil, err
	}
	args := make(map[string]any, len(keys))
	for i, key := range keys {
		args[key] = pk[i]
	}
	e, err := b.First(ctx, args)
	if err != nil {
		return nil, wrap("get", name, err)
	}
	return e, nil
}

// Close releases the database.
func (m *Manager) Close() error {
	return m.db.Close()
}
