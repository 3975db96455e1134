package engine

import (
	"log/slog"

	"github.com/Konsultn-Engineering/xqlorm/cache"
	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// Declaration binds an entity name, as written in XQL, to the factory
// returning fresh instances of it.
type Declaration struct {
	Name    string
	Factory func() schema.Entity
}

func Declare(name string, factory func() schema.Entity) Declaration {
	return Declaration{Name: name, Factory: factory}
}

type options struct {
	entities  []Declaration
	logger    *slog.Logger
	cacheSize int
}

type Option func(*options)

// WithEntities declares the entities the manager can query and persist.
func WithEntities(decls ...Declaration) Option {
	return func(o *options) { o.entities = append(o.entities, decls...) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCacheSize bounds the compiled statement cache.
func WithCacheSize(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

func newOptions(opts []Option) options {
	o := options{cacheSize: cache.DefaultSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
