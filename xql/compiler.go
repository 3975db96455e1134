package xql

import (
	"log/slog"

	"github.com/Konsultn-Engineering/xqlorm/ast"
	"github.com/Konsultn-Engineering/xqlorm/cache"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
	"github.com/Konsultn-Engineering/xqlorm/visitor"
)

// Compiled is the result of compiling one XQL statement. Instances are
// shared through the compiler cache and must be treated as read-only.
type Compiled struct {
	Source   string
	Query    *ast.Query
	Tokens   []ast.Token
	SQL      string
	CountSQL string
	Columns  []visitor.Column
}

// Compiler turns XQL into SQL for one schema and dialect. It is safe for
// concurrent use: every compile works on its own parse context.
type Compiler struct {
	schema    Schema
	dialect   dialect.Dialect
	cache     *cache.StatementCache[*Compiled]
	cacheSize int
	logger    *slog.Logger
}

type Option func(*Compiler)

// WithCacheSize bounds the number of compiled statements kept.
func WithCacheSize(size int) Option {
	return func(c *Compiler) { c.cacheSize = size }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

func New(s Schema, d dialect.Dialect, opts ...Option) *Compiler {
	c := &Compiler{
		schema:    s,
		dialect:   d,
		cacheSize: cache.DefaultSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	// Only a non-positive size makes the lru constructor fail, and that is
	// replaced by the default.
	c.cache, _ = cache.NewStatementCache[*Compiled](c.cacheSize)
	return c
}

func (c *Compiler) Dialect() dialect.Dialect { return c.dialect }

// Parse tokenizes and categorizes src without generating SQL.
func (c *Compiler) Parse(src string) (*ast.Query, error) {
	q, _, err := c.parse(src)
	return q, err
}

func (c *Compiler) parse(src string) (*ast.Query, []ast.Token, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	ctx := newParseContext(c.schema, tokens, len(src))
	if err := ctx.categorize(); err != nil {
		return nil, nil, err
	}
	return ctx.query, ctx.out, nil
}

// Compile parses src and generates its row and count SQL.
func (c *Compiler) Compile(src string) (*Compiled, error) {
	// Keys are 64 bit fingerprints; a hit for other source text is a collision.
	if compiled, ok := c.cache.Get(c.dialect.Name(), src); ok && compiled.Source == src {
		return compiled, nil
	}

	q, tokens, err := c.parse(src)
	if err != nil {
		return nil, err
	}

	v := visitor.NewSQLVisitor(c.dialect, c.schema)
	rowSQL, err := v.Build(q)
	if err != nil {
		return nil, err
	}
	columns := append([]visitor.Column(nil), v.Columns()...)
	countSQL, err := v.BuildCount(q)
	if err != nil {
		return nil, err
	}

	compiled := &Compiled{
		Source:   src,
		Query:    q,
		Tokens:   tokens,
		SQL:      rowSQL,
		CountSQL: countSQL,
		Columns:  columns,
	}
	c.cache.Set(c.dialect.Name(), src, compiled)
	c.logger.Debug("compiled xql", "xql", src, "sql", rowSQL)
	return compiled, nil
}

// CacheStats reports the compiled statement cache counters.
func (c *Compiler) CacheStats() cache.Stats {
	return c.cache.Stats()
}
