package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/xqlorm/ast"
	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/schema"
	"github.com/Konsultn-Engineering/xqlorm/visitor"
	"github.com/Konsultn-Engineering/xqlorm/xql"
)

// FilterParam is the parameter a builder filter binds its search pattern to.
const FilterParam = "xql_filter"

// Executor is what a builder needs from the entity manager to compile and
// run its query.
type Executor interface {
	Compiler() *xql.Compiler
	Database() database.Database
	Instantiate(entity string) (schema.Entity, error)
	Watch(e schema.Entity) (schema.Entity, error)
}

// Builder assembles an XQL query clause by clause. Methods record the first
// construction error and return the builder so calls can be chained; the
// error surfaces when the query is generated or run.
type Builder struct {
	exec    Executor
	selects []string
	from    []*ast.From
	joins   []*ast.Join
	where   []string
	filter  *ast.Filter
	order   []*ast.Order
	errors  []error
}

func New(exec Executor) *Builder {
	return &Builder{exec: exec}
}

// Parse returns a builder pre-populated from an XQL statement.
func Parse(exec Executor, src string) (*Builder, error) {
	q, err := exec.Compiler().Parse(src)
	if err != nil {
		return nil, err
	}
	b := New(exec)
	b.selects = append(b.selects, q.Select...)
	b.from = append(b.from, q.From...)
	b.joins = append(b.joins, q.Joins...)
	if q.Where != nil && len(q.Where.Tokens) > 0 {
		b.where = append(b.where, ast.JoinTokens(q.Where.Tokens))
	}
	b.order = append(b.order, q.Order...)
	return b, nil
}

func (b *Builder) addError(err error) {
	if err != nil {
		b.errors = append(b.errors, err)
	}
}

// Err returns the first construction error.
func (b *Builder) Err() error {
	if len(b.errors) > 0 {
		return b.errors[0]
	}
	return nil
}

// Select sets the aliases whose entities the query returns.
func (b *Builder) Select(aliases ...string) *Builder {
	b.selects = append(b.selects, aliases...)
	return b
}

func (b *Builder) From(entity, alias string) *Builder {
	b.from = append(b.from, &ast.From{Entity: entity, Alias: alias})
	return b
}

// Join adds "<kind> join <entity> <alias> on <left> == <right>"; left and
// right are alias.property references.
func (b *Builder) Join(kind ast.JoinType, entity, alias, left, right string) *Builder {
	l, err := ast.ParseRef(left)
	if err != nil {
		b.addError(err)
		return b
	}
	r, err := ast.ParseRef(right)
	if err != nil {
		b.addError(err)
		return b
	}
	b.joins = append(b.joins, &ast.Join{Kind: kind, Entity: entity, Alias: alias, Left: l, Right: r})
	return b
}

func (b *Builder) InnerJoin(entity, alias, left, right string) *Builder {
	return b.Join(ast.JoinInner, entity, alias, left, right)
}

func (b *Builder) LeftJoin(entity, alias, left, right string) *Builder {
	return b.Join(ast.JoinLeft, entity, alias, left, right)
}

func (b *Builder) RightJoin(entity, alias, left, right string) *Builder {
	return b.Join(ast.JoinRight, entity, alias, left, right)
}

func (b *Builder) OuterJoin(entity, alias, left, right string) *Builder {
	return b.Join(ast.JoinOuter, entity, alias, left, right)
}

// Where adds an XQL boolean expression; fragments are ANDed together.
func (b *Builder) Where(expr string) *Builder {
	if expr = strings.TrimSpace(expr); expr != "" {
		b.where = append(b.where, expr)
	}
	return b
}

// Filter matches search anywhere in any of the given alias.property
// references. An empty search disables the filter.
func (b *Builder) Filter(search string, properties ...string) *Builder {
	f := &ast.Filter{Search: search}
	for _, p := range properties {
		ref, err := ast.ParseRef(p)
		if err != nil {
			b.addError(err)
			return b
		}
		f.Properties = append(f.Properties, ref)
	}
	b.filter = f
	return b
}

func (b *Builder) OrderBy(ref string, dir ast.Direction) *Builder {
	r, err := ast.ParseRef(ref)
	if err != nil {
		b.addError(err)
		return b
	}
	b.order = append(b.order, &ast.Order{Ref: r, Direction: dir})
	return b
}

func (b *Builder) Asc(ref string) *Builder  { return b.OrderBy(ref, ast.Ascending) }
func (b *Builder) Desc(ref string) *Builder { return b.OrderBy(ref, ast.Descending) }

func (b *Builder) filtered(includeFilter bool) bool {
	return includeFilter && !b.filter.Empty()
}

func (b *Builder) whereClause(includeFilter bool) string {
	fragments := append([]string(nil), b.where...)
	if b.filtered(includeFilter) {
		parts := make([]string, len(b.filter.Properties))
		for i, ref := range b.filter.Properties {
			parts[i] = ref.String() + " %% :" + FilterParam
		}
		fragments = append(fragments, strings.Join(parts, " || "))
	}
	if len(fragments) < 2 {
		return strings.Join(fragments, "")
	}
	for i, f := range fragments {
		fragments[i] = "(" + f + ")"
	}
	return strings.Join(fragments, " && ")
}

// GenerateXQL renders the builder state as canonical XQL.
func (b *Builder) GenerateXQL(includeFilter bool) (string, error) {
	if err := b.Err(); err != nil {
		return "", err
	}
	q := ast.NewQuery()
	q.Select = b.selects
	q.From = b.from
	q.Joins = b.joins
	q.Order = b.order
	return visitor.RenderXQL(q, b.whereClause(includeFilter)), nil
}

func (b *Builder) compile(includeFilter bool) (*xql.Compiled, error) {
	src, err := b.GenerateXQL(includeFilter)
	if err != nil {
		return nil, err
	}
	return b.exec.Compiler().Compile(src)
}

// GenerateSQL compiles the row statement, filter included.
func (b *Builder) GenerateSQL() (string, error) {
	compiled, err := b.compile(true)
	if err != nil {
		return "", err
	}
	return compiled.SQL, nil
}

func (b *Builder) GenerateCountSQL(includeFilter bool) (string, error) {
	compiled, err := b.compile(includeFilter)
	if err != nil {
		return "", err
	}
	return compiled.CountSQL, nil
}

// params copies args and binds the filter pattern when the filter applies.
func (b *Builder) params(args map[string]any, includeFilter bool) map[string]any {
	params := make(map[string]any, len(args)+1)
	for k, v := range args {
		params[k] = v
	}
	if b.filtered(includeFilter) {
		params[FilterParam] = "%" + b.filter.Search + "%"
	}
	return params
}

// Get runs the query and maps its rows. With one selected alias the result
// is an EntityCollection, otherwise a RecordSet. Every entity returned is
// tracked; an entity already tracked under the same id is returned in place
// of the freshly loaded one.
func (b *Builder) Get(ctx context.Context, args map[string]any, limit, offset int) (Result, error) {
	compiled, err := b.compile(true)
	if err != nil {
		return nil, err
	}
	rows, err := b.exec.Database().Select(ctx, compiled.SQL, b.params(args, true), limit, offset)
	if err != nil {
		return nil, err
	}
	return b.mapRows(compiled, rows)
}

// First returns the first entity of a single-alias query, or nil.
func (b *Builder) First(ctx context.Context, args map[string]any) (schema.Entity, error) {
	if len(b.selects) != 1 {
		return nil, fmt.Errorf("query: First needs exactly one selected alias, have %d", len(b.selects))
	}
	res, err := b.Get(ctx, args, 1, 0)
	if err != nil {
		return nil, err
	}
	entities, ok := res.(EntityCollection)
	if !ok || len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// Count runs the count statement; a missing row counts as 0.
func (b *Builder) Count(ctx context.Context, args map[string]any, useFilter bool) (int64, error) {
	compiled, err := b.compile(useFilter)
	if err != nil {
		return 0, err
	}
	row, err := b.exec.Database().SelectFirst(ctx, compiled.CountSQL, b.params(args, useFilter))
	if err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, nil
	}
	n, err := schema.ToInt64(row[0])
	if err != nil {
		return 0, fmt.Errorf("query: count result: %w", err)
	}
	return n, nil
}

var errColumnMismatch = errors.New("query: row does not match the selected columns")
