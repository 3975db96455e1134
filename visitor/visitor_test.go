package visitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/xqlorm/ast"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
	"github.com/Konsultn-Engineering/xqlorm/schema"
)

var (
	authorModel = schema.MustDefine("Author", "",
		schema.Integer("id", schema.AutoIncrement()),
		schema.String("fullName"),
		schema.Date("born"),
	)
	bookModel = schema.MustDefine("Book", "",
		schema.Integer("id", schema.AutoIncrement()),
		schema.Integer("authorId"),
		schema.String("title"),
	)
	catalog = schema.Catalog{"Author": authorModel, "Book": bookModel}
)

func prop(alias, name string) ast.Token {
	return ast.Token{Type: ast.TokenProperty, Alias: alias, Text: name, Phase: ast.PhaseWhere}
}

func op(text string) ast.Token {
	return ast.Token{Type: ast.TokenOperator, Text: text, Phase: ast.PhaseWhere}
}

func constant(text string) ast.Token {
	return ast.Token{Type: ast.TokenConstant, Text: text, Phase: ast.PhaseWhere}
}

func bookQuery() *ast.Query {
	q := ast.NewQuery()
	q.Select = []string{"b", "a"}
	q.From = []*ast.From{{Entity: "Book", Alias: "b"}}
	q.Joins = []*ast.Join{{
		Kind: ast.JoinLeft, Entity: "Author", Alias: "a",
		Left: ast.Ref{Alias: "a", Property: "id"}, Right: ast.Ref{Alias: "b", Property: "authorId"},
	}}
	q.Aliases = map[string]string{"b": "Book", "a": "Author"}
	q.Where = &ast.Where{Tokens: []ast.Token{
		prop("a", "fullName"), op("%%"), constant("'ann'"),
		op("&&"), prop("b", "id"), op("!="), constant("null"),
	}}
	q.Order = []*ast.Order{
		{Ref: ast.Ref{Alias: "a", Property: "born"}, Direction: ast.Descending},
		{Ref: ast.Ref{Alias: "b", Property: "title"}},
	}
	return q
}

func TestSQLVisitor(t *testing.T) {
	v := NewSQLVisitor(dialect.NewPostgresDialect(), catalog)
	q := bookQuery()

	sql, err := v.Build(q)
	require.NoError(t, err)
	assert.Equal(t, "select b.id, b.author_id, b.title, a.id, a.full_name, a.born from books b"+
		" left join authors a on a.id = b.author_id"+
		" where upper(a.full_name) like upper('%ann%') and b.id is not null"+
		" order by a.born desc, b.title", sql)

	columns := v.Columns()
	require.Len(t, columns, 6)
	assert.Equal(t, "a.full_name (Author.fullName)", columns[4].String())

	count, err := v.BuildCount(q)
	require.NoError(t, err)
	assert.Equal(t, "select count(*) as result from books b"+
		" left join authors a on a.id = b.author_id"+
		" where upper(a.full_name) like upper('%ann%') and b.id is not null", count)
	assert.Len(t, v.Columns(), 6)
}

func TestSQLVisitorErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *ast.Query)
		err    error
	}{
		{"NoSelect", func(q *ast.Query) { q.Select = nil }, ast.ErrNoEntitySelected},
		{"NoFrom", func(q *ast.Query) { q.From = nil }, ast.ErrMissingFrom},
		{"UnboundAlias", func(q *ast.Query) { q.Select = []string{"x"} }, ast.ErrUnknownAlias},
		{"UnknownEntity", func(q *ast.Query) { q.From[0].Entity = "Shelf" }, ast.ErrUnknownEntity},
		{"UnknownProperty", func(q *ast.Query) { q.Order[0].Ref.Property = "age" }, ast.ErrUnknownProperty},
		{"LikeOnInteger", func(q *ast.Query) { q.Where.Tokens[0] = prop("b", "id") }, ast.ErrUnsupportedOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := bookQuery()
			tt.mutate(q)
			_, err := NewSQLVisitor(dialect.NewPostgresDialect(), catalog).Build(q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), err.Error())
		})
	}
}

func TestLikeOnDate(t *testing.T) {
	q := bookQuery()
	q.Where = &ast.Where{Tokens: []ast.Token{
		prop("a", "born"), op("%%"), {Type: ast.TokenParameter, Text: ":born"},
	}}

	sql, err := NewSQLVisitor(dialect.NewSQLiteDialect(), catalog).BuildCount(q)
	require.NoError(t, err)
	assert.Equal(t, "select count(*) as result from books b left join authors a on a.id = b.author_id"+
		" where strftime('%Y-%m-%d', a.born) like :born", sql)

	q.Where = &ast.Where{Tokens: []ast.Token{prop("a", "born"), op("%%"), prop("a", "born")}}
	sql, err = NewSQLVisitor(dialect.NewSQLiteDialect(), catalog).BuildCount(q)
	require.NoError(t, err)
	assert.Contains(t, sql, " where strftime('%Y-%m-%d', a.born) like strftime('%Y-%m-%d', a.born)")
}

func TestRenderXQL(t *testing.T) {
	q := bookQuery()
	assert.Equal(t, "b, a from Book b left join Author a on a.id == b.authorId"+
		" where a.fullName %% 'ann' && b.id != null order by a.born desc, b.title", RenderXQL(q, ""))

	assert.Equal(t, "b, a from Book b left join Author a on a.id == b.authorId"+
		" where (b.id > 3) && (a.fullName %% :xql_filter) order by a.born desc, b.title",
		RenderXQL(q, "(b.id > 3) && (a.fullName %% :xql_filter)"))

	q.Where = nil
	q.Order = nil
	q.Joins = nil
	q.From = append(q.From, &ast.From{Entity: "Author", Alias: "a"})
	assert.Equal(t, "b, a from Book b, Author a", RenderXQL(q, ""))
}
