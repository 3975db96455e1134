package visitor

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/xqlorm/ast"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// Resolver looks up the model behind an entity name.
type Resolver interface {
	Model(entity string) (*schema.Model, bool)
}

// Column is one selected column of a row query, in result order.
type Column struct {
	Alias    string
	Entity   string
	Property string
	Field    string
}

// SQLVisitor renders a categorized query as SQL: either the row statement
// selecting every property of the selected aliases, or the count statement.
// A visitor renders one statement and is not safe for concurrent use.
type SQLVisitor struct {
	sb      strings.Builder
	dialect dialect.Dialect
	schema  Resolver
	query   *ast.Query
	count   bool
	columns []Column
	first   bool
	ordered bool
}

func NewSQLVisitor(d dialect.Dialect, s Resolver) *SQLVisitor {
	return &SQLVisitor{dialect: d, schema: s}
}

// Build renders the row statement.
func (v *SQLVisitor) Build(q *ast.Query) (string, error) {
	return v.build(q, false)
}

// BuildCount renders the count statement: same from, join and where
// clauses, no columns and no ordering.
func (v *SQLVisitor) BuildCount(q *ast.Query) (string, error) {
	return v.build(q, true)
}

// Columns returns the columns of the last row statement built.
func (v *SQLVisitor) Columns() []Column {
	return v.columns
}

func (v *SQLVisitor) build(q *ast.Query, count bool) (string, error) {
	v.sb.Reset()
	v.query = q
	v.count = count
	if !count {
		v.columns = v.columns[:0]
	}
	if err := q.Accept(v); err != nil {
		return "", err
	}
	return v.sb.String(), nil
}

func (v *SQLVisitor) model(alias string) (*schema.Model, string, error) {
	entity, ok := v.query.Resolve(alias)
	if !ok {
		return nil, "", &ast.Error{Err: ast.ErrUnknownAlias, Pos: -1, Text: alias}
	}
	m, ok := v.schema.Model(entity)
	if !ok {
		return nil, "", &ast.Error{Err: ast.ErrUnknownEntity, Pos: -1, Text: entity}
	}
	return m, entity, nil
}

func (v *SQLVisitor) property(alias, name string) (*schema.Property, error) {
	m, _, err := v.model(alias)
	if err != nil {
		return nil, err
	}
	p, ok := m.Property(name)
	if !ok {
		return nil, &ast.Error{Err: ast.ErrUnknownProperty, Pos: -1, Text: alias + "." + name}
	}
	return p, nil
}

func (v *SQLVisitor) field(ref ast.Ref) (string, error) {
	p, err := v.property(ref.Alias, ref.Property)
	if err != nil {
		return "", err
	}
	return ref.Alias + "." + p.Field(), nil
}

func (v *SQLVisitor) VisitQuery(q *ast.Query) error {
	if len(q.Select) == 0 {
		return &ast.Error{Err: ast.ErrNoEntitySelected, Pos: -1}
	}
	if len(q.From) == 0 {
		return &ast.Error{Err: ast.ErrMissingFrom, Pos: -1}
	}

	if v.count {
		v.sb.WriteString("select count(*) as result")
	} else {
		v.sb.WriteString("select ")
		for _, alias := range q.Select {
			m, entity, err := v.model(alias)
			if err != nil {
				return err
			}
			for _, p := range m.Properties() {
				if len(v.columns) > 0 {
					v.sb.WriteString(", ")
				}
				v.sb.WriteString(alias)
				v.sb.WriteByte('.')
				v.sb.WriteString(p.Field())
				v.columns = append(v.columns, Column{
					Alias: alias, Entity: entity, Property: p.Name(), Field: p.Field(),
				})
			}
		}
	}

	v.first, v.ordered = true, false
	return ast.Walk(v, q)
}

func (v *SQLVisitor) VisitFrom(f *ast.From) error {
	m, ok := v.schema.Model(f.Entity)
	if !ok {
		return &ast.Error{Err: ast.ErrUnknownEntity, Pos: -1, Text: f.Entity}
	}
	if v.first {
		v.sb.WriteString(" from ")
		v.first = false
	} else {
		v.sb.WriteString(", ")
	}
	v.sb.WriteString(m.Table())
	v.sb.WriteByte(' ')
	v.sb.WriteString(f.Alias)
	return nil
}

func (v *SQLVisitor) VisitJoin(j *ast.Join) error {
	m, ok := v.schema.Model(j.Entity)
	if !ok {
		return &ast.Error{Err: ast.ErrUnknownEntity, Pos: -1, Text: j.Entity}
	}
	left, err := v.field(j.Left)
	if err != nil {
		return err
	}
	right, err := v.field(j.Right)
	if err != nil {
		return err
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(joinKeyword(j.Kind))
	v.sb.WriteByte(' ')
	v.sb.WriteString(m.Table())
	v.sb.WriteByte(' ')
	v.sb.WriteString(j.Alias)
	v.sb.WriteString(" on ")
	v.sb.WriteString(left)
	v.sb.WriteString(" = ")
	v.sb.WriteString(right)
	return nil
}

// --- helpers ---

func joinKeyword(t ast.JoinType) string {
	switch t {
	case ast.JoinLeft:
		return "left join"
	case ast.JoinRight:
		return "right join"
	case ast.JoinOuter:
		return "full outer join"
	default:
		return "inner join"
	}
}

func (v *SQLVisitor) VisitWhere(w *ast.Where) error {
	expr, err := v.expression(w.Tokens)
	if err != nil {
		return err
	}
	v.sb.WriteString(" where ")
	v.sb.WriteString(expr)
	return nil
}

// expression rewrites an XQL boolean expression into SQL.
func (v *SQLVisitor) expression(tokens []ast.Token) (string, error) {
	parts := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case ast.TokenOperator:
			next := ast.Token{}
			if i+1 < len(tokens) {
				next = tokens[i+1]
			}
			isNull := next.Is(ast.TokenConstant, "null")

			switch tok.Text {
			case "==":
				parts = append(parts, pick(isNull, "is", "="))
			case "!=":
				parts = append(parts, pick(isNull, "is not", "<>"))
			case "&&":
				parts = append(parts, "and")
			case "||":
				parts = append(parts, "or")
			case "!":
				parts = append(parts, "not")
			case "%%":
				if i == 0 || len(parts) == 0 {
					return "", ast.Errorf(ast.ErrUnsupportedOperator, tok, "pattern match needs a left operand")
				}
				left, right, err := v.like(tokens[i-1], parts[len(parts)-1], tok, next)
				if err != nil {
					return "", err
				}
				parts[len(parts)-1] = left
				parts = append(parts, "like", right)
				i++
			default:
				parts = append(parts, tok.Text)
			}

		default:
			s, err := v.operand(tok)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
	}

	var sb strings.Builder
	for i, part := range parts {
		if i > 0 && part != ")" && parts[i-1] != "(" {
			sb.WriteByte(' ')
		}
		sb.WriteString(part)
	}
	return sb.String(), nil
}

func (v *SQLVisitor) operand(tok ast.Token) (string, error) {
	switch tok.Type {
	case ast.TokenProperty:
		return v.field(ast.Ref{Alias: tok.Alias, Property: tok.Text})
	case ast.TokenConstant:
		switch tok.Text {
		case "true":
			return "1", nil
		case "false":
			return "0", nil
		}
		return tok.Text, nil
	case ast.TokenParameter, ast.TokenBracket:
		return tok.Text, nil
	}
	return "", ast.Errorf(ast.ErrInvalidToken, tok, "cannot render %s token", tok.Type)
}

// like renders "left %% right". The left operand must be a property; its
// declared type picks the dialect hook: strings compare upper-cased, dates
// and datetimes through their string form. A date or datetime property on
// the right goes through the same hook; literals and parameters on the
// right are patterns and stay as written. String literals match anywhere
// in the value.
func (v *SQLVisitor) like(leftTok ast.Token, left string, op, rightTok ast.Token) (string, string, error) {
	if leftTok.Type != ast.TokenProperty {
		return "", "", ast.Errorf(ast.ErrUnsupportedOperator, op, "left operand must be a property")
	}
	p, err := v.property(leftTok.Alias, leftTok.Text)
	if err != nil {
		return "", "", err
	}

	var right string
	rightIsDate := false
	switch {
	case rightTok.Type == ast.TokenConstant && strings.HasPrefix(rightTok.Text, "'"):
		inner := rightTok.Text[1 : len(rightTok.Text)-1]
		right = "'%" + inner + "%'"
	case rightTok.Type == ast.TokenParameter, rightTok.Type == ast.TokenProperty:
		if right, err = v.operand(rightTok); err != nil {
			return "", "", err
		}
		if rightTok.Type == ast.TokenProperty {
			rp, err := v.property(rightTok.Alias, rightTok.Text)
			if err != nil {
				return "", "", err
			}
			rightIsDate = rp.Type() == schema.TypeDate || rp.Type() == schema.TypeDateTime
		}
	default:
		return "", "", ast.Errorf(ast.ErrUnsupportedOperator, op,
			"right operand must be a string, parameter or property")
	}

	switch p.Type() {
	case schema.TypeString, schema.TypeText:
		return v.dialect.ToUpperCase(left), v.dialect.ToUpperCase(right), nil
	case schema.TypeDate:
		if rightIsDate {
			right = v.dialect.FormatDate(right)
		}
		return v.dialect.FormatDate(left), right, nil
	case schema.TypeDateTime:
		if rightIsDate {
			right = v.dialect.FormatDateTime(right)
		}
		return v.dialect.FormatDateTime(left), right, nil
	}
	return "", "", ast.Errorf(ast.ErrUnsupportedOperator, op,
		"%s is %s; pattern match needs string, text, date or datetime", leftTok, p.Type())
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func (v *SQLVisitor) VisitOrder(o *ast.Order) error {
	if v.count {
		return nil
	}
	field, err := v.field(o.Ref)
	if err != nil {
		return err
	}
	if v.ordered {
		v.sb.WriteString(", ")
	} else {
		v.sb.WriteString(" order by ")
		v.ordered = true
	}
	v.sb.WriteString(field)
	if o.Direction == ast.Descending {
		v.sb.WriteString(" desc")
	}
	return nil
}

func (c Column) String() string {
	return fmt.Sprintf("%s.%s (%s.%s)", c.Alias, c.Field, c.Entity, c.Property)
}
