package visitor

import (
	"strings"

	"github.com/Konsultn-Engineering/xqlorm/ast"
)

// XQLVisitor renders a query back into canonical XQL text.
type XQLVisitor struct {
	sb      strings.Builder
	where   string
	first   bool
	ordered bool
}

// RenderXQL renders q. A non-empty where replaces the query's own where
// clause; it is emitted verbatim.
func RenderXQL(q *ast.Query, where string) string {
	v := &XQLVisitor{where: where}
	_ = q.Accept(v)
	return v.sb.String()
}

func (v *XQLVisitor) VisitQuery(q *ast.Query) error {
	v.sb.WriteString(strings.Join(q.Select, ", "))
	v.first, v.ordered = true, false

	for _, f := range q.From {
		_ = f.Accept(v)
	}
	for _, j := range q.Joins {
		_ = j.Accept(v)
	}
	switch {
	case v.where != "":
		v.sb.WriteString(" where ")
		v.sb.WriteString(v.where)
	case q.Where != nil && len(q.Where.Tokens) > 0:
		_ = q.Where.Accept(v)
	}
	for _, o := range q.Order {
		_ = o.Accept(v)
	}
	return nil
}

func (v *XQLVisitor) VisitFrom(f *ast.From) error {
	if v.first {
		v.sb.WriteString(" from ")
		v.first = false
	} else {
		v.sb.WriteString(", ")
	}
	v.sb.WriteString(f.Entity)
	v.sb.WriteByte(' ')
	v.sb.WriteString(f.Alias)
	return nil
}

func (v *XQLVisitor) VisitJoin(j *ast.Join) error {
	v.sb.WriteByte(' ')
	v.sb.WriteString(j.Kind.String())
	v.sb.WriteString(" join ")
	v.sb.WriteString(j.Entity)
	v.sb.WriteByte(' ')
	v.sb.WriteString(j.Alias)
	v.sb.WriteString(" on ")
	v.sb.WriteString(j.Left.String())
	v.sb.WriteString(" == ")
	v.sb.WriteString(j.Right.String())
	return nil
}

func (v *XQLVisitor) VisitWhere(w *ast.Where) error {
	v.sb.WriteString(" where ")
	v.sb.WriteString(ast.JoinTokens(w.Tokens))
	return nil
}

func (v *XQLVisitor) VisitOrder(o *ast.Order) error {
	if v.ordered {
		v.sb.WriteString(", ")
	} else {
		v.sb.WriteString(" order by ")
		v.ordered = true
	}
	v.sb.WriteString(o.Ref.String())
	if o.Direction == ast.Descending {
		v.sb.WriteString(" desc")
	}
	return nil
}
