package ast

import "github.com/Konsultn-Engineering/xqlorm/utils"

// Query is the categorized form of one XQL statement.
type Query struct {
	Select  []string
	From    []*From
	Joins   []*Join
	Where   *Where
	Order   []*Order
	Aliases map[string]string // alias -> entity
}

func NewQuery() *Query {
	return &Query{Aliases: map[string]string{}}
}

// Resolve returns the entity an alias is bound to.
func (q *Query) Resolve(alias string) (string, bool) {
	entity, ok := q.Aliases[alias]
	return entity, ok
}

func (q *Query) Type() NodeType         { return NodeQuery }
func (q *Query) Accept(v Visitor) error { return v.VisitQuery(q) }

// Fingerprint identifies the query structure independent of whitespace.
func (q *Query) Fingerprint() uint64 {
	var fp uint64 = 0x9e3779b185ebca87
	for _, alias := range q.Select {
		fp = utils.Mix64(fp, utils.U64("select:"+alias))
	}
	for _, f := range q.From {
		fp = utils.Mix64(fp, f.Fingerprint())
	}
	for _, j := range q.Joins {
		fp = utils.Mix64(fp, j.Fingerprint())
	}
	fp = utils.Mix64(fp, q.Where.Fingerprint())
	for _, o := range q.Order {
		fp = utils.Mix64(fp, o.Fingerprint())
	}
	return fp
}
