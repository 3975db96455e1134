package ast

import "github.com/Konsultn-Engineering/xqlorm/utils"

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

type Order struct {
	Ref       Ref
	Direction Direction
}

func (o *Order) Type() NodeType         { return NodeOrderBy }
func (o *Order) Accept(v Visitor) error { return v.VisitOrder(o) }
func (o *Order) Fingerprint() uint64 {
	return utils.U64("order:" + o.Ref.String() + " " + o.Direction.String())
}
