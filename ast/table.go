package ast

import "github.com/Konsultn-Engineering/xqlorm/utils"

// From is one "<Entity> <alias>" entry of the FROM list.
type From struct {
	Entity string
	Alias  string
}

func (f *From) Type() NodeType         { return NodeFrom }
func (f *From) Accept(v Visitor) error { return v.VisitFrom(f) }
func (f *From) Fingerprint() uint64 {
	return utils.U64("from:" + f.Entity + " " + f.Alias)
}
