package ast

import "github.com/Konsultn-Engineering/xqlorm/utils"

// Where is a boolean expression as a categorized token sequence.
type Where struct {
	Tokens []Token
}

func (w *Where) Type() NodeType         { return NodeWhere }
func (w *Where) Accept(v Visitor) error { return v.VisitWhere(w) }
func (w *Where) Fingerprint() uint64 {
	if w == nil || len(w.Tokens) == 0 {
		return 0
	}
	return utils.U64("where:" + JoinTokens(w.Tokens))
}

// Filter is a search string matched against several properties; the
// matches are ORed together.
type Filter struct {
	Search     string
	Properties []Ref
}

func (f *Filter) Empty() bool {
	return f == nil || f.Search == "" || len(f.Properties) == 0
}
