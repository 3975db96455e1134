package ast

import (
	"fmt"

	"github.com/Konsultn-Engineering/xqlorm/utils"
)

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinOuter
)

var joinKeywords = [...]string{"inner", "left", "right", "outer"}

// String returns the XQL keyword of the join type.
func (j JoinType) String() string {
	if int(j) < len(joinKeywords) {
		return joinKeywords[j]
	}
	return "inner"
}

// ParseJoinType maps an XQL join keyword to its type.
func ParseJoinType(keyword string) (JoinType, bool) {
	for i, kw := range joinKeywords {
		if kw == keyword {
			return JoinType(i), true
		}
	}
	return JoinInner, false
}

// Ref names a property through the alias of its entity.
type Ref struct {
	Alias    string
	Property string
}

func (r Ref) String() string { return r.Alias + "." + r.Property }

// ParseRef splits "alias.property".
func ParseRef(s string) (Ref, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return Ref{Alias: s[:i], Property: s[i+1:]}, nil
		}
	}
	return Ref{}, fmt.Errorf("invalid property reference %q: want alias.property", s)
}

// Join is "<type> join <Entity> <alias> on <left> == <right>".
type Join struct {
	Kind   JoinType
	Entity string
	Alias  string
	Left   Ref
	Right  Ref
}

func (j *Join) Type() NodeType         { return NodeJoin }
func (j *Join) Accept(v Visitor) error { return v.VisitJoin(j) }
func (j *Join) Fingerprint() uint64 {
	return utils.U64(fmt.Sprintf("join:%s %s %s %s=%s", j.Kind, j.Entity, j.Alias, j.Left, j.Right))
}
