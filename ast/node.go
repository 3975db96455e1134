package ast

import "strings"

type NodeType int

const (
	NodeQuery NodeType = iota
	NodeFrom
	NodeJoin
	NodeWhere
	NodeOrderBy
)

type Node interface {
	Type() NodeType
	Accept(v Visitor) error
	Fingerprint() uint64
}

// Phase is the grammar region a token was read in.
type Phase int

const (
	PhaseSelect Phase = iota
	PhaseFrom
	PhaseJoin
	PhaseWhere
	PhaseOrder
)

var phaseNames = [...]string{"select", "from", "join", "where", "order"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

type TokenType int

const (
	TokenWord TokenType = iota
	TokenKeyword
	TokenAlias
	TokenEntity
	TokenProperty
	TokenOperator
	TokenConstant
	TokenParameter
	TokenPunctuation
	TokenBracket
)

var tokenTypeNames = [...]string{
	"word", "keyword", "alias", "entity", "property",
	"operator", "constant", "parameter", "punctuation", "bracket",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// Token is one lexeme of an XQL source. Pos is the byte offset of its first
// character. Property tokens kept in a Where clause carry the alias they
// were qualified with.
type Token struct {
	Type  TokenType
	Text  string
	Pos   int
	Phase Phase
	Alias string
}

// Is reports whether the token has the given type and text.
func (t Token) Is(typ TokenType, text string) bool {
	return t.Type == typ && t.Text == text
}

func (t Token) String() string {
	if t.Type == TokenProperty && t.Alias != "" {
		return t.Alias + "." + t.Text
	}
	return t.Text
}

// JoinTokens renders tokens back to source text, one space apart except
// inside brackets.
func JoinTokens(tokens []Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 && tok.Text != ")" && tokens[i-1].Text != "(" {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.String())
	}
	return sb.String()
}
