package ast

import (
	"errors"
	"fmt"
)

// Compile error classes. Every *Error wraps exactly one of them.
var (
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnbalancedBracket   = errors.New("unbalanced bracket")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnknownEntity       = errors.New("unknown entity")
	ErrUnknownAlias        = errors.New("unknown entity alias")
	ErrUnknownProperty     = errors.New("unknown entity property")
	ErrMissingFrom         = errors.New("missing from clause")
	ErrNoEntitySelected    = errors.New("no entity selected")
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// Error is a compile error positioned in the XQL source. Pos is a byte
// offset, or -1 when the error concerns the statement as a whole.
type Error struct {
	Err    error
	Pos    int
	Text   string
	Detail string
}

func Errorf(err error, tok Token, format string, args ...any) *Error {
	return &Error{Err: err, Pos: tok.Pos, Text: tok.String(), Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := "xql: " + e.Err.Error()
	if e.Text != "" {
		msg += fmt.Sprintf(" %q", e.Text)
	}
	if e.Pos >= 0 {
		msg += fmt.Sprintf(" at position %d", e.Pos)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
