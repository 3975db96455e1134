package xql

import "github.com/Konsultn-Engineering/xqlorm/ast"

// Error is a positioned compile error; match its class with errors.Is.
type Error = ast.Error

var (
	ErrUnterminatedString  = ast.ErrUnterminatedString
	ErrUnbalancedBracket   = ast.ErrUnbalancedBracket
	ErrInvalidToken        = ast.ErrInvalidToken
	ErrUnknownEntity       = ast.ErrUnknownEntity
	ErrUnknownAlias        = ast.ErrUnknownAlias
	ErrUnknownProperty     = ast.ErrUnknownProperty
	ErrMissingFrom         = ast.ErrMissingFrom
	ErrNoEntitySelected    = ast.ErrNoEntitySelected
	ErrUnsupportedOperator = ast.ErrUnsupportedOperator
)
