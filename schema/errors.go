package schema

import "errors"

var (
	ErrNullPrimaryKey   = errors.New("schema: primary key is null")
	ErrNoPrimaryKey     = errors.New("schema: model declares no primary key")
	ErrUnknownProperty  = errors.New("schema: unknown property")
	ErrInvalidModel     = errors.New("schema: invalid model")
	ErrFieldMismatch    = errors.New("schema: entity fields do not match model")
	ErrUnknownGenerator = errors.New("schema: unknown id generator")
)
