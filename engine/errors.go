package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEntity   = errors.New("engine: unknown entity")
	ErrNotTracked      = errors.New("engine: entity is not tracked")
	ErrPrimaryKeyArity = errors.New("engine: wrong number of primary key values")
)

// Error is returned for every failure of a manager operation. Err keeps the
// cause, whether a database driver error or one of the sentinels above.
type Error struct {
	Op     string
	Entity string
	Err    error
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("engine: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	return &Error{Op: op, Entity: entity, Err: err}
}
