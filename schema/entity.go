package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/Konsultn-Engineering/xqlorm/utils"
)

// Entity is a mapped record. Fields returns pointers to the record's fields
// in the order of Model().Properties(); the pointer types must match the
// property data types (see Verify). Implementations embed Base.
//
//	type User struct {
//		schema.Base
//		ID   uuid.UUID
//		Name string
//	}
//
//	func (u *User) Model() *schema.Model { return userModel }
//	func (u *User) Fields() []any        { return []any{&u.ID, &u.Name} }
type Entity interface {
	Model() *Model
	Fields() []any
	base() *Base
}

// Base holds the per-instance key cache every entity carries.
type Base struct {
	key   string
	id    uint64
	keyed bool
}

func (b *Base) base() *Base { return b }

func (b *Base) reset() {
	b.key, b.id, b.keyed = "", 0, false
}

// Verify checks that e exposes one correctly typed field per property.
func Verify(e Entity) error {
	m := e.Model()
	fields := e.Fields()
	if len(fields) != len(m.properties) {
		return fmt.Errorf("%w: %s has %d fields for %d properties",
			ErrFieldMismatch, m.class, len(fields), len(m.properties))
	}
	for i, p := range m.properties {
		if !p.typ.accepts(fields[i]) {
			return fmt.Errorf("%w: %s.%s is %s but field is %T",
				ErrFieldMismatch, m.class, p.name, p.typ, fields[i])
		}
	}
	return nil
}

// Init fills an empty single-column primary key from the property's generator.
// Auto-increment keys are left to the database.
func Init(e Entity) error {
	m := e.Model()
	if len(m.primaryKeys) != 1 {
		return nil
	}
	p := m.byName[m.primaryKeys[0]]
	if p.autoIncrement || p.generator == "" {
		return nil
	}
	field := e.Fields()[p.index]
	if !p.isNull(deref(field)) {
		return nil
	}
	gen, err := generatorFor(p.generator)
	if err != nil {
		return err
	}
	id, err := gen.Generate(p.typ)
	if err != nil {
		return err
	}
	if err := assign(field, id); err != nil {
		return fmt.Errorf("assign generated %s.%s: %w", m.class, p.name, err)
	}
	e.base().reset()
	return nil
}

// AssignFields copies a row keyed by storage field name into e. Unknown
// fields are ignored.
func AssignFields(e Entity, row map[string]any) error {
	m := e.Model()
	fields := e.Fields()
	for field, value := range row {
		p, ok := m.byField[field]
		if !ok {
			continue
		}
		if err := assign(fields[p.index], value); err != nil {
			return fmt.Errorf("assign %s.%s: %w", m.class, p.name, err)
		}
	}
	e.base().reset()
	return nil
}

// AssignColumns copies positional values, in property order, into e.
func AssignColumns(e Entity, values []any) error {
	m := e.Model()
	if len(values) != len(m.properties) {
		return fmt.Errorf("%w: %s expects %d columns, got %d",
			ErrFieldMismatch, m.class, len(m.properties), len(values))
	}
	fields := e.Fields()
	for i, p := range m.properties {
		if err := assign(fields[i], values[i]); err != nil {
			return fmt.Errorf("assign %s.%s: %w", m.class, p.name, err)
		}
	}
	e.base().reset()
	return nil
}

// Value returns the current value of the named property.
func Value(e Entity, name string) (any, error) {
	p, ok := e.Model().byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, e.Model().class, name)
	}
	return deref(e.Fields()[p.index]), nil
}

// SetValue coerces v into the named property.
func SetValue(e Entity, name string, v any) error {
	m := e.Model()
	p, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, m.class, name)
	}
	if err := assign(e.Fields()[p.index], v); err != nil {
		return fmt.Errorf("assign %s.%s: %w", m.class, name, err)
	}
	if p.primaryKey {
		e.base().reset()
	}
	return nil
}

// KeyOf returns the colon-joined primary key values, or false while any
// key property is still unset. A complete key is cached on the entity.
func KeyOf(e Entity) (string, bool) {
	b := e.base()
	if b.keyed {
		return b.key, true
	}
	m := e.Model()
	fields := e.Fields()
	parts := make([]string, len(m.primaryKeys))
	for i, name := range m.primaryKeys {
		p := m.byName[name]
		v := deref(fields[p.index])
		if p.isNull(v) {
			return "", false
		}
		parts[i] = keyString(p, v)
	}
	b.key = strings.Join(parts, ":")
	b.id = utils.EntityID(m.class, b.key)
	b.keyed = true
	return b.key, true
}

// EntityID returns the identity-map key of e.
func EntityID(e Entity) (uint64, error) {
	if _, ok := KeyOf(e); !ok {
		return 0, fmt.Errorf("%w: %s", ErrNullPrimaryKey, e.Model().class)
	}
	return e.base().id, nil
}

// Snapshot copies the current field values.
func Snapshot(e Entity) []any {
	fields := e.Fields()
	values := make([]any, len(fields))
	for i, f := range fields {
		values[i] = deref(f)
	}
	return values
}

// Restore writes a snapshot taken by Snapshot back into e.
func Restore(e Entity, snapshot []any) error {
	fields := e.Fields()
	if len(snapshot) != len(fields) {
		return fmt.Errorf("%w: snapshot has %d values for %d fields",
			ErrFieldMismatch, len(snapshot), len(fields))
	}
	for i, f := range fields {
		if err := assign(f, snapshot[i]); err != nil {
			return err
		}
	}
	e.base().reset()
	return nil
}

// Equal compares two field values; times compare by instant.
func Equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
