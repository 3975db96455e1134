package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Model is the metadata of one entity class: its ordered properties, key
// layout and the CRUD statements derived from them. Models are built once
// per class by Define and shared for the process lifetime.
type Model struct {
	class         string
	table         string
	properties    []*Property
	byName        map[string]*Property
	byField       map[string]*Property
	primaryKeys   []string
	autoIncrement string

	insertOnce, updateOnce, deleteOnce sync.Once
	insertSQL, updateSQL, deleteSQL    string
}

func newModel(class, table string, props []*Property) (*Model, error) {
	if class == "" {
		return nil, fmt.Errorf("%w: empty class name", ErrInvalidModel)
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: %s declares no properties", ErrInvalidModel, class)
	}
	if table == "" {
		table = TableName(class)
	}

	m := &Model{
		class:      class,
		table:      table,
		properties: make([]*Property, 0, len(props)),
		byName:     make(map[string]*Property, len(props)),
		byField:    make(map[string]*Property, len(props)),
	}

	for i, prop := range props {
		if prop == nil {
			return nil, fmt.Errorf("%w: %s property %d is nil", ErrInvalidModel, class, i)
		}
		if !isIdentifier(prop.name) || !isIdentifier(prop.field) {
			return nil, fmt.Errorf("%w: %s.%s is not a valid identifier", ErrInvalidModel, class, prop.name)
		}
		if _, dup := m.byName[prop.name]; dup {
			return nil, fmt.Errorf("%w: %s.%s declared twice", ErrInvalidModel, class, prop.name)
		}
		if _, dup := m.byField[prop.field]; dup {
			return nil, fmt.Errorf("%w: %s field %s mapped twice", ErrInvalidModel, class, prop.field)
		}
		if err := checkGenerator(prop); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidModel, class, err)
		}

		// Copy so the same descriptor can be shared between models.
		p := *prop
		p.index = i
		m.properties = append(m.properties, &p)
		m.byName[p.name] = &p
		m.byField[p.field] = &p

		if p.primaryKey {
			m.primaryKeys = append(m.primaryKeys, p.name)
			if p.autoIncrement && m.autoIncrement == "" {
				m.autoIncrement = p.name
			}
		}
	}

	if len(m.primaryKeys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, class)
	}
	return m, nil
}

func (m *Model) Class() string { return m.class }
func (m *Model) Table() string { return m.table }

// Properties returns the properties in declaration order.
func (m *Model) Properties() []*Property { return m.properties }

// PrimaryKeys returns the primary key property names in declaration order.
func (m *Model) PrimaryKeys() []string { return m.primaryKeys }

// AutoIncrement returns the first auto-increment key property, or "".
func (m *Model) AutoIncrement() string { return m.autoIncrement }

func (m *Model) Property(name string) (*Property, bool) {
	p, ok := m.byName[name]
	return p, ok
}

func (m *Model) PropertyByField(field string) (*Property, bool) {
	p, ok := m.byField[field]
	return p, ok
}

// insertable lists the properties an INSERT carries.
func (m *Model) insertable() []*Property {
	props := make([]*Property, 0, len(m.properties))
	for _, p := range m.properties {
		if p.autoIncrement || (p.readOnly && !p.primaryKey) {
			continue
		}
		props = append(props, p)
	}
	return props
}

func (m *Model) updatable() []*Property {
	props := make([]*Property, 0, len(m.properties))
	for _, p := range m.properties {
		if p.primaryKey || p.readOnly {
			continue
		}
		props = append(props, p)
	}
	return props
}

func (m *Model) keys() []*Property {
	props := make([]*Property, len(m.primaryKeys))
	for i, name := range m.primaryKeys {
		props[i] = m.byName[name]
	}
	return props
}

func keyCondition(props []*Property) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.field + " = :" + p.name
	}
	return strings.Join(parts, " and ")
}

// InsertSQL returns the INSERT statement with named :property placeholders.
func (m *Model) InsertSQL() string {
	m.insertOnce.Do(func() {
		props := m.insertable()
		fields := make([]string, len(props))
		params := make([]string, len(props))
		for i, p := range props {
			fields[i] = p.field
			params[i] = ":" + p.name
		}
		m.insertSQL = "insert into " + m.table +
			" (" + strings.Join(fields, ", ") + ") values (" + strings.Join(params, ", ") + ")"
	})
	return m.insertSQL
}

// UpdateSQL returns the UPDATE statement, or "" when no property is writable.
func (m *Model) UpdateSQL() string {
	m.updateOnce.Do(func() {
		props := m.updatable()
		if len(props) == 0 {
			return
		}
		sets := make([]string, len(props))
		for i, p := range props {
			sets[i] = p.field + " = :" + p.name
		}
		m.updateSQL = "update " + m.table + " set " + strings.Join(sets, ", ") +
			" where " + keyCondition(m.keys())
	})
	return m.updateSQL
}

func (m *Model) DeleteSQL() string {
	m.deleteOnce.Do(func() {
		m.deleteSQL = "delete from " + m.table + " where " + keyCondition(m.keys())
	})
	return m.deleteSQL
}

func (m *Model) params(e Entity, props []*Property) map[string]any {
	fields := e.Fields()
	params := make(map[string]any, len(props))
	for _, p := range props {
		params[p.name] = serialize(p, deref(fields[p.index]))
	}
	return params
}

func (m *Model) InsertParams(e Entity) map[string]any {
	return m.params(e, m.insertable())
}

func (m *Model) UpdateParams(e Entity) map[string]any {
	return m.params(e, append(m.updatable(), m.keys()...))
}

func (m *Model) DeleteParams(e Entity) map[string]any {
	return m.params(e, m.keys())
}
