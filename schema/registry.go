package schema

import (
	"fmt"
	"sort"
	"sync"
)

// models memoizes one Model per entity class for the process lifetime.
var models sync.Map

// Define builds the model of an entity class, or returns the model already
// defined for that class. An empty table name derives one from the class.
func Define(class, table string, props ...*Property) (*Model, error) {
	if cached, ok := models.Load(class); ok {
		return cached.(*Model), nil
	}
	m, err := newModel(class, table, props)
	if err != nil {
		return nil, err
	}
	actual, _ := models.LoadOrStore(class, m)
	return actual.(*Model), nil
}

// MustDefine is Define for package level model variables.
func MustDefine(class, table string, props ...*Property) *Model {
	m, err := Define(class, table, props...)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the model defined for class.
func Lookup(class string) (*Model, bool) {
	m, ok := models.Load(class)
	if !ok {
		return nil, false
	}
	return m.(*Model), true
}

// Catalog maps entity names, as written in XQL, to their models.
type Catalog map[string]*Model

// NewCatalog indexes models by class name.
func NewCatalog(ms ...*Model) (Catalog, error) {
	c := make(Catalog, len(ms))
	for _, m := range ms {
		if err := c.Add(m.Class(), m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c Catalog) Add(name string, m *Model) error {
	if existing, ok := c[name]; ok && existing != m {
		return fmt.Errorf("%w: entity %s declared twice", ErrInvalidModel, name)
	}
	c[name] = m
	return nil
}

func (c Catalog) Model(name string) (*Model, bool) {
	m, ok := c[name]
	return m, ok
}

// Names returns the declared entity names sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
