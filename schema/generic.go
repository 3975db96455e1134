package schema

import (
	"time"

	"github.com/google/uuid"
)

// Generic is an entity whose fields are typed slots allocated from its
// model, for models only known at runtime.
type Generic struct {
	Base
	model *Model
	slots []any
}

func NewGeneric(m *Model) *Generic {
	g := &Generic{model: m, slots: make([]any, len(m.properties))}
	for i, p := range m.properties {
		g.slots[i] = newSlot(p.typ)
	}
	return g
}

func newSlot(t DataType) any {
	switch t {
	case TypeUUID:
		return new(uuid.UUID)
	case TypeInteger:
		return new(int64)
	case TypeNumeric:
		return new(float64)
	case TypeDate, TypeDateTime:
		return new(time.Time)
	case TypeBool:
		return new(bool)
	}
	return new(string)
}

func (g *Generic) Model() *Model { return g.model }
func (g *Generic) Fields() []any { return g.slots }

func (g *Generic) Get(name string) (any, error) { return Value(g, name) }

func (g *Generic) Set(name string, v any) error { return SetValue(g, name, v) }

// Map returns the values keyed by property name.
func (g *Generic) Map() map[string]any {
	out := make(map[string]any, len(g.slots))
	for i, p := range g.model.properties {
		out[p.name] = deref(g.slots[i])
	}
	return out
}
