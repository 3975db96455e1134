package engine

import (
	"fmt"

	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// tracked is one identity map entry: the instance handed out for an entity
// id and its field values as of the last load or write.
type tracked struct {
	entity   schema.Entity
	snapshot []any
}

func (m *Manager) lookup(e schema.Entity) (*tracked, bool) {
	id, err := schema.EntityID(e)
	if err != nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracked[id]
	return t, ok
}

// Watch starts tracking e and snapshots its values. When an instance with
// the same id is already tracked, that instance is returned instead of e
// and nothing changes; callers relying on identity must use the result.
func (m *Manager) Watch(e schema.Entity) (schema.Entity, error) {
	id, err := schema.EntityID(e)
	if err != nil {
		return nil, &Error{Op: "watch", Entity: e.Model().Class(), Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracked[id]; ok {
		return t.entity, nil
	}
	m.tracked[id] = &tracked{entity: e, snapshot: schema.Snapshot(e)}
	return e, nil
}

// Unwatch stops tracking e. Untracked entities are ignored.
func (m *Manager) Unwatch(e schema.Entity) {
	id, err := schema.EntityID(e)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.tracked, id)
	m.mu.Unlock()
}

func (m *Manager) IsTracked(e schema.Entity) bool {
	_, ok := m.lookup(e)
	return ok
}

// Tracked returns the number of tracked entities.
func (m *Manager) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}

// Modified reports whether any writable property of e differs from its
// snapshot. Untracked entities always count as modified.
func (m *Manager) Modified(e schema.Entity) bool {
	t, ok := m.lookup(e)
	if !ok {
		return true
	}
	current := schema.Snapshot(e)
	for i, p := range e.Model().Properties() {
		if p.IsReadOnly() {
			continue
		}
		if !schema.Equal(current[i], t.snapshot[i]) {
			return true
		}
	}
	return false
}

// PropertyModified is Modified for a single property. Read-only properties
// never count as modified.
func (m *Manager) PropertyModified(e schema.Entity, name string) (bool, error) {
	model := e.Model()
	index := -1
	for i, p := range model.Properties() {
		if p.Name() == name {
			if p.IsReadOnly() {
				return false, nil
			}
			index = i
			break
		}
	}
	if index < 0 {
		return false, &Error{Op: "property modified", Entity: model.Class(),
			Err: fmt.Errorf("%w: %s", schema.ErrUnknownProperty, name)}
	}

	t, ok := m.lookup(e)
	if !ok {
		return true, nil
	}
	current, err := schema.Value(e, name)
	if err != nil {
		return false, err
	}
	return !schema.Equal(current, t.snapshot[index]), nil
}

// Restore overwrites e with its snapshot, undoing in-memory edits.
func (m *Manager) Restore(e schema.Entity) error {
	t, ok := m.lookup(e)
	if !ok {
		return &Error{Op: "restore", Entity: e.Model().Class(), Err: ErrNotTracked}
	}
	if err := schema.Restore(e, t.snapshot); err != nil {
		return &Error{Op: "restore", Entity: e.Model().Class(), Err: err}
	}
	return nil
}

func (m *Manager) resnapshot(e schema.Entity) {
	id, err := schema.EntityID(e)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracked[id]; ok {
		t.snapshot = schema.Snapshot(e)
	}
}
