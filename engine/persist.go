package engine

import (
	"context"

	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// Persist writes e. An untracked entity is inserted, receives its generated
// key and becomes tracked. A tracked entity is updated only when Modified;
// an unchanged one costs no database call at all.
//
// The identity map only changes once the write is committed, or has joined
// a transaction the caller owns. A failed insert leaves e as it was before
// the call, so persisting it again inserts again.
func (m *Manager) Persist(ctx context.Context, e schema.Entity) error {
	model := e.Model()
	if m.IsTracked(e) {
		if !m.Modified(e) || model.UpdateSQL() == "" {
			return nil
		}
		if err := m.Transaction(ctx, func(ctx context.Context) error {
			return m.update(ctx, e)
		}); err != nil {
			return err
		}
		m.resnapshot(e)
		m.logger.Debug("updated entity", "entity", model.Class(), "key", key(e))
		return nil
	}

	before := schema.Snapshot(e)
	if err := m.Transaction(ctx, func(ctx context.Context) error {
		return m.insert(ctx, e)
	}); err != nil {
		if rErr := schema.Restore(e, before); rErr != nil {
			m.logger.Error("restore after failed insert", "entity", model.Class(), "error", rErr)
		}
		return err
	}
	if _, err := m.Watch(e); err != nil {
		return err
	}
	m.logger.Debug("inserted entity", "entity", model.Class(), "key", key(e))
	return nil
}

func (m *Manager) insert(ctx context.Context, e schema.Entity) error {
	model := e.Model()
	if err := schema.Init(e); err != nil {
		return &Error{Op: "insert", Entity: model.Class(), Err: err}
	}
	if _, err := m.db.Execute(ctx, model.InsertSQL(), model.InsertParams(e)); err != nil {
		return &Error{Op: "insert", Entity: model.Class(), Err: err}
	}

	if name := model.AutoIncrement(); name != "" {
		id, err := m.db.LastInsertID(ctx)
		if err != nil {
			return &Error{Op: "insert", Entity: model.Class(), Err: err}
		}
		if err := schema.SetValue(e, name, id); err != nil {
			return &Error{Op: "insert", Entity: model.Class(), Err: err}
		}
	}
	return nil
}

func (m *Manager) update(ctx context.Context, e schema.Entity) error {
	model := e.Model()
	if _, err := m.db.Execute(ctx, model.UpdateSQL(), model.UpdateParams(e)); err != nil {
		return &Error{Op: "update", Entity: model.Class(), Err: err}
	}
	return nil
}

// Delete removes a tracked entity from the database and stops tracking it
// once the delete is committed. Deleting an untracked entity does nothing.
func (m *Manager) Delete(ctx context.Context, e schema.Entity) error {
	if !m.IsTracked(e) {
		return nil
	}
	model := e.Model()
	if err := m.Transaction(ctx, func(ctx context.Context) error {
		if _, err := m.db.Execute(ctx, model.DeleteSQL(), model.DeleteParams(e)); err != nil {
			return &Error{Op: "delete", Entity: model.Class(), Err: err}
		}
		return nil
	}); err != nil {
		return err
	}
	m.Unwatch(e)
	m.logger.Debug("deleted entity", "entity", model.Class(), "key", key(e))
	return nil
}

func key(e schema.Entity) string {
	k, _ := schema.KeyOf(e)
	return k
}
