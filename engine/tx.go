package engine

import "context"

func (m *Manager) StartTransaction(ctx context.Context) error {
	return wrap("start transaction", "", m.db.StartTransaction(ctx))
}

func (m *Manager) Commit(ctx context.Context) error {
	return wrap("commit", "", m.db.Commit(ctx))
}

func (m *Manager) Rollback(ctx context.Context) error {
	return wrap("rollback", "", m.db.Rollback(ctx))
}

func (m *Manager) InTransaction() bool {
	return m.db.InTransaction()
}

// Transaction runs fn inside a transaction. When one is already active fn
// joins it and the caller keeps control of commit and rollback; otherwise
// Transaction starts one, commits it when fn succeeds and rolls it back
// when fn fails or panics.
func (m *Manager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.db.InTransaction() {
		return fn(ctx)
	}
	if err := m.StartTransaction(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = m.db.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := m.db.Rollback(ctx); rbErr != nil {
			m.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	return m.Commit(ctx)
}
