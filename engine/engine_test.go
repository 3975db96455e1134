package engine

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
	"github.com/Konsultn-Engineering/xqlorm/query"
	"github.com/Konsultn-Engineering/xqlorm/schema"
)

var (
	userModel = schema.MustDefine("User", "users",
		schema.UUID("id", schema.PrimaryKey()),
		schema.String("name"),
		schema.Integer("age"),
		schema.DateTime("created", schema.ReadOnly()),
	)
	noteModel = schema.MustDefine("Note", "",
		schema.Integer("id", schema.AutoIncrement()),
		schema.String("title"),
		schema.Bool("done"),
	)
)

type User struct {
	schema.Base
	ID      uuid.UUID
	Name    string
	Age     int64
	Created time.Time
}

func (u *User) Model() *schema.Model { return userModel }
func (u *User) Fields() []any        { return []any{&u.ID, &u.Name, &u.Age, &u.Created} }

type Note struct {
	schema.Base
	ID    int64
	Title string
	Done  bool
}

func (n *Note) Model() *schema.Model { return noteModel }
func (n *Note) Fields() []any        { return []any{&n.ID, &n.Title, &n.Done} }

// broken declares one field too few.
type broken struct {
	schema.Base
	ID int64
}

func (b *broken) Model() *schema.Model { return noteModel }
func (b *broken) Fields() []any        { return []any{&b.ID} }

var declarations = []Declaration{
	Declare("User", func() schema.Entity { return &User{} }),
	Declare("Note", func() schema.Entity { return &Note{} }),
}

func newMockManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := New(database.NewSQLDatabase(db, dialect.NewSQLiteDialect()), WithEntities(declarations...))
	require.NoError(t, err)
	return m, mock
}

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlDB := database.NewSQLDatabase(db, dialect.NewSQLiteDialect())

	m, err := New(sqlDB, WithEntities(declarations...), WithCacheSize(8))
	require.NoError(t, err)
	assert.Equal(t, []string{"Note", "User"}, m.Entities())

	model, ok := m.Model("User")
	require.True(t, ok)
	assert.Same(t, userModel, model)

	e, err := m.Instantiate("Note")
	require.NoError(t, err)
	assert.IsType(t, &Note{}, e)

	_, err = m.Instantiate("Nope")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	tests := []struct {
		name  string
		decls []Declaration
		want  error
	}{
		{"field mismatch", []Declaration{Declare("Broken", func() schema.Entity { return &broken{} })}, schema.ErrFieldMismatch},
		{"duplicate name", []Declaration{
			Declare("X", func() schema.Entity { return &User{} }),
			Declare("X", func() schema.Entity { return &Note{} }),
		}, schema.ErrInvalidModel},
		{"missing factory", []Declaration{{Name: "User"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(sqlDB, WithEntities(tt.decls...))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestPersistInsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into users (id, name, age) values (?, ?, ?)").
		WithArgs(sqlmock.AnyArg(), "ann", 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u := &User{Name: "ann", Age: 30}
	require.NoError(t, m.Persist(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID, "key is generated on insert")
	assert.True(t, m.IsTracked(u))
	assert.False(t, m.Modified(u))

	// Unchanged: no statement at all.
	require.NoError(t, m.Persist(ctx, u))

	mock.ExpectBegin()
	mock.ExpectExec("update users set name = ?, age = ? where id = ?").
		WithArgs("bob", 30, u.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u.Name = "bob"
	require.NoError(t, m.Persist(ctx, u))
	assert.False(t, m.Modified(u), "update re-snapshots")
	require.NoError(t, m.Persist(ctx, u))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistAutoIncrement(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into notes (title, done) values (?, ?)").
		WithArgs("buy milk", "0").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	n := &Note{Title: "buy milk"}
	require.NoError(t, m.Persist(ctx, n))
	assert.Equal(t, int64(5), n.ID)
	assert.True(t, m.IsTracked(n))
	assert.Equal(t, 1, m.Tracked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistRollsBack(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("insert into notes (title, done) values (?, ?)").
		WithArgs("x", "1").
		WillReturnError(boom)
	mock.ExpectRollback()

	n := &Note{Title: "x", Done: true}
	err := m.Persist(ctx, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "insert", ee.Op)
	assert.Equal(t, "Note", ee.Entity)

	assert.False(t, m.IsTracked(n))
	assert.False(t, m.InTransaction())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitFailureKeepsIdentityMap(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)
	lost := errors.New("commit lost")

	// Insert: the entity stays untracked and keeps no key, so a retry inserts again.
	mock.ExpectBegin()
	mock.ExpectExec("insert into notes (title, done) values (?, ?)").
		WithArgs("x", "0").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit().WillReturnError(lost)

	n := &Note{Title: "x"}
	err := m.Persist(ctx, n)
	assert.ErrorIs(t, err, lost)
	assert.False(t, m.IsTracked(n))
	assert.Zero(t, n.ID)

	mock.ExpectBegin()
	mock.ExpectExec("insert into notes (title, done) values (?, ?)").
		WithArgs("x", "0").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()
	require.NoError(t, m.Persist(ctx, n))
	assert.Equal(t, int64(5), n.ID)
	assert.True(t, m.IsTracked(n))

	// Update: the snapshot is kept, so the entity is still modified.
	u := &User{ID: uuid.New(), Name: "ann", Age: 30}
	_, err = m.Watch(u)
	require.NoError(t, err)
	u.Name = "bob"

	mock.ExpectBegin()
	mock.ExpectExec("update users set name = ?, age = ? where id = ?").
		WithArgs("bob", 30, u.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(lost)
	assert.ErrorIs(t, m.Persist(ctx, u), lost)
	assert.True(t, m.Modified(u))

	// Delete: the entity stays tracked.
	mock.ExpectBegin()
	mock.ExpectExec("delete from users where id = ?").
		WithArgs(u.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(lost)
	assert.ErrorIs(t, m.Delete(ctx, u), lost)
	assert.True(t, m.IsTracked(u))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistJoinsOpenTransaction(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into notes (title, done) values (?, ?)").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into notes (title, done) values (?, ?)").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, m.StartTransaction(ctx))
	require.NoError(t, m.Persist(ctx, &Note{Title: "a"}))
	require.NoError(t, m.Persist(ctx, &Note{Title: "b"}))
	assert.True(t, m.InTransaction())
	require.NoError(t, m.Commit(ctx))

	err := m.Commit(ctx)
	assert.ErrorIs(t, err, database.ErrNoTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	// Never tracked: no database call.
	require.NoError(t, m.Delete(ctx, &Note{ID: 9, Title: "ghost"}))
	require.NoError(t, m.Delete(ctx, &Note{}))

	id := uuid.New()
	u := &User{ID: id, Name: "ann"}
	_, err := m.Watch(u)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("delete from users where id = ?").
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, m.Delete(ctx, u))
	assert.False(t, m.IsTracked(u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatch(t *testing.T) {
	m, _ := newMockManager(t)
	id := uuid.New()

	first := &User{ID: id, Name: "ann"}
	second := &User{ID: id, Name: "other"}

	got, err := m.Watch(first)
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = m.Watch(second)
	require.NoError(t, err)
	assert.Same(t, first, got, "the tracked instance wins")
	assert.Equal(t, 1, m.Tracked())

	_, err = m.Watch(&User{Name: "no key"})
	assert.ErrorIs(t, err, schema.ErrNullPrimaryKey)
	var ee *Error
	assert.ErrorAs(t, err, &ee)

	m.Unwatch(first)
	assert.False(t, m.IsTracked(second))
	m.Unwatch(&User{})
}

func TestModifiedAndRestore(t *testing.T) {
	m, _ := newMockManager(t)

	u := &User{ID: uuid.New(), Name: "ann", Age: 30}
	assert.True(t, m.Modified(u), "untracked counts as modified")
	modified, err := m.PropertyModified(u, "name")
	require.NoError(t, err)
	assert.True(t, modified)

	_, err = m.Watch(u)
	require.NoError(t, err)
	assert.False(t, m.Modified(u))

	u.Created = time.Now()
	assert.False(t, m.Modified(u), "read-only properties are ignored")

	u.Name = "bob"
	assert.True(t, m.Modified(u))

	tests := []struct {
		property string
		want     bool
	}{
		{"name", true},
		{"age", false},
		{"created", false},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			got, err := m.PropertyModified(u, tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = m.PropertyModified(u, "nope")
	assert.ErrorIs(t, err, schema.ErrUnknownProperty)

	require.NoError(t, m.Restore(u))
	assert.Equal(t, "ann", u.Name)
	assert.True(t, u.Created.IsZero())
	assert.False(t, m.Modified(u))

	err = m.Restore(&User{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotTracked)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	id := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	const stmt = "select e.id, e.name, e.age, e.created from users e where e.id = ? limit 1"
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "age", "created"}).
			AddRow(id.String(), "ann", int64(30), created)
	}
	mock.ExpectQuery(stmt).WithArgs(id.String()).WillReturnRows(row())
	mock.ExpectQuery(stmt).WithArgs(id.String()).WillReturnRows(row())
	mock.ExpectQuery(stmt).WithArgs("missing").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "created"}))

	e, err := m.Get(ctx, "User", id.String())
	require.NoError(t, err)
	u, ok := e.(*User)
	require.True(t, ok)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "ann", u.Name)
	assert.Equal(t, int64(30), u.Age)
	assert.True(t, created.Equal(u.Created))
	assert.True(t, m.IsTracked(u))
	assert.False(t, m.Modified(u))

	u.Age = 31
	again, err := m.Get(ctx, "User", id.String())
	require.NoError(t, err)
	assert.Same(t, u, again)
	assert.Equal(t, int64(31), again.(*User).Age, "in-memory edits survive a reload")

	e, err = m.Get(ctx, "User", "missing")
	require.NoError(t, err)
	assert.Nil(t, e)

	_, err = m.Get(ctx, "User")
	assert.ErrorIs(t, err, ErrPrimaryKeyArity)
	_, err = m.Get(ctx, "Nope", 1)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockManager(t)

	mock.ExpectBegin()
	mock.ExpectCommit()
	calls := 0
	err := m.Transaction(ctx, func(ctx context.Context) error {
		calls++
		return m.Transaction(ctx, func(context.Context) error {
			calls++
			assert.True(t, m.InTransaction())
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = m.Transaction(ctx, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.Panics(t, func() {
		_ = m.Transaction(ctx, func(context.Context) error { panic("bad") })
	})
	assert.False(t, m.InTransaction())

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))
	err = m.Transaction(ctx, func(context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "start transaction", ee.Op)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	raw, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)

	db := database.NewSQLDatabase(raw, dialect.NewSQLiteDialect())
	m, err := New(db, WithEntities(declarations...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	for _, ddl := range []string{
		"create table notes (id integer primary key autoincrement, title text not null, done integer not null)",
		"create table users (id text primary key, name text not null, age integer not null, created text)",
	} {
		_, err := db.Execute(ctx, ddl, nil)
		require.NoError(t, err)
	}

	notes := []*Note{{Title: "write docs"}, {Title: "ship release", Done: true}, {Title: "fix docs"}}
	err = m.Transaction(ctx, func(ctx context.Context) error {
		for _, n := range notes {
			if err := m.Persist(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, []int64{notes[0].ID, notes[1].ID, notes[2].ID})

	loaded, err := m.Get(ctx, "Note", int64(2))
	require.NoError(t, err)
	assert.Same(t, notes[1], loaded)

	notes[0].Done = true
	require.NoError(t, m.Persist(ctx, notes[0]))

	b, err := m.Query("n from Note n where n.done == true order by n.id")
	require.NoError(t, err)
	res, err := b.Get(ctx, nil, 0, 0)
	require.NoError(t, err)
	done, err := query.Entities[*Note](res)
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Same(t, notes[0], done[0])
	assert.Same(t, notes[1], done[1])

	b, err = m.Query("")
	require.NoError(t, err)
	n, err := b.Select("n").From("Note", "n").Filter("docs", "n.title").Count(ctx, nil, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	u := &User{Name: "ann", Age: 41}
	require.NoError(t, m.Persist(ctx, u))
	m.Unwatch(u)
	fresh, err := m.Get(ctx, "User", u.ID.String())
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.NotSame(t, u, fresh)
	assert.Equal(t, "ann", fresh.(*User).Name)
	assert.True(t, fresh.(*User).Created.IsZero())

	require.NoError(t, m.Delete(ctx, notes[2]))
	row, err := db.SelectFirst(ctx, "select count(*) from notes", nil)
	require.NoError(t, err)
	assert.Equal(t, database.Row{int64(2)}, row)
}
