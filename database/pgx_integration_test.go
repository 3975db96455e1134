//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("xql"),
		postgres.WithUsername("xql"),
		postgres.WithPassword("xql"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPgxDatabase(t *testing.T) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, startPostgres(t))
	require.NoError(t, err)
	db := NewPgxDatabase(pool)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Execute(ctx, `create table accounts (
		id serial primary key,
		ref uuid not null,
		owner text not null,
		balance numeric(10,2) not null,
		opened date not null)`, nil)
	require.NoError(t, err)

	require.NoError(t, db.StartTransaction(ctx))
	_, err = db.Execute(ctx, "insert into accounts (ref, owner, balance, opened) values (:ref, :owner, :balance, :opened)",
		map[string]any{
			"ref":     "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"owner":   "ann",
			"balance": 12.5,
			"opened":  "2024-03-01",
		})
	require.NoError(t, err)
	id, err := db.LastInsertID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	require.NoError(t, db.Commit(ctx))

	row, err := db.SelectFirst(ctx, "select a.id, a.ref, a.owner, a.balance, to_char(a.opened, 'YYYY-MM-DD') from accounts a where a.owner = :owner",
		map[string]any{"owner": "ann"})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(1), row[0])
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", row[1])
	assert.Equal(t, "ann", row[2])
	assert.Equal(t, 12.5, row[3])
	assert.Equal(t, "2024-03-01", row[4])

	require.NoError(t, db.StartTransaction(ctx))
	n, err := db.Execute(ctx, "delete from accounts", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, db.Rollback(ctx))

	rows, err := db.Select(ctx, "select count(*) as result from accounts", nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []Row{{int64(1)}}, rows)
}
