package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

func TestBind(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Dialect
		query   string
		params  map[string]any
		want    string
		args    []any
	}{
		{
			name:    "Postgres",
			dialect: dialect.NewPostgresDialect(),
			query:   "select * from users u where u.age > :age and u.name = :name",
			params:  map[string]any{"age": 3, "name": "ann"},
			want:    "select * from users u where u.age > $1 and u.name = $2",
			args:    []any{3, "ann"},
		},
		{
			name:    "RepeatedName",
			dialect: dialect.NewPostgresDialect(),
			query:   "u.a = :v or u.b = :v",
			params:  map[string]any{"v": 1},
			want:    "u.a = $1 or u.b = $2",
			args:    []any{1, 1},
		},
		{
			name:    "MySQL",
			dialect: dialect.NewMySQLDialect(),
			query:   "update users set name = :name where id = :id",
			params:  map[string]any{"name": "bo", "id": int64(2)},
			want:    "update users set name = ? where id = ?",
			args:    []any{"bo", int64(2)},
		},
		{
			name:    "QuotedColonIgnored",
			dialect: dialect.NewSQLiteDialect(),
			query:   "select ':skip', 'it''s :also' from t where a = :a",
			params:  map[string]any{"a": nil},
			want:    "select ':skip', 'it''s :also' from t where a = ?",
			args:    []any{nil},
		},
		{
			name:    "CastIgnored",
			dialect: dialect.NewPostgresDialect(),
			query:   "select x::text from t where y = :y_1",
			params:  map[string]any{"y_1": "z"},
			want:    "select x::text from t where y = $1",
			args:    []any{"z"},
		},
		{
			name:    "NoParameters",
			dialect: dialect.NewPostgresDialect(),
			query:   "select 1",
			want:    "select 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := Bind(tt.query, tt.params, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBindMissingParameter(t *testing.T) {
	_, _, err := Bind("select * from t where a = :a and b = :b", map[string]any{"a": 1}, dialect.NewPostgresDialect())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), ": b")
}

func TestNormalize(t *testing.T) {
	id := [16]byte{0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8}
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", normalize(id))
	assert.Equal(t, "abc", normalize([]byte("abc")))
	assert.Equal(t, int64(5), normalize(int32(5)))
	assert.Nil(t, normalize(nil))
}
