package schema

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// =========================================================================
// Test Entities
// =========================================================================

var userModel = MustDefine("User", "users",
	UUID("id", PrimaryKey()),
	String("name", Size(80)),
	Integer("age"),
	Date("born"),
	Bool("active"),
	DateTime("created", ReadOnly()),
)

type User struct {
	Base
	ID      uuid.UUID
	Name    string
	Age     int64
	Born    time.Time
	Active  bool
	Created time.Time
}

func (u *User) Model() *Model { return userModel }
func (u *User) Fields() []any {
	return []any{&u.ID, &u.Name, &u.Age, &u.Born, &u.Active, &u.Created}
}

var accountModel = MustDefine("Account", "",
	Integer("id", AutoIncrement()),
	String("email", Field("email_address")),
)

type Account struct {
	Base
	ID    int
	Email string
}

func (a *Account) Model() *Model { return accountModel }
func (a *Account) Fields() []any { return []any{&a.ID, &a.Email} }

var orderLineModel = MustDefine("OrderLine", "",
	Integer("orderID", PrimaryKey()),
	Integer("line", PrimaryKey()),
	String("sku", Generator("ulid")),
	Numeric("price"),
)

type OrderLine struct {
	Base
	OrderID int64
	Line    int32
	SKU     string
	Price   float64
}

func (o *OrderLine) Model() *Model { return orderLineModel }
func (o *OrderLine) Fields() []any { return []any{&o.OrderID, &o.Line, &o.SKU, &o.Price} }

var tokenModel = MustDefine("Token", "tokens",
	String("value", PrimaryKey(), Generator("ulid")),
)

type Token struct {
	Base
	Value string
}

func (t *Token) Model() *Model { return tokenModel }
func (t *Token) Fields() []any { return []any{&t.Value} }

// =========================================================================
// Model Tests
// =========================================================================

func TestDefine(t *testing.T) {
	assert.Equal(t, "users", userModel.Table())
	assert.Equal(t, "accounts", accountModel.Table())
	assert.Equal(t, "order_lines", orderLineModel.Table())

	again, err := Define("User", "people", String("other", PrimaryKey()))
	require.NoError(t, err)
	assert.Same(t, userModel, again)

	found, ok := Lookup("Account")
	require.True(t, ok)
	assert.Same(t, accountModel, found)

	assert.Equal(t, []string{"id"}, userModel.PrimaryKeys())
	assert.Equal(t, []string{"orderID", "line"}, orderLineModel.PrimaryKeys())
	assert.Equal(t, "id", accountModel.AutoIncrement())
	assert.Equal(t, "", userModel.AutoIncrement())
}

func TestDefineErrors(t *testing.T) {
	tests := []struct {
		name  string
		class string
		props []*Property
		err   error
	}{
		{"EmptyClass", "", []*Property{Integer("id", PrimaryKey())}, ErrInvalidModel},
		{"NoProperties", "Empty", nil, ErrInvalidModel},
		{"NoPrimaryKey", "Keyless", []*Property{String("name")}, ErrNoPrimaryKey},
		{"Duplicate", "Dup", []*Property{Integer("id", PrimaryKey()), String("id")}, ErrInvalidModel},
		{"DuplicateField", "DupField", []*Property{Integer("id", PrimaryKey()), String("name", Field("id"))}, ErrInvalidModel},
		{"InvalidName", "Invalid", []*Property{Integer("my id", PrimaryKey())}, ErrInvalidModel},
		{"UnknownGenerator", "Gen", []*Property{String("id", PrimaryKey(), Generator("nanoid"))}, ErrUnknownGenerator},
		{"GeneratorType", "GenType", []*Property{String("id", PrimaryKey(), Generator("snowflake"))}, ErrInvalidModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Define(tt.class, "", tt.props...)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, m)
		})
	}
}

func TestPropertyLookup(t *testing.T) {
	p, ok := accountModel.Property("email")
	require.True(t, ok)
	assert.Equal(t, "email_address", p.Field())

	p, ok = accountModel.PropertyByField("email_address")
	require.True(t, ok)
	assert.Equal(t, "email", p.Name())

	_, ok = accountModel.Property("email_address")
	assert.False(t, ok)

	p, ok = orderLineModel.Property("orderID")
	require.True(t, ok)
	assert.Equal(t, "order_id", p.Field())
}

func TestPropertyDefaults(t *testing.T) {
	tests := []struct {
		prop         *Property
		typ          DataType
		size         int
		precision    int
		defaultValue any
	}{
		{UUID("a"), TypeUUID, 36, 0, nil},
		{String("a"), TypeString, 255, 0, ""},
		{Text("a"), TypeText, 0, 0, ""},
		{Integer("a"), TypeInteger, 11, 0, int64(0)},
		{Numeric("a"), TypeNumeric, 10, 2, float64(0)},
		{Date("a"), TypeDate, 10, 0, nil},
		{DateTime("a"), TypeDateTime, 19, 0, nil},
		{Bool("a"), TypeBool, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.prop.Type())
			assert.Equal(t, tt.size, tt.prop.Size())
			assert.Equal(t, tt.precision, tt.prop.Precision())
			assert.Equal(t, tt.defaultValue, tt.prop.DefaultValue())
			assert.False(t, tt.prop.IsPrimaryKey())
		})
	}

	p := Integer("id", AutoIncrement())
	assert.True(t, p.IsPrimaryKey())
	assert.True(t, p.IsAutoIncrement())
	assert.Equal(t, "uuid", UUID("id").Generator())
}

func TestCRUDSQL(t *testing.T) {
	assert.Equal(t,
		"insert into users (id, name, age, born, active) values (:id, :name, :age, :born, :active)",
		userModel.InsertSQL())
	assert.Equal(t,
		"update users set name = :name, age = :age, born = :born, active = :active where id = :id",
		userModel.UpdateSQL())
	assert.Equal(t, "delete from users where id = :id", userModel.DeleteSQL())

	assert.Equal(t, "insert into accounts (email_address) values (:email)", accountModel.InsertSQL())
	assert.Equal(t,
		"delete from order_lines where order_id = :orderID and line = :line",
		orderLineModel.DeleteSQL())

	assert.Equal(t, "", tokenModel.UpdateSQL())
}

func TestParams(t *testing.T) {
	id := uuid.MustParse("0b6f1b76-5f7e-4c55-9a1b-3c3f9b0e4a11")
	u := &User{
		ID:     id,
		Name:   "Ann",
		Age:    42,
		Born:   time.Date(1982, 3, 5, 0, 0, 0, 0, time.UTC),
		Active: true,
	}

	assert.Equal(t, map[string]any{
		"id":     id.String(),
		"name":   "Ann",
		"age":    int64(42),
		"born":   "1982-03-05",
		"active": "1",
	}, userModel.InsertParams(u))

	assert.Equal(t, map[string]any{"id": id.String()}, userModel.DeleteParams(u))

	params := userModel.UpdateParams(u)
	assert.Len(t, params, 5)
	assert.NotContains(t, params, "created")

	a := &Account{ID: 7, Email: "a@example.com"}
	assert.Equal(t, map[string]any{"email": "a@example.com"}, accountModel.InsertParams(a))
	assert.Equal(t, map[string]any{"id": int64(7)}, accountModel.DeleteParams(a))
}

// =========================================================================
// Entity Tests
// =========================================================================

func TestKeyOf(t *testing.T) {
	_, ok := KeyOf(&User{})
	assert.False(t, ok)
	_, ok = KeyOf(&Account{})
	assert.False(t, ok, "zero auto-increment key is unset")
	_, err := EntityID(&Token{})
	assert.ErrorIs(t, err, ErrNullPrimaryKey)

	line := &OrderLine{OrderID: 7}
	pk, ok := KeyOf(line)
	require.True(t, ok)
	assert.Equal(t, "7:0", pk, "zero is a real value for plain integer keys")

	require.NoError(t, SetValue(line, "line", 2))
	pk, ok = KeyOf(line)
	require.True(t, ok)
	assert.Equal(t, "7:2", pk)

	id, err := EntityID(line)
	require.NoError(t, err)

	other := &OrderLine{OrderID: 7, Line: 2}
	otherID, err := EntityID(other)
	require.NoError(t, err)
	assert.Equal(t, id, otherID)

	require.NoError(t, SetValue(other, "line", 3))
	pk, _ = KeyOf(other)
	assert.Equal(t, "7:3", pk)
}

func TestInit(t *testing.T) {
	u := &User{}
	require.NoError(t, Init(u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	kept := u.ID
	require.NoError(t, Init(u))
	assert.Equal(t, kept, u.ID)

	a := &Account{}
	require.NoError(t, Init(a))
	assert.Zero(t, a.ID)

	tok := &Token{}
	require.NoError(t, Init(tok))
	assert.Len(t, tok.Value, 26)

	line := &OrderLine{}
	require.NoError(t, Init(line))
	assert.Empty(t, line.SKU)
}

func TestAssignFields(t *testing.T) {
	u := &User{}
	err := AssignFields(u, map[string]any{
		"id":      []byte("0b6f1b76-5f7e-4c55-9a1b-3c3f9b0e4a11"),
		"name":    []byte("Ann"),
		"age":     "42",
		"born":    "1982-03-05",
		"active":  int64(1),
		"created": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		"ignored": 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "0b6f1b76-5f7e-4c55-9a1b-3c3f9b0e4a11", u.ID.String())
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, int64(42), u.Age)
	assert.Equal(t, time.Date(1982, 3, 5, 0, 0, 0, 0, time.UTC), u.Born)
	assert.True(t, u.Active)
	assert.Equal(t, 2024, u.Created.Year())

	err = AssignFields(u, map[string]any{"age": "forty"})
	assert.Error(t, err)
}

func TestAssignColumns(t *testing.T) {
	line := &OrderLine{}
	require.NoError(t, AssignColumns(line, []any{int64(3), "4", nil, []byte("9.5")}))
	assert.Equal(t, int64(3), line.OrderID)
	assert.Equal(t, int32(4), line.Line)
	assert.Equal(t, "", line.SKU)
	assert.Equal(t, 9.5, line.Price)

	assert.ErrorIs(t, AssignColumns(line, []any{1}), ErrFieldMismatch)
}

func TestSnapshotRestore(t *testing.T) {
	u := &User{Name: "Ann", Born: time.Date(1982, 3, 5, 0, 0, 0, 0, time.UTC)}
	snap := Snapshot(u)

	u.Name = "Bob"
	u.Age = 9
	name, err := Value(u, "name")
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)

	require.NoError(t, Restore(u, snap))
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, int64(0), u.Age)

	local := u.Born.In(time.FixedZone("X", 3600))
	assert.True(t, Equal(u.Born, local))
	assert.False(t, Equal(u.Born, u.Born.Add(time.Second)))
	assert.True(t, Equal("a", "a"))
	assert.False(t, Equal(int64(1), 1))

	_, err = Value(u, "missing")
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

type badUser struct {
	Base
	ID   uuid.UUID
	Name int64
}

func (b *badUser) Model() *Model { return userModel }
func (b *badUser) Fields() []any { return []any{&b.ID, &b.Name} }

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(&User{}))
	assert.NoError(t, Verify(&Account{}))
	assert.NoError(t, Verify(&OrderLine{}))
	assert.ErrorIs(t, Verify(&badUser{}), ErrFieldMismatch)
}

func TestGeneric(t *testing.T) {
	g := NewGeneric(orderLineModel)
	require.NoError(t, Verify(g))
	require.NoError(t, g.Set("orderID", "5"))
	require.NoError(t, g.Set("line", 1))
	require.NoError(t, g.Set("price", 2.25))

	pk, ok := KeyOf(g)
	require.True(t, ok)
	assert.Equal(t, "5:1", pk)

	v, err := g.Get("price")
	require.NoError(t, err)
	assert.Equal(t, 2.25, v)
	assert.Equal(t, map[string]any{"orderID": int64(5), "line": int64(1), "sku": "", "price": 2.25}, g.Map())
}

// =========================================================================
// Naming and Formatting Tests
// =========================================================================

func TestTableName(t *testing.T) {
	tests := map[string]string{
		"User":      "users",
		"OrderItem": "order_items",
		"Person":    "people",
		"Category":  "categories",
		"Datum":     "data",
	}
	for class, expected := range tests {
		t.Run(class, func(t *testing.T) {
			assert.Equal(t, expected, TableName(class))
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"id", "id"},
		{"ID", "id"},
		{"orderID", "order_id"},
		{"HTTPStatus", "http_status"},
		{"address2Line", "address2_line"},
		{"created_at", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, toSnakeCase(tt.in))
		})
	}
}

func TestFormatValue(t *testing.T) {
	born := time.Date(1982, 3, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		prop     *Property
		value    any
		expected string
	}{
		{"Integer", Integer("n"), int64(1234567), "1,234,567"},
		{"Numeric", Numeric("n"), 1234.5, "1,234.50"},
		{"Date", Date("d"), born, "03/05/1982"},
		{"DateTimeZero", DateTime("d"), time.Time{}, ""},
		{"Bool", Bool("b"), true, "yes"},
		{"String", String("s"), "plain", "plain"},
		{"Nil", String("s"), nil, ""},
		{"German", Numeric("n", WithFormatter(NewFormatter(language.German))), 1234.5, "1.234,50"},
		{"GermanDate", Date("d", WithFormatter(NewFormatter(language.German))), born, "05.03.1982"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.prop.FormatValue(tt.value))
		})
	}
}
