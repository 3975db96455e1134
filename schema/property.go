package schema

import (
	"time"

	"github.com/google/uuid"
)

// Property describes one mapped field. It is immutable once built; options
// are only applied by the constructors.
type Property struct {
	name          string
	typ           DataType
	size          int
	precision     int
	field         string
	primaryKey    bool
	readOnly      bool
	autoIncrement bool
	generator     string
	formatter     Formatter
	index         int
}

// PropertyOption configures a property at construction time.
type PropertyOption func(*Property)

// PrimaryKey marks the property as part of the primary key.
func PrimaryKey() PropertyOption {
	return func(p *Property) { p.primaryKey = true }
}

// ReadOnly excludes the property from writes and dirty checks.
func ReadOnly() PropertyOption {
	return func(p *Property) { p.readOnly = true }
}

// AutoIncrement marks a database generated primary key.
func AutoIncrement() PropertyOption {
	return func(p *Property) {
		p.autoIncrement = true
		p.primaryKey = true
	}
}

func Size(n int) PropertyOption {
	return func(p *Property) { p.size = n }
}

func Precision(n int) PropertyOption {
	return func(p *Property) { p.precision = n }
}

// Field sets the storage column name. Defaults to the snake_case property name.
func Field(name string) PropertyOption {
	return func(p *Property) { p.field = name }
}

// Generator names the IDGenerator used to fill an empty single-column key.
func Generator(name string) PropertyOption {
	return func(p *Property) { p.generator = name }
}

func WithFormatter(f Formatter) PropertyOption {
	return func(p *Property) { p.formatter = f }
}

func newProperty(name string, typ DataType, size, precision int, opts []PropertyOption) *Property {
	p := &Property{name: name, typ: typ, size: size, precision: precision}
	for _, opt := range opts {
		opt(p)
	}
	if p.field == "" {
		p.field = toSnakeCase(name)
	}
	if p.typ == TypeUUID && p.generator == "" {
		p.generator = "uuid"
	}
	return p
}

func UUID(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeUUID, 36, 0, opts)
}

func String(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeString, 255, 0, opts)
}

func Text(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeText, 0, 0, opts)
}

func Integer(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeInteger, 11, 0, opts)
}

func Numeric(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeNumeric, 10, 2, opts)
}

func Date(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeDate, 10, 0, opts)
}

func DateTime(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeDateTime, 19, 0, opts)
}

func Bool(name string, opts ...PropertyOption) *Property {
	return newProperty(name, TypeBool, 1, 0, opts)
}

func (p *Property) Name() string          { return p.name }
func (p *Property) Type() DataType        { return p.typ }
func (p *Property) Size() int             { return p.size }
func (p *Property) Precision() int        { return p.precision }
func (p *Property) Field() string         { return p.field }
func (p *Property) IsPrimaryKey() bool    { return p.primaryKey }
func (p *Property) IsReadOnly() bool      { return p.readOnly }
func (p *Property) IsAutoIncrement() bool { return p.autoIncrement }
func (p *Property) Generator() string     { return p.generator }

// DefaultValue returns the zero value a fresh entity holds for this property.
// uuid, date and datetime properties have no default and return nil.
func (p *Property) DefaultValue() any {
	switch p.typ {
	case TypeString, TypeText:
		return ""
	case TypeInteger:
		return int64(0)
	case TypeNumeric:
		return float64(0)
	case TypeBool:
		return false
	}
	return nil
}

// FormatValue renders v for display.
func (p *Property) FormatValue(v any) string {
	f := p.formatter
	if f == nil {
		f = DefaultFormatter()
	}
	if v == nil {
		return ""
	}
	switch p.typ {
	case TypeInteger:
		if n, err := ToInt64(v); err == nil {
			return f.FormatInteger(n)
		}
	case TypeNumeric:
		if n, err := ToFloat64(v); err == nil {
			return f.FormatNumber(n, p.precision)
		}
	case TypeDate, TypeDateTime:
		t, err := ToTime(v)
		if err != nil {
			break
		}
		if t.IsZero() {
			return ""
		}
		if p.typ == TypeDate {
			return f.FormatDate(t)
		}
		return f.FormatDateTime(t)
	case TypeBool:
		if b, err := ToBool(v); err == nil {
			return f.FormatBool(b)
		}
	}
	return toString(v)
}

// isNull reports whether v counts as unset for primary key purposes.
// Numeric zero is unset only for keys the database or a generator fills;
// elsewhere 0 is a real key value.
func (p *Property) isNull(v any) bool {
	zeroIsNull := p.autoIncrement || p.generator != ""
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case int64:
		return zeroIsNull && val == 0
	case int:
		return zeroIsNull && val == 0
	case int32:
		return zeroIsNull && val == 0
	case float64:
		return zeroIsNull && val == 0
	case time.Time:
		return val.IsZero()
	}
	if p.typ == TypeUUID {
		id, err := ToUUID(v)
		return err != nil || id == uuid.Nil
	}
	return false
}
