package schema

import (
	"time"

	"github.com/google/uuid"
)

// DataType is the storage type of a property.
type DataType int

const (
	TypeUUID DataType = iota + 1
	TypeString
	TypeText
	TypeInteger
	TypeNumeric
	TypeDate
	TypeDateTime
	TypeBool
)

var dataTypeNames = map[DataType]string{
	TypeUUID:     "uuid",
	TypeString:   "string",
	TypeText:     "text",
	TypeInteger:  "integer",
	TypeNumeric:  "numeric",
	TypeDate:     "date",
	TypeDateTime: "datetime",
	TypeBool:     "bool",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseDataType maps a type name as written in schema files to a DataType.
func ParseDataType(name string) (DataType, bool) {
	for t, n := range dataTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// IsTextual reports whether values of t compare as strings.
func (t DataType) IsTextual() bool {
	return t == TypeString || t == TypeText
}

// Layouts used when dates travel as strings.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// accepts reports whether ptr is a field pointer that can hold values of t.
func (t DataType) accepts(ptr any) bool {
	switch ptr.(type) {
	case *uuid.UUID:
		return t == TypeUUID
	case *string:
		return t == TypeString || t == TypeText
	case *int64, *int, *int32:
		return t == TypeInteger
	case *float64:
		return t == TypeNumeric
	case *time.Time:
		return t == TypeDate || t == TypeDateTime
	case *bool:
		return t == TypeBool
	}
	return false
}
