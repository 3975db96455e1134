package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Raw values reach the schema layer from drivers as strings, []byte, ints,
// floats, time.Time or nil. The To* helpers coerce them into the Go types
// entity fields use; nil always yields the zero value.

var timeFormats = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

func ToUUID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case nil:
		return uuid.Nil, nil
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		if v == "" {
			return uuid.Nil, nil
		}
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		if len(v) == 0 {
			return uuid.Nil, nil
		}
		return uuid.ParseBytes(v)
	case fmt.Stringer:
		return uuid.Parse(v.String())
	}
	return uuid.Nil, fmt.Errorf("cannot convert %T to uuid", value)
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(DateTimeLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

func ToInt64(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", value)
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse integer %q: %w", s, err)
	}
	return int64(f), nil
}

func ToFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	}
	n, err := ToInt64(value)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
	return float64(n), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse number %q: %w", s, err)
	}
	return f, nil
}

func ToTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", value)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NULL" || s == "null" {
		return time.Time{}, nil
	}
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time string: %s", s)
}

func ToBool(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	}
	n, err := ToInt64(value)
	if err != nil {
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
	return n != 0, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "f", "false", "n", "no", "off":
		return false, nil
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	}
	return false, fmt.Errorf("cannot parse bool %q", s)
}

// assign coerces src into the field pointer dst.
func assign(dst any, src any) error {
	switch d := dst.(type) {
	case *uuid.UUID:
		v, err := ToUUID(src)
		if err != nil {
			return err
		}
		*d = v
	case *string:
		*d = toString(src)
	case *int64:
		v, err := ToInt64(src)
		if err != nil {
			return err
		}
		*d = v
	case *int:
		v, err := ToInt64(src)
		if err != nil {
			return err
		}
		*d = int(v)
	case *int32:
		v, err := ToInt64(src)
		if err != nil {
			return err
		}
		*d = int32(v)
	case *float64:
		v, err := ToFloat64(src)
		if err != nil {
			return err
		}
		*d = v
	case *time.Time:
		v, err := ToTime(src)
		if err != nil {
			return err
		}
		*d = v
	case *bool:
		v, err := ToBool(src)
		if err != nil {
			return err
		}
		*d = v
	default:
		return fmt.Errorf("unsupported field type %T", dst)
	}
	return nil
}

// deref returns the value a field pointer points at.
func deref(ptr any) any {
	switch p := ptr.(type) {
	case *uuid.UUID:
		return *p
	case *string:
		return *p
	case *int64:
		return *p
	case *int:
		return *p
	case *int32:
		return *p
	case *float64:
		return *p
	case *time.Time:
		return *p
	case *bool:
		return *p
	}
	return nil
}

// serialize converts a field value into its bind-parameter form.
func serialize(p *Property, value any) any {
	switch p.typ {
	case TypeUUID:
		id, err := ToUUID(value)
		if err != nil || id == uuid.Nil {
			return nil
		}
		return id.String()
	case TypeDate, TypeDateTime:
		t, err := ToTime(value)
		if err != nil || t.IsZero() {
			return nil
		}
		if p.typ == TypeDate {
			return t.Format(DateLayout)
		}
		return t.Format(DateTimeLayout)
	case TypeBool:
		b, _ := ToBool(value)
		if b {
			return "1"
		}
		return "0"
	case TypeInteger:
		n, _ := ToInt64(value)
		return n
	case TypeNumeric:
		f, _ := ToFloat64(value)
		return f
	}
	return toString(value)
}

// keyString renders a primary key component.
func keyString(p *Property, value any) string {
	switch p.typ {
	case TypeDate, TypeDateTime:
		if s, ok := serialize(p, value).(string); ok {
			return s
		}
		return ""
	case TypeUUID:
		if s, ok := serialize(p, value).(string); ok {
			return s
		}
		return ""
	}
	return toString(value)
}
