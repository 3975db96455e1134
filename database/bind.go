package database

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

// Bind rewrites the :name placeholders of query into the dialect's
// positional placeholders and returns the matching argument list. A name
// used twice binds twice. Quoted literals and "::" casts are left alone.
func Bind(query string, params map[string]any, d dialect.Dialect) (string, []any, error) {
	if !strings.ContainsRune(query, ':') {
		return query, nil, nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.Grow(len(query) + 8)

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			end := closingQuote(query, i)
			sb.WriteString(query[i:end])
			i = end - 1

		case ch == ':' && i+1 < len(query) && query[i+1] == ':':
			sb.WriteString("::")
			i++

		case ch == ':' && i+1 < len(query) && isNameStart(query[i+1]):
			j := i + 1
			for j < len(query) && isNamePart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
			}
			args = append(args, value)
			sb.WriteString(d.Placeholder(len(args)))
			i = j - 1

		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), args, nil
}

// closingQuote returns the index just past the literal opening at start.
// Doubled quotes are escapes.
func closingQuote(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isNameStart(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isNamePart(ch byte) bool {
	return isNameStart(ch) || ch >= '0' && ch <= '9'
}
