package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

var plurals = pluralizer.NewClient()

func init() {
	plurals.AddIrregularRule("datum", "data")
}

// TableName derives the default table of an entity class: snake_case with
// the last word pluralized, so OrderItem maps to order_items.
func TableName(class string) string {
	snake := toSnakeCase(class)
	head, last := "", snake
	if i := strings.LastIndexByte(snake, '_'); i >= 0 {
		head, last = snake[:i+1], snake[i+1:]
	}
	if last == "" {
		return snake
	}
	return head + plurals.Plural(last)
}

// toSnakeCase maps a property or class name to its storage spelling.
// Acronyms stay together and digits stick to the word before them:
// UserID is user_id, HTTPStatus is http_status, address2Line is
// address2_line. Names without upper case letters are returned unchanged.
func toSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// isIdentifier reports whether name can appear as an XQL word or parameter name.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
