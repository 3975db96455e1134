package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect carries the backend specific pieces of SQL the compiler and the
// database adapters need. The four expression hooks wrap an already rendered
// SQL expression.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	LimitOffset(limit, offset int) string
	ToUpperCase(expr string) string
	ToLowerCase(expr string) string
	FormatDate(expr string) string
	FormatDateTime(expr string) string
}

var (
	mu       sync.RWMutex
	dialects = map[string]func() Dialect{}
)

func init() {
	Register("postgres", NewPostgresDialect)
	Register("pgx", NewPostgresDialect)
	Register("mysql", NewMySQLDialect)
	Register("sqlite", NewSQLiteDialect)
}

// Register makes a dialect available to Lookup under name.
func Register(name string, factory func() Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[strings.ToLower(name)] = factory
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	mu.RLock()
	factory, ok := dialects[strings.ToLower(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialect %q not registered (known: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names lists the registered dialect names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func limitOffset(limit, offset int, unbounded string) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" limit %d offset %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" limit %d", limit)
	case offset > 0 && unbounded != "":
		return fmt.Sprintf(" limit %s offset %d", unbounded, offset)
	case offset > 0:
		return fmt.Sprintf(" offset %d", offset)
	}
	return ""
}
