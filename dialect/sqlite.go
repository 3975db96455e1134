package dialect

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (SQLite) Name() string {
	return "sqlite"
}

func (SQLite) Placeholder(int) string {
	return "?"
}

func (SQLite) LimitOffset(limit, offset int) string {
	return limitOffset(limit, offset, "-1")
}

func (SQLite) ToUpperCase(expr string) string {
	return "upper(" + expr + ")"
}

func (SQLite) ToLowerCase(expr string) string {
	return "lower(" + expr + ")"
}

func (SQLite) FormatDate(expr string) string {
	return "strftime('%Y-%m-%d', " + expr + ")"
}

func (SQLite) FormatDateTime(expr string) string {
	return "strftime('%Y-%m-%d %H:%M:%S', " + expr + ")"
}
