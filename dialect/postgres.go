package dialect

import "strconv"

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (Postgres) Name() string {
	return "postgres"
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (Postgres) LimitOffset(limit, offset int) string {
	return limitOffset(limit, offset, "")
}

func (Postgres) ToUpperCase(expr string) string {
	return "upper(" + expr + ")"
}

func (Postgres) ToLowerCase(expr string) string {
	return "lower(" + expr + ")"
}

func (Postgres) FormatDate(expr string) string {
	return "to_char(" + expr + ", 'YYYY-MM-DD')"
}

func (Postgres) FormatDateTime(expr string) string {
	return "to_char(" + expr + ", 'YYYY-MM-DD HH24:MI:SS')"
}
