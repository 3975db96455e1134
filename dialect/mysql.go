package dialect

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (MySQL) Name() string {
	return "mysql"
}

func (MySQL) Placeholder(int) string {
	return "?"
}

// LimitOffset uses the documented maximum row count when only an offset is given.
func (MySQL) LimitOffset(limit, offset int) string {
	return limitOffset(limit, offset, "18446744073709551615")
}

func (MySQL) ToUpperCase(expr string) string {
	return "upper(" + expr + ")"
}

func (MySQL) ToLowerCase(expr string) string {
	return "lower(" + expr + ")"
}

func (MySQL) FormatDate(expr string) string {
	return "date_format(" + expr + ", '%Y-%m-%d')"
}

func (MySQL) FormatDateTime(expr string) string {
	return "date_format(" + expr + ", '%Y-%m-%d %H:%i:%s')"
}
