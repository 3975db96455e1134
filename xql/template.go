package xql

import (
	"strings"

	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// SelectByPrimaryKey returns the XQL loading one entity, declared under
// entity, by its key, with one :parameter per key property:
//
//	e from User e where e.id == :id
func SelectByPrimaryKey(entity string, m *schema.Model, alias string) string {
	conds := make([]string, len(m.PrimaryKeys()))
	for i, pk := range m.PrimaryKeys() {
		conds[i] = alias + "." + pk + " == :" + pk
	}
	return alias + " from " + entity + " " + alias + " where " + strings.Join(conds, " && ")
}
