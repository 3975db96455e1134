package query

import (
	"fmt"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/schema"
	"github.com/Konsultn-Engineering/xqlorm/visitor"
	"github.com/Konsultn-Engineering/xqlorm/xql"
)

// Result is the mapped outcome of Get: an EntityCollection when one alias
// is selected, a RecordSet otherwise.
type Result interface {
	Len() int
	result()
}

// EntityCollection holds the entities of a single-alias query, in row order.
type EntityCollection []schema.Entity

// Record maps each selected alias to its entity. An alias whose outer join
// found no match maps to nil.
type Record map[string]schema.Entity

type RecordSet []Record

func (c EntityCollection) Len() int { return len(c) }
func (EntityCollection) result()    {}

func (s RecordSet) Len() int { return len(s) }
func (RecordSet) result()    {}

// Entities narrows a single-alias result to its concrete entity type.
func Entities[T schema.Entity](r Result) ([]T, error) {
	c, ok := r.(EntityCollection)
	if !ok {
		return nil, fmt.Errorf("query: result is %T, not an entity collection", r)
	}
	out := make([]T, 0, len(c))
	for _, e := range c {
		t, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("query: entity %s is %T", e.Model().Class(), e)
		}
		out = append(out, t)
	}
	return out, nil
}

// segment is the run of columns one alias occupies in a row.
type segment struct {
	alias, entity string
	start, end    int
}

func segments(columns []visitor.Column) []segment {
	var segs []segment
	for i, col := range columns {
		if len(segs) == 0 || segs[len(segs)-1].alias != col.Alias {
			segs = append(segs, segment{alias: col.Alias, entity: col.Entity, start: i})
		}
		segs[len(segs)-1].end = i + 1
	}
	return segs
}

func (b *Builder) mapRows(compiled *xql.Compiled, rows []database.Row) (Result, error) {
	segs := segments(compiled.Columns)

	if len(segs) == 1 {
		out := make(EntityCollection, 0, len(rows))
		for _, row := range rows {
			e, err := b.entity(compiled.Columns, segs[0], row)
			if err != nil {
				return nil, err
			}
			if e != nil {
				out = append(out, e)
			}
		}
		return out, nil
	}

	out := make(RecordSet, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(segs))
		for _, seg := range segs {
			e, err := b.entity(compiled.Columns, seg, row)
			if err != nil {
				return nil, err
			}
			rec[seg.alias] = e
		}
		out = append(out, rec)
	}
	return out, nil
}

// entity builds and tracks the entity of one segment, or returns nil when
// its primary key came back null.
func (b *Builder) entity(columns []visitor.Column, seg segment, row database.Row) (schema.Entity, error) {
	if len(row) != len(columns) {
		return nil, fmt.Errorf("%w: %d values for %d columns", errColumnMismatch, len(row), len(columns))
	}
	e, err := b.exec.Instantiate(seg.entity)
	if err != nil {
		return nil, err
	}
	m := e.Model()
	for i := seg.start; i < seg.end; i++ {
		if p, ok := m.Property(columns[i].Property); ok && p.IsPrimaryKey() && row[i] == nil {
			return nil, nil
		}
	}
	if err := schema.AssignColumns(e, row[seg.start:seg.end]); err != nil {
		return nil, err
	}
	return b.exec.Watch(e)
}
