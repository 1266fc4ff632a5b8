package storage

import (
	"strings"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
)

// Row is the minimal read surface the expression evaluator needs: anything
// that exposes an ordered sequence of values. Both materialized tuples and
// logical-tile row views implement it.
type Row interface {
	ColumnCount() int
	ColumnValue(idx int) common.Value
}

// Tuple is a materialized row: an ordered sequence of Values conforming to a
// schema, optionally tagged with the RecordID it was read from.
type Tuple struct {
	values []common.Value
	schema *catalog.Schema
	rid    common.RecordID
}

func NewTuple(schema *catalog.Schema, values []common.Value) *Tuple {
	common.Assert(schema.ColumnCount() == len(values),
		"tuple arity %d does not match schema arity %d", len(values), schema.ColumnCount())
	return &Tuple{values: values, schema: schema, rid: common.InvalidRecordID}
}

func NewTupleWithRID(schema *catalog.Schema, values []common.Value, rid common.RecordID) *Tuple {
	t := NewTuple(schema, values)
	t.rid = rid
	return t
}

func (t *Tuple) Schema() *catalog.Schema { return t.schema }
func (t *Tuple) RID() common.RecordID    { return t.rid }
func (t *Tuple) ColumnCount() int        { return len(t.values) }
func (t *Tuple) Values() []common.Value  { return t.values }

func (t *Tuple) ColumnValue(idx int) common.Value {
	common.Assert(idx >= 0 && idx < len(t.values), "column index %d out of range", idx)
	return t.values[idx]
}

// DeepCopy detaches the tuple from any shared backing slice.
func (t *Tuple) DeepCopy() *Tuple {
	values := make([]common.Value, len(t.values))
	copy(values, t.values)
	return &Tuple{values: values, schema: t.schema, rid: t.rid}
}

func (t *Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range t.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}
