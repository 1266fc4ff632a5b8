package catalog

import (
	"fmt"
	"strings"

	"github.com/YuNanlong/peloton-bwtree/common"
)

// Column represents the basic unit of a table schema.
type Column struct {
	Name    string
	Type    common.Type
	NotNull bool
}

// Schema is an ordered sequence of typed columns.
type Schema struct {
	columns []Column
}

func NewSchema(columns []Column) *Schema {
	return &Schema{columns: columns}
}

func (s *Schema) ColumnCount() int {
	return len(s.columns)
}

func (s *Schema) Column(idx int) Column {
	common.Assert(idx >= 0 && idx < len(s.columns), "column index %d out of range", idx)
	return s.columns[idx]
}

func (s *Schema) Columns() []Column {
	return s.columns
}

// ColumnIndex resolves a column by name, returning -1 if absent.
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// AppendSchemas concatenates schemas left-to-right. Joins compose their
// output schema this way.
func AppendSchemas(schemas ...*Schema) *Schema {
	var columns []Column
	for _, s := range schemas {
		columns = append(columns, s.columns...)
	}
	return &Schema{columns: columns}
}

// Project builds a schema from a subset of this schema's columns.
func (s *Schema) Project(columnIDs []int) *Schema {
	columns := make([]Column, len(columnIDs))
	for i, id := range columnIDs {
		columns[i] = s.Column(id)
	}
	return &Schema{columns: columns}
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", c.Name, c.Type)
		if c.NotNull {
			b.WriteString(" not null")
		}
	}
	b.WriteByte(')')
	return b.String()
}
