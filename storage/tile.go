package storage

import (
	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
)

// Tile is a columnar block of tuples of one schema, addressable by row index
// in [0, TupleCount). Tiles are immutable for the duration of a query; rows
// are only ever appended, and logical deletion lives in the tile group's
// transactional metadata, not here.
type Tile struct {
	schema  *catalog.Schema
	columns [][]common.Value
	rows    int
}

func NewTile(schema *catalog.Schema, capacity int) *Tile {
	columns := make([][]common.Value, schema.ColumnCount())
	for i := range columns {
		columns[i] = make([]common.Value, 0, capacity)
	}
	return &Tile{schema: schema, columns: columns}
}

func (t *Tile) Schema() *catalog.Schema { return t.schema }
func (t *Tile) TupleCount() int         { return t.rows }

// AppendTuple adds a row and returns its index within the tile.
func (t *Tile) AppendTuple(values []common.Value) int {
	common.Assert(len(values) == len(t.columns),
		"tuple arity %d does not match tile arity %d", len(values), len(t.columns))
	for i, v := range values {
		t.columns[i] = append(t.columns[i], v)
	}
	t.rows++
	return t.rows - 1
}

func (t *Tile) Value(row, col int) common.Value {
	common.Assert(row >= 0 && row < t.rows, "row %d out of range", row)
	common.Assert(col >= 0 && col < len(t.columns), "col %d out of range", col)
	return t.columns[col][row]
}

// TupleAt materializes the row at the given index.
func (t *Tile) TupleAt(row int) *Tuple {
	values := make([]common.Value, len(t.columns))
	for c := range t.columns {
		values[c] = t.columns[c][row]
	}
	return NewTuple(t.schema, values)
}

// TileIterator walks a tile row by row. The executor driver does not use it;
// it reads result rows through the logical tile directly.
type TileIterator struct {
	tile *Tile
	row  int
}

func NewTileIterator(tile *Tile) *TileIterator {
	return &TileIterator{tile: tile, row: -1}
}

func (it *TileIterator) Next() bool {
	if it.row+1 >= it.tile.TupleCount() {
		return false
	}
	it.row++
	return true
}

func (it *TileIterator) Current() *Tuple {
	return it.tile.TupleAt(it.row)
}
