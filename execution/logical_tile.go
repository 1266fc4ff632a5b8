package execution

import (
	"fmt"
	"strings"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// ColumnInfo maps one logical column onto a base tile column. A padding
// column (Base == -1) has no backing storage and always reads NULL; outer
// joins use it for the missing side.
type ColumnInfo struct {
	Base     int
	ColumnID int
	Name     string
	Type     common.Type
}

// LogicalTile is a view over one or more base tiles: for each base tile an
// ordered position list of row indexes, all of equal length. The i-th
// logical row concatenates the i-th entry of each position list. A position
// of -1 denotes a NULL row on that base tile (outer-join padding). Rows can
// be masked out via the visibility bitmap.
//
// Logical tiles are the inter-operator currency: produced fresh per pull and
// owned by the producer until GetOutput transfers them to the caller.
type LogicalTile struct {
	baseTiles     []*storage.Tile
	blocks        []int32
	positionLists [][]int
	columns       []ColumnInfo
	visible       []bool
	visibleRows   int
	schema        *catalog.Schema
}

func NewLogicalTile() *LogicalTile {
	return &LogicalTile{}
}

// AddBaseTile attaches a base tile with its position list. block identifies
// the owning tile group, or -1 for derived tiles. All position lists must
// have the same length.
func (lt *LogicalTile) AddBaseTile(tile *storage.Tile, block int32, positions []int) int {
	if len(lt.positionLists) > 0 {
		common.Assert(len(positions) == len(lt.positionLists[0]),
			"position list length %d does not match %d", len(positions), len(lt.positionLists[0]))
	} else {
		lt.visible = make([]bool, len(positions))
		for i := range lt.visible {
			lt.visible[i] = true
		}
		lt.visibleRows = len(positions)
	}
	lt.baseTiles = append(lt.baseTiles, tile)
	lt.blocks = append(lt.blocks, block)
	lt.positionLists = append(lt.positionLists, positions)
	return len(lt.baseTiles) - 1
}

// AddColumn projects a base tile column into the logical schema.
func (lt *LogicalTile) AddColumn(base, columnID int) {
	col := lt.baseTiles[base].Schema().Column(columnID)
	lt.columns = append(lt.columns, ColumnInfo{
		Base:     base,
		ColumnID: columnID,
		Name:     col.Name,
		Type:     col.Type,
	})
	lt.schema = nil
}

// AddPaddingColumn appends a column with no backing storage; it reads NULL
// on every row.
func (lt *LogicalTile) AddPaddingColumn(name string, t common.Type) {
	lt.columns = append(lt.columns, ColumnInfo{Base: -1, Name: name, Type: t})
	lt.schema = nil
}

// WrapTileGroup views the selected rows of a tile group.
func WrapTileGroup(group *storage.TileGroup, positions []int, columnIDs []int) *LogicalTile {
	lt := NewLogicalTile()
	base := lt.AddBaseTile(group.Tile(), group.ID(), positions)
	if len(columnIDs) == 0 {
		for c := 0; c < group.Tile().Schema().ColumnCount(); c++ {
			lt.AddColumn(base, c)
		}
	} else {
		for _, c := range columnIDs {
			lt.AddColumn(base, c)
		}
	}
	return lt
}

// WrapTile views a whole physical tile through identity positions.
func WrapTile(tile *storage.Tile) *LogicalTile {
	positions := make([]int, tile.TupleCount())
	for i := range positions {
		positions[i] = i
	}
	lt := NewLogicalTile()
	base := lt.AddBaseTile(tile, -1, positions)
	for c := 0; c < tile.Schema().ColumnCount(); c++ {
		lt.AddColumn(base, c)
	}
	return lt
}

func (lt *LogicalTile) TupleCount() int   { return len(lt.visible) }
func (lt *LogicalTile) VisibleCount() int { return lt.visibleRows }
func (lt *LogicalTile) ColumnCount() int  { return len(lt.columns) }

func (lt *LogicalTile) BaseTile(i int) *storage.Tile { return lt.baseTiles[i] }
func (lt *LogicalTile) BaseTileCount() int           { return len(lt.baseTiles) }

func (lt *LogicalTile) RowVisible(row int) bool { return lt.visible[row] }

func (lt *LogicalTile) SetRowVisible(row int, v bool) {
	if lt.visible[row] == v {
		return
	}
	lt.visible[row] = v
	if v {
		lt.visibleRows++
	} else {
		lt.visibleRows--
	}
}

// Value reads the logical cell at (row, col), resolving position
// indirection. Padding columns and padded positions read NULL.
func (lt *LogicalTile) Value(row, col int) common.Value {
	info := lt.columns[col]
	if info.Base < 0 {
		return common.NewNullValue(info.Type)
	}
	pos := lt.positionLists[info.Base][row]
	if pos < 0 {
		return common.NewNullValue(info.Type)
	}
	return lt.baseTiles[info.Base].Value(pos, info.ColumnID)
}

// Schema assembles the logical schema from the projected columns.
func (lt *LogicalTile) Schema() *catalog.Schema {
	if lt.schema == nil {
		cols := make([]catalog.Column, len(lt.columns))
		for i, c := range lt.columns {
			cols[i] = catalog.Column{Name: c.Name, Type: c.Type}
		}
		lt.schema = catalog.NewSchema(cols)
	}
	return lt.schema
}

// RecordID reconstructs the storage location of a logical row from the
// first base tile. Only meaningful for scan-produced tiles.
func (lt *LogicalTile) RecordID(row int) common.RecordID {
	common.Assert(len(lt.baseTiles) > 0, "logical tile has no base tiles")
	if lt.blocks[0] < 0 {
		return common.InvalidRecordID
	}
	pos := lt.positionLists[0][row]
	if pos < 0 {
		return common.InvalidRecordID
	}
	return common.RecordID{Block: lt.blocks[0], Offset: int32(pos)}
}

// RowView returns a cheap Row view of one logical row.
func (lt *LogicalTile) RowView(row int) storage.Row {
	return containerRow{tile: lt, row: row}
}

// MaterializeTuple copies one logical row into a standalone tuple.
func (lt *LogicalTile) MaterializeTuple(row int) *storage.Tuple {
	values := make([]common.Value, len(lt.columns))
	for c := range lt.columns {
		values[c] = lt.Value(row, c)
	}
	return storage.NewTupleWithRID(lt.Schema(), values, lt.RecordID(row))
}

func (lt *LogicalTile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "logical tile [%d rows, %d visible]\n", lt.TupleCount(), lt.VisibleCount())
	for r := 0; r < lt.TupleCount(); r++ {
		if !lt.visible[r] {
			continue
		}
		b.WriteString(lt.MaterializeTuple(r).String())
		b.WriteByte('\n')
	}
	return b.String()
}

// containerRow adapts one logical row to the storage.Row surface the
// expression evaluator consumes.
type containerRow struct {
	tile *LogicalTile
	row  int
}

func (c containerRow) ColumnCount() int { return c.tile.ColumnCount() }

func (c containerRow) ColumnValue(idx int) common.Value {
	return c.tile.Value(c.row, idx)
}

// PositionListsBuilder accumulates joined rows against a fixed pair of
// source tiles and yields the combined output tile.
type PositionListsBuilder struct {
	out       *LogicalTile
	left      *LogicalTile
	right     *LogicalTile
	leftLists [][]int
	rightLists [][]int
	rows      int
}

func NewPositionListsBuilder(left, right *LogicalTile) *PositionListsBuilder {
	b := &PositionListsBuilder{out: NewLogicalTile(), left: left, right: right}
	b.leftLists = make([][]int, len(left.positionLists))
	b.rightLists = make([][]int, len(right.positionLists))
	return b
}

// AddRow emits the concatenation of one left row and one right row.
func (b *PositionListsBuilder) AddRow(leftRow, rightRow int) {
	for i, pl := range b.left.positionLists {
		b.leftLists[i] = append(b.leftLists[i], pl[leftRow])
	}
	for i, pl := range b.right.positionLists {
		b.rightLists[i] = append(b.rightLists[i], pl[rightRow])
	}
	b.rows++
}

func (b *PositionListsBuilder) Size() int { return b.rows }

// Build assembles the output tile: left base tiles and columns first, then
// the right side's.
func (b *PositionListsBuilder) Build() *LogicalTile {
	out := b.out
	for i, tile := range b.left.baseTiles {
		out.AddBaseTile(tile, b.left.blocks[i], b.leftLists[i])
	}
	for i, tile := range b.right.baseTiles {
		out.AddBaseTile(tile, b.right.blocks[i], b.rightLists[i])
	}
	leftBases := len(b.left.baseTiles)
	for _, c := range b.left.columns {
		out.columns = append(out.columns, c)
	}
	for _, c := range b.right.columns {
		shifted := c
		if shifted.Base >= 0 {
			shifted.Base += leftBases
		}
		out.columns = append(out.columns, shifted)
	}
	return out
}
