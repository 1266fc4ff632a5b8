package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

func intTile(values ...int32) *storage.Tile {
	schema := catalog.NewSchema([]catalog.Column{{Name: "v", Type: common.IntegerType}})
	tile := storage.NewTile(schema, len(values))
	for _, v := range values {
		tile.AppendTuple([]common.Value{common.NewIntegerValue(v)})
	}
	return tile
}

func TestWrapTileIdentityView(t *testing.T) {
	lt := WrapTile(intTile(10, 20, 30))

	assert.Equal(t, 3, lt.TupleCount())
	assert.Equal(t, 3, lt.VisibleCount())
	assert.Equal(t, 1, lt.ColumnCount())
	assert.Equal(t, int64(20), lt.Value(1, 0).IntValue())
}

func TestVisibilityBitmap(t *testing.T) {
	lt := WrapTile(intTile(1, 2, 3))

	lt.SetRowVisible(1, false)
	assert.Equal(t, 2, lt.VisibleCount())
	assert.False(t, lt.RowVisible(1))

	// Re-hiding an invisible row must not double count.
	lt.SetRowVisible(1, false)
	assert.Equal(t, 2, lt.VisibleCount())

	lt.SetRowVisible(1, true)
	assert.Equal(t, 3, lt.VisibleCount())
}

func TestPositionIndirection(t *testing.T) {
	tile := intTile(10, 20, 30, 40)
	lt := NewLogicalTile()
	base := lt.AddBaseTile(tile, -1, []int{3, 1})
	lt.AddColumn(base, 0)

	assert.Equal(t, 2, lt.TupleCount())
	assert.Equal(t, int64(40), lt.Value(0, 0).IntValue())
	assert.Equal(t, int64(20), lt.Value(1, 0).IntValue())
}

func TestPaddingReadsNull(t *testing.T) {
	tile := intTile(1)
	lt := NewLogicalTile()
	base := lt.AddBaseTile(tile, -1, []int{0, -1})
	lt.AddColumn(base, 0)
	lt.AddPaddingColumn("missing", common.VarcharType)

	assert.Equal(t, int64(1), lt.Value(0, 0).IntValue())
	assert.True(t, lt.Value(1, 0).IsNull(), "a -1 position reads NULL")
	assert.True(t, lt.Value(0, 1).IsNull(), "a padding column reads NULL")
	assert.Equal(t, common.VarcharType, lt.Value(0, 1).Type())
}

func TestPositionListsBuilderConcatenates(t *testing.T) {
	left := WrapTile(intTile(1, 2))
	right := WrapTile(intTile(10, 20))

	b := NewPositionListsBuilder(left, right)
	b.AddRow(0, 1)
	b.AddRow(1, 0)
	require.Equal(t, 2, b.Size())

	out := b.Build()
	require.Equal(t, 2, out.TupleCount())
	assert.Equal(t, 2, out.ColumnCount())
	assert.Equal(t, int64(1), out.Value(0, 0).IntValue())
	assert.Equal(t, int64(20), out.Value(0, 1).IntValue())
	assert.Equal(t, int64(2), out.Value(1, 0).IntValue())
	assert.Equal(t, int64(10), out.Value(1, 1).IntValue())
}

func TestMaterializeTuple(t *testing.T) {
	lt := WrapTile(intTile(5))
	tuple := lt.MaterializeTuple(0)
	require.Equal(t, 1, tuple.ColumnCount())
	assert.Equal(t, int64(5), tuple.ColumnValue(0).IntValue())
	assert.Equal(t, "v", tuple.Schema().Column(0).Name)
}
