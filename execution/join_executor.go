package execution

import (
	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// joinExecutor is the state shared by the join operators: buffered input
// tiles, per-row match bitmaps, and outer-join padding. Join executors embed
// it and drive it from their own matching loops.
type joinExecutor struct {
	baseExecutor
	joinType planner.JoinType

	leftSchema  *catalog.Schema
	rightSchema *catalog.Schema

	leftTiles   []*LogicalTile
	rightTiles  []*LogicalTile
	leftMatches [][]bool
	rightMatches [][]bool

	// Padding emission state, one source tile per pull.
	padLeftIdx  int
	padRightIdx int
}

func (j *joinExecutor) initJoin(ctx *ExecutorContext) error {
	if err := j.initChildren(ctx); err != nil {
		return err
	}
	j.leftTiles = nil
	j.rightTiles = nil
	j.leftMatches = nil
	j.rightMatches = nil
	j.padLeftIdx = 0
	j.padRightIdx = 0
	return nil
}

func (j *joinExecutor) needsLeftPad() bool {
	return j.joinType == planner.JoinLeftOuter || j.joinType == planner.JoinFullOuter
}

func (j *joinExecutor) needsRightPad() bool {
	return j.joinType == planner.JoinRightOuter || j.joinType == planner.JoinFullOuter
}

func (j *joinExecutor) bufferLeftTile(tile *LogicalTile) {
	j.leftTiles = append(j.leftTiles, tile)
	j.leftMatches = append(j.leftMatches, make([]bool, tile.TupleCount()))
}

func (j *joinExecutor) bufferRightTile(tile *LogicalTile) {
	j.rightTiles = append(j.rightTiles, tile)
	j.rightMatches = append(j.rightMatches, make([]bool, tile.TupleCount()))
}

func (j *joinExecutor) recordMatchedLeftRow(tileIdx, row int) {
	j.leftMatches[tileIdx][row] = true
}

func (j *joinExecutor) recordMatchedRightRow(tileIdx, row int) {
	j.rightMatches[tileIdx][row] = true
}

// nextPaddingTile emits, one buffered source tile at a time, the rows that
// never matched, padded with NULLs on the other side. Returns nil once all
// padding is produced.
func (j *joinExecutor) nextPaddingTile() *LogicalTile {
	if j.needsLeftPad() {
		for j.padLeftIdx < len(j.leftTiles) {
			idx := j.padLeftIdx
			j.padLeftIdx++
			if tile := j.paddedTile(j.leftTiles[idx], j.leftMatches[idx], true); tile != nil {
				return tile
			}
		}
	}
	if j.needsRightPad() {
		for j.padRightIdx < len(j.rightTiles) {
			idx := j.padRightIdx
			j.padRightIdx++
			if tile := j.paddedTile(j.rightTiles[idx], j.rightMatches[idx], false); tile != nil {
				return tile
			}
		}
	}
	return nil
}

// paddedTile builds the outer-join output for one source tile: its
// unmatched visible rows, concatenated with NULL columns for the other
// side. The NULL column shapes come from the other side's buffered tiles,
// or the plan schema when that side never produced one.
func (j *joinExecutor) paddedTile(src *LogicalTile, matched []bool, srcIsLeft bool) *LogicalTile {
	var rows []int
	for r := 0; r < src.TupleCount(); r++ {
		if src.RowVisible(r) && !matched[r] {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	out := NewLogicalTile()
	addSrc := func() {
		for i := 0; i < src.BaseTileCount(); i++ {
			positions := make([]int, len(rows))
			for k, r := range rows {
				positions[k] = src.positionLists[i][r]
			}
			out.AddBaseTile(src.baseTiles[i], src.blocks[i], positions)
		}
		out.columns = append(out.columns, src.columns...)
	}
	addPadding := func(other []*LogicalTile, schema *catalog.Schema) {
		if len(other) > 0 {
			for _, c := range other[0].columns {
				out.AddPaddingColumn(c.Name, c.Type)
			}
			return
		}
		if schema != nil {
			for _, c := range schema.Columns() {
				out.AddPaddingColumn(c.Name, c.Type)
			}
		}
	}

	if srcIsLeft {
		addSrc()
		addPadding(j.rightTiles, j.rightSchema)
	} else {
		addPadding(j.leftTiles, j.leftSchema)
		addSrc()
	}
	return out
}
