package execution

import (
	"sort"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/indexing"
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// IndexScanExecutor resolves matching row references through an index: a
// point lookup when the plan pins a single key, a range scan otherwise.
// Matches are grouped by tile group and emitted one logical tile per group,
// with the residual predicate deciding row visibility.
type IndexScanExecutor struct {
	baseExecutor
	plan *planner.IndexScanNode

	heap  *TableHeap
	index indexing.Index

	scanned  bool
	blocks   []int32
	perBlock map[int32][]int
	emitIdx  int
}

func NewIndexScanExecutor(plan *planner.IndexScanNode) *IndexScanExecutor {
	return &IndexScanExecutor{plan: plan}
}

func (e *IndexScanExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *IndexScanExecutor) Init(ctx *ExecutorContext) error {
	if err := e.initChildren(ctx); err != nil {
		return err
	}
	e.scanned = false
	e.blocks = nil
	e.perBlock = nil
	e.emitIdx = 0
	var err error
	if e.heap, err = ctx.Tables().GetTable(e.plan.TableOid); err != nil {
		return err
	}
	e.index, err = ctx.Tables().GetIndex(e.plan.IndexOid)
	return err
}

func (e *IndexScanExecutor) Execute() bool {
	if e.err != nil {
		return false
	}
	if !e.scanned {
		if err := e.scan(); err != nil {
			return e.fail(err)
		}
		e.scanned = true
	}
	txn := e.ctx.Transaction()
	for e.emitIdx < len(e.blocks) {
		block := e.blocks[e.emitIdx]
		positions := e.perBlock[block]
		e.emitIdx++

		group := e.heap.Group(int(block))
		tile := WrapTileGroup(group, positions, e.plan.ColumnIDs)
		for row := 0; row < tile.TupleCount(); row++ {
			rid := common.RecordID{Block: block, Offset: int32(positions[row])}
			if !e.heap.RowVisible(txn, rid) {
				tile.SetRowVisible(row, false)
				continue
			}
			if e.plan.Predicate != nil {
				qualified, err := evalPredicate(e.plan.Predicate, tile.RowView(row), nil, e.ctx)
				if err != nil {
					return e.fail(err)
				}
				if !qualified {
					tile.SetRowVisible(row, false)
				}
			}
		}
		if tile.VisibleCount() == 0 {
			continue
		}
		e.setOutput(tile)
		return true
	}
	return false
}

// scan drains the index into per-tile-group position lists.
func (e *IndexScanExecutor) scan() error {
	var rids []common.RecordID
	var err error

	low := indexing.Key(e.plan.Low)
	high := indexing.Key(e.plan.High)
	pointLookup := low != nil && high != nil &&
		e.plan.LowInclusive && e.plan.HighInclusive && indexing.KeysEqual(low, high)

	if pointLookup {
		rids, err = e.index.ScanKey(low, nil)
		if err != nil {
			return err
		}
	} else {
		iter, err := e.index.Scan(low, high, e.plan.LowInclusive, e.plan.HighInclusive)
		if err != nil {
			return err
		}
		for iter.Next() {
			rids = append(rids, iter.Value())
		}
		if err := iter.Error(); err != nil {
			return err
		}
	}

	e.perBlock = make(map[int32][]int)
	for _, rid := range rids {
		if _, ok := e.perBlock[rid.Block]; !ok {
			e.blocks = append(e.blocks, rid.Block)
		}
		e.perBlock[rid.Block] = append(e.perBlock[rid.Block], int(rid.Offset))
	}
	sort.Slice(e.blocks, func(i, j int) bool { return e.blocks[i] < e.blocks[j] })
	for _, positions := range e.perBlock {
		sort.Ints(positions)
	}
	return nil
}

func (e *IndexScanExecutor) Close() error {
	return e.closeChildren()
}
