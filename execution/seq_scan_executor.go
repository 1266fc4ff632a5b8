package execution

import (
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// SeqScanExecutor scans a table heap one tile group at a time, producing a
// logical tile per group. The residual predicate decides row visibility in
// the produced tile.
type SeqScanExecutor struct {
	baseExecutor
	plan *planner.SeqScanNode

	heap     *TableHeap
	groupIdx int
}

func NewSeqScanExecutor(plan *planner.SeqScanNode) *SeqScanExecutor {
	return &SeqScanExecutor{plan: plan}
}

func (e *SeqScanExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *SeqScanExecutor) Init(ctx *ExecutorContext) error {
	if err := e.initChildren(ctx); err != nil {
		return err
	}
	e.groupIdx = 0
	var err error
	e.heap, err = ctx.Tables().GetTable(e.plan.TableOid)
	return err
}

func (e *SeqScanExecutor) Execute() bool {
	if e.err != nil {
		return false
	}
	txn := e.ctx.Transaction()
	for e.groupIdx < e.heap.GroupCount() {
		group := e.heap.Group(e.groupIdx)
		e.groupIdx++

		positions := group.VisibleRows(txn)
		if len(positions) == 0 {
			continue
		}
		tile := WrapTileGroup(group, positions, e.plan.ColumnIDs)
		if e.plan.Predicate != nil {
			for row := 0; row < tile.TupleCount(); row++ {
				qualified, err := evalPredicate(e.plan.Predicate, tile.RowView(row), nil, e.ctx)
				if err != nil {
					return e.fail(err)
				}
				if !qualified {
					tile.SetRowVisible(row, false)
				}
			}
			if tile.VisibleCount() == 0 {
				continue
			}
		}
		e.setOutput(tile)
		return true
	}
	return false
}

func (e *SeqScanExecutor) Close() error {
	return e.closeChildren()
}
