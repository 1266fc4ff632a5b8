package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// LimitExecutor passes through up to Limit visible rows after skipping the
// first Offset, masking everything else out of the tiles it forwards.
type LimitExecutor struct {
	baseExecutor
	plan *planner.LimitNode

	skipped uint64
	emitted uint64
}

func NewLimitExecutor(plan *planner.LimitNode) *LimitExecutor {
	return &LimitExecutor{plan: plan}
}

func (e *LimitExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *LimitExecutor) Init(ctx *ExecutorContext) error {
	if err := e.initChildren(ctx); err != nil {
		return err
	}
	e.skipped = 0
	e.emitted = 0
	return nil
}

func (e *LimitExecutor) Execute() bool {
	if e.err != nil || e.emitted >= e.plan.Limit {
		return false
	}
	common.Assert(len(e.children) == 1, "limit expects exactly one child")
	child := e.children[0]

	for child.Execute() {
		tile := child.GetOutput()
		if tile == nil {
			continue
		}
		for row := 0; row < tile.TupleCount(); row++ {
			if !tile.RowVisible(row) {
				continue
			}
			switch {
			case e.skipped < e.plan.Offset:
				e.skipped++
				tile.SetRowVisible(row, false)
			case e.emitted < e.plan.Limit:
				e.emitted++
			default:
				tile.SetRowVisible(row, false)
			}
		}
		if tile.VisibleCount() == 0 {
			continue
		}
		e.setOutput(tile)
		return true
	}
	if err := child.Error(); err != nil {
		return e.fail(err)
	}
	return false
}

func (e *LimitExecutor) Close() error {
	return e.closeChildren()
}
