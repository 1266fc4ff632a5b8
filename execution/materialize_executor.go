package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// MaterializeExecutor copies each position-list-bearing input tile into a
// contiguous physical tile so downstream consumers iterate without position
// indirection. The driver inserts one implicitly above scan, nested-loop and
// limit roots. The plan node may be nil for those driver-inserted instances.
type MaterializeExecutor struct {
	baseExecutor
	plan *planner.MaterializeNode
}

func NewMaterializeExecutor(plan *planner.MaterializeNode) *MaterializeExecutor {
	return &MaterializeExecutor{plan: plan}
}

func (e *MaterializeExecutor) PlanNode() planner.PlanNode {
	if e.plan == nil {
		return nil
	}
	return e.plan
}

func (e *MaterializeExecutor) Init(ctx *ExecutorContext) error {
	return e.initChildren(ctx)
}

func (e *MaterializeExecutor) Execute() bool {
	if e.err != nil {
		return false
	}
	common.Assert(len(e.children) == 1, "materialize expects exactly one child")
	child := e.children[0]

	for child.Execute() {
		tile := child.GetOutput()
		if tile == nil {
			continue
		}
		out := storage.NewTile(tile.Schema(), tile.VisibleCount())
		for row := 0; row < tile.TupleCount(); row++ {
			if !tile.RowVisible(row) {
				continue
			}
			values := make([]common.Value, tile.ColumnCount())
			for c := range values {
				values[c] = tile.Value(row, c)
			}
			out.AppendTuple(values)
		}
		if out.TupleCount() == 0 {
			continue
		}
		e.setOutput(WrapTile(out))
		return true
	}
	if err := child.Error(); err != nil {
		return e.fail(err)
	}
	return false
}

func (e *MaterializeExecutor) Close() error {
	return e.closeChildren()
}
