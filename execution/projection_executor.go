package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// ProjectionExecutor computes one output column per plan expression for
// every visible input row, materializing the results into a fresh physical
// tile with the plan-specified schema.
type ProjectionExecutor struct {
	baseExecutor
	plan *planner.ProjectionNode
}

func NewProjectionExecutor(plan *planner.ProjectionNode) *ProjectionExecutor {
	return &ProjectionExecutor{plan: plan}
}

func (e *ProjectionExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *ProjectionExecutor) Init(ctx *ExecutorContext) error {
	common.Assert(e.plan.OutputSchema.ColumnCount() == len(e.plan.Expressions),
		"projection schema arity %d does not match expression count %d",
		e.plan.OutputSchema.ColumnCount(), len(e.plan.Expressions))
	return e.initChildren(ctx)
}

func (e *ProjectionExecutor) Execute() bool {
	if e.err != nil {
		return false
	}
	common.Assert(len(e.children) == 1, "projection expects exactly one child")
	child := e.children[0]

	for child.Execute() {
		tile := child.GetOutput()
		if tile == nil {
			continue
		}
		out := storage.NewTile(e.plan.OutputSchema, tile.VisibleCount())
		values := make([]common.Value, len(e.plan.Expressions))
		for row := 0; row < tile.TupleCount(); row++ {
			if !tile.RowVisible(row) {
				continue
			}
			rowView := tile.RowView(row)
			for i, expr := range e.plan.Expressions {
				v, err := expr.Evaluate(rowView, nil, e.ctx.ExprContext())
				if err != nil {
					return e.fail(err)
				}
				values[i] = v
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

func (e *ProjectionExecutor) Close() error {
	return e.closeChildren()
}
