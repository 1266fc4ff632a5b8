package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// NestedLoopJoinExecutor scans the inner (right) subtree from the beginning
// for every outer row, re-initializing it each time. Inner and left-outer
// modes are supported; unmatched outer rows are emitted with NULLs in the
// right schema once the outer stream ends.
type NestedLoopJoinExecutor struct {
	joinExecutor
	plan *planner.NestedLoopJoinNode

	leftTile    *LogicalTile
	leftRow     int
	leftDone    bool
	innerActive bool
}

func NewNestedLoopJoinExecutor(plan *planner.NestedLoopJoinNode) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{plan: plan}
}

func (e *NestedLoopJoinExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *NestedLoopJoinExecutor) Init(ctx *ExecutorContext) error {
	if e.plan.JoinType != planner.JoinInner && e.plan.JoinType != planner.JoinLeftOuter {
		return common.NewError(common.UnsupportedExpressionError,
			"nested loop join does not support %s joins", e.plan.JoinType)
	}
	e.joinType = e.plan.JoinType
	e.leftSchema = e.plan.LeftSchema
	e.rightSchema = e.plan.RightSchema
	e.leftTile = nil
	e.leftRow = 0
	e.leftDone = false
	e.innerActive = false
	return e.initJoin(ctx)
}

func (e *NestedLoopJoinExecutor) left() Executor  { return e.children[0] }
func (e *NestedLoopJoinExecutor) right() Executor { return e.children[1] }

func (e *NestedLoopJoinExecutor) Execute() bool {
	if e.err != nil {
		return false
	}
	common.Assert(len(e.children) == 2, "nested loop join expects exactly two children")

	for {
		if e.leftTile == nil {
			if e.leftDone {
				if tile := e.nextPaddingTile(); tile != nil {
					e.setOutput(tile)
					return true
				}
				return false
			}
			if !e.left().Execute() {
				if err := e.left().Error(); err != nil {
					return e.fail(err)
				}
				e.leftDone = true
				continue
			}
			tile := e.left().GetOutput()
			if tile == nil {
				continue
			}
			e.bufferLeftTile(tile)
			e.leftTile = tile
			e.leftRow = -1
			e.innerActive = false
		}

		if !e.innerActive {
			e.leftRow++
			for e.leftRow < e.leftTile.TupleCount() && !e.leftTile.RowVisible(e.leftRow) {
				e.leftRow++
			}
			if e.leftRow >= e.leftTile.TupleCount() {
				e.leftTile = nil
				continue
			}
			// Restart the inner subtree from the beginning for this outer row.
			if err := e.right().Init(e.ctx); err != nil {
				return e.fail(err)
			}
			e.innerActive = true
		}

		if !e.right().Execute() {
			if err := e.right().Error(); err != nil {
				return e.fail(err)
			}
			e.innerActive = false
			continue
		}
		rightTile := e.right().GetOutput()
		if rightTile == nil {
			continue
		}
		e.bufferRightTile(rightTile)

		builder := NewPositionListsBuilder(e.leftTile, rightTile)
		leftView := e.leftTile.RowView(e.leftRow)
		for r := 0; r < rightTile.TupleCount(); r++ {
			if !rightTile.RowVisible(r) {
				continue
			}
			qualified := true
			if e.plan.Predicate != nil {
				var err error
				qualified, err = evalPredicate(e.plan.Predicate, leftView, rightTile.RowView(r), e.ctx)
				if err != nil {
					return e.fail(err)
				}
			}
			if qualified {
				builder.AddRow(e.leftRow, r)
				e.recordMatchedLeftRow(len(e.leftTiles)-1, e.leftRow)
			}
		}
		if builder.Size() > 0 {
			e.setOutput(builder.Build())
			return true
		}
	}
}

func (e *NestedLoopJoinExecutor) Close() error {
	return e.closeChildren()
}
