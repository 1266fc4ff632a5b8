package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// MergeJoinExecutor joins two inputs sorted on the conjunctive equality
// join keys. Each side holds a buffered tile plus a half-open row range
// [start, end) delimiting the current run of equal-key rows; runs never
// cross tile boundaries. Equal runs emit their Cartesian product; a false
// join predicate advances both sides without emitting.
type MergeJoinExecutor struct {
	joinExecutor
	plan *planner.MergeJoinNode

	leftStart, leftEnd   int
	rightStart, rightEnd int
	leftDone, rightDone  bool
}

func NewMergeJoinExecutor(plan *planner.MergeJoinNode) *MergeJoinExecutor {
	return &MergeJoinExecutor{plan: plan}
}

func (e *MergeJoinExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *MergeJoinExecutor) Init(ctx *ExecutorContext) error {
	if len(e.plan.JoinClauses) == 0 {
		return common.NewError(common.UnsupportedExpressionError,
			"merge join requires at least one join clause")
	}
	e.joinType = e.plan.JoinType
	e.leftSchema = e.plan.LeftSchema
	e.rightSchema = e.plan.RightSchema
	e.leftStart, e.leftEnd = 0, 0
	e.rightStart, e.rightEnd = 0, 0
	e.leftDone, e.rightDone = false, false
	return e.initJoin(ctx)
}

func (e *MergeJoinExecutor) left() Executor  { return e.children[0] }
func (e *MergeJoinExecutor) right() Executor { return e.children[1] }

// Execute is a loop, not a recursion: an iteration that produces no rows
// falls through to pulling more input.
func (e *MergeJoinExecutor) Execute() bool {
	if e.err != nil {
		return false
	}
	common.Assert(len(e.children) == 2, "merge join expects exactly two children")

	for {
		// Once one side is done the matching loop is over; the other side
		// only needs draining when its unmatched rows owe padding.
		if e.leftDone && !e.needsRightPad() {
			e.rightDone = true
		}
		if e.rightDone && !e.needsLeftPad() {
			e.leftDone = true
		}
		if e.leftDone && e.rightDone {
			if tile := e.nextPaddingTile(); tile != nil {
				e.setOutput(tile)
				return true
			}
			return false
		}

		if (!e.rightDone && e.rightStart == e.rightEnd) || e.leftDone {
			if !e.pullRight() {
				continue
			}
		}
		if (!e.leftDone && e.leftStart == e.leftEnd) || e.rightDone {
			if !e.pullLeft() {
				continue
			}
		}
		if e.err != nil {
			return false
		}
		if e.leftDone || e.rightDone {
			continue
		}

		leftTile := e.leftTiles[len(e.leftTiles)-1]
		rightTile := e.rightTiles[len(e.rightTiles)-1]
		builder := NewPositionListsBuilder(leftTile, rightTile)

		for e.leftEnd > e.leftStart && e.rightEnd > e.rightStart {
			if e.err != nil {
				return false
			}
			cmp, err := e.compareRunKeys(leftTile, rightTile)
			if err != nil {
				return e.fail(err)
			}
			if cmp < 0 {
				e.advanceLeftRun(leftTile)
				continue
			}
			if cmp > 0 {
				e.advanceRightRun(rightTile)
				continue
			}

			if e.plan.Predicate != nil {
				qualified, err := evalPredicate(e.plan.Predicate,
					leftTile.RowView(e.leftStart), rightTile.RowView(e.rightStart), e.ctx)
				if err != nil {
					return e.fail(err)
				}
				if !qualified {
					e.advanceLeftRun(leftTile)
					e.advanceRightRun(rightTile)
					continue
				}
			}

			for l := e.leftStart; l < e.leftEnd; l++ {
				if !leftTile.RowVisible(l) {
					continue
				}
				for r := e.rightStart; r < e.rightEnd; r++ {
					if !rightTile.RowVisible(r) {
						continue
					}
					builder.AddRow(l, r)
					e.recordMatchedLeftRow(len(e.leftTiles)-1, l)
					e.recordMatchedRightRow(len(e.rightTiles)-1, r)
				}
			}
			e.advanceLeftRun(leftTile)
			e.advanceRightRun(rightTile)
		}

		if builder.Size() > 0 {
			e.setOutput(builder.Build())
			return true
		}
	}
}

func (e *MergeJoinExecutor) pullRight() bool {
	if !e.right().Execute() {
		if err := e.right().Error(); err != nil {
			e.fail(err)
		}
		e.rightDone = true
		return false
	}
	tile := e.right().GetOutput()
	if tile == nil {
		e.rightDone = true
		return false
	}
	e.bufferRightTile(tile)
	e.rightStart = 0
	e.rightEnd = e.advance(tile, 0, false)
	return true
}

func (e *MergeJoinExecutor) pullLeft() bool {
	if !e.left().Execute() {
		if err := e.left().Error(); err != nil {
			e.fail(err)
		}
		e.leftDone = true
		return false
	}
	tile := e.left().GetOutput()
	if tile == nil {
		e.leftDone = true
		return false
	}
	e.bufferLeftTile(tile)
	e.leftStart = 0
	e.leftEnd = e.advance(tile, 0, true)
	return true
}

func (e *MergeJoinExecutor) advanceLeftRun(tile *LogicalTile) {
	e.leftStart = e.leftEnd
	e.leftEnd = e.advance(tile, e.leftStart, true)
}

func (e *MergeJoinExecutor) advanceRightRun(tile *LogicalTile) {
	e.rightStart = e.rightEnd
	e.rightEnd = e.advance(tile, e.rightStart, false)
}

// compareRunKeys orders the key tuples heading the two current runs, clause
// by clause; the first non-equal clause decides. A NULL key never matches:
// it advances its own side.
func (e *MergeJoinExecutor) compareRunKeys(leftTile, rightTile *LogicalTile) (int, error) {
	leftRow := leftTile.RowView(e.leftStart)
	rightRow := rightTile.RowView(e.rightStart)
	for _, clause := range e.plan.JoinClauses {
		lv, err := clause.Left.Evaluate(leftRow, rightRow, e.ctx.ExprContext())
		if err != nil {
			return 0, err
		}
		rv, err := clause.Right.Evaluate(leftRow, rightRow, e.ctx.ExprContext())
		if err != nil {
			return 0, err
		}
		if lv.IsNull() {
			return -1, nil
		}
		if rv.IsNull() {
			return 1, nil
		}
		if !lv.Comparable(rv) {
			return 0, common.NewError(common.TypeMismatchError,
				"join clause compares %s against %s", lv.Type(), rv.Type())
		}
		if cmp := lv.Compare(rv); cmp != 0 {
			return cmp, nil
		}
	}
	return 0, nil
}

// advance scans forward from startRow until a row's key tuple differs from
// the prior row's, returning the exclusive run end. Runs are clipped at the
// tile boundary.
func (e *MergeJoinExecutor) advance(tile *LogicalTile, startRow int, isLeft bool) int {
	count := tile.TupleCount()
	if startRow >= count {
		return startRow
	}
	end := startRow + 1
	for end < count {
		differs, err := e.rowKeysDiffer(tile, end-1, end, isLeft)
		if err != nil {
			e.fail(err)
			return end
		}
		if differs {
			break
		}
		end++
	}
	return end
}

func (e *MergeJoinExecutor) rowKeysDiffer(tile *LogicalTile, prevRow, row int, isLeft bool) (bool, error) {
	prev := tile.RowView(prevRow)
	curr := tile.RowView(row)
	for _, clause := range e.plan.JoinClauses {
		expr := clause.Right
		if isLeft {
			expr = clause.Left
		}
		pv, err := evalSameRow(expr, prev, e.ctx)
		if err != nil {
			return false, err
		}
		cv, err := evalSameRow(expr, curr, e.ctx)
		if err != nil {
			return false, err
		}
		if !pv.Equals(cv) {
			return true, nil
		}
	}
	return false, nil
}

// evalSameRow evaluates a clause expression with one row standing in for
// both tuple slots, so run detection works regardless of which slot the
// expression references.
func evalSameRow(expr expression.Expr, row storage.Row, ctx *ExecutorContext) (common.Value, error) {
	return expr.Evaluate(row, row, ctx.ExprContext())
}

func (e *MergeJoinExecutor) Close() error {
	return e.closeChildren()
}
