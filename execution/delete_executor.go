package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/indexing"
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// DeleteExecutor removes every row its child produces from the table heap
// and all of its indexes. It produces no output tile.
type DeleteExecutor struct {
	baseExecutor
	plan *planner.DeleteNode

	heap     *TableHeap
	indexes  []indexing.Index
	executed bool
}

func NewDeleteExecutor(plan *planner.DeleteNode) *DeleteExecutor {
	return &DeleteExecutor{plan: plan}
}

func (e *DeleteExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *DeleteExecutor) Init(ctx *ExecutorContext) error {
	if err := e.initChildren(ctx); err != nil {
		return err
	}
	e.executed = false
	var err error
	if e.heap, err = ctx.Tables().GetTable(e.plan.TableOid); err != nil {
		return err
	}
	e.indexes = ctx.Tables().TableIndexes(e.plan.TableOid)
	return nil
}

func (e *DeleteExecutor) Execute() bool {
	if e.executed || e.err != nil {
		return false
	}
	e.executed = true

	txn := e.ctx.Transaction()
	for _, child := range e.children {
		for child.Execute() {
			tile := child.GetOutput()
			if tile == nil {
				continue
			}
			for row := 0; row < tile.TupleCount(); row++ {
				if !tile.RowVisible(row) {
					continue
				}
				rid := tile.RecordID(row)
				common.Assert(!rid.IsNil(), "delete requires scan-produced rows with record ids")

				if err := e.heap.DeleteTuple(txn, rid); err != nil {
					return e.dmlFail(err)
				}
				old, err := e.heap.TupleAt(rid)
				if err != nil {
					return e.dmlFail(err)
				}
				for _, index := range e.indexes {
					key := index.Metadata().AsKey(old)
					if err := index.DeleteEntry(key, rid, txn); err != nil {
						return e.dmlFail(err)
					}
				}
			}
		}
		if err := child.Error(); err != nil {
			return e.dmlFail(err)
		}
	}
	return false
}

func (e *DeleteExecutor) dmlFail(err error) bool {
	e.ctx.Transaction().SetResult(common.ResultFailure)
	return e.fail(err)
}

func (e *DeleteExecutor) Close() error {
	return e.closeChildren()
}
