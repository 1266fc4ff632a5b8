package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/indexing"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// InsertExecutor applies the plan's literal tuples, or every row its child
// produces, to the table heap and all of its indexes. It produces no output
// tile; any mutation error marks the transaction failed.
type InsertExecutor struct {
	baseExecutor
	plan *planner.InsertNode

	heap     *TableHeap
	indexes  []indexing.Index
	executed bool
}

func NewInsertExecutor(plan *planner.InsertNode) *InsertExecutor {
	return &InsertExecutor{plan: plan}
}

func (e *InsertExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *InsertExecutor) Init(ctx *ExecutorContext) error {
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

func (e *InsertExecutor) Execute() bool {
	if e.executed || e.err != nil {
		return false
	}
	e.executed = true

	for _, values := range e.plan.Tuples {
		if err := e.insertRow(values); err != nil {
			return e.dmlFail(err)
		}
	}
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
				if err := e.insertRow(tile.MaterializeTuple(row).Values()); err != nil {
					return e.dmlFail(err)
				}
			}
		}
		if err := child.Error(); err != nil {
			return e.dmlFail(err)
		}
	}
	return false
}

func (e *InsertExecutor) insertRow(values []common.Value) error {
	txn := e.ctx.Transaction()
	rid, err := e.heap.InsertTuple(txn, values)
	if err != nil {
		return err
	}
	tuple := storage.NewTupleWithRID(e.heap.Schema(), values, rid)
	for _, index := range e.indexes {
		if err := index.InsertEntry(index.Metadata().AsKey(tuple), rid, txn); err != nil {
			return err
		}
	}
	return nil
}

// dmlFail marks the transaction failed and surfaces false.
func (e *InsertExecutor) dmlFail(err error) bool {
	e.ctx.Transaction().SetResult(common.ResultFailure)
	return e.fail(err)
}

func (e *InsertExecutor) Close() error {
	return e.closeChildren()
}
