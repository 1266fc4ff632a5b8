package execution

import (
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/indexing"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// UpdateExecutor rewrites the target columns of every row its child
// produces. At the storage layer an update is a delete of the old version
// plus an insert of the new one; each secondary index sees it as one logical
// event: delete the old key, insert the new key. An unchanged key is still
// deleted and reinserted, bound to the new version's RecordID.
type UpdateExecutor struct {
	baseExecutor
	plan *planner.UpdateNode

	heap     *TableHeap
	indexes  []indexing.Index
	executed bool
}

func NewUpdateExecutor(plan *planner.UpdateNode) *UpdateExecutor {
	return &UpdateExecutor{plan: plan}
}

func (e *UpdateExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *UpdateExecutor) Init(ctx *ExecutorContext) error {
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

func (e *UpdateExecutor) Execute() bool {
	if e.executed || e.err != nil {
		return false
	}
	e.executed = true

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
				common.Assert(!rid.IsNil(), "update requires scan-produced rows with record ids")
				if err := e.updateRow(rid); err != nil {
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

func (e *UpdateExecutor) updateRow(rid common.RecordID) error {
	txn := e.ctx.Transaction()
	old, err := e.heap.TupleAt(rid)
	if err != nil {
		return err
	}

	values := make([]common.Value, old.ColumnCount())
	copy(values, old.Values())
	for _, target := range e.plan.Targets {
		v, err := target.Expr.Evaluate(old, nil, e.ctx.ExprContext())
		if err != nil {
			return err
		}
		values[target.ColumnIndex] = v
	}

	if err := e.heap.DeleteTuple(txn, rid); err != nil {
		return err
	}
	newRID, err := e.heap.InsertTuple(txn, values)
	if err != nil {
		return err
	}
	updated := storage.NewTupleWithRID(e.heap.Schema(), values, newRID)

	for _, index := range e.indexes {
		// One logical event per index: drop the old key, add the new one.
		// Even an unchanged key rebinds, because the row version moved.
		oldKey := index.Metadata().AsKey(old)
		newKey := index.Metadata().AsKey(updated)
		if err := index.DeleteEntry(oldKey, rid, txn); err != nil {
			return err
		}
		if err := index.InsertEntry(newKey, newRID, txn); err != nil {
			return err
		}
	}
	return nil
}

func (e *UpdateExecutor) dmlFail(err error) bool {
	e.ctx.Transaction().SetResult(common.ResultFailure)
	return e.fail(err)
}

func (e *UpdateExecutor) Close() error {
	return e.closeChildren()
}
