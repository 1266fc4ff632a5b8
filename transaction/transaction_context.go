package transaction

import (
	"github.com/YuNanlong/peloton-bwtree/common"
)

// UndoAction reverses one side effect of a transaction. Storage and indexing
// register concrete actions; the transaction layer only knows how to replay
// them in reverse on abort. The indirection keeps this package free of
// dependencies on the layers it coordinates.
type UndoAction interface {
	Undo()
}

// TransactionContext is the runtime state of one transaction. It is created
// by the TransactionManager and shared read-mostly by every executor in a
// plan tree; only the owning worker mutates it.
type TransactionContext struct {
	id       common.TransactionID
	commitID common.CommitID
	result   common.ResultType

	mgr *TransactionManager

	// undoStack records side effects in apply order; Abort replays it in
	// reverse.
	undoStack []UndoAction
}

func (t *TransactionContext) TransactionID() common.TransactionID { return t.id }
func (t *TransactionContext) CommitID() common.CommitID           { return t.commitID }

func (t *TransactionContext) Result() common.ResultType {
	return t.result
}

// SetResult records the statement outcome. Failure is sticky: once any
// statement in the transaction fails, the transaction can only abort.
func (t *TransactionContext) SetResult(r common.ResultType) {
	if t.result == common.ResultFailure {
		return
	}
	t.result = r
}

// AddUndo pushes an undo action for replay on abort.
func (t *TransactionContext) AddUndo(action UndoAction) {
	t.undoStack = append(t.undoStack, action)
}

// Visible implements storage.Snapshot: a row is visible when its inserter is
// this transaction or a committed one, and no delete by this transaction or
// a committed one covers it.
func (t *TransactionContext) Visible(insertTxn, deleteTxn common.TransactionID) bool {
	if insertTxn != t.id && !t.mgr.IsCommitted(insertTxn) {
		return false
	}
	if deleteTxn == common.InvalidTransactionID {
		return true
	}
	return deleteTxn != t.id && !t.mgr.IsCommitted(deleteTxn)
}

// UndoFunc adapts a closure to the UndoAction interface.
type UndoFunc func()

func (f UndoFunc) Undo() { f() }
