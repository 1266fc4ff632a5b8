package transaction

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/YuNanlong/peloton-bwtree/common"
)

// TransactionManager tracks active and committed transactions. Transaction
// ids are assigned by the host (the front end driving the executor); commit
// ids are assigned here at commit time.
//
// Visibility is intentionally coarse: a row version is visible when its
// writer has committed or is the reading transaction itself. Full snapshot
// isolation ordering belongs to the host's concurrency control; the executor
// core only needs the per-row hooks.
type TransactionManager struct {
	active    *xsync.MapOf[common.TransactionID, *TransactionContext]
	committed *xsync.MapOf[common.TransactionID, common.CommitID]

	nextCommitID atomic.Uint64
}

func NewTransactionManager() *TransactionManager {
	tm := &TransactionManager{
		active:    xsync.NewMapOf[common.TransactionID, *TransactionContext](),
		committed: xsync.NewMapOf[common.TransactionID, common.CommitID](),
	}
	tm.nextCommitID.Store(1)
	return tm
}

// GetTransaction resolves an already-started transaction.
func (tm *TransactionManager) GetTransaction(id common.TransactionID) (*TransactionContext, bool) {
	return tm.active.Load(id)
}

// StartTransaction registers a transaction under the host-supplied id.
func (tm *TransactionManager) StartTransaction(id common.TransactionID) *TransactionContext {
	txn := &TransactionContext{
		id:     id,
		result: common.ResultSuccess,
		mgr:    tm,
	}
	tm.active.Store(id, txn)
	return txn
}

// Commit assigns a commit id and publishes the transaction's effects.
func (tm *TransactionManager) Commit(txn *TransactionContext) error {
	if txn.result == common.ResultFailure {
		return common.NewError(common.TransactionConflictError,
			"txn %d is marked failed and cannot commit", txn.id)
	}
	txn.commitID = common.CommitID(tm.nextCommitID.Add(1) - 1)
	tm.committed.Store(txn.id, txn.commitID)
	tm.active.Delete(txn.id)
	txn.undoStack = nil
	return nil
}

// Abort rolls back the transaction by replaying its undo stack in reverse.
func (tm *TransactionManager) Abort(txn *TransactionContext) error {
	for i := len(txn.undoStack) - 1; i >= 0; i-- {
		txn.undoStack[i].Undo()
	}
	txn.undoStack = nil
	txn.result = common.ResultAborted
	tm.active.Delete(txn.id)
	return nil
}

// IsCommitted reports whether the given transaction id has committed.
func (tm *TransactionManager) IsCommitted(id common.TransactionID) bool {
	_, ok := tm.committed.Load(id)
	return ok
}
