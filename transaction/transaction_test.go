package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuNanlong/peloton-bwtree/common"
)

func TestStartAndGetTransaction(t *testing.T) {
	tm := NewTransactionManager()

	_, ok := tm.GetTransaction(7)
	assert.False(t, ok)

	txn := tm.StartTransaction(7)
	require.NotNil(t, txn)
	assert.Equal(t, common.TransactionID(7), txn.TransactionID())
	assert.Equal(t, common.ResultSuccess, txn.Result())

	got, ok := tm.GetTransaction(7)
	require.True(t, ok)
	assert.Same(t, txn, got)
}

func TestCommitPublishesTransaction(t *testing.T) {
	tm := NewTransactionManager()
	txn := tm.StartTransaction(1)

	require.NoError(t, tm.Commit(txn))
	assert.True(t, tm.IsCommitted(1))
	assert.NotEqual(t, common.InvalidCommitID, txn.CommitID())

	_, ok := tm.GetTransaction(1)
	assert.False(t, ok, "committed transactions leave the active set")
}

func TestCommitRefusedAfterFailure(t *testing.T) {
	tm := NewTransactionManager()
	txn := tm.StartTransaction(1)
	txn.SetResult(common.ResultFailure)

	err := tm.Commit(txn)
	require.Error(t, err)
	assert.Equal(t, common.TransactionConflictError, common.CodeOf(err))
	assert.False(t, tm.IsCommitted(1))
}

func TestFailureIsSticky(t *testing.T) {
	txn := &TransactionContext{result: common.ResultSuccess}
	txn.SetResult(common.ResultFailure)
	txn.SetResult(common.ResultSuccess)
	assert.Equal(t, common.ResultFailure, txn.Result())
}

func TestAbortReplaysUndoInReverse(t *testing.T) {
	tm := NewTransactionManager()
	txn := tm.StartTransaction(1)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		txn.AddUndo(UndoFunc(func() { order = append(order, i) }))
	}
	require.NoError(t, tm.Abort(txn))

	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, common.ResultAborted, txn.Result())
	assert.False(t, tm.IsCommitted(1))
}

func TestVisibility(t *testing.T) {
	tm := NewTransactionManager()
	writer := tm.StartTransaction(1)
	reader := tm.StartTransaction(2)

	// A row inserted by an uncommitted peer is invisible; the writer sees
	// its own insert.
	assert.False(t, reader.Visible(1, common.InvalidTransactionID))
	assert.True(t, writer.Visible(1, common.InvalidTransactionID))

	require.NoError(t, tm.Commit(writer))
	assert.True(t, reader.Visible(1, common.InvalidTransactionID))

	// A committed delete hides the row; an uncommitted foreign delete does
	// not.
	assert.False(t, reader.Visible(1, 1))
	assert.True(t, reader.Visible(1, 3))
	assert.False(t, reader.Visible(1, 2), "a transaction sees its own deletes")
}
