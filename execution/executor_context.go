package execution

import (
	"sync/atomic"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

// ExecutorContext is the per-statement state shared by every executor in
// one plan tree: the transaction, the snapshotted parameter bindings, and
// the table registry. It is read-only after construction, except for the
// cooperative cancellation flag.
type ExecutorContext struct {
	txn      *transaction.TransactionContext
	params   []common.Value
	tables   *TableManager
	exprCtx  *expression.Context
	canceled atomic.Bool
}

func NewExecutorContext(txn *transaction.TransactionContext, params []common.Value, tables *TableManager) *ExecutorContext {
	return &ExecutorContext{
		txn:     txn,
		params:  params,
		tables:  tables,
		exprCtx: &expression.Context{Params: params},
	}
}

func (ctx *ExecutorContext) Transaction() *transaction.TransactionContext {
	return ctx.txn
}

func (ctx *ExecutorContext) Params() []common.Value {
	return ctx.params
}

func (ctx *ExecutorContext) Tables() *TableManager {
	return ctx.tables
}

func (ctx *ExecutorContext) ExprContext() *expression.Context {
	return ctx.exprCtx
}

// Cancel requests cooperative cancellation; the driver checks the flag
// between tile pulls.
func (ctx *ExecutorContext) Cancel() {
	ctx.canceled.Store(true)
}

func (ctx *ExecutorContext) Canceled() bool {
	return ctx.canceled.Load()
}
