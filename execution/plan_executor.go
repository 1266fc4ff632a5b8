package execution

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

// Status is the result surface ExecutePlan writes for the caller: the final
// transaction result and the output rows in the caller's tuple shape.
type Status struct {
	Result      common.ResultType
	ResultSlots []any
}

// PlanExecutor builds executor trees from plan trees and drives them under
// transactional control.
type PlanExecutor struct {
	txnManager *transaction.TransactionManager
	tables     *TableManager
}

func NewPlanExecutor(txnManager *transaction.TransactionManager, tables *TableManager) *PlanExecutor {
	return &PlanExecutor{txnManager: txnManager, tables: tables}
}

// PrintPlan logs the plan tree, one line per node.
func (pe *PlanExecutor) PrintPlan(plan planner.PlanNode, prefix string) {
	if plan == nil {
		return
	}
	prefix += "  "
	slog.Info("plan node", "prefix", prefix, "type", plan.NodeType().String())
	for _, child := range plan.Children() {
		pe.PrintPlan(child, prefix)
	}
}

// BuildExecutorTree recursively mirrors the plan tree with executors wired
// bottom-up. Unknown plan kinds are logged and skipped: they produce no
// operator, and their children attach to the nearest built ancestor so the
// subtree stays valid.
func (pe *PlanExecutor) BuildExecutorTree(root Executor, plan planner.PlanNode, ctx *ExecutorContext) Executor {
	if plan == nil {
		return root
	}

	child := buildExecutor(plan)
	if child != nil {
		if root != nil {
			root.AddChild(child)
		} else {
			root = child
		}
	}

	attachTo := child
	if attachTo == nil {
		attachTo = root
	}
	for _, planChild := range plan.Children() {
		built := pe.BuildExecutorTree(attachTo, planChild, ctx)
		if attachTo == nil {
			// No ancestor yet: the first built subtree becomes the root.
			root = built
			attachTo = built
		}
	}
	return root
}

func buildExecutor(plan planner.PlanNode) Executor {
	switch node := plan.(type) {
	case *planner.SeqScanNode:
		return NewSeqScanExecutor(node)
	case *planner.IndexScanNode:
		return NewIndexScanExecutor(node)
	case *planner.InsertNode:
		return NewInsertExecutor(node)
	case *planner.DeleteNode:
		return NewDeleteExecutor(node)
	case *planner.UpdateNode:
		return NewUpdateExecutor(node)
	case *planner.LimitNode:
		return NewLimitExecutor(node)
	case *planner.NestedLoopJoinNode:
		return NewNestedLoopJoinExecutor(node)
	case *planner.MergeJoinNode:
		return NewMergeJoinExecutor(node)
	case *planner.ProjectionNode:
		return NewProjectionExecutor(node)
	case *planner.MaterializeNode:
		return NewMaterializeExecutor(node)
	default:
		slog.Warn("unsupported plan node type, skipping", "type", plan.NodeType().String())
		return nil
	}
}

// AddMaterialization wraps the root in a materialization when its plan kind
// leaves position indirection behind: scans, nested loop, limit.
func AddMaterialization(root Executor) Executor {
	if root == nil {
		return nil
	}
	plan := root.PlanNode()
	if plan == nil {
		return root
	}
	switch plan.NodeType() {
	case planner.PlanNodeSeqScan, planner.PlanNodeIndexScan,
		planner.PlanNodeNestedLoop, planner.PlanNodeLimit:
		wrapped := NewMaterializeExecutor(nil)
		wrapped.AddChild(root)
		return wrapped
	}
	return root
}

// CleanExecutorTree tears an executor tree down, children first.
func CleanExecutorTree(root Executor) {
	if root == nil {
		return
	}
	for _, child := range root.Children() {
		CleanExecutorTree(child)
	}
	if err := root.Close(); err != nil {
		slog.Warn("executor close failed", "err", err)
	}
}

// BuildParams snapshots the plan state's bound parameters; a missing
// parameter list is treated as empty.
func BuildParams(planState *planner.PlanState) []common.Value {
	if planState == nil || len(planState.ParamList) == 0 {
		return nil
	}
	params := make([]common.Value, len(planState.ParamList))
	for i, p := range planState.ParamList {
		params[i] = p.Value
	}
	return params
}

// ExecutePlan resolves or starts the transaction, builds and initializes
// the executor tree, pulls tiles until exhaustion, converts every visible
// result row through the transformer, and finishes the transaction: commit
// when it owns a successful one, abort on any failure. The tree is torn
// down on every exit path.
func (pe *PlanExecutor) ExecutePlan(plan planner.PlanNode, planState *planner.PlanState,
	transformer TupleTransformer, status *Status, txnID common.TransactionID) {

	common.Assert(plan != nil, "ExecutePlan requires a plan")
	logger := slog.With("statement_id", uuid.NewString(), "txn_id", uint64(txnID))

	singleStatementTxn := false
	txn, ok := pe.txnManager.GetTransaction(txnID)
	if !ok {
		// Single statement queries arrive without a started transaction.
		singleStatementTxn = true
		txn = pe.txnManager.StartTransaction(txnID)
	}

	params := BuildParams(planState)
	ctx := NewExecutorContext(txn, params, pe.tables)

	tree := pe.BuildExecutorTree(nil, plan, ctx)
	tree = AddMaterialization(tree)
	if tree == nil {
		logger.Error("plan produced no executors")
		txn.SetResult(common.ResultFailure)
		pe.finish(txn, true, status, logger)
		return
	}
	defer CleanExecutorTree(tree)

	initFailure := false
	if err := tree.Init(ctx); err != nil {
		logger.Error("executor tree init failed", "err", err)
		initFailure = true
		txn.SetResult(common.ResultFailure)
	} else {
		var slots []any
		for !ctx.Canceled() {
			if !tree.Execute() {
				if err := tree.Error(); err != nil {
					logger.Error("executor tree failed", "err", err)
					txn.SetResult(common.ResultFailure)
				}
				break
			}
			tile := tree.GetOutput()
			// Some executors never return tiles (the DML family).
			if tile == nil {
				continue
			}
			for row := 0; row < tile.TupleCount(); row++ {
				if !tile.RowVisible(row) {
					continue
				}
				slot, err := transformer.Transform(tile.MaterializeTuple(row))
				if err != nil {
					logger.Error("tuple transform failed", "err", err)
					txn.SetResult(common.ResultFailure)
					break
				}
				slots = append(slots, slot)
			}
		}
		if ctx.Canceled() {
			logger.Info("statement canceled")
			txn.SetResult(common.ResultFailure)
		}
		status.ResultSlots = slots
	}

	pe.finish(txn, singleStatementTxn || initFailure || ctx.Canceled() ||
		txn.Result() == common.ResultFailure, status, logger)
}

// finish commits or aborts when the driver is responsible for the
// transaction's fate, then records the final result.
func (pe *PlanExecutor) finish(txn *transaction.TransactionContext, ownsOutcome bool,
	status *Status, logger *slog.Logger) {

	if ownsOutcome {
		switch txn.Result() {
		case common.ResultSuccess:
			if err := pe.txnManager.Commit(txn); err != nil {
				logger.Error("commit rejected", "err", err)
				txn.SetResult(common.ResultFailure)
				_ = pe.txnManager.Abort(txn)
			} else {
				logger.Info("committed", "commit_id", uint64(txn.CommitID()))
			}
		default:
			logger.Info("aborting")
			_ = pe.txnManager.Abort(txn)
		}
	}
	status.Result = txn.Result()
}
