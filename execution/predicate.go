package execution

import (
	"github.com/YuNanlong/peloton-bwtree/expression"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// evalPredicate evaluates a predicate over up to two rows. A NULL-producing
// predicate does not qualify; only an explicit true does.
func evalPredicate(pred expression.Expr, left, right storage.Row, ctx *ExecutorContext) (bool, error) {
	v, err := pred.Evaluate(left, right, ctx.ExprContext())
	if err != nil {
		return false, err
	}
	return v.IsTrue(), nil
}
