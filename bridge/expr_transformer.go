// Package bridge translates the host front end's representations into the
// engine's own: expression trees and bound parameter lists. It sits at the
// boundary and is the only package that knows host node tags and function
// identifiers.
package bridge

import (
	"log/slog"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// ExprTag identifies a host expression node kind.
type ExprTag int

const (
	TagInvalid ExprTag = iota
	// TagConst is a literal constant.
	TagConst
	// TagVar is a column reference.
	TagVar
	// TagOpExpr is a binary operator application.
	TagOpExpr
)

// VarNo values distinguishing which of the two input tuples a Var reads. The
// host numbers the outer side specially; everything else is the scan tuple.
const OuterVar = 65001

// HostExpr is the host's expression tree, already type-resolved by its
// planner. Only the fields for the node's own tag are meaningful.
type HostExpr struct {
	Tag ExprTag

	// TagConst
	ConstValue  common.Value
	ConstIsNull bool

	// TagVar; AttNo is 1-indexed the way the host counts attributes.
	VarNo int
	AttNo int

	// TagOpExpr
	FuncID uint32
	Args   []*HostExpr
}

// TransformExpr converts a host expression tree into an engine expression
// tree. A nil input yields a nil tree (no predicate).
func TransformExpr(e *HostExpr) (expression.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Tag {
	case TagConst:
		return transformConstant(e), nil
	case TagVar:
		return transformVar(e), nil
	case TagOpExpr:
		return transformOp(e)
	}
	return nil, common.NewError(common.UnsupportedExpressionError,
		"unsupported host expression tag %d", e.Tag)
}

func transformConstant(e *HostExpr) expression.Expr {
	if e.ConstIsNull {
		return expression.NewConstant(common.NewNullValue(e.ConstValue.Type()))
	}
	return expression.NewConstant(e.ConstValue)
}

func transformVar(e *HostExpr) expression.Expr {
	tupleIdx := 0
	if e.VarNo == OuterVar {
		tupleIdx = 1
	}
	// Host attribute numbers are 1-indexed.
	return expression.NewTupleValue(tupleIdx, e.AttNo-1)
}

func transformOp(e *HostExpr) (expression.Expr, error) {
	var left, right expression.Expr
	var err error
	for i, arg := range e.Args {
		if i >= 2 {
			// Comparison operators are binary; extra arguments are ignored.
			break
		}
		var child expression.Expr
		child, err = TransformExpr(arg)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			left = child
		} else {
			right = child
		}
	}
	return remapHostFunc(e.FuncID, left, right)
}

// remapHostFunc maps the host's builtin comparison function identifiers onto
// the engine's comparison kinds. The identifiers come from the host's
// builtin function table.
func remapHostFunc(funcID uint32, left, right expression.Expr) (expression.Expr, error) {
	switch funcID {
	case 63, 65, 67, 158, 159:
		return expression.NewComparison(expression.CompareEqual, left, right), nil

	case 84, 144, 145, 157, 164, 165:
		return expression.NewComparison(expression.CompareNotEqual, left, right), nil

	default:
		slog.Error("unsupported host function id", "func_id", funcID)
		return nil, common.NewError(common.UnsupportedExpressionError,
			"unsupported host function id %d", funcID)
	}
}

// CleanExprTree releases a translated expression tree.
func CleanExprTree(root expression.Expr) {
	expression.CleanTree(root)
}
