package expression

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// ComparisonType enumerates the supported binary comparison operators.
type ComparisonType int

const (
	CompareEqual ComparisonType = iota
	CompareNotEqual
	CompareLessThan
	CompareLessThanOrEqual
	CompareGreaterThan
	CompareGreaterThanOrEqual
)

func (c ComparisonType) String() string {
	switch c {
	case CompareEqual:
		return "="
	case CompareNotEqual:
		return "!="
	case CompareLessThan:
		return "<"
	case CompareLessThanOrEqual:
		return "<="
	case CompareGreaterThan:
		return ">"
	case CompareGreaterThanOrEqual:
		return ">="
	}
	return "?"
}

// Context carries per-statement state an expression may consult during
// evaluation, currently just the bound parameter values.
type Context struct {
	Params []common.Value
}

// Expr is a node in an expression tree. Evaluation takes up to two tuples:
// column references with tuple index 0 select from left (the outer side),
// index 1 from right (the inner side). Unary trees ignore the second tuple.
type Expr interface {
	Evaluate(left, right storage.Row, ctx *Context) (common.Value, error)
	Children() []Expr
	String() string
}

// Constant is a literal value; it ignores both input tuples.
type Constant struct {
	value common.Value
}

func NewConstant(v common.Value) *Constant {
	return &Constant{value: v}
}

func (e *Constant) Evaluate(left, right storage.Row, ctx *Context) (common.Value, error) {
	return e.value, nil
}

func (e *Constant) Children() []Expr { return nil }

func (e *Constant) String() string {
	return e.value.String()
}

// TupleValue references a column of one of the two input tuples.
type TupleValue struct {
	TupleIndex  int
	ColumnIndex int
}

func NewTupleValue(tupleIndex, columnIndex int) *TupleValue {
	common.Assert(tupleIndex == 0 || tupleIndex == 1, "tuple index must be 0 or 1, got %d", tupleIndex)
	return &TupleValue{TupleIndex: tupleIndex, ColumnIndex: columnIndex}
}

func (e *TupleValue) Evaluate(left, right storage.Row, ctx *Context) (common.Value, error) {
	row := left
	if e.TupleIndex == 1 {
		row = right
	}
	if row == nil {
		return common.Value{}, common.NewError(common.BadColumnError,
			"column reference %s against missing tuple", e)
	}
	if e.ColumnIndex < 0 || e.ColumnIndex >= row.ColumnCount() {
		return common.Value{}, common.NewError(common.BadColumnError,
			"column index %d out of range [0, %d)", e.ColumnIndex, row.ColumnCount())
	}
	return row.ColumnValue(e.ColumnIndex), nil
}

func (e *TupleValue) Children() []Expr { return nil }

func (e *TupleValue) String() string {
	return fmt.Sprintf("t%d.c%d", e.TupleIndex, e.ColumnIndex)
}

// Comparison applies a binary comparison to its two children. Any NULL input
// yields boolean false: three-valued logic is not implemented, and operators
// treat false as "does not qualify".
type Comparison struct {
	op    ComparisonType
	left  Expr
	right Expr
}

func NewComparison(op ComparisonType, left, right Expr) *Comparison {
	return &Comparison{op: op, left: left, right: right}
}

func (e *Comparison) Evaluate(left, right storage.Row, ctx *Context) (common.Value, error) {
	lv, err := e.left.Evaluate(left, right, ctx)
	if err != nil {
		return common.Value{}, err
	}
	rv, err := e.right.Evaluate(left, right, ctx)
	if err != nil {
		return common.Value{}, err
	}
	if lv.IsNull() || rv.IsNull() {
		return common.NewBooleanValue(false), nil
	}
	if !lv.Comparable(rv) {
		return common.Value{}, common.NewError(common.TypeMismatchError,
			"cannot compare %s against %s", lv.Type(), rv.Type())
	}
	cmp := lv.Compare(rv)
	var result bool
	switch e.op {
	case CompareEqual:
		result = cmp == 0
	case CompareNotEqual:
		result = cmp != 0
	case CompareLessThan:
		result = cmp < 0
	case CompareLessThanOrEqual:
		result = cmp <= 0
	case CompareGreaterThan:
		result = cmp > 0
	case CompareGreaterThanOrEqual:
		result = cmp >= 0
	default:
		return common.Value{}, common.NewError(common.UnsupportedExpressionError,
			"unknown comparison type %d", e.op)
	}
	return common.NewBooleanValue(result), nil
}

func (e *Comparison) Children() []Expr { return []Expr{e.left, e.right} }

func (e *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left, e.op, e.right)
}

// CleanTree severs the links of an expression tree so a long-lived plan does
// not pin evaluated subtrees. Expression trees live for the lifetime of one
// query plan; after this call the tree must not be evaluated again.
func CleanTree(root Expr) {
	if root == nil {
		return
	}
	for _, child := range root.Children() {
		CleanTree(child)
	}
	if cmp, ok := root.(*Comparison); ok {
		cmp.left = nil
		cmp.right = nil
	}
}
