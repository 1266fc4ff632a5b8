package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// NestedLoopJoinNode joins its two children by rescanning the inner (right)
// child for every outer row. Inner and left-outer modes are supported. The
// side schemas describe the children's output shapes; outer padding falls
// back to them when the padded side never produced a tile.
type NestedLoopJoinNode struct {
	JoinType    JoinType
	Predicate   expression.Expr
	Left        PlanNode
	Right       PlanNode
	LeftSchema  *catalog.Schema
	RightSchema *catalog.Schema
}

func NewNestedLoopJoinNode(joinType JoinType, predicate expression.Expr, left, right PlanNode) *NestedLoopJoinNode {
	return &NestedLoopJoinNode{JoinType: joinType, Predicate: predicate, Left: left, Right: right}
}

func (n *NestedLoopJoinNode) NodeType() PlanNodeType { return PlanNodeNestedLoop }
func (n *NestedLoopJoinNode) Children() []PlanNode   { return []PlanNode{n.Left, n.Right} }

func (n *NestedLoopJoinNode) String() string {
	return fmt.Sprintf("NestedLoopJoin: %s predicate(%v)", n.JoinType, n.Predicate)
}
