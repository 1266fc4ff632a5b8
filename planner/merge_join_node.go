package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// JoinClause is one equality clause of a merge join: the left expression is
// evaluated against outer rows, the right against inner rows, and rows join
// when every clause compares equal.
type JoinClause struct {
	Left  expression.Expr
	Right expression.Expr
}

// MergeJoinNode joins two inputs that are sorted on the conjunctive
// equality-join keys in the same order. The plan is responsible for the sort
// precondition; the executor only assumes it.
type MergeJoinNode struct {
	JoinType    JoinType
	Predicate   expression.Expr
	JoinClauses []JoinClause
	Left        PlanNode
	Right       PlanNode
	// Side schemas let outer padding synthesize NULL columns when the padded
	// side never produced a tile.
	LeftSchema  *catalog.Schema
	RightSchema *catalog.Schema
}

func NewMergeJoinNode(joinType JoinType, predicate expression.Expr, clauses []JoinClause, left, right PlanNode) *MergeJoinNode {
	return &MergeJoinNode{JoinType: joinType, Predicate: predicate, JoinClauses: clauses, Left: left, Right: right}
}

func (n *MergeJoinNode) NodeType() PlanNodeType { return PlanNodeMergeJoin }
func (n *MergeJoinNode) Children() []PlanNode   { return []PlanNode{n.Left, n.Right} }

func (n *MergeJoinNode) String() string {
	return fmt.Sprintf("MergeJoin: %s clauses(%d)", n.JoinType, len(n.JoinClauses))
}
