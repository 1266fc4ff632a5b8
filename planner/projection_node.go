package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// ProjectionNode computes one output column per expression for every input
// row. The output schema is plan-specified.
type ProjectionNode struct {
	Expressions  []expression.Expr
	OutputSchema *catalog.Schema
	Child        PlanNode
}

func NewProjectionNode(expressions []expression.Expr, outputSchema *catalog.Schema, child PlanNode) *ProjectionNode {
	return &ProjectionNode{Expressions: expressions, OutputSchema: outputSchema, Child: child}
}

func (n *ProjectionNode) NodeType() PlanNodeType { return PlanNodeProjection }

func (n *ProjectionNode) Children() []PlanNode {
	if n.Child == nil {
		return nil
	}
	return []PlanNode{n.Child}
}

func (n *ProjectionNode) String() string {
	return fmt.Sprintf("Projection: exprs(%d)", len(n.Expressions))
}
