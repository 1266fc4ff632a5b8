package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// TargetEntry assigns the result of an expression to one output column.
type TargetEntry struct {
	ColumnIndex int
	Expr        expression.Expr
}

// UpdateNode rewrites the target columns of every row its child produces.
type UpdateNode struct {
	TableOid common.ObjectID
	Targets  []TargetEntry
	Child    PlanNode
}

func NewUpdateNode(tableOid common.ObjectID, targets []TargetEntry, child PlanNode) *UpdateNode {
	return &UpdateNode{TableOid: tableOid, Targets: targets, Child: child}
}

func (n *UpdateNode) NodeType() PlanNodeType { return PlanNodeUpdate }

func (n *UpdateNode) Children() []PlanNode {
	if n.Child == nil {
		return nil
	}
	return []PlanNode{n.Child}
}

func (n *UpdateNode) String() string {
	return fmt.Sprintf("Update: table(%d) targets(%d)", n.TableOid, len(n.Targets))
}
