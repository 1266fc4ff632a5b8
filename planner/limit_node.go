package planner

import "fmt"

// LimitNode passes through up to Limit rows after skipping Offset rows.
type LimitNode struct {
	Limit  uint64
	Offset uint64
	Child  PlanNode
}

func NewLimitNode(limit, offset uint64, child PlanNode) *LimitNode {
	return &LimitNode{Limit: limit, Offset: offset, Child: child}
}

func (n *LimitNode) NodeType() PlanNodeType { return PlanNodeLimit }

func (n *LimitNode) Children() []PlanNode {
	if n.Child == nil {
		return nil
	}
	return []PlanNode{n.Child}
}

func (n *LimitNode) String() string {
	return fmt.Sprintf("Limit: limit(%d) offset(%d)", n.Limit, n.Offset)
}
