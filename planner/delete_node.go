package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/common"
)

// DeleteNode deletes every row its child produces.
type DeleteNode struct {
	TableOid common.ObjectID
	Child    PlanNode
}

func NewDeleteNode(tableOid common.ObjectID, child PlanNode) *DeleteNode {
	return &DeleteNode{TableOid: tableOid, Child: child}
}

func (n *DeleteNode) NodeType() PlanNodeType { return PlanNodeDelete }

func (n *DeleteNode) Children() []PlanNode {
	if n.Child == nil {
		return nil
	}
	return []PlanNode{n.Child}
}

func (n *DeleteNode) String() string {
	return fmt.Sprintf("Delete: table(%d)", n.TableOid)
}
