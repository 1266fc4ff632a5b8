package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/common"
)

// InsertNode inserts either literal tuples (INSERT ... VALUES) or, when a
// child plan is present, every row the child produces.
type InsertNode struct {
	TableOid common.ObjectID
	Tuples   [][]common.Value
	Child    PlanNode
}

func NewInsertNode(tableOid common.ObjectID, tuples [][]common.Value, child PlanNode) *InsertNode {
	return &InsertNode{TableOid: tableOid, Tuples: tuples, Child: child}
}

func (n *InsertNode) NodeType() PlanNodeType { return PlanNodeInsert }

func (n *InsertNode) Children() []PlanNode {
	if n.Child == nil {
		return nil
	}
	return []PlanNode{n.Child}
}

func (n *InsertNode) String() string {
	return fmt.Sprintf("Insert: table(%d) tuples(%d)", n.TableOid, len(n.Tuples))
}
