package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// IndexScanNode scans an index over the key window [Low, High] with the
// given inclusivity; a nil bound leaves that side open. When Low and High
// pin the same key the executor uses a point lookup instead of a range
// scan. The residual predicate is applied per matching row.
type IndexScanNode struct {
	TableOid      common.ObjectID
	IndexOid      common.ObjectID
	Low, High     []common.Value
	LowInclusive  bool
	HighInclusive bool
	Predicate     expression.Expr
	ColumnIDs     []int
}

func NewIndexScanNode(tableOid, indexOid common.ObjectID) *IndexScanNode {
	return &IndexScanNode{TableOid: tableOid, IndexOid: indexOid, LowInclusive: true, HighInclusive: true}
}

func (n *IndexScanNode) NodeType() PlanNodeType { return PlanNodeIndexScan }
func (n *IndexScanNode) Children() []PlanNode   { return nil }

func (n *IndexScanNode) String() string {
	return fmt.Sprintf("IndexScan: table(%d) index(%d)", n.TableOid, n.IndexOid)
}
