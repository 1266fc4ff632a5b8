package planner

import (
	"fmt"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
)

// SeqScanNode scans a full table, applying an optional residual predicate.
type SeqScanNode struct {
	TableOid  common.ObjectID
	Predicate expression.Expr
	// ColumnIDs selects which table columns the produced tiles expose; empty
	// means all of them.
	ColumnIDs []int
}

func NewSeqScanNode(tableOid common.ObjectID, predicate expression.Expr, columnIDs []int) *SeqScanNode {
	return &SeqScanNode{TableOid: tableOid, Predicate: predicate, ColumnIDs: columnIDs}
}

func (n *SeqScanNode) NodeType() PlanNodeType { return PlanNodeSeqScan }
func (n *SeqScanNode) Children() []PlanNode   { return nil }

func (n *SeqScanNode) String() string {
	return fmt.Sprintf("SeqScan: table(%d) predicate(%v)", n.TableOid, n.Predicate)
}
