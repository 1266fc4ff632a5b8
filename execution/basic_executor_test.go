package execution

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
	"github.com/YuNanlong/peloton-bwtree/indexing"
	"github.com/YuNanlong/peloton-bwtree/planner"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

type testEnv struct {
	t       *testing.T
	catalog *catalog.Catalog
	tables  *TableManager
	txns    *transaction.TransactionManager
	pe      *PlanExecutor
	nextTxn common.TransactionID
}

func newTestEnv(t *testing.T) *testEnv {
	tables := NewTableManager()
	txns := transaction.NewTransactionManager()
	return &testEnv{
		t:       t,
		catalog: catalog.NewCatalog(),
		tables:  tables,
		txns:    txns,
		pe:      NewPlanExecutor(txns, tables),
	}
}

func (env *testEnv) txnID() common.TransactionID {
	env.nextTxn++
	return env.nextTxn
}

func (env *testEnv) createTable(name string, columns []catalog.Column) *catalog.Table {
	table, err := env.catalog.CreateTable(name, catalog.NewSchema(columns))
	require.NoError(env.t, err)
	env.tables.RegisterTable(NewTableHeap(table))
	return table
}

func (env *testEnv) addIndex(table *catalog.Table, name string, keyColumns []int, unique bool) *catalog.IndexInfo {
	info, err := env.catalog.AddIndex(table.Oid, name, keyColumns, unique)
	require.NoError(env.t, err)
	env.tables.RegisterIndex(indexing.NewBWTreeIndex(&indexing.IndexMetadata{
		Oid:        info.Oid,
		TableOid:   table.Oid,
		Name:       name,
		KeyColumns: keyColumns,
		KeySchema:  table.Schema.Project(keyColumns),
		Unique:     unique,
	}))
	return info
}

// run executes a plan as its own single-statement transaction.
func (env *testEnv) run(plan planner.PlanNode) *Status {
	status := &Status{}
	env.pe.ExecutePlan(plan, nil, ValuesTransformer{}, status, env.txnID())
	return status
}

func (env *testEnv) seed(table *catalog.Table, rows [][]common.Value) {
	status := env.run(planner.NewInsertNode(table.Oid, rows, nil))
	require.Equal(env.t, common.ResultSuccess, status.Result)
}

func iv(n int32) common.Value  { return common.NewIntegerValue(n) }
func sv(s string) common.Value { return common.NewVarcharValue(s) }

func resultRows(status *Status) [][]common.Value {
	rows := make([][]common.Value, len(status.ResultSlots))
	for i, slot := range status.ResultSlots {
		rows[i] = slot.([]common.Value)
	}
	return rows
}

// sortByFirstInt orders result rows by their first column for set-style
// assertions; NULLs sort last.
func sortByFirstInt(rows [][]common.Value) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][0], rows[j][0]
		if a.IsNull() {
			return false
		}
		if b.IsNull() {
			return true
		}
		return a.IntValue() < b.IntValue()
	})
}

func colEq(col int, v common.Value) expression.Expr {
	return expression.NewComparison(expression.CompareEqual,
		expression.NewTupleValue(0, col), expression.NewConstant(v))
}

func testTableColumns() []catalog.Column {
	return []catalog.Column{
		{Name: "id", Type: common.IntegerType},
		{Name: "name", Type: common.VarcharType},
	}
}

func seedThreeRows(env *testEnv) *catalog.Table {
	table := env.createTable("test_table", testTableColumns())
	env.seed(table, [][]common.Value{
		{iv(1), sv("a")},
		{iv(2), sv("b")},
		{iv(3), sv("c")},
	})
	return table
}

func TestSeqScanAllRows(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	status := env.run(planner.NewSeqScanNode(table.Oid, nil, nil))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0][0].IntValue())
	assert.Equal(t, "a", rows[0][1].StringValue())
	assert.Equal(t, int64(3), rows[2][0].IntValue())
}

func TestSeqScanWithPredicate(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	predicate := expression.NewComparison(expression.CompareGreaterThan,
		expression.NewTupleValue(0, 0), expression.NewConstant(iv(1)))
	status := env.run(planner.NewSeqScanNode(table.Oid, predicate, nil))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0][0].IntValue())
	assert.Equal(t, "b", rows[0][1].StringValue())
	assert.Equal(t, int64(3), rows[1][0].IntValue())
	assert.Equal(t, "c", rows[1][1].StringValue())
}

func TestLimitZeroProducesNoRows(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	plan := planner.NewLimitNode(0, 0, planner.NewSeqScanNode(table.Oid, nil, nil))
	status := env.run(plan)
	require.Equal(t, common.ResultSuccess, status.Result)
	assert.Empty(t, status.ResultSlots)
}

func TestLimitWithOffset(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	plan := planner.NewLimitNode(2, 1, planner.NewSeqScanNode(table.Oid, nil, nil))
	status := env.run(plan)
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0][0].IntValue())
	assert.Equal(t, int64(3), rows[1][0].IntValue())
}

func TestProjectionReordersColumns(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	plan := planner.NewProjectionNode(
		[]expression.Expr{
			expression.NewTupleValue(0, 1),
			expression.NewTupleValue(0, 0),
		},
		catalog.NewSchema([]catalog.Column{
			{Name: "name", Type: common.VarcharType},
			{Name: "id", Type: common.IntegerType},
		}),
		planner.NewSeqScanNode(table.Oid, nil, nil))

	status := env.run(plan)
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0][0].StringValue())
	assert.Equal(t, int64(1), rows[0][1].IntValue())
}

func TestMaterializationDoesNotChangeRows(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	bare := env.run(planner.NewSeqScanNode(table.Oid, nil, nil))
	explicit := env.run(planner.NewMaterializeNode(planner.NewSeqScanNode(table.Oid, nil, nil)))
	require.Equal(t, common.ResultSuccess, bare.Result)
	require.Equal(t, common.ResultSuccess, explicit.Result)

	bareRows := resultRows(bare)
	explicitRows := resultRows(explicit)
	require.Equal(t, len(bareRows), len(explicitRows))
	for i := range bareRows {
		assert.Equal(t, bareRows[i][0].IntValue(), explicitRows[i][0].IntValue())
		assert.Equal(t, bareRows[i][1].StringValue(), explicitRows[i][1].StringValue())
	}
}

func TestInsertRollbackOnConstraintViolation(t *testing.T) {
	env := newTestEnv(t)
	table := env.createTable("accounts", testTableColumns())
	env.addIndex(table, "accounts_pkey", []int{0}, true)

	// The third tuple violates the unique index; the whole statement must
	// roll back.
	status := env.run(planner.NewInsertNode(table.Oid, [][]common.Value{
		{iv(1), sv("a")},
		{iv(2), sv("b")},
		{iv(1), sv("dup")},
	}, nil))
	assert.Equal(t, common.ResultAborted, status.Result)

	scan := env.run(planner.NewSeqScanNode(table.Oid, nil, nil))
	require.Equal(t, common.ResultSuccess, scan.Result)
	assert.Empty(t, scan.ResultSlots, "aborted inserts must not be visible")

	// The index undo must have released the keys again.
	retry := env.run(planner.NewInsertNode(table.Oid, [][]common.Value{
		{iv(1), sv("fresh")},
		{iv(2), sv("fresh")},
	}, nil))
	assert.Equal(t, common.ResultSuccess, retry.Result)

	scan = env.run(planner.NewSeqScanNode(table.Oid, nil, nil))
	assert.Len(t, scan.ResultSlots, 2)
}

func TestDeleteExecutor(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	del := planner.NewDeleteNode(table.Oid,
		planner.NewSeqScanNode(table.Oid, colEq(0, iv(2)), nil))
	status := env.run(del)
	require.Equal(t, common.ResultSuccess, status.Result)

	scan := env.run(planner.NewSeqScanNode(table.Oid, nil, nil))
	rows := resultRows(scan)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0][0].IntValue())
	assert.Equal(t, int64(3), rows[1][0].IntValue())
}

func TestUpdateExecutor(t *testing.T) {
	env := newTestEnv(t)
	table := env.createTable("users", testTableColumns())
	env.addIndex(table, "users_by_id", []int{0}, false)
	env.seed(table, [][]common.Value{
		{iv(1), sv("a")},
		{iv(2), sv("b")},
	})

	update := planner.NewUpdateNode(table.Oid,
		[]planner.TargetEntry{{ColumnIndex: 1, Expr: expression.NewConstant(sv("z"))}},
		planner.NewSeqScanNode(table.Oid, colEq(0, iv(2)), nil))
	status := env.run(update)
	require.Equal(t, common.ResultSuccess, status.Result)

	scan := env.run(planner.NewSeqScanNode(table.Oid, nil, nil))
	rows := resultRows(scan)
	sortByFirstInt(rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][1].StringValue())
	assert.Equal(t, "z", rows[1][1].StringValue())

	// The index must resolve the updated row, not the dead version.
	idxPlan := planner.NewIndexScanNode(table.Oid, table.Indexes[0].Oid)
	idxPlan.Low = []common.Value{iv(2)}
	idxPlan.High = []common.Value{iv(2)}
	idxStatus := env.run(idxPlan)
	require.Equal(t, common.ResultSuccess, idxStatus.Result)
	idxRows := resultRows(idxStatus)
	require.Len(t, idxRows, 1)
	assert.Equal(t, "z", idxRows[0][1].StringValue())
}

func TestIndexScanPointAndRange(t *testing.T) {
	env := newTestEnv(t)
	table := env.createTable("events", testTableColumns())
	env.addIndex(table, "events_by_id", []int{0}, false)
	env.seed(table, [][]common.Value{
		{iv(10), sv("x")},
		{iv(20), sv("y")},
		{iv(30), sv("z")},
	})
	indexOid := table.Indexes[0].Oid

	point := planner.NewIndexScanNode(table.Oid, indexOid)
	point.Low = []common.Value{iv(20)}
	point.High = []common.Value{iv(20)}
	status := env.run(point)
	require.Equal(t, common.ResultSuccess, status.Result)
	rows := resultRows(status)
	require.Len(t, rows, 1)
	assert.Equal(t, "y", rows[0][1].StringValue())

	ranged := planner.NewIndexScanNode(table.Oid, indexOid)
	ranged.Low = []common.Value{iv(15)}
	status = env.run(ranged)
	require.Equal(t, common.ResultSuccess, status.Result)
	rows = resultRows(status)
	sortByFirstInt(rows)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(20), rows[0][0].IntValue())
	assert.Equal(t, int64(30), rows[1][0].IntValue())

	filtered := planner.NewIndexScanNode(table.Oid, indexOid)
	filtered.Low = []common.Value{iv(15)}
	filtered.Predicate = expression.NewComparison(expression.CompareNotEqual,
		expression.NewTupleValue(0, 0), expression.NewConstant(iv(30)))
	status = env.run(filtered)
	require.Equal(t, common.ResultSuccess, status.Result)
	rows = resultRows(status)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(20), rows[0][0].IntValue())
}

func TestNestedLoopJoinInner(t *testing.T) {
	env := newTestEnv(t)
	left := env.createTable("lhs", []catalog.Column{{Name: "lk", Type: common.IntegerType}})
	right := env.createTable("rhs", []catalog.Column{{Name: "rk", Type: common.IntegerType}})
	env.seed(left, [][]common.Value{{iv(1)}, {iv(2)}, {iv(3)}})
	env.seed(right, [][]common.Value{{iv(2)}, {iv(4)}})

	join := planner.NewNestedLoopJoinNode(planner.JoinInner,
		expression.NewComparison(expression.CompareEqual,
			expression.NewTupleValue(0, 0), expression.NewTupleValue(1, 0)),
		planner.NewSeqScanNode(left.Oid, nil, nil),
		planner.NewSeqScanNode(right.Oid, nil, nil))
	join.LeftSchema = left.Schema
	join.RightSchema = right.Schema

	status := env.run(join)
	require.Equal(t, common.ResultSuccess, status.Result)
	rows := resultRows(status)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0][0].IntValue())
	assert.Equal(t, int64(2), rows[0][1].IntValue())
}

func TestNestedLoopJoinLeftOuter(t *testing.T) {
	env := newTestEnv(t)
	left := env.createTable("lhs", []catalog.Column{{Name: "lk", Type: common.IntegerType}})
	right := env.createTable("rhs", []catalog.Column{{Name: "rk", Type: common.IntegerType}})
	env.seed(left, [][]common.Value{{iv(1)}, {iv(2)}, {iv(3)}})
	env.seed(right, [][]common.Value{{iv(2)}, {iv(4)}})

	join := planner.NewNestedLoopJoinNode(planner.JoinLeftOuter,
		expression.NewComparison(expression.CompareEqual,
			expression.NewTupleValue(0, 0), expression.NewTupleValue(1, 0)),
		planner.NewSeqScanNode(left.Oid, nil, nil),
		planner.NewSeqScanNode(right.Oid, nil, nil))
	join.LeftSchema = left.Schema
	join.RightSchema = right.Schema

	status := env.run(join)
	require.Equal(t, common.ResultSuccess, status.Result)
	rows := resultRows(status)
	sortByFirstInt(rows)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(1), rows[0][0].IntValue())
	assert.True(t, rows[0][1].IsNull())
	assert.Equal(t, int64(2), rows[1][0].IntValue())
	assert.Equal(t, int64(2), rows[1][1].IntValue())
	assert.Equal(t, int64(3), rows[2][0].IntValue())
	assert.True(t, rows[2][1].IsNull())
}

// fakePlanNode is an unknown plan kind: the builder must log, skip it, and
// still walk its children.
type fakePlanNode struct {
	child planner.PlanNode
}

func (n *fakePlanNode) NodeType() planner.PlanNodeType { return planner.PlanNodeInvalid }
func (n *fakePlanNode) Children() []planner.PlanNode   { return []planner.PlanNode{n.child} }
func (n *fakePlanNode) String() string                 { return "Fake" }

func TestUnknownPlanNodeIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	table := seedThreeRows(env)

	plan := &fakePlanNode{child: planner.NewSeqScanNode(table.Oid, nil, nil)}
	status := env.run(plan)
	require.Equal(t, common.ResultSuccess, status.Result)
	assert.Len(t, status.ResultSlots, 3, "the scan child must survive the skipped node")
}

func TestInsertFromChildPlan(t *testing.T) {
	env := newTestEnv(t)
	src := seedThreeRows(env)
	dst := env.createTable("copy_table", testTableColumns())

	status := env.run(planner.NewInsertNode(dst.Oid, nil,
		planner.NewSeqScanNode(src.Oid, nil, nil)))
	require.Equal(t, common.ResultSuccess, status.Result)

	scan := env.run(planner.NewSeqScanNode(dst.Oid, nil, nil))
	assert.Len(t, scan.ResultSlots, 3)
}
