package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/expression"
	"github.com/YuNanlong/peloton-bwtree/planner"
)

func mergeJoinEnv(t *testing.T, leftKeys, rightKeys []int32) (*testEnv, *catalog.Table, *catalog.Table) {
	env := newTestEnv(t)
	left := env.createTable("mj_left", []catalog.Column{{Name: "lk", Type: common.IntegerType}})
	right := env.createTable("mj_right", []catalog.Column{{Name: "rk", Type: common.IntegerType}})

	leftRows := make([][]common.Value, len(leftKeys))
	for i, k := range leftKeys {
		leftRows[i] = []common.Value{iv(k)}
	}
	rightRows := make([][]common.Value, len(rightKeys))
	for i, k := range rightKeys {
		rightRows[i] = []common.Value{iv(k)}
	}
	if len(leftRows) > 0 {
		env.seed(left, leftRows)
	}
	if len(rightRows) > 0 {
		env.seed(right, rightRows)
	}
	return env, left, right
}

func mergeJoinPlan(joinType planner.JoinType, predicate expression.Expr,
	left, right *catalog.Table) *planner.MergeJoinNode {

	plan := planner.NewMergeJoinNode(joinType, predicate,
		[]planner.JoinClause{{
			Left:  expression.NewTupleValue(0, 0),
			Right: expression.NewTupleValue(1, 0),
		}},
		planner.NewSeqScanNode(left.Oid, nil, nil),
		planner.NewSeqScanNode(right.Oid, nil, nil))
	plan.LeftSchema = left.Schema
	plan.RightSchema = right.Schema
	return plan
}

// The canonical equal-key-run case: left [1,1,2,3] and right [1,2,2,4]
// produce (L0,R0), (L1,R0), (L2,R1), (L2,R2).
func TestMergeJoinEqualKeyRuns(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{1, 1, 2, 3}, []int32{1, 2, 2, 4})

	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinInner, nil, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	require.Len(t, rows, 4)
	pairs := make([][2]int64, len(rows))
	for i, row := range rows {
		pairs[i] = [2]int64{row[0].IntValue(), row[1].IntValue()}
	}
	assert.ElementsMatch(t, [][2]int64{{1, 1}, {1, 1}, {2, 2}, {2, 2}}, pairs)
}

func TestMergeJoinNoMatches(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{1, 3, 5}, []int32{2, 4, 6})

	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinInner, nil, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)
	assert.Empty(t, status.ResultSlots)
}

func TestMergeJoinEmptyRightInner(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{1, 2, 3}, nil)

	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinInner, nil, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)
	assert.Empty(t, status.ResultSlots, "inner join with an empty side yields nothing")
}

func TestMergeJoinEmptyRightLeftOuter(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{1, 2, 3}, nil)

	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinLeftOuter, nil, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	sortByFirstInt(rows)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, int64(i+1), row[0].IntValue())
		assert.True(t, row[1].IsNull(), "padded right column must be NULL")
	}
}

func TestMergeJoinLeftOuterPadsUnmatchedRuns(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{1, 2, 3}, []int32{2})

	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinLeftOuter, nil, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	sortByFirstInt(rows)
	require.Len(t, rows, 3)
	assert.True(t, rows[0][1].IsNull())
	assert.Equal(t, int64(2), rows[1][1].IntValue())
	assert.True(t, rows[2][1].IsNull())
}

func TestMergeJoinRightOuter(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{2}, []int32{1, 2, 3})

	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinRightOuter, nil, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	require.Len(t, rows, 3)
	matched := 0
	padded := 0
	for _, row := range rows {
		if row[0].IsNull() {
			padded++
		} else {
			matched++
			assert.Equal(t, int64(2), row[0].IntValue())
			assert.Equal(t, int64(2), row[1].IntValue())
		}
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, 2, padded)
}

// A false join predicate is non-emitting and advances both runs.
func TestMergeJoinPredicateFalseAdvancesBoth(t *testing.T) {
	env, left, right := mergeJoinEnv(t, []int32{1, 1, 2, 3}, []int32{1, 2, 2, 4})

	alwaysFalse := expression.NewComparison(expression.CompareEqual,
		expression.NewConstant(iv(0)), expression.NewConstant(iv(1)))
	status := env.run(planner.NewMaterializeNode(
		mergeJoinPlan(planner.JoinInner, alwaysFalse, left, right)))
	require.Equal(t, common.ResultSuccess, status.Result)
	assert.Empty(t, status.ResultSlots)
}

func TestMergeJoinResidualPredicate(t *testing.T) {
	env := newTestEnv(t)
	left := env.createTable("orders", []catalog.Column{
		{Name: "k", Type: common.IntegerType},
		{Name: "qty", Type: common.IntegerType},
	})
	right := env.createTable("items", []catalog.Column{{Name: "k", Type: common.IntegerType}})
	env.seed(left, [][]common.Value{
		{iv(1), iv(10)},
		{iv(2), iv(0)},
		{iv(3), iv(7)},
	})
	env.seed(right, [][]common.Value{{iv(1)}, {iv(2)}, {iv(3)}})

	// Joins on k, but only emits runs whose qty is positive.
	predicate := expression.NewComparison(expression.CompareGreaterThan,
		expression.NewTupleValue(0, 1), expression.NewConstant(iv(0)))
	plan := planner.NewMergeJoinNode(planner.JoinInner, predicate,
		[]planner.JoinClause{{
			Left:  expression.NewTupleValue(0, 0),
			Right: expression.NewTupleValue(1, 0),
		}},
		planner.NewSeqScanNode(left.Oid, nil, nil),
		planner.NewSeqScanNode(right.Oid, nil, nil))
	plan.LeftSchema = left.Schema
	plan.RightSchema = right.Schema

	status := env.run(planner.NewMaterializeNode(plan))
	require.Equal(t, common.ResultSuccess, status.Result)

	rows := resultRows(status)
	sortByFirstInt(rows)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0][0].IntValue())
	assert.Equal(t, int64(3), rows[1][0].IntValue())
}
