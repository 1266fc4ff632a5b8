package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

func testRow(values ...common.Value) storage.Row {
	cols := make([]catalog.Column, len(values))
	for i, v := range values {
		cols[i] = catalog.Column{Name: "c", Type: v.Type()}
	}
	return storage.NewTuple(catalog.NewSchema(cols), values)
}

func TestConstantEvaluate(t *testing.T) {
	expr := NewConstant(common.NewIntegerValue(42))
	v, err := expr.Evaluate(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.IntValue())
}

func TestTupleValueSelectsTuple(t *testing.T) {
	left := testRow(common.NewIntegerValue(1), common.NewVarcharValue("left"))
	right := testRow(common.NewVarcharValue("right"))

	v, err := NewTupleValue(0, 1).Evaluate(left, right, nil)
	require.NoError(t, err)
	assert.Equal(t, "left", v.StringValue())

	v, err = NewTupleValue(1, 0).Evaluate(left, right, nil)
	require.NoError(t, err)
	assert.Equal(t, "right", v.StringValue())
}

func TestTupleValueBadColumn(t *testing.T) {
	row := testRow(common.NewIntegerValue(1))

	_, err := NewTupleValue(0, 3).Evaluate(row, nil, nil)
	require.Error(t, err)
	assert.Equal(t, common.BadColumnError, common.CodeOf(err))

	_, err = NewTupleValue(1, 0).Evaluate(row, nil, nil)
	require.Error(t, err)
	assert.Equal(t, common.BadColumnError, common.CodeOf(err))
}

func TestComparisonOperators(t *testing.T) {
	row := testRow(common.NewIntegerValue(5))
	col := NewTupleValue(0, 0)

	cases := []struct {
		op       ComparisonType
		constant int32
		want     bool
	}{
		{CompareEqual, 5, true},
		{CompareEqual, 6, false},
		{CompareNotEqual, 6, true},
		{CompareLessThan, 6, true},
		{CompareLessThanOrEqual, 5, true},
		{CompareGreaterThan, 4, true},
		{CompareGreaterThan, 5, false},
		{CompareGreaterThanOrEqual, 5, true},
	}
	for _, tc := range cases {
		expr := NewComparison(tc.op, col, NewConstant(common.NewIntegerValue(tc.constant)))
		v, err := expr.Evaluate(row, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, v.BoolValue(), "5 %s %d", tc.op, tc.constant)
	}
}

func TestComparisonWidensNumericFamilies(t *testing.T) {
	expr := NewComparison(CompareLessThan,
		NewConstant(common.NewSmallIntValue(3)),
		NewConstant(common.NewDoubleValue(3.5)))
	v, err := expr.Evaluate(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, v.BoolValue())
}

func TestComparisonNullYieldsFalse(t *testing.T) {
	null := NewConstant(common.NewNullValue(common.IntegerType))
	five := NewConstant(common.NewIntegerValue(5))

	for _, op := range []ComparisonType{CompareEqual, CompareNotEqual, CompareLessThan} {
		v, err := NewComparison(op, null, five).Evaluate(nil, nil, nil)
		require.NoError(t, err)
		assert.True(t, v.IsFalse(), "NULL %s 5 must evaluate to false", op)

		v, err = NewComparison(op, null, null).Evaluate(nil, nil, nil)
		require.NoError(t, err)
		assert.True(t, v.IsFalse(), "NULL %s NULL must evaluate to false", op)
	}
}

func TestComparisonTypeMismatch(t *testing.T) {
	expr := NewComparison(CompareEqual,
		NewConstant(common.NewIntegerValue(1)),
		NewConstant(common.NewVarcharValue("1")))
	_, err := expr.Evaluate(nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, common.TypeMismatchError, common.CodeOf(err))
}
