package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
)

func intKey(n int32) Key {
	return Key{common.NewIntegerValue(n)}
}

func rid(block, offset int32) common.RecordID {
	return common.RecordID{Block: block, Offset: offset}
}

func testMetadata(unique bool) *IndexMetadata {
	return &IndexMetadata{
		Oid:        1,
		TableOid:   1,
		Name:       "test_index",
		KeyColumns: []int{0},
		KeySchema:  catalog.NewSchema([]catalog.Column{{Name: "k", Type: common.IntegerType}}),
		Unique:     unique,
	}
}

// Both implementations must satisfy the same contract; run the suite over
// each.
func indexImplementations(unique bool) map[string]Index {
	return map[string]Index{
		"bwtree":    NewBWTreeIndex(testMetadata(unique)),
		"mem_btree": NewMemBTreeIndex(testMetadata(unique)),
	}
}

func TestIndexInsertAndScanKey(t *testing.T) {
	for name, idx := range indexImplementations(false) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.InsertEntry(intKey(5), rid(0, 1), nil))
			require.NoError(t, idx.InsertEntry(intKey(5), rid(0, 2), nil))
			require.NoError(t, idx.InsertEntry(intKey(9), rid(0, 3), nil))

			rids, err := idx.ScanKey(intKey(5), nil)
			require.NoError(t, err)
			assert.ElementsMatch(t, []common.RecordID{rid(0, 1), rid(0, 2)}, rids)

			rids, err = idx.ScanKey(intKey(7), nil)
			require.NoError(t, err)
			assert.Empty(t, rids)
		})
	}
}

func TestIndexDelete(t *testing.T) {
	for name, idx := range indexImplementations(false) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.InsertEntry(intKey(5), rid(0, 1), nil))
			require.NoError(t, idx.InsertEntry(intKey(5), rid(0, 2), nil))
			require.NoError(t, idx.DeleteEntry(intKey(5), rid(0, 1), nil))

			rids, err := idx.ScanKey(intKey(5), nil)
			require.NoError(t, err)
			assert.Equal(t, []common.RecordID{rid(0, 2)}, rids)
		})
	}
}

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	for name, idx := range indexImplementations(true) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.InsertEntry(intKey(5), rid(0, 1), nil))

			err := idx.InsertEntry(intKey(5), rid(0, 2), nil)
			require.Error(t, err)
			assert.Equal(t, common.ConstraintViolationError, common.CodeOf(err))

			rids, err := idx.ScanKey(intKey(5), nil)
			require.NoError(t, err)
			assert.Equal(t, []common.RecordID{rid(0, 1)}, rids)
		})
	}
}

func TestIndexRangeScan(t *testing.T) {
	for name, idx := range indexImplementations(false) {
		t.Run(name, func(t *testing.T) {
			for i := int32(0); i < 50; i++ {
				require.NoError(t, idx.InsertEntry(intKey(i), rid(0, i), nil))
			}

			iter, err := idx.Scan(intKey(10), intKey(20), true, false)
			require.NoError(t, err)
			var keys []int64
			for iter.Next() {
				keys = append(keys, iter.Key()[0].IntValue())
			}
			require.NoError(t, iter.Error())
			require.Len(t, keys, 10)
			for i, k := range keys {
				assert.Equal(t, int64(10+i), k)
			}
		})
	}
}

func TestIndexOpenEndedScan(t *testing.T) {
	for name, idx := range indexImplementations(false) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []int32{3, 1, 2} {
				require.NoError(t, idx.InsertEntry(intKey(k), rid(0, k), nil))
			}

			iter, err := idx.Scan(nil, nil, true, true)
			require.NoError(t, err)
			var keys []int64
			for iter.Next() {
				keys = append(keys, iter.Key()[0].IntValue())
			}
			require.NoError(t, iter.Error())
			assert.Equal(t, []int64{1, 2, 3}, keys)
		})
	}
}

func TestCompareKeysLexicographic(t *testing.T) {
	a := Key{common.NewIntegerValue(1), common.NewVarcharValue("b")}
	b := Key{common.NewIntegerValue(1), common.NewVarcharValue("c")}
	c := Key{common.NewIntegerValue(2), common.NewVarcharValue("a")}

	assert.Negative(t, CompareKeys(a, b))
	assert.Negative(t, CompareKeys(b, c))
	assert.Zero(t, CompareKeys(a, a))
	assert.True(t, KeysEqual(a, a))
	assert.False(t, KeysEqual(a, b))
}
