package indexing

import (
	"strings"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// Key is a composite search key: the projected index-key columns of a row,
// ordered lexicographically column by column.
type Key []common.Value

// CompareKeys orders two keys of the same arity.
func CompareKeys(a, b Key) int {
	common.Assert(len(a) == len(b), "cannot compare keys of arity %d and %d", len(a), len(b))
	for i := range a {
		if cmp := a[i].Compare(b[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// KeysEqual checks two keys for typed equality, column by column.
func KeysEqual(a, b Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// DeepCopy detaches the key from any buffer shared with the source row.
func (k Key) DeepCopy() Key {
	out := make(Key, len(k))
	copy(out, k)
	return out
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range k {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}

// BuildKey projects a row onto the given key columns.
func BuildKey(row storage.Row, keyColumns []int) Key {
	key := make(Key, len(keyColumns))
	for i, col := range keyColumns {
		key[i] = row.ColumnValue(col)
	}
	return key
}
