package indexing

import (
	"github.com/tidwall/btree"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

type btreeItem struct {
	key Key
	rid common.RecordID
}

// MemBTreeIndex is a single-writer-friendly alternative to the BW-tree
// index, wrapping a copy-on-write B-tree. Its snapshot iterators make it a
// convenient consistency oracle next to the lock-free index.
type MemBTreeIndex struct {
	tree     *btree.BTreeG[btreeItem]
	metadata *IndexMetadata
}

func NewMemBTreeIndex(metadata *IndexMetadata) *MemBTreeIndex {
	// Primary order by key, tie-broken by RecordID so non-unique keys keep
	// one tree item per row.
	less := func(a, b btreeItem) bool {
		if cmp := CompareKeys(a.key, b.key); cmp != 0 {
			return cmp < 0
		}
		if a.rid.Block != b.rid.Block {
			return a.rid.Block < b.rid.Block
		}
		return a.rid.Offset < b.rid.Offset
	}
	return &MemBTreeIndex{
		tree:     btree.NewBTreeG(less),
		metadata: metadata,
	}
}

func (idx *MemBTreeIndex) Metadata() *IndexMetadata {
	return idx.metadata
}

func (idx *MemBTreeIndex) InsertEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error {
	keyCopy := key.DeepCopy()
	if idx.metadata.Unique {
		if existing, err := idx.ScanKey(keyCopy, nil); err != nil {
			return err
		} else if len(existing) > 0 && existing[0] != rid {
			return common.NewError(common.ConstraintViolationError,
				"unique index %q rejects duplicate key %s", idx.metadata.Name, key)
		}
	}
	idx.tree.Set(btreeItem{key: keyCopy, rid: rid})
	if txn != nil {
		txn.AddUndo(transaction.UndoFunc(func() {
			idx.tree.Delete(btreeItem{key: keyCopy, rid: rid})
		}))
	}
	return nil
}

func (idx *MemBTreeIndex) DeleteEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error {
	keyCopy := key.DeepCopy()
	_, deleted := idx.tree.Delete(btreeItem{key: keyCopy, rid: rid})
	if deleted && txn != nil {
		txn.AddUndo(transaction.UndoFunc(func() {
			idx.tree.Set(btreeItem{key: keyCopy, rid: rid})
		}))
	}
	return nil
}

func (idx *MemBTreeIndex) ScanKey(key Key, output []common.RecordID) ([]common.RecordID, error) {
	pivot := btreeItem{key: key, rid: common.RecordID{Block: -1, Offset: -1}}
	idx.tree.Ascend(pivot, func(item btreeItem) bool {
		if !KeysEqual(item.key, key) {
			return false
		}
		output = append(output, item.rid)
		return true
	})
	return output, nil
}

func (idx *MemBTreeIndex) Scan(low, high Key, lowInclusive, highInclusive bool) (ScanIterator, error) {
	// Copy-on-write snapshot keeps the iterator consistent under writes.
	snapshot := idx.tree.Copy()
	iter := snapshot.Iter()
	return &memBTreeScanIterator{
		iter:    &iter,
		low:     low,
		high:    high,
		lowInc:  lowInclusive,
		highInc: highInclusive,
	}, nil
}

type memBTreeScanIterator struct {
	iter      *btree.IterG[btreeItem]
	low, high Key
	lowInc    bool
	highInc   bool
	started   bool
	done      bool
}

func (it *memBTreeScanIterator) Next() bool {
	if it.done {
		return false
	}
	for {
		var ok bool
		if !it.started {
			it.started = true
			if it.low != nil {
				ok = it.iter.Seek(btreeItem{key: it.low, rid: common.RecordID{Block: -1, Offset: -1}})
			} else {
				ok = it.iter.First()
			}
		} else {
			ok = it.iter.Next()
		}
		if !ok {
			it.done = true
			it.iter.Release()
			return false
		}
		item := it.iter.Item()
		if it.low != nil && !it.lowInc && CompareKeys(item.key, it.low) == 0 {
			continue
		}
		if it.high != nil {
			cmp := CompareKeys(item.key, it.high)
			if cmp > 0 || (cmp == 0 && !it.highInc) {
				it.done = true
				it.iter.Release()
				return false
			}
		}
		return true
	}
}

func (it *memBTreeScanIterator) Key() Key               { return it.iter.Item().key }
func (it *memBTreeScanIterator) Value() common.RecordID { return it.iter.Item().rid }
func (it *memBTreeScanIterator) Error() error           { return nil }
