package indexing

import (
	"github.com/YuNanlong/peloton-bwtree/bwtree"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

// BWTreeIndex is the primary ordered index: a lock-free BW-tree mapping
// composite keys to RecordIDs. Unique indexes disallow duplicate keys at the
// tree level, so concurrent inserters race on the same CAS and exactly one
// wins.
type BWTreeIndex struct {
	tree     *bwtree.BWTree[Key, common.RecordID]
	metadata *IndexMetadata
}

func NewBWTreeIndex(metadata *IndexMetadata) *BWTreeIndex {
	return &BWTreeIndex{
		tree: bwtree.New[Key, common.RecordID](
			CompareKeys,
			KeysEqual,
			func(a, b common.RecordID) bool { return a == b },
			bwtree.Options{AllowDuplicates: !metadata.Unique},
		),
		metadata: metadata,
	}
}

func (idx *BWTreeIndex) Metadata() *IndexMetadata {
	return idx.metadata
}

func (idx *BWTreeIndex) InsertEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error {
	keyCopy := key.DeepCopy()
	inserted, err := idx.tree.Insert(keyCopy, rid)
	if err != nil {
		return err
	}
	if !inserted {
		return common.NewError(common.ConstraintViolationError,
			"unique index %q rejects duplicate key %s", idx.metadata.Name, key)
	}
	if txn != nil {
		txn.AddUndo(transaction.UndoFunc(func() {
			_, _ = idx.tree.Delete(keyCopy, rid)
		}))
	}
	return nil
}

func (idx *BWTreeIndex) DeleteEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error {
	keyCopy := key.DeepCopy()
	deleted, err := idx.tree.Delete(keyCopy, rid)
	if err != nil {
		return err
	}
	if deleted && txn != nil {
		txn.AddUndo(transaction.UndoFunc(func() {
			_, _ = idx.tree.Insert(keyCopy, rid)
		}))
	}
	return nil
}

func (idx *BWTreeIndex) ScanKey(key Key, output []common.RecordID) ([]common.RecordID, error) {
	values, err := idx.tree.Search(key)
	if err != nil {
		return output, err
	}
	return append(output, values...), nil
}

func (idx *BWTreeIndex) Scan(low, high Key, lowInclusive, highInclusive bool) (ScanIterator, error) {
	var lowPtr, highPtr *Key
	if low != nil {
		lowPtr = &low
	}
	if high != nil {
		highPtr = &high
	}
	return &bwtreeScanIterator{
		iter: idx.tree.RangeScan(lowPtr, highPtr, lowInclusive, highInclusive),
	}, nil
}

type bwtreeScanIterator struct {
	iter *bwtree.Iterator[Key, common.RecordID]
}

func (it *bwtreeScanIterator) Next() bool             { return it.iter.Next() }
func (it *bwtreeScanIterator) Key() Key               { return it.iter.Key() }
func (it *bwtreeScanIterator) Value() common.RecordID { return it.iter.Value() }
func (it *bwtreeScanIterator) Error() error           { return it.iter.Error() }
