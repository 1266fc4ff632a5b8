package indexing

import (
	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

// IndexMetadata describes the structure of an index and how it relates to
// the base table.
type IndexMetadata struct {
	Oid      common.ObjectID
	TableOid common.ObjectID
	Name     string
	// KeyColumns maps key field i to the base-table column it projects.
	KeyColumns []int
	// KeySchema is the schema of the projected key columns.
	KeySchema *catalog.Schema
	// Unique forbids a second row under an existing key.
	Unique bool
}

// AsKey projects a base-table row onto this index's key columns.
func (md *IndexMetadata) AsKey(row storage.Row) Key {
	return BuildKey(row, md.KeyColumns)
}

// Index maps a search key (a projected subset of tuple fields) to the
// RecordIDs of the rows carrying it. Mutations registered with a
// transaction are undone if the transaction aborts.
type Index interface {
	Metadata() *IndexMetadata

	// InsertEntry adds a mapping from key to rid. It fails with a
	// constraint violation when the index is unique and another row already
	// holds the key.
	InsertEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error

	// DeleteEntry removes the mapping between key and rid.
	DeleteEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error

	// ScanKey performs a point lookup, appending every RecordID under the
	// exact key to output.
	ScanKey(key Key, output []common.RecordID) ([]common.RecordID, error)

	// Scan returns an iterator over the key window; a nil bound is open on
	// that side. Pairs come back in key order.
	Scan(low, high Key, lowInclusive, highInclusive bool) (ScanIterator, error)
}

// ScanIterator iterates over the results of a range scan.
type ScanIterator interface {
	// Next advances the iterator; false once the scan is exhausted.
	Next() bool

	// Key returns the current key at the cursor.
	Key() Key

	// Value returns the current RecordID at the cursor.
	Value() common.RecordID

	// Error returns the first unexpected error encountered by the iterator.
	Error() error
}
