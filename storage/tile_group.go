package storage

import (
	"sync"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
)

// Snapshot decides per-row visibility from the transactional metadata on a
// tile group. The transaction layer implements it; storage only stores the
// begin/end transaction ids and asks.
type Snapshot interface {
	Visible(insertTxn, deleteTxn common.TransactionID) bool
}

// rowMeta carries the transactional lifetime of one row.
type rowMeta struct {
	insertTxn common.TransactionID
	deleteTxn common.TransactionID
}

// TileGroup pairs a base tile with per-row transactional metadata. Appends
// and delete-marking are serialized by a mutex; reads of the tile itself are
// unsynchronized because tiles are append-only and readers only address rows
// below the count they observed.
type TileGroup struct {
	id   int32
	tile *Tile

	mu   sync.Mutex
	meta []rowMeta
}

func NewTileGroup(id int32, schema *catalog.Schema, capacity int) *TileGroup {
	return &TileGroup{
		id:   id,
		tile: NewTile(schema, capacity),
		meta: make([]rowMeta, 0, capacity),
	}
}

func (g *TileGroup) ID() int32       { return g.id }
func (g *TileGroup) Tile() *Tile     { return g.tile }
func (g *TileGroup) TupleCount() int { return g.tile.TupleCount() }

// AppendTuple inserts a row owned by txn and returns its RecordID.
func (g *TileGroup) AppendTuple(txn common.TransactionID, values []common.Value) common.RecordID {
	g.mu.Lock()
	defer g.mu.Unlock()
	row := g.tile.AppendTuple(values)
	g.meta = append(g.meta, rowMeta{insertTxn: txn})
	return common.RecordID{Block: g.id, Offset: int32(row)}
}

// MarkDelete stamps the row as deleted by txn. It fails with a transaction
// conflict if another transaction already claimed the delete.
func (g *TileGroup) MarkDelete(txn common.TransactionID, offset int32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := &g.meta[offset]
	if m.deleteTxn != common.InvalidTransactionID && m.deleteTxn != txn {
		return common.NewError(common.TransactionConflictError,
			"row %d already deleted by txn %d", offset, m.deleteTxn)
	}
	m.deleteTxn = txn
	return nil
}

// ClearDelete rolls back a delete stamp set by an aborting transaction.
func (g *TileGroup) ClearDelete(txn common.TransactionID, offset int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.meta[offset].deleteTxn == txn {
		g.meta[offset].deleteTxn = common.InvalidTransactionID
	}
}

// InvalidateInsert makes a row inserted by an aborting transaction invisible
// forever by marking it deleted by its own inserter.
func (g *TileGroup) InvalidateInsert(txn common.TransactionID, offset int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.meta[offset].insertTxn == txn {
		g.meta[offset].deleteTxn = txn
	}
}

// VisibleRows collects the row offsets visible under the snapshot, up to the
// tuple count at call time.
func (g *TileGroup) VisibleRows(snapshot Snapshot) []int {
	count := g.tile.TupleCount()
	g.mu.Lock()
	defer g.mu.Unlock()
	rows := make([]int, 0, count)
	for i := 0; i < count; i++ {
		if snapshot.Visible(g.meta[i].insertTxn, g.meta[i].deleteTxn) {
			rows = append(rows, i)
		}
	}
	return rows
}

// RowVisible checks a single row offset against the snapshot.
func (g *TileGroup) RowVisible(snapshot Snapshot, offset int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(offset) >= len(g.meta) {
		return false
	}
	m := g.meta[offset]
	return snapshot.Visible(m.insertTxn, m.deleteTxn)
}
