package execution

import (
	"sync"

	"github.com/YuNanlong/peloton-bwtree/catalog"
	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/storage"
	"github.com/YuNanlong/peloton-bwtree/transaction"
)

// tuplesPerTileGroup is the append batch size; it also bounds the size of
// the logical tiles a sequential scan produces.
const tuplesPerTileGroup = 1024

// TableHeap is the in-memory table body: an append-only sequence of tile
// groups with per-row transactional metadata. Aborted inserts stay in the
// tiles but are never visible again.
type TableHeap struct {
	table *catalog.Table

	mu     sync.RWMutex
	groups []*storage.TileGroup
}

func NewTableHeap(table *catalog.Table) *TableHeap {
	return &TableHeap{table: table}
}

func (h *TableHeap) Table() *catalog.Table   { return h.table }
func (h *TableHeap) Schema() *catalog.Schema { return h.table.Schema }

func (h *TableHeap) GroupCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

func (h *TableHeap) Group(i int) *storage.TileGroup {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.groups[i]
}

func (h *TableHeap) group(rid common.RecordID) (*storage.TileGroup, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rid.Block < 0 || int(rid.Block) >= len(h.groups) {
		return nil, common.NewError(common.NoSuchObjectError,
			"table %q has no tile group %d", h.table.Name, rid.Block)
	}
	return h.groups[rid.Block], nil
}

// InsertTuple appends a row owned by txn and registers its undo. The row
// becomes visible to other transactions at commit.
func (h *TableHeap) InsertTuple(txn *transaction.TransactionContext, values []common.Value) (common.RecordID, error) {
	if len(values) != h.table.Schema.ColumnCount() {
		return common.InvalidRecordID, common.NewError(common.BadColumnError,
			"tuple arity %d does not match table %q arity %d",
			len(values), h.table.Name, h.table.Schema.ColumnCount())
	}
	for i, v := range values {
		if h.table.Schema.Column(i).NotNull && v.IsNull() {
			return common.InvalidRecordID, common.NewError(common.ConstraintViolationError,
				"column %q of table %q is not nullable", h.table.Schema.Column(i).Name, h.table.Name)
		}
	}

	h.mu.Lock()
	n := len(h.groups)
	if n == 0 || h.groups[n-1].TupleCount() >= tuplesPerTileGroup {
		h.groups = append(h.groups, storage.NewTileGroup(int32(n), h.table.Schema, tuplesPerTileGroup))
		n++
	}
	group := h.groups[n-1]
	h.mu.Unlock()

	rid := group.AppendTuple(txn.TransactionID(), values)
	txn.AddUndo(transaction.UndoFunc(func() {
		group.InvalidateInsert(txn.TransactionID(), rid.Offset)
	}))
	return rid, nil
}

// DeleteTuple stamps the row deleted by txn and registers its undo.
func (h *TableHeap) DeleteTuple(txn *transaction.TransactionContext, rid common.RecordID) error {
	group, err := h.group(rid)
	if err != nil {
		return err
	}
	if err := group.MarkDelete(txn.TransactionID(), rid.Offset); err != nil {
		return err
	}
	txn.AddUndo(transaction.UndoFunc(func() {
		group.ClearDelete(txn.TransactionID(), rid.Offset)
	}))
	return nil
}

// TupleAt materializes the row at rid regardless of visibility.
func (h *TableHeap) TupleAt(rid common.RecordID) (*storage.Tuple, error) {
	group, err := h.group(rid)
	if err != nil {
		return nil, err
	}
	tuple := group.Tile().TupleAt(int(rid.Offset))
	return storage.NewTupleWithRID(h.table.Schema, tuple.Values(), rid), nil
}

// RowVisible checks rid against the transaction snapshot.
func (h *TableHeap) RowVisible(txn *transaction.TransactionContext, rid common.RecordID) bool {
	group, err := h.group(rid)
	if err != nil {
		return false
	}
	return group.RowVisible(txn, rid.Offset)
}
