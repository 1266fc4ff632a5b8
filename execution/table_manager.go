package execution

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/YuNanlong/peloton-bwtree/common"
	"github.com/YuNanlong/peloton-bwtree/indexing"
)

// TableManager resolves catalog object ids to their runtime bodies: table
// heaps and index objects. Executors resolve through it during Init.
type TableManager struct {
	heaps        *xsync.MapOf[common.ObjectID, *TableHeap]
	indexes      *xsync.MapOf[common.ObjectID, indexing.Index]
	tableIndexes *xsync.MapOf[common.ObjectID, []indexing.Index]
}

func NewTableManager() *TableManager {
	return &TableManager{
		heaps:        xsync.NewMapOf[common.ObjectID, *TableHeap](),
		indexes:      xsync.NewMapOf[common.ObjectID, indexing.Index](),
		tableIndexes: xsync.NewMapOf[common.ObjectID, []indexing.Index](),
	}
}

func (tm *TableManager) RegisterTable(heap *TableHeap) {
	tm.heaps.Store(heap.Table().Oid, heap)
}

func (tm *TableManager) RegisterIndex(index indexing.Index) {
	md := index.Metadata()
	tm.indexes.Store(md.Oid, index)
	existing, _ := tm.tableIndexes.Load(md.TableOid)
	tm.tableIndexes.Store(md.TableOid, append(existing, index))
}

func (tm *TableManager) GetTable(oid common.ObjectID) (*TableHeap, error) {
	heap, ok := tm.heaps.Load(oid)
	if !ok {
		return nil, common.NewError(common.NoSuchObjectError, "no table heap for oid %d", oid)
	}
	return heap, nil
}

func (tm *TableManager) GetIndex(oid common.ObjectID) (indexing.Index, error) {
	index, ok := tm.indexes.Load(oid)
	if !ok {
		return nil, common.NewError(common.NoSuchObjectError, "no index for oid %d", oid)
	}
	return index, nil
}

// TableIndexes returns every index maintained over the given table.
func (tm *TableManager) TableIndexes(tableOid common.ObjectID) []indexing.Index {
	indexes, _ := tm.tableIndexes.Load(tableOid)
	return indexes
}
