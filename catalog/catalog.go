package catalog

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/YuNanlong/peloton-bwtree/common"
)

// IndexInfo describes an access path over a table. The physical index object
// lives in the indexing package; the catalog only records metadata.
type IndexInfo struct {
	Oid        common.ObjectID
	TableOid   common.ObjectID
	Name       string
	KeyColumns []int
	Unique     bool
}

// Table groups a schema and its index metadata under a unique ObjectID.
type Table struct {
	Oid     common.ObjectID
	Name    string
	Schema  *Schema
	Indexes []*IndexInfo
}

// Catalog is the in-memory schema registry. Lookups are lock-free; object
// creation is expected to be rare relative to query execution.
type Catalog struct {
	tables *xsync.MapOf[common.ObjectID, *Table]
	byName *xsync.MapOf[string, common.ObjectID]
	nextID atomic.Uint32
}

func NewCatalog() *Catalog {
	c := &Catalog{
		tables: xsync.NewMapOf[common.ObjectID, *Table](),
		byName: xsync.NewMapOf[string, common.ObjectID](),
	}
	c.nextID.Store(uint32(common.InvalidObjectID) + 1)
	return c
}

func (c *Catalog) allocateOid() common.ObjectID {
	return common.ObjectID(c.nextID.Add(1) - 1)
}

// CreateTable registers a new table and returns its metadata.
func (c *Catalog) CreateTable(name string, schema *Schema) (*Table, error) {
	if _, ok := c.byName.Load(name); ok {
		return nil, common.NewError(common.DuplicateObjectError, "table %q already exists", name)
	}
	table := &Table{
		Oid:    c.allocateOid(),
		Name:   name,
		Schema: schema,
	}
	c.tables.Store(table.Oid, table)
	c.byName.Store(name, table.Oid)
	return table, nil
}

// AddIndex records index metadata on an existing table.
func (c *Catalog) AddIndex(tableOid common.ObjectID, name string, keyColumns []int, unique bool) (*IndexInfo, error) {
	table, ok := c.tables.Load(tableOid)
	if !ok {
		return nil, common.NewError(common.NoSuchObjectError, "no table with oid %d", tableOid)
	}
	info := &IndexInfo{
		Oid:        c.allocateOid(),
		TableOid:   tableOid,
		Name:       name,
		KeyColumns: keyColumns,
		Unique:     unique,
	}
	table.Indexes = append(table.Indexes, info)
	return info, nil
}

func (c *Catalog) GetTable(oid common.ObjectID) (*Table, error) {
	table, ok := c.tables.Load(oid)
	if !ok {
		return nil, common.NewError(common.NoSuchObjectError, "no table with oid %d", oid)
	}
	return table, nil
}

func (c *Catalog) GetTableByName(name string) (*Table, error) {
	oid, ok := c.byName.Load(name)
	if !ok {
		return nil, common.NewError(common.NoSuchObjectError, "no table named %q", name)
	}
	return c.GetTable(oid)
}
