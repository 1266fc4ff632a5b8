// Package pelotonbwtree is an experimental in-memory relational engine
// core: a pull-based, tile-at-a-time query executor under transactional
// control, paired with a lock-free BW-tree index.
//
// The packages layer bottom-up:
//
//   - common: the tagged Value type system, object/record/transaction ids,
//     and the engine error taxonomy.
//   - catalog: schemas and the table/index metadata registry.
//   - storage: columnar base tiles and tile groups with per-row
//     transactional metadata.
//   - expression: constant / column-reference / comparison trees evaluated
//     over a pair of rows.
//   - bwtree: the concurrent ordered index; all mutations are CAS-published
//     delta records over a mapping table, reclaimed under epochs.
//   - indexing: the Index contract plus the BW-tree-backed and B-tree-backed
//     implementations.
//   - planner: plan node kinds and plan state.
//   - bridge: translation from the host front end's expression trees.
//   - execution: logical tiles, one executor per plan kind, and the plan
//     executor that builds, drives and tears down executor trees.
//   - transaction: transaction contexts with undo stacks and the manager
//     that decides commit and abort.
package pelotonbwtree
