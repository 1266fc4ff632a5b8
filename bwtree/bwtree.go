// Package bwtree implements a lock-free ordered index in the style of the
// Bw-Tree: a mapping table from page ids to chains of immutable delta
// records, mutated only by compare-and-swap on the chain head, with
// epoch-based deferred reclamation of superseded chains.
package bwtree

import (
	"github.com/YuNanlong/peloton-bwtree/common"
)

// CompareFunc orders two keys: negative, zero, positive.
type CompareFunc[K any] func(a, b K) int

// EqualsFunc checks two keys or values for equality.
type EqualsFunc[T any] func(a, b T) bool

// Options tune structure maintenance. Zero values select the defaults.
type Options struct {
	// AllowDuplicates permits multiple values under one key. A duplicate
	// (key, value) pair is never stored twice either way.
	AllowDuplicates bool
	// DeltaChainThreshold is the chain length past which a successful insert
	// or delete consolidates the page.
	DeltaChainThreshold int
	// SplitThreshold is the collapsed leaf size past which a leaf splits.
	SplitThreshold int
}

const (
	defaultDeltaChainThreshold = 8
	defaultSplitThreshold      = 64

	// maxChainWalk bounds a single chain walk; a longer chain means a
	// missing base page.
	maxChainWalk = 1 << 14

	// maxDescendSteps bounds one descent; exceeding it means the routing
	// records form a cycle.
	maxDescendSteps = 1 << 16
)

// BWTree is a concurrent ordered map from K to sets of V. All mutations
// prepend immutable delta records to per-page chains and publish them with a
// single CAS on the mapping table; readers never block writers and vice
// versa.
type BWTree[K, V any] struct {
	table  *mappingTable[K, V]
	epochs *epochManager

	cmp   CompareFunc[K]
	keyEq EqualsFunc[K]
	valEq EqualsFunc[V]

	opts Options
}

// New constructs a tree. The root page id is fixed and initially holds an
// empty inner base page; the first insert installs the first leaf over it.
func New[K, V any](cmp CompareFunc[K], keyEq EqualsFunc[K], valEq EqualsFunc[V], opts Options) *BWTree[K, V] {
	if opts.DeltaChainThreshold <= 0 {
		opts.DeltaChainThreshold = defaultDeltaChainThreshold
	}
	if opts.SplitThreshold <= 0 {
		opts.SplitThreshold = defaultSplitThreshold
	}
	t := &BWTree[K, V]{
		table:  newMappingTable[K, V](),
		epochs: newEpochManager(),
		cmp:    cmp,
		keyEq:  keyEq,
		valEq:  valEq,
		opts:   opts,
	}
	pid, err := t.table.allocate()
	common.Assert(err == nil && pid == rootPID, "root allocation must yield pid 0")
	t.table.install(rootPID, &innerNode[K, V]{})
	return t
}

// searchTarget is a descent probe: a key, optionally shifted an epsilon to
// the right (after) so range scans can step past a leaf's high key, or the
// absolute leftmost position.
type searchTarget[K any] struct {
	key      K
	after    bool
	leftmost bool
}

func pointTarget[K any](key K) searchTarget[K] {
	return searchTarget[K]{key: key}
}

// routeCompare orders the probe against a boundary key.
func (t *BWTree[K, V]) routeCompare(target searchTarget[K], boundary K) int {
	if target.leftmost {
		return -1
	}
	c := t.cmp(target.key, boundary)
	if c == 0 && target.after {
		c = 1
	}
	return c
}

// within reports whether the probe falls in (low, high] under the absolute
// flags.
func (t *BWTree[K, V]) within(target searchTarget[K], low, high K, absMin, absMax bool) bool {
	if !absMin && t.routeCompare(target, low) <= 0 {
		return false
	}
	if !absMax && t.routeCompare(target, high) > 0 {
		return false
	}
	return true
}

// leafRef is the result of a descent: the leaf's page id, the chain head
// cell observed on arrival (the CAS anchor), and the collapsed view of the
// chain at that point.
type leafRef[K, V any] struct {
	pid      PID
	parent   PID
	cell     *chainCell[K, V]
	view     *leafNode[K, V]
	chainLen int

	// emptyRoot is set when the tree has never been inserted into.
	emptyRoot bool
}

// descend walks from the root to the leaf responsible for the probe.
func (t *BWTree[K, V]) descend(target searchTarget[K]) (leafRef[K, V], error) {
	pid := rootPID
	parent := rootPID
	steps := 0
	for {
		if steps++; steps > maxDescendSteps {
			return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
				"descent did not terminate; routing records form a cycle")
		}
		cell := t.table.load(pid)
		if cell == nil {
			return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
				"mapping table slot %d is empty", pid)
		}
		p := cell.head
		walked := 0
		redirected := false
		for p != nil && !redirected {
			if walked++; walked > maxChainWalk {
				return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
					"delta chain for pid %d has no base page", pid)
			}
			switch d := p.(type) {
			case *indexTermDelta[K, V]:
				if t.within(target, d.lowSep, d.highSep, d.absMin, d.absMax) {
					parent = pid
					pid = d.child
					redirected = true
					continue
				}
				p = d.next
			case *splitDelta[K, V]:
				if t.routeCompare(target, d.splitKey) > 0 {
					pid = d.sibling
					redirected = true
					continue
				}
				p = d.next
			case *removeNodeDelta[K, V]:
				pid = d.leftSibling
				redirected = true
			case *nodeMergeDelta[K, V]:
				if t.routeCompare(target, d.mergeKey) > 0 {
					p = d.merged
					continue
				}
				p = d.next
			case *modifyDelta[K, V]:
				p = d.next
			case *innerNode[K, V]:
				if len(d.entries) == 0 {
					if pid != rootPID {
						return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
							"empty inner base page below the root (pid %d)", pid)
					}
					return leafRef[K, V]{pid: pid, cell: cell, emptyRoot: true}, nil
				}
				child, ok := t.searchInner(d, target)
				if !ok {
					return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
						"inner page %d has no child covering the probe", pid)
				}
				parent = pid
				pid = child
				redirected = true
			case *leafNode[K, V]:
				view, err := t.collapseLeaf(cell.head)
				if err != nil {
					return leafRef[K, V]{}, err
				}
				return leafRef[K, V]{
					pid:      pid,
					parent:   parent,
					cell:     cell,
					view:     view,
					chainLen: walked,
				}, nil
			default:
				return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
					"unrecognized page kind %v", p.kind())
			}
		}
		if !redirected {
			return leafRef[K, V]{}, common.NewError(common.IndexCorruptionError,
				"delta chain for pid %d terminated without a base page", pid)
		}
	}
}

// searchInner resolves the child covering the probe by binary search over
// the entries' high separators, then verifies containment.
func (t *BWTree[K, V]) searchInner(n *innerNode[K, V], target searchTarget[K]) (PID, bool) {
	lo, hi := 0, len(n.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		e := n.entries[mid]
		if !e.absMax && t.routeCompare(target, e.highSep) > 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for i := lo; i < len(n.entries); i++ {
		e := n.entries[i]
		if t.within(target, e.lowSep, e.highSep, e.absMin, e.absMax) {
			return e.child, true
		}
	}
	return 0, false
}

// Insert adds (key, value). When duplicates are allowed it returns true when
// the pair is present in the tree afterwards, and a pair already present
// reports true without changing anything. When duplicates are disallowed any
// insert under an existing key, including an identical pair, reports false.
func (t *BWTree[K, V]) Insert(key K, value V) (bool, error) {
	guard := t.epochs.enter()
	defer guard.leave()

	for {
		ref, err := t.descend(pointTarget(key))
		if err != nil {
			return false, err
		}
		if ref.emptyRoot {
			installed, err := t.bootstrap(ref, key, value)
			if err != nil {
				return false, err
			}
			if installed {
				return true, nil
			}
			continue
		}

		existing := t.lookupLeaf(ref.view, key)
		if len(existing) > 0 {
			if !t.opts.AllowDuplicates {
				return false, nil
			}
			if containsValue(t.valEq, existing, value) {
				return true, nil
			}
		}
		values := make([]V, 0, len(existing)+1)
		values = append(values, existing...)
		values = append(values, value)

		delta := &modifyDelta[K, V]{key: key, values: values, next: ref.cell.head}
		if t.table.cas(ref.pid, ref.cell, delta) != nil {
			t.epochs.retire(ref.cell)
			t.maintain(ref.pid, ref.parent, ref.chainLen+1)
			return true, nil
		}
		t.epochs.retire(delta)
	}
}

// Delete removes the specific (key, value) pair. Returns true if it was
// found and removed.
func (t *BWTree[K, V]) Delete(key K, value V) (bool, error) {
	guard := t.epochs.enter()
	defer guard.leave()

	for {
		ref, err := t.descend(pointTarget(key))
		if err != nil {
			return false, err
		}
		if ref.emptyRoot {
			return false, nil
		}

		existing := t.lookupLeaf(ref.view, key)
		if !containsValue(t.valEq, existing, value) {
			return false, nil
		}
		values := make([]V, 0, len(existing)-1)
		for _, v := range existing {
			if !t.valEq(v, value) {
				values = append(values, v)
			}
		}

		delta := &modifyDelta[K, V]{key: key, values: values, next: ref.cell.head}
		if t.table.cas(ref.pid, ref.cell, delta) != nil {
			t.epochs.retire(ref.cell)
			if len(values) == 0 {
				t.tryMerge(ref.pid, ref.parent)
			}
			t.maintain(ref.pid, ref.parent, ref.chainLen+1)
			return true, nil
		}
		t.epochs.retire(delta)
	}
}

// Search returns the current set of values associated with key; empty if
// none.
func (t *BWTree[K, V]) Search(key K) ([]V, error) {
	guard := t.epochs.enter()
	defer guard.leave()

	ref, err := t.descend(pointTarget(key))
	if err != nil {
		return nil, err
	}
	if ref.emptyRoot {
		return nil, nil
	}
	values := t.lookupLeaf(ref.view, key)
	out := make([]V, len(values))
	copy(out, values)
	return out, nil
}

// bootstrap installs the first leaf over the empty root: a fresh leaf page
// plus an index-term delta with absolute min/max flags, published by CAS on
// the root slot. On CAS failure the leaf page id is handed back and the
// caller retries from scratch.
func (t *BWTree[K, V]) bootstrap(ref leafRef[K, V], key K, value V) (bool, error) {
	leaf := &leafNode[K, V]{
		items:  []leafItem[K, V]{{key: key, values: []V{value}}},
		lowKey: key, highKey: key,
		absMin: true, absMax: true,
	}
	leafPID, err := t.table.allocate()
	if err != nil {
		return false, err
	}
	t.table.install(leafPID, leaf)

	delta := &indexTermDelta[K, V]{
		lowSep: key, highSep: key,
		absMin: true, absMax: true,
		child: leafPID,
		next:  ref.cell.head,
	}
	if t.table.cas(rootPID, ref.cell, delta) != nil {
		t.epochs.retire(ref.cell)
		return true, nil
	}
	t.table.free(leafPID)
	t.epochs.retire(delta)
	return false, nil
}

// lookupLeaf binary-searches a collapsed leaf for key.
func (t *BWTree[K, V]) lookupLeaf(view *leafNode[K, V], key K) []V {
	items := view.items
	lo, hi := 0, len(items)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.cmp(items[mid].key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(items) && t.keyEq(items[lo].key, key) {
		return items[lo].values
	}
	return nil
}

func containsValue[V any](eq EqualsFunc[V], values []V, v V) bool {
	for _, existing := range values {
		if eq(existing, v) {
			return true
		}
	}
	return false
}

// maintain runs best-effort structure maintenance after a successful
// publication: consolidation past the chain-length threshold, then a split
// check on the consolidated view.
func (t *BWTree[K, V]) maintain(pid, parent PID, chainLen int) {
	if chainLen > t.opts.DeltaChainThreshold {
		t.consolidateLeaf(pid)
	}
	t.trySplit(pid, parent)
	if chainLen > t.opts.DeltaChainThreshold {
		t.consolidateInner(parent)
	}
}

// consolidateLeaf flattens a leaf chain into a fresh base page.
func (t *BWTree[K, V]) consolidateLeaf(pid PID) {
	cell := t.table.load(pid)
	if cell == nil {
		return
	}
	if _, ok := cell.head.(*leafNode[K, V]); ok {
		return
	}
	if _, ok := cell.head.(*removeNodeDelta[K, V]); ok {
		return
	}
	view, err := t.collapseLeaf(cell.head)
	if err != nil {
		return
	}
	if t.table.cas(pid, cell, view) != nil {
		t.epochs.retire(cell)
	}
}

// trySplit halves an oversized leaf: install the sibling page, publish a
// split delta on the original, then announce the sibling to the parent with
// an index-term delta. Readers observe the split through the split delta
// before the parent is updated.
func (t *BWTree[K, V]) trySplit(pid, parent PID) {
	cell := t.table.load(pid)
	if cell == nil {
		return
	}
	view, err := t.collapseLeaf(cell.head)
	if err != nil {
		return
	}
	if len(view.items) <= t.opts.SplitThreshold {
		return
	}

	mid := len(view.items) / 2
	splitKey := view.items[mid-1].key
	siblingItems := make([]leafItem[K, V], len(view.items)-mid)
	copy(siblingItems, view.items[mid:])
	sibling := &leafNode[K, V]{
		items:  siblingItems,
		lowKey: splitKey, highKey: view.highKey,
		absMin: false, absMax: view.absMax,
	}
	siblingPID, err := t.table.allocate()
	if err != nil {
		return
	}
	t.table.install(siblingPID, sibling)

	split := &splitDelta[K, V]{splitKey: splitKey, sibling: siblingPID, next: cell.head}
	if t.table.cas(pid, cell, split) == nil {
		t.table.free(siblingPID)
		t.epochs.retire(split)
		return
	}
	t.epochs.retire(cell)

	term := indexTermDelta[K, V]{
		lowSep: splitKey, highSep: view.highKey,
		absMin: false, absMax: view.absMax,
		child: siblingPID,
	}
	t.publishIndexTerm(parent, term)
}

// publishIndexTerm CAS-loops an index-term delta onto the parent. Bounded
// retries: the split delta already makes the sibling reachable, so a lost
// race only delays routing efficiency, not correctness.
func (t *BWTree[K, V]) publishIndexTerm(parent PID, term indexTermDelta[K, V]) {
	for i := 0; i < 16; i++ {
		pcell := t.table.load(parent)
		if pcell == nil {
			return
		}
		delta := term
		delta.next = pcell.head
		if t.table.cas(parent, pcell, &delta) != nil {
			t.epochs.retire(pcell)
			return
		}
	}
}

// tryMerge folds an empty leaf into its left sibling: remove-node delta on
// the right, node-merge delta on the left, then a widened index term on the
// parent so the left child owns the union range. Each step is best effort;
// a lost race abandons the merge and a later delete retries it.
func (t *BWTree[K, V]) tryMerge(pid, parent PID) {
	cell := t.table.load(pid)
	if cell == nil {
		return
	}
	if _, ok := cell.head.(*removeNodeDelta[K, V]); ok {
		return
	}
	view, err := t.collapseLeaf(cell.head)
	if err != nil || len(view.items) != 0 || view.absMin {
		return
	}

	// The inclusive side of our low bound belongs to the left sibling.
	leftRef, err := t.descend(pointTarget(view.lowKey))
	if err != nil || leftRef.emptyRoot || leftRef.pid == pid {
		return
	}

	remove := &removeNodeDelta[K, V]{leftSibling: leftRef.pid, next: cell.head}
	if t.table.cas(pid, cell, remove) == nil {
		t.epochs.retire(remove)
		return
	}
	t.epochs.retire(cell)

	lcell := t.table.load(leftRef.pid)
	if lcell == nil {
		return
	}
	merge := &nodeMergeDelta[K, V]{mergeKey: view.lowKey, merged: cell.head, next: lcell.head}
	if t.table.cas(leftRef.pid, lcell, merge) == nil {
		// Readers still reach the left sibling through the remove delta.
		t.epochs.retire(merge)
		return
	}
	t.epochs.retire(lcell)

	term := indexTermDelta[K, V]{
		lowSep: leftRef.view.lowKey, highSep: view.highKey,
		absMin: leftRef.view.absMin, absMax: view.absMax,
		child: leftRef.pid,
	}
	t.publishIndexTerm(parent, term)
}
