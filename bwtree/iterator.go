package bwtree

// Iterator is a lazy, finite, ordered range scan. Each leaf is snapshotted
// at visit time under an epoch guard; within one key, value order is the
// order the snapshot held, stable for the duration of the scan. Re-calling
// RangeScan produces a fresh, restarted scan.
type Iterator[K, V any] struct {
	tree *BWTree[K, V]

	low, high         *K
	lowInc, highInc   bool

	items    []leafItem[K, V]
	itemIdx  int
	valueIdx int

	started    bool
	lastLeaf   bool
	exhausted  bool
	nextTarget searchTarget[K]

	curKey K
	curVal V
	err    error
}

// RangeScan returns an iterator over keys in the window defined by the
// optional bounds; a nil bound is unbounded on that side.
func (t *BWTree[K, V]) RangeScan(low, high *K, lowInclusive, highInclusive bool) *Iterator[K, V] {
	return &Iterator[K, V]{
		tree:    t,
		low:     low,
		high:    high,
		lowInc:  lowInclusive,
		highInc: highInclusive,
	}
}

// Next advances to the next (key, value) pair, returning false once the scan
// is exhausted or an error occurred.
func (it *Iterator[K, V]) Next() bool {
	if it.exhausted {
		return false
	}
	for {
		if it.itemIdx < len(it.items) {
			item := it.items[it.itemIdx]
			if it.valueIdx < len(item.values) {
				it.curKey = item.key
				it.curVal = item.values[it.valueIdx]
				it.valueIdx++
				return true
			}
			it.itemIdx++
			it.valueIdx = 0
			continue
		}
		if it.started && it.lastLeaf {
			it.exhausted = true
			return false
		}
		if !it.loadNextLeaf() {
			return false
		}
	}
}

func (it *Iterator[K, V]) Key() K       { return it.curKey }
func (it *Iterator[K, V]) Value() V     { return it.curVal }
func (it *Iterator[K, V]) Error() error { return it.err }

// loadNextLeaf descends to the next leaf in key order and snapshots the
// qualifying items.
func (it *Iterator[K, V]) loadNextLeaf() bool {
	t := it.tree
	guard := t.epochs.enter()
	defer guard.leave()

	target := it.nextTarget
	if !it.started {
		if it.low != nil {
			target = searchTarget[K]{key: *it.low, after: !it.lowInc}
		} else {
			target = searchTarget[K]{leftmost: true}
		}
		it.started = true
	}

	ref, err := t.descend(target)
	if err != nil {
		it.err = err
		it.exhausted = true
		return false
	}
	if ref.emptyRoot {
		it.exhausted = true
		return false
	}

	view := ref.view
	items := make([]leafItem[K, V], 0, len(view.items))
	for _, item := range view.items {
		if len(item.values) == 0 {
			continue
		}
		if it.low != nil {
			c := t.cmp(item.key, *it.low)
			if c < 0 || (c == 0 && !it.lowInc) {
				continue
			}
		}
		if it.high != nil {
			c := t.cmp(item.key, *it.high)
			if c > 0 || (c == 0 && !it.highInc) {
				// Keys only grow from here; the scan is over once the upper
				// bound is crossed.
				it.lastLeaf = true
				break
			}
		}
		items = append(items, item)
	}

	it.items = items
	it.itemIdx = 0
	it.valueIdx = 0
	if view.absMax {
		it.lastLeaf = true
	} else if !it.lastLeaf {
		it.nextTarget = searchTarget[K]{key: view.highKey, after: true}
	}
	return true
}
