package bwtree

import (
	"github.com/YuNanlong/peloton-bwtree/common"
)

// collapseLeaf flattens a leaf delta chain into an equivalent base page:
// modify deltas overlay the base entries (topmost record per key is
// authoritative, an empty value list deletes), split deltas truncate the key
// range, and node-merge deltas splice in the absorbed sibling's content.
func (t *BWTree[K, V]) collapseLeaf(head page[K, V]) (*leafNode[K, V], error) {
	var (
		overlays    []leafItem[K, V]
		base        *leafNode[K, V]
		mergedItems []leafItem[K, V]

		seenSplit bool
		splitKey  K

		seenMerge bool
		mergeHigh K
		mergeMax  bool
	)

	p := head
	walked := 0
	for p != nil {
		if walked++; walked > maxChainWalk {
			return nil, common.NewError(common.IndexCorruptionError,
				"leaf chain has no base page")
		}
		switch d := p.(type) {
		case *modifyDelta[K, V]:
			// Records older than a split still carry keys that moved to the
			// sibling; drop them here.
			if seenSplit && t.cmp(d.key, splitKey) > 0 {
				p = d.next
				continue
			}
			if !t.overlaySeen(overlays, d.key) {
				overlays = append(overlays, leafItem[K, V]{key: d.key, values: d.values})
			}
			p = d.next
		case *splitDelta[K, V]:
			if !seenSplit || t.cmp(d.splitKey, splitKey) < 0 {
				splitKey = d.splitKey
			}
			seenSplit = true
			p = d.next
		case *removeNodeDelta[K, V]:
			// Transparent: the record only redirects traversal; the content
			// below it is still this page's content.
			p = d.next
		case *nodeMergeDelta[K, V]:
			sub, err := t.collapseLeaf(d.merged)
			if err != nil {
				return nil, err
			}
			for _, item := range sub.items {
				if t.cmp(item.key, d.mergeKey) <= 0 {
					continue
				}
				// Only splits newer than this merge cut the absorbed content.
				if seenSplit && t.cmp(item.key, splitKey) > 0 {
					continue
				}
				mergedItems = append(mergedItems, item)
			}
			if !seenMerge && !seenSplit {
				mergeHigh = sub.highKey
				mergeMax = sub.absMax
				seenMerge = true
			}
			p = d.next
		case *leafNode[K, V]:
			base = d
			p = nil
		default:
			return nil, common.NewError(common.IndexCorruptionError,
				"unexpected %v record in a leaf chain", p.kind())
		}
	}
	if base == nil {
		return nil, common.NewError(common.IndexCorruptionError,
			"leaf chain terminated without a base page")
	}

	items := make([]leafItem[K, V], 0, len(base.items)+len(mergedItems))
	items = append(items, base.items...)
	if seenSplit {
		cut := len(items)
		for cut > 0 && t.cmp(items[cut-1].key, splitKey) > 0 {
			cut--
		}
		items = items[:cut]
	}
	items = append(items, mergedItems...)
	for _, ov := range overlays {
		items = t.applyOverlay(items, ov)
	}
	for i := 1; i < len(items); i++ {
		if t.cmp(items[i-1].key, items[i].key) >= 0 {
			return nil, common.NewError(common.IndexCorruptionError,
				"leaf keys are not strictly sorted after collapse")
		}
	}

	out := &leafNode[K, V]{
		items:  items,
		lowKey: base.lowKey, absMin: base.absMin,
		highKey: base.highKey, absMax: base.absMax,
	}
	// seenMerge is only set for a merge newer than every split, so its bound
	// wins over an older split's.
	switch {
	case seenMerge:
		out.highKey = mergeHigh
		out.absMax = mergeMax
	case seenSplit:
		out.highKey = splitKey
		out.absMax = false
	}
	return out, nil
}

func (t *BWTree[K, V]) overlaySeen(overlays []leafItem[K, V], key K) bool {
	for _, ov := range overlays {
		if t.keyEq(ov.key, key) {
			return true
		}
	}
	return false
}

// applyOverlay merges one authoritative (key, values) record into a sorted
// item list: replace, insert, or delete when the value list is empty.
func (t *BWTree[K, V]) applyOverlay(items []leafItem[K, V], ov leafItem[K, V]) []leafItem[K, V] {
	lo, hi := 0, len(items)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.cmp(items[mid].key, ov.key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	found := lo < len(items) && t.keyEq(items[lo].key, ov.key)
	switch {
	case found && len(ov.values) == 0:
		return append(items[:lo], items[lo+1:]...)
	case found:
		items[lo] = ov
		return items
	case len(ov.values) == 0:
		return items
	default:
		items = append(items, leafItem[K, V]{})
		copy(items[lo+1:], items[lo:])
		items[lo] = ov
		return items
	}
}

// collapseInner flattens an inner chain: index-term deltas closest to the
// head take precedence, and the base entries fill whatever range no delta
// claims. The result is a non-overlapping, sorted entry list.
func (t *BWTree[K, V]) collapseInner(head page[K, V]) (*innerNode[K, V], error) {
	var claims []innerEntry[K]
	p := head
	walked := 0
	for p != nil {
		if walked++; walked > maxChainWalk {
			return nil, common.NewError(common.IndexCorruptionError,
				"inner chain has no base page")
		}
		switch d := p.(type) {
		case *indexTermDelta[K, V]:
			claims = append(claims, innerEntry[K]{
				lowSep: d.lowSep, highSep: d.highSep,
				absMin: d.absMin, absMax: d.absMax,
				child: d.child,
			})
			p = d.next
		case *innerNode[K, V]:
			claims = append(claims, d.entries...)
			p = nil
		default:
			return nil, common.NewError(common.IndexCorruptionError,
				"unexpected %v record in an inner chain", p.kind())
		}
	}
	if len(claims) == 0 {
		return &innerNode[K, V]{}, nil
	}

	// Every low/high separator is a potential routing boundary. Between two
	// consecutive boundaries routing is constant, so resolving one probe per
	// elementary interval reconstructs the full routing function.
	var bounds []K
	haveMin, haveMax := false, false
	for _, c := range claims {
		if c.absMin {
			haveMin = true
		} else {
			bounds = insertBound(t.cmp, bounds, c.lowSep)
		}
		if c.absMax {
			haveMax = true
		} else {
			bounds = insertBound(t.cmp, bounds, c.highSep)
		}
	}

	type interval struct {
		probe   searchTarget[K]
		segment innerEntry[K]
	}
	var intervals []interval
	if len(bounds) == 0 {
		// Only absolute claims: a single entry covers everything.
		intervals = append(intervals, interval{
			probe:   searchTarget[K]{leftmost: true},
			segment: innerEntry[K]{absMin: true, absMax: true},
		})
	} else {
		if haveMin {
			intervals = append(intervals, interval{
				probe:   searchTarget[K]{key: bounds[0]},
				segment: innerEntry[K]{absMin: true, highSep: bounds[0]},
			})
		}
		for i := 1; i < len(bounds); i++ {
			intervals = append(intervals, interval{
				probe:   searchTarget[K]{key: bounds[i]},
				segment: innerEntry[K]{lowSep: bounds[i-1], highSep: bounds[i]},
			})
		}
		if haveMax {
			intervals = append(intervals, interval{
				probe:   searchTarget[K]{key: bounds[len(bounds)-1], after: true},
				segment: innerEntry[K]{lowSep: bounds[len(bounds)-1], absMax: true},
			})
		}
	}

	var entries []innerEntry[K]
	for _, iv := range intervals {
		claim, ok := t.firstClaim(claims, iv.probe)
		if !ok {
			continue
		}
		segment := iv.segment
		segment.child = claim.child
		if n := len(entries); n > 0 && entries[n-1].child == segment.child {
			entries[n-1].highSep = segment.highSep
			entries[n-1].absMax = segment.absMax
			continue
		}
		entries = append(entries, segment)
	}

	out := &innerNode[K, V]{entries: entries}
	if len(entries) > 0 {
		first, last := entries[0], entries[len(entries)-1]
		out.lowKey, out.absMin = first.lowSep, first.absMin
		out.highKey, out.absMax = last.highSep, last.absMax
	}
	return out, nil
}

// firstClaim returns the head-most claim containing the probe.
func (t *BWTree[K, V]) firstClaim(claims []innerEntry[K], probe searchTarget[K]) (innerEntry[K], bool) {
	for _, c := range claims {
		if probe.leftmost {
			if c.absMin {
				return c, true
			}
			continue
		}
		if t.within(probe, c.lowSep, c.highSep, c.absMin, c.absMax) {
			return c, true
		}
	}
	return innerEntry[K]{}, false
}

// insertBound inserts key into a sorted, deduplicated bound list.
func insertBound[K any](cmp CompareFunc[K], bounds []K, key K) []K {
	lo, hi := 0, len(bounds)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(bounds[mid], key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(bounds) && cmp(bounds[lo], key) == 0 {
		return bounds
	}
	bounds = append(bounds, key)
	copy(bounds[lo+1:], bounds[lo:])
	bounds[lo] = key
	return bounds
}

// consolidateInner flattens the chain behind an inner page id.
func (t *BWTree[K, V]) consolidateInner(pid PID) {
	cell := t.table.load(pid)
	if cell == nil {
		return
	}
	if _, ok := cell.head.(*innerNode[K, V]); ok {
		return
	}
	view, err := t.collapseInner(cell.head)
	if err != nil {
		return
	}
	if t.table.cas(pid, cell, view) != nil {
		t.epochs.retire(cell)
	}
}
