package bwtree

import (
	"sync"
	"sync/atomic"

	"github.com/YuNanlong/peloton-bwtree/common"
)

const (
	segmentShift = 16
	segmentSize  = 1 << segmentShift
	segmentMask  = segmentSize - 1

	// maxSegments bounds the mapping table at 2^24 page ids.
	maxSegments = 1 << 8
)

// chainCell is the published head of a delta chain. CAS compares cell
// identity, so every publication allocates a fresh cell; the previous cell
// (and any chain suffix it uniquely owned) is handed to the epoch reclaimer
// by the caller.
type chainCell[K, V any] struct {
	head page[K, V]
}

type mappingSegment[K, V any] struct {
	slots [segmentSize]atomic.Pointer[chainCell[K, V]]
}

// mappingTable maps PIDs to delta-chain heads. Reads are lock-free; growth
// appends a segment under a mutex and republishes the segment directory.
type mappingTable[K, V any] struct {
	mu       sync.Mutex
	segments atomic.Pointer[[]*mappingSegment[K, V]]
	nextPID  atomic.Uint64
	freeMu   sync.Mutex
	freePIDs []PID
}

func newMappingTable[K, V any]() *mappingTable[K, V] {
	t := &mappingTable[K, V]{}
	segs := []*mappingSegment[K, V]{new(mappingSegment[K, V])}
	t.segments.Store(&segs)
	return t
}

func (t *mappingTable[K, V]) slot(pid PID) *atomic.Pointer[chainCell[K, V]] {
	segs := *t.segments.Load()
	seg := segs[pid>>segmentShift]
	return &seg.slots[pid&segmentMask]
}

// allocate reserves a fresh PID. The slot is empty until install is called.
func (t *mappingTable[K, V]) allocate() (PID, error) {
	t.freeMu.Lock()
	if n := len(t.freePIDs); n > 0 {
		pid := t.freePIDs[n-1]
		t.freePIDs = t.freePIDs[:n-1]
		t.freeMu.Unlock()
		return pid, nil
	}
	t.freeMu.Unlock()

	pid := PID(t.nextPID.Add(1) - 1)
	segIdx := int(pid >> segmentShift)
	if segIdx >= maxSegments {
		return 0, common.NewError(common.ResourceExhaustionError,
			"mapping table is full (%d page ids)", pid)
	}
	segs := *t.segments.Load()
	if segIdx >= len(segs) {
		t.mu.Lock()
		segs = *t.segments.Load()
		for segIdx >= len(segs) {
			grown := make([]*mappingSegment[K, V], len(segs)+1)
			copy(grown, segs)
			grown[len(segs)] = new(mappingSegment[K, V])
			t.segments.Store(&grown)
			segs = grown
		}
		t.mu.Unlock()
	}
	return pid, nil
}

// free returns a tentatively reserved PID whose installation lost a race.
func (t *mappingTable[K, V]) free(pid PID) {
	t.slot(pid).Store(nil)
	t.freeMu.Lock()
	t.freePIDs = append(t.freePIDs, pid)
	t.freeMu.Unlock()
}

// load returns the current chain head cell with acquire semantics.
func (t *mappingTable[K, V]) load(pid PID) *chainCell[K, V] {
	return t.slot(pid).Load()
}

// install publishes the first chain head for a freshly allocated PID.
func (t *mappingTable[K, V]) install(pid PID, head page[K, V]) {
	t.slot(pid).Store(&chainCell[K, V]{head: head})
}

// cas publishes head as the new chain head iff the slot still holds the
// observed cell. Returns the new cell on success, nil on failure.
func (t *mappingTable[K, V]) cas(pid PID, observed *chainCell[K, V], head page[K, V]) *chainCell[K, V] {
	next := &chainCell[K, V]{head: head}
	if t.slot(pid).CompareAndSwap(observed, next) {
		return next
	}
	return nil
}
