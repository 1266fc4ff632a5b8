package bwtree

import (
	"sync"
	"sync/atomic"
)

// reclaimThreshold is the number of retired objects that triggers an epoch
// advance and a reclamation sweep.
const reclaimThreshold = 64

// epoch is one generation of the deferred-reclamation scheme. Readers join
// the current epoch before traversal and leave on completion; chains retired
// into an epoch are dropped only once every reader of that epoch (and all
// older ones) has left.
type epoch struct {
	active atomic.Int64
	next   atomic.Pointer[epoch]

	garbageMu sync.Mutex
	garbage   []any
}

func (e *epoch) retire(obj any) {
	e.garbageMu.Lock()
	e.garbage = append(e.garbage, obj)
	e.garbageMu.Unlock()
}

// epochManager hands out guards and reclaims drained epochs.
type epochManager struct {
	current atomic.Pointer[epoch]

	mu      sync.Mutex
	oldest  *epoch
	retired atomic.Int64
}

func newEpochManager() *epochManager {
	em := &epochManager{}
	e := &epoch{}
	em.current.Store(e)
	em.oldest = e
	return em
}

// epochGuard pins the epoch a traversal started in.
type epochGuard struct {
	e *epoch
}

func (em *epochManager) enter() epochGuard {
	for {
		e := em.current.Load()
		e.active.Add(1)
		// The current pointer may have advanced between the load and the
		// increment; re-check so a guard never pins a stale epoch silently.
		if em.current.Load() == e {
			return epochGuard{e: e}
		}
		e.active.Add(-1)
	}
}

func (g epochGuard) leave() {
	g.e.active.Add(-1)
}

// retire places obj in the current epoch's garbage list and occasionally
// advances the epoch and sweeps drained generations.
func (em *epochManager) retire(obj any) {
	em.current.Load().retire(obj)
	if em.retired.Add(1)%reclaimThreshold == 0 {
		em.advance()
	}
}

// advance opens a new epoch and drops the garbage of every older epoch with
// no remaining readers.
func (em *epochManager) advance() {
	if !em.mu.TryLock() {
		return
	}
	defer em.mu.Unlock()

	fresh := &epoch{}
	old := em.current.Load()
	old.next.Store(fresh)
	em.current.Store(fresh)

	for em.oldest != em.current.Load() && em.oldest.active.Load() == 0 {
		next := em.oldest.next.Load()
		if next == nil {
			break
		}
		em.oldest.garbageMu.Lock()
		em.oldest.garbage = nil
		em.oldest.garbageMu.Unlock()
		em.oldest = next
	}
}
