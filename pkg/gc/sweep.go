package gc

import (
	"log"

	"buzz/pkg/value"
)

// CollectYoung runs a young-generation collection: it marks roots plus
// the dirty old-set, sweeps only the young list, frees unreachable young
// objects, and leaves marked survivors in the young generation (they are
// only promoted by a full collection, per §4.2 "Sweep").
func (h *Heap) CollectYoung() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.markRoots(true)
	h.youngHead = h.sweepList(h.youngHead, false)
	// Old objects are traced but not swept here; clear their marks too.
	for o := h.oldHead; o != nil; o = o.GenNext {
		o.Marked = false
	}
	h.youngBytes = 0
	h.youngCycles++

	h.stats.YoungCollections++
	if verbose {
		log.Printf("gc: young collection %d done, %d live objects", h.stats.YoungCollections, h.stats.LiveObjects)
	}
	if h.youngCycles >= h.fullAfter {
		h.youngCycles = 0
		h.collectFullLocked()
	}
}

// CollectFull runs a full collection: every root is marked (not just the
// dirty old-set), both generations are swept, and young survivors are
// promoted to old.
func (h *Heap) CollectFull() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectFullLocked()
}

func (h *Heap) collectFullLocked() {
	h.markRoots(false)
	// Sweep old first: promoted survivors arrive already unmarked.
	h.oldHead = h.sweepList(h.oldHead, false)
	h.youngHead = h.sweepList(h.youngHead, true)
	h.youngBytes = 0
	h.dirty = make(map[*value.Obj]struct{})
	h.stats.FullCollections++
	if verbose {
		log.Printf("gc: full collection %d done, %d live objects", h.stats.FullCollections, h.stats.LiveObjects)
	}
}

// sweepList walks a generation's intrusive list, freeing unmarked
// objects and clearing the mark bit of survivors (satisfying invariant
// 1: marked is true only during the mark phase). If promote is set
// (a full collection's young sweep), survivors are unlinked from this
// list and relinked onto the old generation instead of being kept here.
func (h *Heap) sweepList(head *value.Obj, promote bool) *value.Obj {
	var newHead *value.Obj
	var tail *value.Obj

	cur := head
	for cur != nil {
		next := cur.GenNext
		if !cur.Marked {
			deinit(cur)
			delete(h.dirty, cur)
			h.stats.LiveObjects--
		} else {
			cur.Marked = false
			cur.GenNext, cur.GenPrev = nil, nil
			if promote {
				h.promote(cur)
			} else {
				if newHead == nil {
					newHead = cur
				} else {
					tail.GenNext = cur
					cur.GenPrev = tail
				}
				tail = cur
			}
		}
		cur = next
	}
	return newHead
}

func (h *Heap) promote(o *value.Obj) {
	o.OldGen = true
	o.GenNext = h.oldHead
	o.GenPrev = nil
	if h.oldHead != nil {
		h.oldHead.GenPrev = o
	}
	h.oldHead = o
}

// deinit runs an object's per-kind finalizer before it is reclaimed.
// UserData is the only kind the spec calls out as potentially owning an
// external resource (§5: "external resources held by a cancelled fiber
// are released only when the GC reclaims them").
func deinit(o *value.Obj) {
	if o.Kind != value.KindUserData {
		return
	}
	if c, ok := o.UserPtr.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
