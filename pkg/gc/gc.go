// Package gc implements buzz's tracing garbage collector: a two-
// generation (young/old) mark-and-sweep heap with a write barrier, a
// string-interning table, and bounded young-collection cadence, per §4.2
// of the spec.
package gc

import (
	"os"
	"sync"

	"buzz/pkg/types"
	"buzz/pkg/value"
)

// verbose gates collection-cycle logging behind BUZZ_GC_LOG, off by
// default since a collector that logs on every young cycle would drown
// out a script's own output.
var verbose = os.Getenv("BUZZ_GC_LOG") != ""

const (
	defaultYoungThresholdBytes = 1 << 20 // 1 MiB, per §4.2
	defaultYoungGCCountForFull = 8
)

// RootProvider supplies the roots a collection must traverse beyond the
// heap's own intern table and dirty set (§4.2 roots 1, 2, 5): the active
// fiber chain, the root function's global slots, and any pending
// parser-side lazy member-definition caches.
type RootProvider interface {
	RootFiber() *value.Obj
	Globals() []value.Value
	PendingCaches() []*value.Obj
}

// Stats exposes collector counters, mainly for tests and diagnostics.
type Stats struct {
	YoungCollections int
	FullCollections  int
	LiveObjects      int
}

// Heap owns every heap allocation, the interned-string table, and the
// generation lists. It is the sole memory authority: object graphs may
// be cyclic (class<->method, fiber<->parent) because nothing here is
// reference-counted.
type Heap struct {
	mu sync.Mutex

	youngHead *value.Obj
	oldHead   *value.Obj

	youngBytes     int
	youngThreshold int
	youngCycles    int
	fullAfter      int

	dirty map[*value.Obj]struct{}

	interned map[string]*value.Obj

	registry *types.Registry
	roots    RootProvider

	stats Stats
}

// New creates an empty heap bound to the given type registry (whose
// structural entries are a GC root, §4.2 root 4).
func New(registry *types.Registry) *Heap {
	return &Heap{
		youngThreshold: defaultYoungThresholdBytes,
		fullAfter:      defaultYoungGCCountForFull,
		dirty:          make(map[*value.Obj]struct{}),
		interned:       make(map[string]*value.Obj),
		registry:       registry,
	}
}

// SetRoots installs the provider for the VM-owned roots. It must be
// called once before the first collection.
func (h *Heap) SetRoots(p RootProvider) { h.roots = p }

// SetYoungThreshold overrides the default 1 MiB young-collection
// threshold, mainly for tests that want to force cadence deterministically.
func (h *Heap) SetYoungThreshold(bytes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.youngThreshold = bytes
}

// Stats returns a snapshot of collector counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *Heap) linkYoung(o *value.Obj) {
	o.OldGen = false
	o.GenNext = h.youngHead
	o.GenPrev = nil
	if h.youngHead != nil {
		h.youngHead.GenPrev = o
	}
	h.youngHead = o
}

func (h *Heap) linkOld(o *value.Obj) {
	o.OldGen = true
	o.GenNext = h.oldHead
	o.GenPrev = nil
	if h.oldHead != nil {
		h.oldHead.GenPrev = o
	}
	h.oldHead = o
}

func unlink(o *value.Obj, head **value.Obj) {
	if o.GenPrev != nil {
		o.GenPrev.GenNext = o.GenNext
	} else {
		*head = o.GenNext
	}
	if o.GenNext != nil {
		o.GenNext.GenPrev = o.GenPrev
	}
	o.GenNext, o.GenPrev = nil, nil
}

// Allocate links a freshly-built object into the young generation and
// may trigger a young (and occasionally full) collection before
// returning, per the allocation contract in §4.2.
func (h *Heap) Allocate(o *value.Obj) *value.Obj {
	h.mu.Lock()
	h.linkYoung(o)
	h.youngBytes += approxSize(o)
	h.stats.LiveObjects++
	trigger := h.youngBytes >= h.youngThreshold
	h.mu.Unlock()

	if trigger {
		h.CollectYoung()
	}
	return o
}

// approxSize estimates an object's contribution to the young-generation
// byte budget. It does not need to be exact, only monotonic with an
// object's actual footprint, since it only governs collection cadence.
func approxSize(o *value.Obj) int {
	const base = 64
	switch o.Kind {
	case value.KindString:
		return base + len(o.Str)
	case value.KindList:
		return base + 16*len(o.ListItems)
	case value.KindMap:
		return base + 32*len(o.MapKeys)
	case value.KindObjectInstance:
		return base + 16*len(o.InstFields)
	default:
		return base
	}
}

// WriteBarrier implements the rule in §4.2: any mutation that stores a
// reference into an already-tracked field of parent marks parent dirty
// if and only if parent lives in the old generation (a young object's
// mutations are already covered by the next young scan). Callers invoke
// this immediately after ObjectInstance field assignment, Object
// static-field/method assignment, and List/Map append/set/remove.
func (h *Heap) WriteBarrier(parent *value.Obj) {
	if parent == nil || !parent.OldGen {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	parent.Dirty = true
	h.dirty[parent] = struct{}{}
}
