package gc

import (
	"buzz/pkg/types"
	"buzz/pkg/value"
)

// markValue marks v's referent, if it has one. Unmarked objects are
// recursed into depth-first via their per-kind referent set; already-
// marked objects are not re-entered, which makes cyclic graphs safe to
// trace (§4.2 "Marking").
func (h *Heap) markValue(v value.Value) {
	if v.Tag != value.TagObj || v.O == nil {
		return
	}
	h.markObj(v.O)
}

func (h *Heap) markObj(o *value.Obj) {
	if o == nil || o.Marked {
		return
	}
	o.Marked = true

	switch o.Kind {
	case value.KindString, value.KindUserData:
		// leaves: no outgoing references
	case value.KindPattern:
		// leaves: compiled regexp is a derived cache, not a traced referent
	case value.KindType:
		h.markTypeDef(o.TypeVal)
	case value.KindUpValue:
		if o.UpOpen {
			if o.Location != nil {
				h.markValue(*o.Location)
			}
		} else {
			h.markValue(o.Closed)
		}
	case value.KindClosure:
		h.markObj(o.ClosureFn)
		for _, uv := range o.Upvalues {
			h.markObj(uv)
		}
	case value.KindFunction:
		if o.FnChunk != nil {
			for _, c := range o.FnChunk.Constants {
				h.markValue(c)
			}
		}
	case value.KindNative:
		// native function pointers carry no heap referents
	case value.KindObject:
		if o.ObjSuper != nil {
			h.markObj(o.ObjSuper)
		}
		for _, v := range o.StaticFlds {
			h.markValue(v)
		}
		for _, m := range o.Methods {
			h.markObj(m)
		}
	case value.KindObjectInstance:
		// Marking the class through every instance is what keeps a
		// still-reachable Object (class) definition alive while any
		// instance of it survives — see the open question in spec §9.
		if o.InstClass != nil {
			h.markObj(o.InstClass)
		}
		for k, v := range o.InstFields {
			h.markObj(k)
			h.markValue(v)
		}
	case value.KindList:
		for _, v := range o.ListItems {
			h.markValue(v)
		}
	case value.KindMap:
		for _, k := range o.MapKeys {
			if k.Tag == value.TagObj {
				h.markObj(k.O)
			}
			h.markValue(o.MapVals[k])
		}
	case value.KindEnum:
		for _, v := range o.EnumValues {
			h.markValue(v)
		}
	case value.KindEnumInstance:
		if o.EnumRef != nil {
			h.markObj(o.EnumRef)
		}
		h.markValue(o.CaseValue)
	case value.KindBound:
		h.markValue(o.BoundReceiver)
		h.markObj(o.BoundMethod)
	case value.KindFiber:
		if o.FiberParent != nil {
			h.markObj(o.FiberParent)
		}
		for _, v := range o.FiberStack {
			h.markValue(v)
		}
		for _, f := range o.FiberFrames {
			if f.Closure != nil {
				h.markObj(f.Closure)
			}
		}
		for _, uv := range o.FiberOpenUpvalues {
			h.markObj(uv)
		}
		h.markValue(o.FiberReturnSlot)
		h.markValue(o.FiberYieldValue)
		if o.FiberEntry != nil {
			h.markObj(o.FiberEntry)
		}
	}
}

// markTypeDef marks the heap values reachable from a TypeDef's payload:
// only Function parameter default values can reference the heap (e.g. a
// default string argument), since every other TypeDef field is itself
// just type structure, not runtime data.
func (h *Heap) markTypeDef(t *types.TypeDef) {
	if t == nil || t.Kind != types.Function || t.FunctionDef == nil {
		return
	}
	for _, p := range t.FunctionDef.Params {
		if !p.HasDefault || p.Default == nil {
			continue
		}
		if v, ok := value.AsDefault(p.Default); ok {
			h.markValue(v)
		}
	}
}

// markRoots marks every GC root per §4.2: the active fiber chain (via
// Parent pointers — walked by markObj's KindFiber case once we mark the
// chain's head), global slots, the interned-string table, the type
// registry's structural entries, pending member-definition caches, and,
// for a young cycle, the dirty old-set.
func (h *Heap) markRoots(youngOnly bool) {
	if h.roots != nil {
		if f := h.roots.RootFiber(); f != nil {
			h.markObj(f)
		}
		for _, v := range h.roots.Globals() {
			h.markValue(v)
		}
		for _, o := range h.roots.PendingCaches() {
			h.markObj(o)
		}
	}
	for _, o := range h.interned {
		h.markObj(o)
	}
	h.markRegistry()
	if youngOnly {
		for o := range h.dirty {
			h.markObj(o)
		}
	}
}

func (h *Heap) markRegistry() {
	if h.registry == nil {
		return
	}
	for _, t := range h.registry.AllStructural() {
		h.markTypeDef(t)
	}
}
