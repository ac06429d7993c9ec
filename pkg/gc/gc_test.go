package gc

import (
	"testing"

	"buzz/pkg/types"
	"buzz/pkg/value"
)

type fakeRoots struct {
	fiber   *value.Obj
	globals []value.Value
	pending []*value.Obj
}

func (f *fakeRoots) RootFiber() *value.Obj       { return f.fiber }
func (f *fakeRoots) Globals() []value.Value      { return f.globals }
func (f *fakeRoots) PendingCaches() []*value.Obj { return f.pending }

func newTestHeap() (*Heap, *fakeRoots) {
	h := New(types.NewRegistry())
	roots := &fakeRoots{}
	h.SetRoots(roots)
	return h, roots
}

func newListObj() *value.Obj {
	o := &value.Obj{}
	o.Kind = value.KindList
	return o
}

func TestSweepFreesUnreachableObjects(t *testing.T) {
	h, roots := newTestHeap()

	kept := h.Allocate(newListObj())
	roots.globals = []value.Value{value.FromObj(kept)}

	discarded := h.Allocate(newListObj())

	h.CollectFull()

	if kept.Marked {
		t.Fatalf("invariant 1: marked must be false at phase end")
	}
	if discarded.Marked {
		t.Fatalf("an unreachable object must not remain marked after sweep")
	}
	for _, head := range []*value.Obj{h.youngHead, h.oldHead} {
		for o := head; o != nil; o = o.GenNext {
			if o == discarded {
				t.Fatalf("an unreachable object must be unlinked from every generation after sweep")
			}
		}
	}
}

func TestMarkedFalseAtPhaseEndForReachableObjects(t *testing.T) {
	h, roots := newTestHeap()
	o := h.Allocate(newListObj())
	roots.globals = []value.Value{value.FromObj(o)}

	h.CollectFull()

	if o.Marked {
		t.Fatalf("invariant 1 violated: reachable object must have Marked==false once the cycle ends")
	}
}

func TestWriteBarrierSurvivesYoungCollection(t *testing.T) {
	h, roots := newTestHeap()

	parent := h.Allocate(newInstanceObj())
	roots.globals = []value.Value{value.FromObj(parent)}

	// Promote parent to old generation via a full collection first.
	h.CollectFull()
	if !parent.OldGen {
		t.Fatalf("expected parent to be promoted to the old generation")
	}

	// Now give the old parent a reference to a freshly allocated young
	// child, and fire the write barrier exactly as pkg/value.SetField's
	// caller would.
	child := h.Allocate(newListObj())
	name := h.Intern("field")
	parent.InstFields[name] = value.FromObj(child)
	h.WriteBarrier(parent)

	if !parent.Dirty {
		t.Fatalf("invariant 2: an old object referencing a young object must be marked dirty")
	}

	h.CollectYoung()

	if child.Marked {
		t.Fatalf("invariant 1: marked must be false once the young cycle ends")
	}
	// The child must have survived: it's only reachable via the dirty
	// parent, which a young collection must retrace.
	found := false
	for cur := h.youngHead; cur != nil; cur = cur.GenNext {
		if cur == child {
			found = true
		}
	}
	if !found {
		t.Fatalf("write barrier scenario: young object referenced only via a dirty old object must survive the next young collection")
	}
}

func newInstanceObj() *value.Obj {
	o := &value.Obj{}
	o.Kind = value.KindObjectInstance
	o.InstFields = make(map[*value.Obj]value.Value)
	return o
}

func TestStringInterningIdentity(t *testing.T) {
	h, _ := newTestHeap()
	a := h.Intern("ab" + "c")
	b := h.Intern("a" + "bc")
	if a != b {
		t.Fatalf("invariant 3: equal-byte strings must intern to the same object pointer")
	}
	c := h.Intern("abd")
	if a == c {
		t.Fatalf("distinct byte sequences must not share an interned object")
	}
}

func TestClassStaysAliveWhileInstanceReachable(t *testing.T) {
	h, roots := newTestHeap()

	class := &value.Obj{}
	class.Kind = value.KindObject
	class.Methods = map[string]*value.Obj{}
	h.Allocate(class)

	inst := newInstanceObj()
	inst.InstClass = class
	h.Allocate(inst)

	roots.globals = []value.Value{value.FromObj(inst)}

	h.CollectFull()

	found := false
	for cur := h.oldHead; cur != nil; cur = cur.GenNext {
		if cur == class {
			found = true
		}
	}
	if !found {
		t.Fatalf("spec §9 open question: a class must stay alive while any instance is reachable")
	}
}
