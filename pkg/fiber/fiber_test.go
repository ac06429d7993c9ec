package fiber

import (
	"testing"

	"buzz/pkg/types"
	"buzz/pkg/value"
)

func yieldingEntry() *value.Obj {
	fn := &value.Obj{}
	fn.Kind = value.KindFunction
	fn.FnKind = value.FnAnonymous
	fn.FnType = &types.TypeDef{
		Kind: types.Function,
		FunctionDef: &types.FunctionType{
			Yield: &types.TypeDef{Kind: types.Number},
		},
	}
	return fn
}

// TestCountingFiberScenario reproduces spec concrete scenario 1: a fiber
// whose body yields 1, 2, 3 and then returns. Resuming it repeatedly
// must produce 1, 2, 3, null, with the fiber Over after the fourth
// resume.
func TestCountingFiberScenario(t *testing.T) {
	entry := yieldingEntry()
	root := value.NewFiber(nil)
	sched := NewScheduler(root)

	f := New(entry)

	if err := sched.Resume(f, nil); err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if sched.Active() != f {
		t.Fatalf("expected f to be the active fiber after resume")
	}
	if f.FiberStatus != value.Running {
		t.Fatalf("expected Running, got %v", f.FiberStatus)
	}

	// Simulate the VM driving f's body: it yields 1.
	sched.active = f // already true, kept explicit for clarity
	parent, err := sched.Yield(value.Int(1))
	if err != nil {
		t.Fatalf("yield 1: %v", err)
	}
	if parent != root {
		t.Fatalf("expected yield to hand control to root")
	}
	if root.FiberYieldValue != value.Int(1) {
		t.Fatalf("expected root's yield slot to hold 1")
	}
	if f.FiberStatus != value.Yielded {
		t.Fatalf("expected f to be Yielded after yielding")
	}

	// Resume again to get 2.
	if err := sched.Resume(f, nil); err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if _, err := sched.Yield(value.Int(2)); err != nil {
		t.Fatalf("yield 2: %v", err)
	}

	// Resume again to get 3.
	if err := sched.Resume(f, nil); err != nil {
		t.Fatalf("third resume: %v", err)
	}
	if _, err := sched.Yield(value.Int(3)); err != nil {
		t.Fatalf("yield 3: %v", err)
	}

	// Final resume: the body returns instead of yielding again.
	if err := sched.Resume(f, nil); err != nil {
		t.Fatalf("fourth resume: %v", err)
	}
	sched.Finish(value.Null)

	if f.FiberStatus != value.Over {
		t.Fatalf("expected Over after the body returns, got %v", f.FiberStatus)
	}
	if !Over(f) {
		t.Fatalf("Over() must report true once a fiber has finished")
	}

	if err := sched.Resume(f, nil); err == nil {
		t.Fatalf("resuming an Over fiber must be an error")
	}
}

func TestYieldIllegalFromRootFiber(t *testing.T) {
	root := value.NewFiber(nil)
	sched := NewScheduler(root)

	if _, err := sched.Yield(value.Int(1)); err == nil {
		t.Fatalf("expected an error yielding from the root fiber")
	}
}

func TestYieldIllegalInNonYieldingFunction(t *testing.T) {
	plainFn := &value.Obj{}
	plainFn.Kind = value.KindFunction
	plainFn.FnKind = value.FnFunction

	root := value.NewFiber(nil)
	sched := NewScheduler(root)
	f := New(plainFn)
	if err := sched.Resume(f, nil); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := sched.Yield(value.Int(1)); err == nil {
		t.Fatalf("expected an error yielding from a non-yielding function body")
	}
}

func TestCancelDiscardsPendingFrames(t *testing.T) {
	entry := yieldingEntry()
	root := value.NewFiber(nil)
	sched := NewScheduler(root)
	f := New(entry)

	if err := sched.Resume(f, nil); err != nil {
		t.Fatalf("resume: %v", err)
	}
	f.FiberFrames = []value.CallFrame{{IP: 42}}

	sched.Cancel(f)

	if f.FiberStatus != value.Over {
		t.Fatalf("expected Over after cancel")
	}
	if len(f.FiberFrames) != 0 {
		t.Fatalf("expected cancel to discard pending frames")
	}
	if sched.Active() != root {
		t.Fatalf("expected control to return to root after cancelling the active fiber")
	}
}

func TestResumeDeliversArgAsYieldResult(t *testing.T) {
	entry := yieldingEntry()
	root := value.NewFiber(nil)
	sched := NewScheduler(root)
	f := New(entry)

	_ = sched.Resume(f, nil)
	_, _ = sched.Yield(value.Int(1))

	if err := sched.Resume(f, []value.Value{value.Bool(true)}); err != nil {
		t.Fatalf("resume with arg: %v", err)
	}
	if f.FiberYieldValue != value.Bool(true) {
		t.Fatalf("expected resume's argument to land in the fiber's yield slot")
	}
}
