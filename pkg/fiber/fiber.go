// Package fiber implements buzz's cooperative fiber scheduler: resume,
// yield, cancel, and the Instanciated/Running/Yielded/Over lifecycle
// from §4.3. It owns fiber state transitions; it does not interpret
// bytecode — pkg/vm drives a fiber's frames once fiber.Resume has set it
// running.
package fiber

import (
	"buzz/pkg/bzerror"
	"buzz/pkg/types"
	"buzz/pkg/value"
)

// Scheduler tracks which fiber is currently executing. Only one fiber
// ever runs at a time (§5): there is no preemption, only the two
// suspension points named in the spec (yield, and the call-of-fiber
// opcode that resume implements).
type Scheduler struct {
	root   *value.Obj
	active *value.Obj
}

// NewScheduler creates a scheduler whose root fiber is the program's
// entry point. The root fiber starts Running: it is never itself
// resumed by anything.
func NewScheduler(root *value.Obj) *Scheduler {
	root.FiberStatus = value.Running
	return &Scheduler{root: root, active: root}
}

// Active returns the fiber currently on the execution stack.
func (s *Scheduler) Active() *value.Obj { return s.active }

// Root returns the program's entry fiber.
func (s *Scheduler) Root() *value.Obj { return s.root }

// RootFiber implements gc.RootProvider's fiber-chain root: the active
// fiber, whose Parent pointers the collector follows up to the root.
func (s *Scheduler) RootFiber() *value.Obj { return s.active }

// New creates a fresh, not-yet-started fiber wrapping entry (its
// KindClosure or KindFunction entry point).
func New(entry *value.Obj) *value.Obj {
	return value.NewFiber(entry)
}

// Resume implements §4.3's resume(f, args): if f is Instanciated, this
// starts it running (the VM is responsible for pushing args as the
// entry call's arguments); if Yielded, this restores it and delivers
// args as the yield expression's result. It is an error to resume an
// Over fiber (invariant 5: no resume of an Over fiber executes further
// bytecode) or the fiber that is currently running (single-threaded:
// nothing schedules concurrently with itself).
func (s *Scheduler) Resume(f *value.Obj, args []value.Value) error {
	switch f.FiberStatus {
	case value.Over:
		return bzerror.New(bzerror.Custom, "cannot resume a fiber that is over")
	case value.Running:
		return bzerror.New(bzerror.Custom, "cannot resume a fiber that is already running")
	case value.Instanciated:
		f.FiberStatus = value.Running
		f.FiberParent = s.active
		s.active = f
		return nil
	case value.Yielded:
		if len(args) > 0 {
			f.FiberYieldValue = args[0]
		} else {
			f.FiberYieldValue = value.Null
		}
		f.FiberStatus = value.Running
		f.FiberParent = s.active
		s.active = f
		return nil
	default:
		return bzerror.New(bzerror.Custom, "unknown fiber status")
	}
}

// Yield implements §4.3's yield(v): only legal inside a fiber whose
// entry closure is a yielding (Anonymous, non-void yield type) function,
// and never legal from the root fiber. It stores v in the parent's
// yield slot, marks the current fiber Yielded, and transfers control
// back to the parent, returning it so the VM knows which frame set to
// resume interpreting.
func (s *Scheduler) Yield(v value.Value) (*value.Obj, error) {
	f := s.active
	if f == s.root || f.FiberParent == nil {
		return nil, bzerror.New(bzerror.Custom, "yield is not legal from the root fiber")
	}
	if !IsYielding(f.FiberEntry) {
		return nil, bzerror.New(bzerror.Custom, "yield is only legal inside a yielding function")
	}
	parent := f.FiberParent
	parent.FiberYieldValue = v
	f.FiberStatus = value.Yielded
	s.active = parent
	return parent, nil
}

// Finish implements the other way a fiber stops running: its entry
// closure returns normally rather than yielding. The fiber transitions
// to Over, return is stashed in its return slot for a final resume call
// to observe (§4.3's "the value after the last yield is null" note
// covers the common case; a fiber with a Return type instead surfaces
// it here), and control passes back to the parent.
func (s *Scheduler) Finish(ret value.Value) *value.Obj {
	f := s.active
	f.FiberStatus = value.Over
	f.FiberReturnSlot = ret
	f.FiberFrames = nil
	f.FiberStack = nil
	parent := f.FiberParent
	s.active = parent
	return parent
}

// Cancel implements §4.3's cancel(f): it forces f to Over without
// running any more of its bytecode. Per §5, any external resource held
// by a cancelled fiber's UserData locals is released only when the GC
// later reclaims them, not synchronously here — cancel only discards
// the pending frames so nothing resumes them.
func (s *Scheduler) Cancel(f *value.Obj) {
	f.FiberStatus = value.Over
	f.FiberFrames = nil
	f.FiberStack = nil
	if s.active == f {
		s.active = f.FiberParent
	}
}

// Over reports whether f has finished (returned, or been cancelled) and
// so can never again be resumed.
func Over(f *value.Obj) bool { return f.FiberStatus == value.Over }

// IsYielding reports whether entry (a KindClosure or KindFunction) is a
// fiber body per §4.3: function kind Anonymous with a non-void yield
// type.
func IsYielding(entry *value.Obj) bool {
	fn := entry
	if fn != nil && fn.Kind == value.KindClosure {
		fn = fn.ClosureFn
	}
	if fn == nil || fn.FnKind != value.FnAnonymous {
		return false
	}
	if fn.FnType == nil || fn.FnType.FunctionDef == nil {
		return false
	}
	yield := fn.FnType.FunctionDef.Yield
	return yield != nil && yield.Kind != types.Void
}
