// Package vm implements buzz's bytecode interpreter: the opcode
// dispatch loop that drives a fiber's frames, global variable storage,
// and the call/return/yield control-transfer mechanics. The spec treats
// this component at the contract level only (§2): correctness here
// means producing the values §8's concrete scenarios call for, not
// covering every opcode a full compiler might someday emit.
package vm

import (
	"buzz/pkg/bzerror"
	"buzz/pkg/fiber"
	"buzz/pkg/gc"
	"buzz/pkg/natives"
	"buzz/pkg/types"
	"buzz/pkg/value"
)

// VM owns every piece of process-wide state a running program needs:
// the heap, the type registry, the fiber scheduler, the native method
// tables, and the module's global slots. Per §9's design note, these
// are threaded explicitly through VM rather than reached for as
// ambient globals.
type VM struct {
	Heap     *gc.Heap
	Registry *types.Registry
	Sched    *fiber.Scheduler
	Natives  *natives.Registry

	globals    []value.Value
	globalIdx  map[string]int
	out        func(string) // OpPrint sink; defaults to nothing
	pending    []*value.Obj // placeholder-bearing objects awaiting resolution, a GC root
}

// New wires a VM around an already-constructed heap/registry/scheduler,
// and gives the heap a RootProvider backed by this VM (the root set of
// §4.2: active fiber chain, globals, pending placeholder caches).
func New(heap *gc.Heap, registry *types.Registry, sched *fiber.Scheduler) *VM {
	nreg := natives.New(heap, sched)
	vm := &VM{
		Heap:      heap,
		Registry:  registry,
		Sched:     sched,
		Natives:   nreg,
		globalIdx: make(map[string]int),
	}
	heap.SetRoots(vm)
	return vm
}

// SetPrintSink installs where OpPrint writes; cmd/buzz points this at
// stdout, tests point it at a buffer.
func (vm *VM) SetPrintSink(fn func(string)) { vm.out = fn }

// RootFiber, Globals, and PendingCaches implement gc.RootProvider.
func (vm *VM) RootFiber() *value.Obj       { return vm.Sched.RootFiber() }
func (vm *VM) Globals() []value.Value      { return vm.globals }
func (vm *VM) PendingCaches() []*value.Obj { return vm.pending }

// DefineGlobal reserves (or reuses) a global slot named name and stores
// v in it.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	if i, ok := vm.globalIdx[name]; ok {
		vm.globals[i] = v
		return
	}
	vm.globalIdx[name] = len(vm.globals)
	vm.globals = append(vm.globals, v)
}

func (vm *VM) globalSlot(name string) (int, bool) {
	i, ok := vm.globalIdx[name]
	return i, ok
}

// Global looks up a defined global by name, for hosts (the test runner)
// that need to reach a top-level declaration after running a script's
// module-level statements.
func (vm *VM) Global(name string) (value.Value, bool) {
	i, ok := vm.globalIdx[name]
	if !ok {
		return value.Null, false
	}
	return vm.globals[i], true
}

// GlobalNames lists every defined global, in definition order.
func (vm *VM) GlobalNames() []string {
	names := make([]string, len(vm.globals))
	for name, idx := range vm.globalIdx {
		names[idx] = name
	}
	return names
}

// Call invokes closure (any callable pushCall accepts: KindFunction,
// KindClosure, KindNative, KindBound or KindObject) with args from the
// root fiber, running it to completion synchronously. This is the
// entry point cmd/buzz uses to call a script's top-level function.
func (vm *VM) Call(closure *value.Obj, args []value.Value) (value.Value, error) {
	root := vm.Sched.Root()
	return vm.callOnFiber(root, closure, args)
}

// Resume implements the resume() half of §4.3 from the VM's side: it
// transitions f via the scheduler, then (for the first resume) pushes
// its entry's initial frame or (for a later resume) picks its saved
// frames back up, and runs the bytecode loop until f yields or its
// entry returns.
func (vm *VM) Resume(f *value.Obj, args []value.Value) (value.Value, error) {
	wasFresh := f.FiberStatus == value.Instanciated
	if err := vm.Sched.Resume(f, args); err != nil {
		return value.Null, err
	}
	if wasFresh {
		if err := vm.pushCall(f, f.FiberEntry, args); err != nil {
			return value.Null, err
		}
	} else {
		// Restoring a Yielded fiber: the value resume() was called with
		// becomes the result of the `yield` expression that suspended it.
		vm.push(f, f.FiberYieldValue)
	}
	v, err := vm.run(f)
	if _, yielded := err.(errYielded); yielded {
		return v, nil
	}
	if err == nil {
		vm.Sched.Finish(v)
	}
	return v, err
}

func (vm *VM) callOnFiber(f *value.Obj, closure *value.Obj, args []value.Value) (value.Value, error) {
	depth := len(f.FiberFrames)
	if err := vm.pushCall(f, closure, args); err != nil {
		return value.Null, err
	}
	return vm.runUntil(f, depth)
}

// pushCall pushes args and a new CallFrame for closure onto f. closure
// may be a KindClosure, a bare KindFunction, or a KindNative/KindBound;
// natives are invoked immediately and never get a frame.
func (vm *VM) pushCall(f *value.Obj, closure *value.Obj, args []value.Value) error {
	switch closure.Kind {
	case value.KindNative:
		out, err := closure.Native(value.Null, args)
		if err != nil {
			return err
		}
		f.FiberStack = append(f.FiberStack, firstOrNull(out))
		return nil
	case value.KindBound:
		if closure.BoundMethod.Kind == value.KindNative {
			out, err := closure.BoundMethod.Native(closure.BoundReceiver, args)
			if err != nil {
				return err
			}
			f.FiberStack = append(f.FiberStack, firstOrNull(out))
			return nil
		}
		callArgs := value.CallArgs(closure, args)
		return vm.pushCall(f, closure.BoundMethod, callArgs)
	case value.KindFunction:
		base := len(f.FiberStack)
		f.FiberStack = append(f.FiberStack, args...)
		f.FiberFrames = append(f.FiberFrames, value.CallFrame{Closure: closure, StackBase: base})
		return nil
	case value.KindClosure:
		base := len(f.FiberStack)
		f.FiberStack = append(f.FiberStack, args...)
		f.FiberFrames = append(f.FiberFrames, value.CallFrame{Closure: closure, StackBase: base})
		return nil
	case value.KindObject:
		inst := vm.Heap.Allocate(value.NewObjectInstance(closure))
		for name, dflt := range closure.StaticFlds {
			value.SetField(inst, vm.Heap.Intern(name), dflt)
		}
		f.FiberStack = append(f.FiberStack, value.FromObj(inst))
		return nil
	default:
		return bzerror.New(bzerror.Custom, "value is not callable")
	}
}

func firstOrNull(vs []value.Value) value.Value {
	if len(vs) == 0 {
		return value.Null
	}
	return vs[0]
}

func fnOf(closure *value.Obj) *value.Obj {
	if closure.Kind == value.KindClosure {
		return closure.ClosureFn
	}
	return closure
}

// run drives f from its current frame set until it suspends (yield) or
// its outermost frame returns, i.e. it is the body of Resume.
func (vm *VM) run(f *value.Obj) (value.Value, error) {
	return vm.runUntil(f, 0)
}

// runUntil executes opcodes on f until its frame stack depth drops back
// to stopDepth (a normal return unwinding back to the caller) or f
// yields. It returns the function's return value, or the value
// delivered into the resumed fiber's yield slot.
func (vm *VM) runUntil(f *value.Obj, stopDepth int) (value.Value, error) {
	for {
		if len(f.FiberFrames) <= stopDepth {
			if len(f.FiberStack) == 0 {
				return value.Null, nil
			}
			return f.FiberStack[len(f.FiberStack)-1], nil
		}

		frame := &f.FiberFrames[len(f.FiberFrames)-1]
		fn := fnOf(frame.Closure)
		chunk := fn.FnChunk

		if frame.IP >= len(chunk.Code) {
			return value.Null, bzerror.New(bzerror.Custom, "ran off the end of %s's bytecode", fn.FnName)
		}

		op := OpCode(chunk.Code[frame.IP])
		frame.IP++

		switch op {
		case OpConstant:
			idx := vm.readByte(chunk, frame)
			vm.push(f, chunk.Constants[idx])

		case OpNull:
			vm.push(f, value.Null)
		case OpTrue:
			vm.push(f, value.Bool(true))
		case OpFalse:
			vm.push(f, value.Bool(false))
		case OpPop:
			vm.pop(f)

		case OpAdd, OpSubtract, OpMultiply, OpDivide:
			b := vm.pop(f)
			a := vm.pop(f)
			r, err := arith(op, a, b)
			if err != nil {
				return value.Null, err
			}
			if r.Tag == value.TagObj && r.O.Kind == value.KindString {
				r = value.FromObj(vm.Heap.Intern(r.O.Str))
			}
			vm.push(f, r)

		case OpNegate:
			a := vm.pop(f)
			switch a.Tag {
			case value.TagInt:
				vm.push(f, value.Int(-a.I))
			case value.TagFloat:
				vm.push(f, value.Float(-a.F))
			default:
				return value.Null, bzerror.New(bzerror.BadNumber, "operand must be a number")
			}

		case OpNot:
			vm.push(f, value.Bool(!vm.pop(f).Truthy()))

		case OpEqual:
			b := vm.pop(f)
			a := vm.pop(f)
			vm.push(f, value.Bool(value.Eql(a, b)))

		case OpLess, OpGreater:
			b := vm.pop(f)
			a := vm.pop(f)
			r, err := compare(op, a, b)
			if err != nil {
				return value.Null, err
			}
			vm.push(f, r)

		case OpDefineGlobal:
			idx := vm.readByte(chunk, frame)
			name := chunk.Constants[idx].O.Str
			vm.DefineGlobal(name, vm.pop(f))

		case OpGetGlobal:
			idx := vm.readByte(chunk, frame)
			name := chunk.Constants[idx].O.Str
			slot, ok := vm.globalSlot(name)
			if !ok {
				return value.Null, bzerror.New(bzerror.Custom, "undefined global %q", name)
			}
			vm.push(f, vm.globals[slot])

		case OpSetGlobal:
			idx := vm.readByte(chunk, frame)
			name := chunk.Constants[idx].O.Str
			slot, ok := vm.globalSlot(name)
			if !ok {
				return value.Null, bzerror.New(bzerror.Custom, "undefined global %q", name)
			}
			vm.globals[slot] = vm.peek(f, 0)

		case OpGetLocal:
			slot := vm.readByte(chunk, frame)
			vm.push(f, f.FiberStack[frame.StackBase+int(slot)])

		case OpSetLocal:
			slot := vm.readByte(chunk, frame)
			f.FiberStack[frame.StackBase+int(slot)] = vm.peek(f, 0)

		case OpJump:
			off := vm.readShort(chunk, frame)
			frame.IP += int(off)

		case OpJumpIfFalse:
			off := vm.readShort(chunk, frame)
			if !vm.peek(f, 0).Truthy() {
				frame.IP += int(off)
			}

		case OpLoop:
			off := vm.readShort(chunk, frame)
			frame.IP -= int(off)

		case OpCall:
			argc := int(vm.readByte(chunk, frame))
			args := append([]value.Value(nil), f.FiberStack[len(f.FiberStack)-argc:]...)
			f.FiberStack = f.FiberStack[:len(f.FiberStack)-argc]
			callee := vm.pop(f)
			if callee.Tag != value.TagObj {
				return value.Null, bzerror.New(bzerror.Custom, "value is not callable")
			}
			if err := vm.pushCall(f, callee.O, args); err != nil {
				return value.Null, err
			}

		case OpClosure:
			idx := vm.readByte(chunk, frame)
			fnVal := chunk.Constants[idx]
			cl := vm.Heap.Allocate(newClosure(fnVal.O))
			vm.push(f, value.FromObj(cl))

		case OpReturn:
			ret := vm.pop(f)
			base := frame.StackBase
			f.FiberFrames = f.FiberFrames[:len(f.FiberFrames)-1]
			f.FiberStack = f.FiberStack[:base]
			vm.push(f, ret)
			if len(f.FiberFrames) <= stopDepth {
				return ret, nil
			}

		case OpGetField:
			idx := vm.readByte(chunk, frame)
			name := chunk.Constants[idx].O
			recv := vm.pop(f)
			if recv.Tag != value.TagObj || recv.O.Kind != value.KindObjectInstance {
				return value.Null, bzerror.New(bzerror.Custom, "only instances have fields")
			}
			v, ok := value.GetField(recv.O, name)
			if !ok {
				return value.Null, bzerror.New(bzerror.Custom, "undefined field %q", name.Str)
			}
			vm.push(f, v)

		case OpSetField:
			idx := vm.readByte(chunk, frame)
			name := chunk.Constants[idx].O
			v := vm.pop(f)
			recv := vm.pop(f)
			if recv.Tag != value.TagObj || recv.O.Kind != value.KindObjectInstance {
				return value.Null, bzerror.New(bzerror.Custom, "only instances have fields")
			}
			value.SetField(recv.O, name, v)
			vm.Heap.WriteBarrier(recv.O)
			vm.push(f, v)

		case OpInvoke:
			idx := vm.readByte(chunk, frame)
			name := chunk.Constants[idx].O.Str
			argc := int(vm.readByte(chunk, frame))
			args := append([]value.Value(nil), f.FiberStack[len(f.FiberStack)-argc:]...)
			f.FiberStack = f.FiberStack[:len(f.FiberStack)-argc]
			recv := vm.pop(f)
			if err := vm.invoke(f, recv, name, args); err != nil {
				return value.Null, err
			}

		case OpNewList:
			n := int(vm.readByte(chunk, frame))
			items := append([]value.Value(nil), f.FiberStack[len(f.FiberStack)-n:]...)
			f.FiberStack = f.FiberStack[:len(f.FiberStack)-n]
			list := vm.Heap.Allocate(value.NewList(nil))
			list.ListItems = items
			vm.push(f, value.FromObj(list))

		case OpNewMap:
			n := int(vm.readByte(chunk, frame))
			pairs := append([]value.Value(nil), f.FiberStack[len(f.FiberStack)-2*n:]...)
			f.FiberStack = f.FiberStack[:len(f.FiberStack)-2*n]
			m := vm.Heap.Allocate(value.NewMap(nil))
			for i := 0; i < n; i++ {
				value.MapSet(m, pairs[2*i], pairs[2*i+1])
			}
			vm.push(f, value.FromObj(m))

		case OpIndexGet:
			idx := vm.pop(f)
			recv := vm.pop(f)
			v, err := vm.indexGet(recv, idx)
			if err != nil {
				return value.Null, err
			}
			vm.push(f, v)

		case OpIndexSet:
			val := vm.pop(f)
			idx := vm.pop(f)
			recv := vm.pop(f)
			if err := vm.indexSet(recv, idx, val); err != nil {
				return value.Null, err
			}
			vm.push(f, val)

		case OpGetSuper:
			nameIdx := vm.readByte(chunk, frame)
			superIdx := vm.readByte(chunk, frame)
			name := chunk.Constants[nameIdx].O.Str
			super := chunk.Constants[superIdx].O
			recv := vm.pop(f)
			bound, ok := value.ResolveMethod(recv, super, name)
			if !ok {
				return value.Null, bzerror.New(bzerror.Custom, "undefined superclass method %q", name)
			}
			vm.push(f, bound)

		case OpInvokeSuper:
			nameIdx := vm.readByte(chunk, frame)
			argc := int(vm.readByte(chunk, frame))
			superIdx := vm.readByte(chunk, frame)
			name := chunk.Constants[nameIdx].O.Str
			super := chunk.Constants[superIdx].O
			args := append([]value.Value(nil), f.FiberStack[len(f.FiberStack)-argc:]...)
			f.FiberStack = f.FiberStack[:len(f.FiberStack)-argc]
			recv := vm.pop(f)
			bound, ok := value.ResolveMethod(recv, super, name)
			if !ok {
				return value.Null, bzerror.New(bzerror.Custom, "undefined superclass method %q", name)
			}
			if err := vm.pushCall(f, bound.O, args); err != nil {
				return value.Null, err
			}

		case OpFiber:
			entry := vm.pop(f)
			if entry.Tag != value.TagObj {
				return value.Null, bzerror.New(bzerror.Custom, "&fn requires a callable operand")
			}
			fb := vm.Heap.Allocate(fiber.New(entry.O))
			vm.push(f, value.FromObj(fb))

		case OpYield:
			v := vm.pop(f)
			if _, err := vm.Sched.Yield(v); err != nil {
				return value.Null, err
			}
			return v, errYielded{}

		case OpPrint:
			v := vm.pop(f)
			if vm.out != nil {
				vm.out(value.ToString(v))
			}

		default:
			return value.Null, bzerror.New(bzerror.Custom, "unimplemented opcode %s", op)
		}

		// A yield above returns directly; everything else falls through to
		// the next iteration of this loop.
	}
}

// errYielded is a control-flow sentinel, not a user-visible buzz error:
// Resume checks for it to know a fiber suspended rather than failed.
type errYielded struct{}

func (errYielded) Error() string { return "fiber yielded" }

func (vm *VM) push(f *value.Obj, v value.Value) { f.FiberStack = append(f.FiberStack, v) }

func (vm *VM) pop(f *value.Obj) value.Value {
	v := f.FiberStack[len(f.FiberStack)-1]
	f.FiberStack = f.FiberStack[:len(f.FiberStack)-1]
	return v
}

func (vm *VM) peek(f *value.Obj, distance int) value.Value {
	return f.FiberStack[len(f.FiberStack)-1-distance]
}

func (vm *VM) readByte(chunk *value.Chunk, frame *value.CallFrame) byte {
	b := chunk.Code[frame.IP]
	frame.IP++
	return b
}

func (vm *VM) readShort(chunk *value.Chunk, frame *value.CallFrame) uint16 {
	hi := chunk.Code[frame.IP]
	lo := chunk.Code[frame.IP+1]
	frame.IP += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) invoke(f *value.Obj, recv value.Value, name string, args []value.Value) error {
	if recv.Tag == value.TagObj && recv.O.Kind == value.KindObjectInstance {
		nameObj := vm.Heap.Intern(name)
		if bound, ok := value.GetField(recv.O, nameObj); ok {
			return vm.pushCall(f, bound.O, args)
		}
	}
	// Fiber.resume must re-enter the bytecode loop (vm.Resume), not just
	// flip the scheduler's state: the natives table's "resume" entry only
	// does the latter, since pkg/natives has no access to a *VM.
	if recv.Tag == value.TagObj && recv.O.Kind == value.KindFiber && name == "resume" {
		v, err := vm.Resume(recv.O, args)
		if err != nil {
			return err
		}
		f.FiberStack = append(f.FiberStack, v)
		return nil
	}
	if recv.Tag == value.TagObj {
		if fn, ok := vm.Natives.Lookup(recv.O.Kind, name); ok {
			out, err := fn(recv, args)
			if err != nil {
				return err
			}
			f.FiberStack = append(f.FiberStack, firstOrNull(out))
			return nil
		}
	}
	return bzerror.New(bzerror.Custom, "undefined method %q", name)
}

// indexGet implements subscript reads (`list[i]`, `map[k]`), the surface
// syntax over §4.5's List/Map container semantics: an out-of-bound list
// index is an error (matching `sub`'s out-of-bound rule), a missing map
// key returns null (matching `remove`'s miss behavior) rather than
// erroring, since map lookup is expected to be probed speculatively.
func (vm *VM) indexGet(recv, idx value.Value) (value.Value, error) {
	if recv.Tag != value.TagObj {
		return value.Null, bzerror.New(bzerror.Custom, "value is not subscriptable")
	}
	switch recv.O.Kind {
	case value.KindList:
		i, ok := intIndex(idx)
		if !ok || i < 0 || i >= len(recv.O.ListItems) {
			return value.Null, bzerror.New(bzerror.OutOfBound, "list index is out of bound")
		}
		return recv.O.ListItems[i], nil
	case value.KindMap:
		v, ok := value.MapGet(recv.O, idx)
		if !ok {
			return value.Null, nil
		}
		return v, nil
	default:
		return value.Null, bzerror.New(bzerror.Custom, "value is not subscriptable")
	}
}

// indexSet implements subscript writes. A list write out of bound is an
// error; a map write always inserts or updates the key, mirroring
// value.MapSet. Both fire the write barrier, since either container may
// be an old-generation object (§4.2).
func (vm *VM) indexSet(recv, idx, val value.Value) error {
	if recv.Tag != value.TagObj {
		return bzerror.New(bzerror.Custom, "value is not subscriptable")
	}
	switch recv.O.Kind {
	case value.KindList:
		i, ok := intIndex(idx)
		if !ok || i < 0 || i >= len(recv.O.ListItems) {
			return bzerror.New(bzerror.OutOfBound, "list index is out of bound")
		}
		recv.O.ListItems[i] = val
	case value.KindMap:
		value.MapSet(recv.O, idx, val)
	default:
		return bzerror.New(bzerror.Custom, "value is not subscriptable")
	}
	vm.Heap.WriteBarrier(recv.O)
	return nil
}

func intIndex(v value.Value) (int, bool) {
	if v.Tag != value.TagInt {
		return 0, false
	}
	return int(v.I), true
}

func arith(op OpCode, a, b value.Value) (value.Value, error) {
	if a.Tag == value.TagObj && a.O.Kind == value.KindString && op == OpAdd {
		bs := value.ToString(b)
		return value.FromObj(value.NewString(a.O.Str + bs)), nil
	}
	af, aok := numOf(a)
	bf, bok := numOf(b)
	if !aok || !bok {
		return value.Null, bzerror.New(bzerror.BadNumber, "operands must be numbers")
	}
	if a.Tag == value.TagInt && b.Tag == value.TagInt {
		switch op {
		case OpAdd:
			return value.Int(a.I + b.I), nil
		case OpSubtract:
			return value.Int(a.I - b.I), nil
		case OpMultiply:
			return value.Int(a.I * b.I), nil
		case OpDivide:
			if b.I == 0 {
				return value.Null, bzerror.New(bzerror.DivisionByZero, "division by zero")
			}
			return value.Int(a.I / b.I), nil
		}
	}
	switch op {
	case OpAdd:
		return value.Float(af + bf), nil
	case OpSubtract:
		return value.Float(af - bf), nil
	case OpMultiply:
		return value.Float(af * bf), nil
	case OpDivide:
		if bf == 0 {
			return value.Null, bzerror.New(bzerror.DivisionByZero, "division by zero")
		}
		return value.Float(af / bf), nil
	}
	return value.Null, bzerror.New(bzerror.Custom, "unreachable arithmetic op")
}

func compare(op OpCode, a, b value.Value) (value.Value, error) {
	af, aok := numOf(a)
	bf, bok := numOf(b)
	if !aok || !bok {
		return value.Null, bzerror.New(bzerror.BadNumber, "operands must be numbers")
	}
	if op == OpLess {
		return value.Bool(af < bf), nil
	}
	return value.Bool(af > bf), nil
}

func numOf(v value.Value) (float64, bool) {
	switch v.Tag {
	case value.TagInt:
		return float64(v.I), true
	case value.TagFloat:
		return v.F, true
	default:
		return 0, false
	}
}

func newClosure(fn *value.Obj) *value.Obj {
	o := &value.Obj{}
	o.Kind = value.KindClosure
	o.ClosureFn = fn
	return o
}
