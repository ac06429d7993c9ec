package vm

import (
	"testing"

	"buzz/pkg/fiber"
	"buzz/pkg/gc"
	"buzz/pkg/types"
	"buzz/pkg/value"
)

func newTestVM() *VM {
	registry := types.NewRegistry()
	heap := gc.New(registry)
	root := value.NewFiber(nil)
	sched := fiber.NewScheduler(root)
	return New(heap, registry, sched)
}

func chunkFn(name string, arity int, code []byte, constants []value.Value) *value.Obj {
	fn := &value.Obj{}
	fn.Kind = value.KindFunction
	fn.FnName = name
	fn.FnKind = value.FnFunction
	fn.FnArity = arity
	fn.FnChunk = &value.Chunk{Code: code, Constants: constants, Lines: make([]int, len(code))}
	return fn
}

// TestArithmeticAndGlobals exercises OpConstant/OpAdd/OpDefineGlobal/
// OpGetGlobal end to end: `g = 2 + 3; return g`.
func TestArithmeticAndGlobals(t *testing.T) {
	vm := newTestVM()

	name := vm.Heap.Intern("g")
	code := []byte{
		byte(OpConstant), 0, // 2
		byte(OpConstant), 1, // 3
		byte(OpAdd),
		byte(OpDefineGlobal), 2, // name "g"
		byte(OpGetGlobal), 2,
		byte(OpReturn),
	}
	constants := []value.Value{value.Int(2), value.Int(3), value.FromObj(name)}
	fn := chunkFn("main", 0, code, constants)

	result, err := vm.Call(fn, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != value.Int(5) {
		t.Fatalf("expected 5, got %v", result)
	}
}

// TestFunctionCall exercises a locally-defined function called with one
// argument: `fun double(n) { return n + n; } double(21)`.
func TestFunctionCall(t *testing.T) {
	vm := newTestVM()

	doubleCode := []byte{
		byte(OpGetLocal), 0,
		byte(OpGetLocal), 0,
		byte(OpAdd),
		byte(OpReturn),
	}
	double := chunkFn("double", 1, doubleCode, nil)

	mainCode := []byte{
		byte(OpConstant), 0, // the `double` function value
		byte(OpConstant), 1, // arg 21
		byte(OpCall), 1,
		byte(OpReturn),
	}
	main := chunkFn("main", 0, mainCode, []value.Value{value.FromObj(double), value.Int(21)})

	result, err := vm.Call(main, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != value.Int(42) {
		t.Fatalf("expected 42, got %v", result)
	}
}

// TestSubtypeDispatchScenario reproduces spec concrete scenario 3:
// `class A { str m() { return "a"; } } class B < A { str m() { return
// "b"; } } A a = B(); a.m()` must return "b" — an instance of B
// dispatches to B's own override rather than A's, via the method table
// walk in value.GetField.
func TestSubtypeDispatchScenario(t *testing.T) {
	vm := newTestVM()

	aMethod := chunkFn("m", 0, []byte{byte(OpConstant), 0, byte(OpReturn)}, []value.Value{value.FromObj(vm.Heap.Intern("a"))})
	bMethod := chunkFn("m", 0, []byte{byte(OpConstant), 0, byte(OpReturn)}, []value.Value{value.FromObj(vm.Heap.Intern("b"))})

	classA := &value.Obj{}
	classA.Kind = value.KindObject
	classA.ObjName = "A"
	classA.Methods = map[string]*value.Obj{"m": aMethod}

	classB := &value.Obj{}
	classB.Kind = value.KindObject
	classB.ObjName = "B"
	classB.ObjSuper = classA
	classB.Methods = map[string]*value.Obj{"m": bMethod}

	instB := value.NewObjectInstance(classB)

	mName := vm.Heap.Intern("m")
	mainCode := []byte{
		byte(OpConstant), 0, // instB
		byte(OpInvoke), 1, 0, // name "m", 0 args
		byte(OpReturn),
	}
	main := chunkFn("main", 0, mainCode, []value.Value{value.FromObj(instB), value.FromObj(mName)})

	result, err := vm.Call(main, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result.Tag != value.TagObj || result.O.Str != "b" {
		t.Fatalf(`expected "b", got %v`, result)
	}
}

// TestFiberYieldResumeScenario reproduces spec concrete scenario 1: a
// fiber whose body yields 1, 2, 3 and then returns null; repeated
// resumes must return 1, 2, 3, null, with the fiber Over afterward.
//
// Bytecode for the body (conceptually `yield 1; yield 2; yield 3;`,
// with an implicit null return):
func TestFiberYieldResumeScenario(t *testing.T) {
	vm := newTestVM()

	body := chunkFn("count", 0, []byte{
		byte(OpConstant), 0, byte(OpYield), byte(OpPop),
		byte(OpConstant), 1, byte(OpYield), byte(OpPop),
		byte(OpConstant), 2, byte(OpYield), byte(OpPop),
		byte(OpNull), byte(OpReturn),
	}, []value.Value{value.Int(1), value.Int(2), value.Int(3)})
	body.FnKind = value.FnAnonymous
	body.FnType = &types.TypeDef{
		Kind:        types.Function,
		FunctionDef: &types.FunctionType{Yield: &types.TypeDef{Kind: types.Number}},
	}

	f := fiber.New(body)

	want := []value.Value{value.Int(1), value.Int(2), value.Int(3), value.Null}
	for i, w := range want {
		got, err := vm.Resume(f, nil)
		if err != nil {
			t.Fatalf("resume %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("resume %d: expected %v, got %v", i, w, got)
		}
	}

	if !fiber.Over(f) {
		t.Fatalf("expected fiber to be Over after its body returned")
	}
	if _, err := vm.Resume(f, nil); err == nil {
		t.Fatalf("expected resuming an Over fiber to error")
	}
}
