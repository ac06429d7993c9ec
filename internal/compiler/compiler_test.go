package compiler

import (
	"testing"

	"buzz/pkg/fiber"
	"buzz/pkg/gc"
	"buzz/pkg/types"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

func newTestVM(t *testing.T) (*vm.VM, *types.Registry) {
	t.Helper()
	registry := types.NewRegistry()
	heap := gc.New(registry)
	root := value.NewFiber(nil)
	sched := fiber.NewScheduler(root)
	return vm.New(heap, registry, sched), registry
}

func run(t *testing.T, src string) value.Value {
	t.Helper()
	machine, registry := newTestVM(t)
	result, err := Compile(src, machine.Heap, registry)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := machine.Call(result.Main, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return got
}

// TestPlaceholderResolutionScenario reproduces spec concrete scenario 2:
// a function annotates a return type that is only declared later in the
// same file. The forward reference must resolve by the time compilation
// finishes, and the singleton's field must be reachable through the
// resolved global.
func TestPlaceholderResolutionScenario(t *testing.T) {
	src := `
		fun f() > X {
			return X.y;
		}
		object X {
			str y = "ok";
		}
		return f();
	`
	got := run(t, src)
	if got.Tag != value.TagObj || got.O.Str != "ok" {
		t.Fatalf(`expected "ok", got %v`, got)
	}
}

// TestSubtypeDispatchScenario reproduces spec concrete scenario 3 via
// real source text: an instance of B, held through an A-typed variable,
// must still dispatch to B's own method override.
func TestSubtypeDispatchScenario(t *testing.T) {
	src := `
		class A {
			str m() {
				return "a";
			}
		}
		class B < A {
			str m() {
				return "b";
			}
		}
		var a = B();
		return a.m();
	`
	got := run(t, src)
	if got.Tag != value.TagObj || got.O.Str != "b" {
		t.Fatalf(`expected "b", got %v`, got)
	}
}

// TestSingletonFieldMutation exercises a singleton's field being
// written and re-read through the same global binding.
func TestSingletonFieldMutation(t *testing.T) {
	src := `
		object Counter {
			num n = 0;
		}
		Counter.n = Counter.n + 1;
		Counter.n = Counter.n + 1;
		return Counter.n;
	`
	got := run(t, src)
	if got != value.Int(2) {
		t.Fatalf("expected 2, got %v", got)
	}
}

// TestWhileLoopAccumulates exercises OpLoop/OpJumpIfFalse end to end.
func TestWhileLoopAccumulates(t *testing.T) {
	src := `
		var total = 0;
		var i = 0;
		while (i < 5) {
			total = total + i;
			i = i + 1;
		}
		return total;
	`
	got := run(t, src)
	if got != value.Int(10) {
		t.Fatalf("expected 10, got %v", got)
	}
}

// TestIfElseBranches exercises OpJump/OpJumpIfFalse's then/else wiring.
func TestIfElseBranches(t *testing.T) {
	src := `
		fun classify(n) {
			if (n < 0) {
				return "negative";
			} else {
				return "non-negative";
			}
		}
		return classify(-1) + "/" + classify(1);
	`
	got := run(t, src)
	if got.Tag != value.TagObj || got.O.Str != "negative/non-negative" {
		t.Fatalf(`expected "negative/non-negative", got %v`, got)
	}
}

// TestListLiteralAndSubscript exercises OpNewList/OpIndexGet through the
// real front end (§4.5).
func TestListLiteralAndSubscript(t *testing.T) {
	src := `
		var l = [10, 20, 30];
		return l[1];
	`
	got := run(t, src)
	if got != value.Int(20) {
		t.Fatalf("expected 20, got %v", got)
	}
}

// TestListSubscriptAssign exercises OpIndexSet through the real front
// end.
func TestListSubscriptAssign(t *testing.T) {
	src := `
		var l = [1, 2, 3];
		l[0] = 99;
		return l[0];
	`
	got := run(t, src)
	if got != value.Int(99) {
		t.Fatalf("expected 99, got %v", got)
	}
}

// TestMapLiteralAndSubscript exercises OpNewMap/OpIndexGet through the
// real front end.
func TestMapLiteralAndSubscript(t *testing.T) {
	src := `
		var m = {"a": 1, "b": 2};
		return m["b"];
	`
	got := run(t, src)
	if got != value.Int(2) {
		t.Fatalf("expected 2, got %v", got)
	}
}

// TestPatternLiteralRoundTrip exercises the lexer/compiler's /.../
// pattern literal: the compiled object must carry the exact source text
// between the delimiters, per §6's byte-identical round-trip contract.
func TestPatternLiteralRoundTrip(t *testing.T) {
	src := `
		var p = /\w+@\w+/;
		return p;
	`
	got := run(t, src)
	if got.Tag != value.TagObj || got.O.Kind != value.KindPattern {
		t.Fatalf("expected a pattern value, got %v", got)
	}
	if got.O.PatternSource != `\w+@\w+` {
		t.Fatalf(`expected pattern source %q, got %q`, `\w+@\w+`, got.O.PatternSource)
	}
}

// TestFiberCreationLiteral exercises unary `&` fiber creation through the
// real front end: the resulting value must be a fresh, not-yet-started
// Fiber wrapping the named function as its entry.
func TestFiberCreationLiteral(t *testing.T) {
	src := `
		fun counter() {
			return 1;
		}
		var f = &counter;
		return f;
	`
	got := run(t, src)
	if got.Tag != value.TagObj || got.O.Kind != value.KindFiber {
		t.Fatalf("expected a fiber value, got %v", got)
	}
	if got.O.FiberStatus != value.Instanciated {
		t.Fatalf("expected a freshly created fiber to be Instanciated, got %v", got.O.FiberStatus)
	}
	if got.O.FiberEntry == nil || got.O.FiberEntry.FnName != "counter" {
		t.Fatalf("expected fiber entry to be the counter function, got %v", got.O.FiberEntry)
	}
}

// TestSuperMethodCall reproduces spec concrete scenario 3's sibling
// case: B.m() calls A.m() via `super.m()` rather than re-dispatching to
// itself, reaching OpGetSuper/OpInvokeSuper through real source text.
func TestSuperMethodCall(t *testing.T) {
	src := `
		class A {
			str m() {
				return "a";
			}
		}
		class B < A {
			str m() {
				return super.m() + "b";
			}
		}
		var b = B();
		return b.m();
	`
	got := run(t, src)
	if got.Tag != value.TagObj || got.O.Str != "ab" {
		t.Fatalf(`expected "ab", got %v`, got)
	}
}
