package types

import "testing"

func TestStructuralCanonicalization(t *testing.T) {
	r := NewRegistry()
	a := r.ListOf(r.Number(false), false)
	b := r.ListOf(r.Number(false), false)
	if a != b {
		t.Fatalf("expected structurally-identical list types to canonicalize to the same pointer")
	}
	c := r.ListOf(r.String(false), false)
	if a == c {
		t.Fatalf("lists over different item types must not canonicalize")
	}
}

func TestObjectAndEnumAreNominal(t *testing.T) {
	r := NewRegistry()
	a := r.NewObject("Point", nil, false)
	b := r.NewObject("Point", nil, false)
	if a == b {
		t.Fatalf("two distinct object declarations with the same name must not collapse")
	}
	if Eql(a, b) {
		t.Fatalf("Object TypeDefs are nominal: Eql must be false for distinct definitions")
	}
	if !Eql(a, a) {
		t.Fatalf("a type must be Eql to itself")
	}
}

func TestVoidEqualsAnyOptional(t *testing.T) {
	r := NewRegistry()
	void := r.Void()
	optStr := r.String(true)
	if !Eql(void, optStr) {
		t.Fatalf("void must be Eql to any optional type")
	}
	if !Eql(optStr, void) {
		t.Fatalf("Eql must be symmetric for the Void special case")
	}
	str := r.String(false)
	if Eql(void, str) {
		t.Fatalf("void must not be Eql to a non-optional type")
	}
}

func TestNonOptionalNotEqlToOptionalOfSameShape(t *testing.T) {
	r := NewRegistry()
	str := r.String(false)
	optStr := r.String(true)
	if Eql(str, optStr) {
		t.Fatalf("a non-optional type must not be Eql to an optional type of the same shape")
	}
}

func TestPlaceholderLooselyEqual(t *testing.T) {
	r := NewRegistry()
	p := r.NewPlaceholder(nil, SourceLocation{File: "x.buzz", Line: 1})
	if !Eql(p, r.Number(false)) {
		t.Fatalf("an unresolved placeholder must be loosely Eql to anything")
	}
}

func TestFunctionEqlIgnoresParamNames(t *testing.T) {
	r := NewRegistry()
	num := r.Number(false)
	fn1 := r.FunctionOf([]Param{{Name: "a", Type: num}}, r.Void(), nil, false)
	fn2 := r.FunctionOf([]Param{{Name: "b", Type: num}}, r.Void(), nil, false)
	if !Eql(fn1, fn2) {
		t.Fatalf("function equality must ignore parameter names")
	}
}

func TestEqlTransitiveForNonPlaceholders(t *testing.T) {
	r := NewRegistry()
	a := r.ListOf(r.Number(false), false)
	b := r.ListOf(r.Number(false), false)
	c := r.ListOf(r.Number(false), false)
	if !(Eql(a, b) && Eql(b, c) && Eql(a, c)) {
		t.Fatalf("Eql must be transitive for non-placeholder types")
	}
}

func TestLinkIsIdempotentFirstWriterWins(t *testing.T) {
	r := NewRegistry()
	parent1 := r.NewPlaceholder(nil, SourceLocation{})
	parent2 := r.NewPlaceholder(nil, SourceLocation{})
	child := r.NewPlaceholder(nil, SourceLocation{})

	r.Link(parent1, child, FieldAccess)
	r.Link(parent2, child, Call)

	if child.PlaceholderDef.Parent != parent1 {
		t.Fatalf("first linked parent must win")
	}
	if len(parent2.PlaceholderDef.Children) != 0 {
		t.Fatalf("second link attempt must be a no-op")
	}
}

func TestLinkForbidsSelfLink(t *testing.T) {
	r := NewRegistry()
	p := r.NewPlaceholder(nil, SourceLocation{})
	r.Link(p, p, FieldAccess)
	if p.PlaceholderDef.Parent != nil {
		t.Fatalf("self-linking must be a no-op")
	}
}

func TestPlaceholderChainIsFinite(t *testing.T) {
	r := NewRegistry()
	root := r.NewPlaceholder(nil, SourceLocation{})
	cur := root
	for i := 0; i < 5; i++ {
		child := r.NewPlaceholder(nil, SourceLocation{})
		r.Link(cur, child, FieldAccess)
		cur = child
	}
	seen := map[*TypeDef]bool{}
	walk := cur
	for walk != nil {
		if seen[walk] {
			t.Fatalf("placeholder parent chain must be finite (cycle detected)")
		}
		seen[walk] = true
		walk = walk.PlaceholderDef.Parent
	}
}

func TestResolvePlaceholderPreservesIdentityAndPropagatesFieldAccess(t *testing.T) {
	r := NewRegistry()
	name := "y"
	classPlaceholder := r.NewPlaceholder(&name, SourceLocation{File: "f.buzz", Line: 1})
	fieldPlaceholder := r.NewPlaceholder(&name, SourceLocation{File: "f.buzz", Line: 1})
	r.Link(classPlaceholder, fieldPlaceholder, FieldAccess)

	class := r.NewObject("X", nil, false)
	class.ObjectDef.Fields["y"] = r.String(false)

	if err := r.Resolve(classPlaceholder, class); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if classPlaceholder.Kind != Object {
		t.Fatalf("resolved placeholder must take on the resolved kind in place")
	}
	if fieldPlaceholder.Kind != String {
		t.Fatalf("FieldAccess child must resolve to the named field's type, got %s", fieldPlaceholder.Kind)
	}

	pending := r.Pending()
	if len(pending) != 0 {
		t.Fatalf("expected no pending placeholders after resolution, got %d", len(pending))
	}
}

func TestUnresolvedPlaceholderStaysPending(t *testing.T) {
	r := NewRegistry()
	r.NewPlaceholder(nil, SourceLocation{File: "f.buzz", Line: 3})
	if len(r.Pending()) != 1 {
		t.Fatalf("an unresolved placeholder must remain in Pending()")
	}
}
