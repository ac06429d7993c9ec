package value

import (
	"testing"

	"buzz/pkg/types"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), true},
		{FromObj(NewString("")), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqlStringByIdentity(t *testing.T) {
	a := FromObj(NewString("ab"))
	b := a
	if !Eql(a, b) {
		t.Fatalf("same string object must be Eql to itself")
	}
	c := FromObj(NewString("ab"))
	if Eql(a, c) {
		t.Fatalf("two distinct (un-interned) String objects must not be Eql even with equal bytes")
	}
}

func TestEqlEnumInstanceByEnumAndCase(t *testing.T) {
	enum := newObj(KindEnum)
	a := newObj(KindEnumInstance)
	a.EnumRef = enum
	a.CaseIndex = 1
	b := newObj(KindEnumInstance)
	b.EnumRef = enum
	b.CaseIndex = 1
	if !Eql(FromObj(a), FromObj(b)) {
		t.Fatalf("EnumInstance must be Eql by (enum, case index)")
	}
	c := newObj(KindEnumInstance)
	c.EnumRef = enum
	c.CaseIndex = 2
	if Eql(FromObj(a), FromObj(c)) {
		t.Fatalf("EnumInstance with different case index must not be Eql")
	}
}

func TestEqlUpValueUnwraps(t *testing.T) {
	slot := Int(42)
	open := newObj(KindUpValue)
	open.UpOpen = true
	open.Location = &slot
	closed := newObj(KindUpValue)
	closed.UpOpen = false
	closed.Closed = Int(42)
	if !Eql(FromObj(open), FromObj(closed)) {
		t.Fatalf("open and closed upvalues wrapping the same value must be Eql")
	}
}

func TestHashableExcludesMutableContainers(t *testing.T) {
	list := NewList(nil)
	if FromObj(list).Hashable() {
		t.Fatalf("a list must not be Hashable")
	}
	if !FromObj(NewString("x")).Hashable() {
		t.Fatalf("a string must be Hashable")
	}
	nan := Float(nanValue())
	if nan.Hashable() {
		t.Fatalf("NaN floats must not be Hashable")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestIsSubtypeDispatch(t *testing.T) {
	r := types.NewRegistry()
	aDef := r.NewObject("A", nil, false)
	bDef := r.NewObject("B", aDef, false)

	aClass := newObj(KindObject)
	aClass.ObjName = "A"
	aClass.ObjDef = aDef

	bClass := newObj(KindObject)
	bClass.ObjName = "B"
	bClass.ObjDef = bDef
	bClass.ObjSuper = aClass

	instB := NewObjectInstance(bClass)
	instAType := r.InstanceOf(aDef, false)
	if !Is(FromObj(instB), instAType) {
		t.Fatalf("an instance of B, a subclass of A, must satisfy `is A`")
	}
}

func TestGetFieldSearchesInstanceThenMethodsThenSuper(t *testing.T) {
	a := newObj(KindObject)
	a.ObjName = "A"
	a.Methods = map[string]*Obj{"m": NewNative("m", func(Value, []Value) ([]Value, error) { return nil, nil })}

	b := newObj(KindObject)
	b.ObjName = "B"
	b.ObjSuper = a
	b.Methods = map[string]*Obj{}

	inst := NewObjectInstance(b)
	name := NewString("m")
	if _, ok := GetField(inst, name); !ok {
		t.Fatalf("expected method `m` to be found via the super-chain")
	}

	fieldName := NewString("x")
	inst.InstFields[fieldName] = Int(7)
	if v, ok := GetField(inst, fieldName); !ok || v.I != 7 {
		t.Fatalf("expected instance field to shadow class members")
	}
}
