package value

import (
	"math"

	"buzz/pkg/types"
)

// Tag discriminates the five Value variants (§3.1).
type Tag uint8

const (
	TagNull Tag = iota
	TagBool
	TagInt
	TagFloat
	TagObj
)

// Value is buzz's compact tagged union: null, a boolean, an integer, a
// float, or a pointer to a heap Obj. It is a plain comparable struct
// (every field is comparable) so that Go's own `==` implements identity
// comparison for pointers and bit-exact comparison for numbers, and so a
// Value can be used directly as a map key wherever the language calls
// for a HashableValue.
type Value struct {
	Tag Tag
	B   bool
	I   int64
	F   float64
	O   *Obj
}

var Null = Value{Tag: TagNull}

func Bool(b bool) Value    { return Value{Tag: TagBool, B: b} }
func Int(i int64) Value    { return Value{Tag: TagInt, I: i} }
func Float(f float64) Value { return Value{Tag: TagFloat, F: f} }
func FromObj(o *Obj) Value { return Value{Tag: TagObj, O: o} }

func (v Value) IsNull() bool  { return v.Tag == TagNull }
func (v Value) IsBool() bool  { return v.Tag == TagBool }
func (v Value) IsInt() bool   { return v.Tag == TagInt }
func (v Value) IsFloat() bool { return v.Tag == TagFloat }
func (v Value) IsObj() bool   { return v.Tag == TagObj }

func (v Value) IsObjKind(k Kind) bool { return v.Tag == TagObj && v.O != nil && v.O.Kind == k }

// Truthy implements buzz's notion of truthiness: null and false are
// falsy, everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.Tag {
	case TagNull:
		return false
	case TagBool:
		return v.B
	default:
		return true
	}
}

// Hashable reports whether v may be used as a map key per the
// HashableValue projection in §3.1: NaN floats and mutable object
// variants (List, Map, ObjectInstance, Fiber), as well as UpValue
// cells, are excluded.
func (v Value) Hashable() bool {
	if v.Tag == TagFloat && math.IsNaN(v.F) {
		return false
	}
	if v.Tag != TagObj || v.O == nil {
		return true
	}
	switch v.O.Kind {
	case KindList, KindMap, KindObjectInstance, KindFiber, KindUpValue:
		return false
	default:
		return true
	}
}

// ValueDefault adapts a Value to satisfy types.Default, letting a
// Param carry a default Value without pkg/types depending on pkg/value.
type ValueDefault struct{ V Value }

func (ValueDefault) isDefault() {}

// AsDefault unwraps a types.Default produced by ValueDefault. Ok is
// false if the default was not built by this package (it never is, in
// practice, since ValueDefault is the sole implementation).
func AsDefault(d types.Default) (Value, bool) {
	vd, ok := d.(ValueDefault)
	return vd.V, ok
}
