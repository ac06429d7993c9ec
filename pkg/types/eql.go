package types

// Eql implements TypeDef.eql from §4.1: two TypeDefs are equal iff their
// kinds match and either both carry no payload or their payloads are
// union-equal, with three special cases:
//
//   - Void is equal to any optional type (optional-return normalization).
//   - Placeholder is loosely equal to anything (deferred resolution).
//   - Object and Enum are nominal: never equal to a distinct definition.
//
// A non-optional TypeDef is never Eql to an optional TypeDef of the same
// shape (the Void rule is the sole, deliberate exception).
func Eql(a, b *TypeDef) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind == Placeholder || b.Kind == Placeholder {
		return true
	}
	if a.Kind == Void && b.Optional {
		return true
	}
	if b.Kind == Void && a.Optional {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Optional != b.Optional {
		return false
	}
	switch a.Kind {
	case Object, Enum:
		return false // nominal: only identical pointers are equal, handled above
	case ObjectInstance:
		return a.ObjectInstanceOf == b.ObjectInstanceOf
	case EnumInstance:
		return a.EnumInstanceOf == b.EnumInstanceOf
	case List:
		return Eql(a.ListItem, b.ListItem)
	case Map:
		return Eql(a.MapDef.Key, b.MapDef.Key) && Eql(a.MapDef.Value, b.MapDef.Value)
	case Fiber:
		return Eql(a.FiberDef.Return, b.FiberDef.Return) && Eql(a.FiberDef.Yield, b.FiberDef.Yield)
	case Function:
		return functionEql(a.FunctionDef, b.FunctionDef)
	default:
		return true // Bool, Number, String, Pattern, Type, Void, UserData carry no payload
	}
}

// functionEql compares return type, yield type, parameter count, and
// positional parameter types. Parameter names are ignored.
func functionEql(a, b *FunctionType) bool {
	if !Eql(a.Return, b.Return) {
		return false
	}
	if !Eql(a.Yield, b.Yield) {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !Eql(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return true
}
