package value

import "buzz/pkg/types"

// Is implements the runtime type test `is(obj, type)` from §4.1. Dispatch
// is by the value's own kind, following the rules in the spec verbatim.
func Is(v Value, t *types.TypeDef) bool {
	if t == nil {
		return false
	}
	if v.IsNull() {
		return t.Optional
	}
	switch v.Tag {
	case TagBool:
		return t.Kind == types.Bool
	case TagInt, TagFloat:
		return t.Kind == types.Number
	case TagObj:
		return isObj(v.O, t)
	default:
		return false
	}
}

func isObj(o *Obj, t *types.TypeDef) bool {
	switch o.Kind {
	case KindString:
		return t.Kind == types.String
	case KindPattern:
		return t.Kind == types.Pattern
	case KindFiber:
		return t.Kind == types.Fiber
	case KindType, KindObject, KindEnum:
		return t.Kind == types.Type
	case KindObjectInstance:
		if t.Kind != types.ObjectInstance {
			return false
		}
		return isSubclass(o.InstClass, t.ObjectInstanceOf)
	case KindEnumInstance:
		return t.Kind == types.EnumInstance && o.EnumRef.EnumDef == t.EnumInstanceOf
	case KindFunction, KindClosure, KindBound:
		return t.Kind == types.Function && types.Eql(functionTypeDef(o), t)
	case KindList:
		return t.Kind == types.List && types.Eql(o.ListType, t.ListItem)
	case KindMap:
		return t.Kind == types.Map && types.Eql(o.MapType, t)
	case KindUpValue:
		if o.UpOpen {
			return o.Location != nil && Is(*o.Location, t)
		}
		return Is(o.Closed, t)
	default:
		return false
	}
}

// isSubclass walks the super-chain of `class` looking for `target`,
// implementing ObjectInstance subtyping (§4.1, §3.3 "instance-of walks
// `super` pointers until null").
func isSubclass(class *Obj, target *types.TypeDef) bool {
	for class != nil {
		if class.ObjDef == target {
			return true
		}
		class = class.ObjSuper
	}
	return false
}

func functionTypeDef(o *Obj) *types.TypeDef {
	switch o.Kind {
	case KindFunction:
		return o.FnType
	case KindClosure:
		return o.ClosureFn.FnType
	case KindBound:
		return functionTypeDef(o.BoundMethod)
	default:
		return nil
	}
}
