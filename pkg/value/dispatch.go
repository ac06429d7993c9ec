package value

// GetField implements the read half of §4.6: instance-fields, then
// class-methods, then walking the super-chain, in that order. Instance
// fields are keyed by interned String objects (§3.5); methods are keyed
// by plain Go strings since the class's method table is built once at
// class-definition time and never looked up by arbitrary runtime
// strings.
func GetField(inst *Obj, name *Obj) (Value, bool) {
	if v, ok := inst.InstFields[name]; ok {
		return v, true
	}
	class := inst.InstClass
	for class != nil {
		if m, ok := class.Methods[name.Str]; ok {
			return FromObj(NewBound(FromObj(inst), m)), true
		}
		class = class.ObjSuper
	}
	return Null, false
}

// SetField always targets the instance directly (§4.6: "Field writes
// always target the instance"). Firing the dirty write barrier is the
// caller's responsibility (pkg/gc.Heap.WriteBarrier), since only the
// caller has a heap in scope.
func SetField(inst *Obj, name *Obj, v Value) {
	inst.InstFields[name] = v
}

// ResolveMethod returns the Bound method `name` looked up on class,
// walking the super-chain, without considering instance fields. It
// backs `super.m()` call sites.
func ResolveMethod(receiver Value, class *Obj, name string) (Value, bool) {
	for class != nil {
		if m, ok := class.Methods[name]; ok {
			return FromObj(NewBound(receiver, m)), true
		}
		class = class.ObjSuper
	}
	return Null, false
}

// CallArgs prepends the receiver to an argument list, implementing
// "calling a Bound value prepends the receiver to argument slots."
func CallArgs(bound *Obj, args []Value) []Value {
	out := make([]Value, 0, len(args)+1)
	out = append(out, bound.BoundReceiver)
	out = append(out, args...)
	return out
}
