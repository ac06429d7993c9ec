// Package value implements buzz's runtime object and value model: the
// tagged Value union and the heap Obj representation for every object
// kind the language defines (String, Pattern, Type, UpValue, Closure,
// Function, Object, ObjectInstance, List, Map, Enum, EnumInstance, Bound,
// Native, UserData, Fiber).
//
// Per the design note in §9 of the spec, dynamic dispatch across these
// sixteen kinds is implemented as a tagged sum (one struct, one Kind
// field, one switch per operation) rather than as a Go interface
// hierarchy with sixteen implementations: a static switch on Kind is
// preferred over a virtual call for branch prediction. pkg/types shapes
// TypeDef the same way.
package value

// Kind discriminates the heap object variants.
type Kind uint8

const (
	KindString Kind = iota
	KindPattern
	KindType
	KindUpValue
	KindClosure
	KindFunction
	KindObject
	KindObjectInstance
	KindList
	KindMap
	KindEnum
	KindEnumInstance
	KindBound
	KindNative
	KindUserData
	KindFiber
)

func (k Kind) String() string {
	names := [...]string{
		"String", "Pattern", "Type", "UpValue", "Closure", "Function",
		"Object", "ObjectInstance", "List", "Map", "Enum", "EnumInstance",
		"Bound", "Native", "UserData", "Fiber",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Header is the common prefix every heap object carries, per §3.2:
// `marked` is toggled by the tracer, `dirty` is set by write barriers,
// and GenNext/GenPrev thread the object onto its current generation's
// intrusive list. All three fields are owned and mutated exclusively by
// pkg/gc; pkg/value never inspects them.
type Header struct {
	Kind    Kind
	Marked  bool
	Dirty   bool
	OldGen  bool // which generation's list this object currently lives on
	GenNext *Obj
	GenPrev *Obj
}
