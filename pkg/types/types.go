// Package types implements buzz's static type descriptors: the canonical
// TypeDef representation, the registry that hash-conses structural types,
// and the Placeholder mechanism the parser uses to resolve forward
// references during a single pass.
package types

import "fmt"

// Kind enumerates the shapes a TypeDef can take. Object and Enum are
// nominal; every other kind is structural and subject to hash-consing by
// the Registry.
type Kind uint8

const (
	Bool Kind = iota
	Number
	String
	Pattern
	Type
	Void
	UserData
	Fiber
	ObjectInstance
	EnumInstance
	Object
	Enum
	List
	Map
	Function
	Placeholder
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Number:
		return "num"
	case String:
		return "str"
	case Pattern:
		return "pat"
	case Type:
		return "type"
	case Void:
		return "void"
	case UserData:
		return "userdata"
	case Fiber:
		return "fiber"
	case ObjectInstance:
		return "object-instance"
	case EnumInstance:
		return "enum-instance"
	case Object:
		return "object"
	case Enum:
		return "enum"
	case List:
		return "list"
	case Map:
		return "map"
	case Function:
		return "function"
	case Placeholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// SourceLocation names where a placeholder (or, generally, a type) was
// introduced, for diagnostics.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Param is one named, positionally-ordered function parameter.
type Param struct {
	Name       string
	Type       *TypeDef
	Default    Default
	HasDefault bool
}

// Default is an opaque carrier for a parameter's default value. types
// never inspects it; pkg/value supplies the concrete implementation
// (ValueDefault) so this package has no dependency on the runtime value
// representation.
type Default interface {
	isDefault()
}

// FunctionType is the payload of a Function TypeDef.
type FunctionType struct {
	Params []Param
	Return *TypeDef
	Yield  *TypeDef // non-nil (and non-Void) marks the function as a fiber body
}

// MapType is the payload of a Map TypeDef.
type MapType struct {
	Key   *TypeDef
	Value *TypeDef
}

// FiberType is the payload of a Fiber TypeDef: the resume-return and
// yield-value types of fibers produced by calling a yielding function.
type FiberType struct {
	Return *TypeDef
	Yield  *TypeDef
}

// ObjectType is the payload of an Object (class) TypeDef. Fields and
// Methods are keyed by member name; Super chains to the parent class, or
// nil for a root class.
type ObjectType struct {
	Name    string
	Super   *TypeDef
	Fields  map[string]*TypeDef
	Methods map[string]*TypeDef
}

// EnumType is the payload of an Enum TypeDef.
type EnumType struct {
	Name     string
	CaseType *TypeDef
	Cases    []string
}

// Relation names the syntactic use that produced an edge from a
// placeholder to one of its children (see §4.4 of the spec for the
// resolution rule each relation drives).
type Relation uint8

const (
	Call Relation = iota
	Yield
	Subscript
	Key
	SuperFieldAccess
	FieldAccess
	Assignment
	Instance
	Optional
	Unwrap
)

// PlaceholderDef is the payload of a Placeholder TypeDef: a deferred,
// partially-known type the parser created for a forward reference.
type PlaceholderDef struct {
	Name           *string
	Where          SourceLocation
	Parent         *TypeDef
	ParentRelation Relation
	Children       []*TypeDef
}

// TypeDef is the canonical descriptor of a static type. It is modeled, like
// the AST value nodes this codebase's lineage uses elsewhere, as a single
// flattened struct carrying every kind's payload in mutually-exclusive
// fields rather than as a Go interface hierarchy: callers switch on Kind
// and read the one field that applies. This keeps type dispatch a static
// switch instead of a virtual call, which is also what the runtime object
// representation in pkg/value does for the same reason.
type TypeDef struct {
	Optional bool
	Kind     Kind
	Name     string // display name for Object/Enum/Placeholder; empty otherwise

	ObjectDef        *ObjectType
	EnumDef          *EnumType
	ObjectInstanceOf *TypeDef
	EnumInstanceOf   *TypeDef
	ListItem         *TypeDef
	MapDef           *MapType
	FunctionDef      *FunctionType
	FiberDef         *FiberType
	PlaceholderDef   *PlaceholderDef
}

func (t *TypeDef) String() string {
	if t == nil {
		return "<nil type>"
	}
	suffix := ""
	if t.Optional {
		suffix = "?"
	}
	switch t.Kind {
	case List:
		return fmt.Sprintf("[%s]%s", t.ListItem, suffix)
	case Map:
		return fmt.Sprintf("{%s: %s}%s", t.MapDef.Key, t.MapDef.Value, suffix)
	case Object:
		return t.ObjectDef.Name + suffix
	case Enum:
		return t.EnumDef.Name + suffix
	case ObjectInstance:
		return t.ObjectInstanceOf.Name + suffix
	case EnumInstance:
		return t.EnumInstanceOf.Name + suffix
	case Placeholder:
		name := "?"
		if t.PlaceholderDef != nil && t.PlaceholderDef.Name != nil {
			name = *t.PlaceholderDef.Name
		}
		return fmt.Sprintf("<placeholder %s>%s", name, suffix)
	default:
		return t.Kind.String() + suffix
	}
}
