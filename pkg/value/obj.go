package value

import (
	"buzz/pkg/types"

	"github.com/google/uuid"
)

// FunctionKind distinguishes the handful of closure shapes the compiler
// emits. Anonymous functions with a non-void yield type are the ones
// legal to wrap in a fiber (§4.3).
type FunctionKind uint8

const (
	FnScript FunctionKind = iota
	FnFunction
	FnMethod
	FnAnonymous
	FnNative
)

// FiberStatus is the lifecycle state of a Fiber object (§4.3).
type FiberStatus uint8

const (
	Instanciated FiberStatus = iota
	Running
	Yielded
	Over
)

func (s FiberStatus) String() string {
	switch s {
	case Instanciated:
		return "Instanciated"
	case Running:
		return "Running"
	case Yielded:
		return "Yielded"
	case Over:
		return "Over"
	default:
		return "Unknown"
	}
}

// CallFrame is one activation record on a fiber's frame stack.
type CallFrame struct {
	Closure   *Obj
	IP        int
	StackBase int
	CatchIPs  []int // pending catch targets registered by this frame, innermost last
}

// Chunk is a function's compiled bytecode: instruction bytes, constant
// pool, and a parallel line table for diagnostics (§3.6).
type Chunk struct {
	Code      []byte
	Constants []Value
	Lines     []int
}

func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// NativeFn is a host or built-in method implementation. It follows the
// host library contract of §6: it returns the values it produces (zero
// or more) or a non-nil error. The VM pushes the first returned value
// (null when there is none) and returns the error from its run loop.
type NativeFn func(receiver Value, args []Value) ([]Value, error)

// Obj is the heap representation shared by every object kind. As
// described in header.go, this is a deliberately flattened tagged union:
// only the fields that match Header.Kind are meaningful, and every
// operation (mark, eql, is, toString, member lookup) switches on Kind
// rather than dispatching through an interface.
type Obj struct {
	Header

	// KindString: interned bytes.
	Str string

	// KindPattern: opaque source text; §6 requires this to survive
	// byte-identical round trips, so Compiled is derived lazily and
	// never serialized.
	PatternSource string
	Compiled      any // *pattern.Pattern, kept as `any` to avoid value -> pattern import cycle

	// KindType: a first-class reference to a static TypeDef.
	TypeVal *types.TypeDef

	// KindUpValue: open while Location is non-nil, closed otherwise.
	UpOpen   bool
	Location *Value
	Closed   Value

	// KindClosure
	ClosureFn  *Obj   // -> KindFunction
	Upvalues   []*Obj // each -> KindUpValue

	// KindFunction
	FnName       string
	FnKind       FunctionKind
	FnArity      int
	FnChunk      *Chunk
	FnType       *types.TypeDef // declared signature, Kind == types.Function
	FnUpvalCount int
	FnNative     NativeFn // non-nil iff FnKind == FnNative

	// KindObject (class)
	ObjName    string
	ObjSuper   *Obj // -> KindObject, or nil
	ObjDef     *types.TypeDef
	StaticFlds map[string]Value
	Methods    map[string]*Obj // -> KindFunction, KindClosure or KindNative (via Bound at call time)

	// KindObjectInstance
	InstClass  *Obj // -> KindObject
	InstFields map[*Obj]Value // keyed by interned KindString objects
	DebugID    string         // uuid, stamped at construction for log/trace correlation

	// KindList
	ListItems []Value
	ListType  *types.TypeDef

	// KindMap
	MapKeys  []Value // insertion order
	MapVals  map[Value]Value
	MapType  *types.TypeDef

	// KindEnum
	EnumName   string
	EnumDef    *types.TypeDef
	EnumValues map[string]Value

	// KindEnumInstance
	EnumRef   *Obj // -> KindEnum
	CaseIndex int
	CaseName  string
	CaseValue Value

	// KindBound
	BoundReceiver Value
	BoundMethod   *Obj // -> KindFunction, KindClosure or KindNative

	// KindNative: a wrapper exposing a host/native function as a Value.
	Native     NativeFn
	NativeName string

	// KindUserData: opaque host-owned resource.
	UserPtr any

	// KindFiber
	FiberParent       *Obj
	FiberStack        []Value
	FiberFrames       []CallFrame
	FiberOpenUpvalues []*Obj
	FiberStatus       FiberStatus
	FiberReturnSlot   Value
	FiberYieldValue   Value
	FiberEntry        *Obj // -> KindClosure or KindFunction
}

func newObj(kind Kind) *Obj {
	return &Obj{Header: Header{Kind: kind}}
}

// NewString builds an un-interned String object. Interning is the
// responsibility of the runtime's string table (pkg/gc), which is the
// only place allowed to decide two byte-identical strings share an
// object (§3.1's invariant).
func NewString(s string) *Obj {
	o := newObj(KindString)
	o.Str = s
	return o
}

func NewList(itemType *types.TypeDef) *Obj {
	o := newObj(KindList)
	o.ListType = itemType
	return o
}

func NewMap(mapType *types.TypeDef) *Obj {
	o := newObj(KindMap)
	o.MapType = mapType
	o.MapVals = make(map[Value]Value)
	return o
}

// NewPattern builds a Pattern object from its literal source text. Per
// §6, PatternSource is the byte-identical round-trip contract; the
// compiled matcher (pkg/pattern) is derived lazily on first use, not
// eagerly here.
func NewPattern(src string) *Obj {
	o := newObj(KindPattern)
	o.PatternSource = src
	return o
}

func NewObjectInstance(class *Obj) *Obj {
	o := newObj(KindObjectInstance)
	o.InstClass = class
	o.InstFields = make(map[*Obj]Value)
	o.DebugID = uuid.NewString()
	return o
}

func NewBound(receiver Value, method *Obj) *Obj {
	o := newObj(KindBound)
	o.BoundReceiver = receiver
	o.BoundMethod = method
	return o
}

func NewNative(name string, fn NativeFn) *Obj {
	o := newObj(KindNative)
	o.NativeName = name
	o.Native = fn
	return o
}

func NewFiber(entry *Obj) *Obj {
	o := newObj(KindFiber)
	o.FiberEntry = entry
	o.FiberStatus = Instanciated
	o.DebugID = uuid.NewString()
	return o
}
