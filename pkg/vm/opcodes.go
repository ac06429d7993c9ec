package vm

// OpCode is one bytecode instruction. The set below is the minimal
// instruction family needed to drive every concrete scenario in §8:
// constants and arithmetic, local/global slots, control flow, function
// and method calls, object instantiation and field/dispatch access, and
// the two fiber control points (fiber creation and yield).
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNull
	OpTrue
	OpFalse
	OpPop

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpNot
	OpEqual
	OpLess
	OpGreater

	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpGetUpvalue
	OpSetUpvalue

	OpJump
	OpJumpIfFalse
	OpLoop

	OpCall
	OpClosure
	OpCloseUpvalue
	OpReturn

	OpClass
	OpInherit
	OpMethod
	OpGetField
	OpSetField
	OpGetSuper
	OpInvoke
	OpInvokeSuper

	OpNewList
	OpNewMap
	OpIndexGet
	OpIndexSet

	OpFiber
	OpYield

	OpPrint
)

var opcodeNames = [...]string{
	"CONSTANT", "NULL", "TRUE", "FALSE", "POP",
	"ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "NEGATE", "NOT", "EQUAL", "LESS", "GREATER",
	"DEFINE_GLOBAL", "GET_GLOBAL", "SET_GLOBAL", "GET_LOCAL", "SET_LOCAL", "GET_UPVALUE", "SET_UPVALUE",
	"JUMP", "JUMP_IF_FALSE", "LOOP",
	"CALL", "CLOSURE", "CLOSE_UPVALUE", "RETURN",
	"CLASS", "INHERIT", "METHOD", "GET_FIELD", "SET_FIELD", "GET_SUPER", "INVOKE", "INVOKE_SUPER",
	"NEW_LIST", "NEW_MAP", "INDEX_GET", "INDEX_SET",
	"FIBER", "YIELD",
	"PRINT",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}
