package vm

import (
	"fmt"
	"strings"

	"buzz/pkg/value"
)

// Disassemble renders chunk's bytecode as human-readable text, one
// instruction per line, the form the `buzz disasm` subcommand prints.
func Disassemble(name string, chunk *value.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for ip := 0; ip < len(chunk.Code); {
		ip = disassembleInstruction(&b, chunk, ip)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, chunk *value.Chunk, ip int) int {
	op := OpCode(chunk.Code[ip])
	line := 0
	if ip < len(chunk.Lines) {
		line = chunk.Lines[ip]
	}
	fmt.Fprintf(b, "%04d %4d %s", ip, line, op)

	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal,
		OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue,
		OpCall, OpClosure, OpGetField, OpSetField, OpMethod, OpClass,
		OpNewList, OpNewMap:
		idx := chunk.Code[ip+1]
		fmt.Fprintf(b, " %d", idx)
		switch op {
		case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal, OpClosure, OpGetField, OpSetField:
			if int(idx) < len(chunk.Constants) {
				fmt.Fprintf(b, " (%s)", value.ToString(chunk.Constants[idx]))
			}
		}
		b.WriteByte('\n')
		return ip + 2

	case OpGetSuper:
		name := chunk.Code[ip+1]
		super := chunk.Code[ip+2]
		fmt.Fprintf(b, " %d %d", name, super)
		if int(name) < len(chunk.Constants) {
			fmt.Fprintf(b, " (%s)", value.ToString(chunk.Constants[name]))
		}
		b.WriteByte('\n')
		return ip + 3

	case OpInvoke:
		name := chunk.Code[ip+1]
		argc := chunk.Code[ip+2]
		fmt.Fprintf(b, " %d %d", name, argc)
		if int(name) < len(chunk.Constants) {
			fmt.Fprintf(b, " (%s)", value.ToString(chunk.Constants[name]))
		}
		b.WriteByte('\n')
		return ip + 3

	case OpInvokeSuper:
		name := chunk.Code[ip+1]
		argc := chunk.Code[ip+2]
		super := chunk.Code[ip+3]
		fmt.Fprintf(b, " %d %d %d", name, argc, super)
		if int(name) < len(chunk.Constants) {
			fmt.Fprintf(b, " (%s)", value.ToString(chunk.Constants[name]))
		}
		b.WriteByte('\n')
		return ip + 4

	case OpJump, OpJumpIfFalse, OpLoop:
		off := uint16(chunk.Code[ip+1])<<8 | uint16(chunk.Code[ip+2])
		fmt.Fprintf(b, " -> %d\n", targetOf(op, ip, off))
		return ip + 3

	default:
		b.WriteByte('\n')
		return ip + 1
	}
}

func targetOf(op OpCode, ip int, off uint16) int {
	if op == OpLoop {
		return ip + 3 - int(off)
	}
	return ip + 3 + int(off)
}
