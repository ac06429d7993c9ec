package vm

import (
	"strings"
	"testing"

	"buzz/pkg/value"
)

func TestDisassembleConstantAndReturn(t *testing.T) {
	chunk := &value.Chunk{
		Code:  []byte{byte(OpConstant), 0, byte(OpReturn)},
		Lines: []int{1, 1, 1},
		Constants: []value.Value{value.Int(7)},
	}
	out := Disassemble("main", chunk)
	if !strings.Contains(out, "CONSTANT") || !strings.Contains(out, "(7)") {
		t.Fatalf("expected disassembly to show the constant operand, got:\n%s", out)
	}
	if !strings.Contains(out, "RETURN") {
		t.Fatalf("expected RETURN in disassembly, got:\n%s", out)
	}
}
