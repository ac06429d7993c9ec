// Package compiler implements buzz's single-pass source-to-bytecode
// compiler: a recursive-descent parser that emits a *value.Chunk
// directly as it parses, rather than building and then walking a
// separate AST. A single pass is what makes the Placeholder mechanism
// in pkg/types necessary in the first place (§4.4): a forward type
// reference is resolved the moment its declaration is finally seen,
// not in a later pass over a completed tree.
package compiler

import (
	"fmt"

	"buzz/internal/lexer"
	"buzz/pkg/gc"
	"buzz/pkg/types"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

// local is one resolved name in the current function's stack frame.
type local struct {
	name  string
	depth int
}

// classInfo is what the compiler remembers about a declared object or
// class, to resolve super-chains, method dispatch, and `Name()`
// instantiation/singleton-access syntax later in the same pass.
type classInfo struct {
	obj        *value.Obj // KindObject
	def        *types.TypeDef
	isSingleton bool
}

// Compiler parses one source unit into a top-level "main" Chunk. Every
// nested `fun` declaration compiles to its own Chunk, wrapped in a
// KindFunction constant embedded in the enclosing chunk's constant
// pool, exactly as the Closure/Function split in pkg/value expects.
type Compiler struct {
	lex  *lexer.Lexer
	cur  lexer.Token
	prev lexer.Token

	heap     *gc.Heap
	registry *types.Registry

	chunk      *value.Chunk
	locals     []local
	scopeDepth int

	classes      map[string]*classInfo
	forwardTypes map[string]*types.TypeDef
	curClass     *classInfo // enclosing object/class while compiling its members, for `super`

	errs []error
}

// Result is what Compile returns: the top-level function ready to hand
// to vm.VM.Call. Diagnostics are not kept here; Compile returns them as
// its error.
type Result struct {
	Main *value.Obj
}

// Compile parses src to completion and returns the compiled top-level
// function, or the first parse/resolution error encountered.
func Compile(src string, heap *gc.Heap, registry *types.Registry) (*Result, error) {
	c := &Compiler{
		lex:          lexer.New(src),
		heap:         heap,
		registry:     registry,
		chunk:        &value.Chunk{},
		classes:      make(map[string]*classInfo),
		forwardTypes: make(map[string]*types.TypeDef),
	}
	c.advance()

	for !c.check(lexer.TokEOF) {
		c.declaration()
		if len(c.errs) > 0 {
			return nil, c.errs[0]
		}
	}
	c.emit(byte(vm.OpNull))
	c.emit(byte(vm.OpReturn))

	if pending := registry.Pending(); len(pending) > 0 {
		return nil, fmt.Errorf("compiler: %d unresolved forward type reference(s), first at %s", len(pending), pending[0].PlaceholderDef.Where)
	}

	fn := &value.Obj{}
	fn.Kind = value.KindFunction
	fn.FnName = "main"
	fn.FnKind = value.FnScript
	fn.FnChunk = c.chunk
	return &Result{Main: fn}, nil
}

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.lex.Next()
		if c.cur.Kind != lexer.TokError {
			break
		}
		c.errorAt(c.cur, c.cur.Text)
	}
}

func (c *Compiler) check(k lexer.TokenKind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k lexer.TokenKind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k lexer.TokenKind, msg string) lexer.Token {
	if c.cur.Kind == k {
		tok := c.cur
		c.advance()
		return tok
	}
	c.errorAt(c.cur, msg)
	return c.cur
}

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	c.errs = append(c.errs, fmt.Errorf("line %d: %s (at %q)", tok.Line, msg, tok.Text))
}

func (c *Compiler) emit(b byte) { c.chunk.Write(b, c.prev.Line) }

func (c *Compiler) emitBytes(bs ...byte) {
	for _, b := range bs {
		c.emit(b)
	}
}

func (c *Compiler) makeConstant(v value.Value) byte {
	return byte(c.chunk.AddConstant(v))
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(value.FromObj(c.heap.Intern(name)))
}

// emitJump writes a two-byte placeholder offset and returns its
// position so the caller can patch it once the jump target is known.
func (c *Compiler) emitJump(op vm.OpCode) int {
	c.emit(byte(op))
	c.emit(0xff)
	c.emit(0xff)
	return len(c.chunk.Code) - 2
}

func (c *Compiler) patchJump(at int) {
	off := len(c.chunk.Code) - (at + 2)
	c.chunk.Code[at] = byte(off >> 8)
	c.chunk.Code[at+1] = byte(off)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emit(byte(vm.OpLoop))
	off := len(c.chunk.Code) - loopStart + 2
	c.emit(byte(off >> 8))
	c.emit(byte(off))
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(byte(vm.OpPop))
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) {
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}
