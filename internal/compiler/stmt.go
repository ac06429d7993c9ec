package compiler

import (
	"buzz/internal/lexer"
	"buzz/pkg/types"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TokVar):
		c.varDecl()
	case c.match(lexer.TokFun):
		c.funDecl()
	case c.check(lexer.TokObject) || c.check(lexer.TokClass):
		c.classDecl()
	default:
		c.statement()
	}
}

func (c *Compiler) varDecl() {
	name := c.consume(lexer.TokIdent, "expected variable name").Text
	c.consume(lexer.TokEqual, "expected '=' in var declaration")
	c.expression()
	c.consume(lexer.TokSemicolon, "expected ';' after variable declaration")
	c.defineVariable(name)
}

func (c *Compiler) defineVariable(name string) {
	if c.scopeDepth > 0 {
		c.addLocal(name)
		return
	}
	idx := c.identifierConstant(name)
	c.emitBytes(byte(vm.OpDefineGlobal), idx)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	if slot, ok := c.resolveLocal(name); ok {
		if canAssign && c.match(lexer.TokEqual) {
			c.expression()
			c.emitBytes(byte(vm.OpSetLocal), byte(slot))
			return
		}
		c.emitBytes(byte(vm.OpGetLocal), byte(slot))
		return
	}
	idx := c.identifierConstant(name)
	if canAssign && c.match(lexer.TokEqual) {
		c.expression()
		c.emitBytes(byte(vm.OpSetGlobal), idx)
		return
	}
	c.emitBytes(byte(vm.OpGetGlobal), idx)
}

// funDecl parses `fun name(params) ( '>' typeName )? block`, compiling
// the body into its own Chunk and leaving a Function constant bound to
// a global of the same name, exactly like any other top-level value.
func (c *Compiler) funDecl() {
	name := c.consume(lexer.TokIdent, "expected function name").Text
	fn := c.function(name, false)
	idx := c.makeConstant(value.FromObj(fn))
	c.emitBytes(byte(vm.OpConstant), idx)
	c.defineVariable(name)
}

// function compiles a parameter list and a block body into a fresh
// Chunk, returning the resulting KindFunction object. isMethod reserves
// local slot 0 for the implicit receiver (`this`) buzz method bodies
// expect there.
func (c *Compiler) function(name string, isMethod bool) *value.Obj {
	savedChunk, savedLocals, savedDepth := c.chunk, c.locals, c.scopeDepth
	c.chunk = &value.Chunk{}
	c.locals = nil
	c.scopeDepth = 1 // parameters and the body share one scope

	if isMethod {
		c.addLocal("this")
	}

	c.consume(lexer.TokLParen, "expected '(' after function name")
	arity := 0
	if !c.check(lexer.TokRParen) {
		for {
			pname := c.consume(lexer.TokIdent, "expected parameter name").Text
			c.addLocal(pname)
			arity++
			if !c.match(lexer.TokComma) {
				break
			}
		}
	}
	c.consume(lexer.TokRParen, "expected ')' after parameters")

	if c.match(lexer.TokGreater) {
		c.typeNameRef() // return type annotation, tracked for placeholder resolution only
	}

	c.consume(lexer.TokLBrace, "expected '{' before function body")
	for !c.check(lexer.TokRBrace) && !c.check(lexer.TokEOF) {
		c.declaration()
	}
	c.consume(lexer.TokRBrace, "expected '}' after function body")

	c.emit(byte(vm.OpNull))
	c.emit(byte(vm.OpReturn))

	fn := &value.Obj{}
	fn.Kind = value.KindFunction
	fn.FnName = name
	fn.FnArity = arity
	if isMethod {
		fn.FnKind = value.FnMethod
	} else {
		fn.FnKind = value.FnFunction
	}
	fn.FnChunk = c.chunk

	c.chunk, c.locals, c.scopeDepth = savedChunk, savedLocals, savedDepth
	return fn
}

// typeNameRef resolves a type name used in annotation position: an
// already-declared object/class resolves immediately; an as-yet-unseen
// name gets (or reuses) a pending Placeholder, satisfying §4.4's
// single-pass forward-reference requirement.
func (c *Compiler) typeNameRef() *types.TypeDef {
	name := c.consume(lexer.TokIdent, "expected type name").Text
	if info, ok := c.classes[name]; ok {
		return info.def
	}
	if t, ok := c.forwardTypes[name]; ok {
		return t
	}
	n := name
	t := c.registry.NewPlaceholder(&n, types.SourceLocation{Line: c.prev.Line})
	c.forwardTypes[name] = t
	return t
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokReturn):
		c.returnStatement()
	case c.match(lexer.TokIf):
		c.ifStatement()
	case c.match(lexer.TokWhile):
		c.whileStatement()
	case c.match(lexer.TokLBrace):
		c.beginScope()
		for !c.check(lexer.TokRBrace) && !c.check(lexer.TokEOF) {
			c.declaration()
		}
		c.consume(lexer.TokRBrace, "expected '}' to close block")
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) returnStatement() {
	if c.match(lexer.TokSemicolon) {
		c.emit(byte(vm.OpNull))
		c.emit(byte(vm.OpReturn))
		return
	}
	c.expression()
	c.consume(lexer.TokSemicolon, "expected ';' after return value")
	c.emit(byte(vm.OpReturn))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokSemicolon, "expected ';' after expression")
	c.emit(byte(vm.OpPop))
}

func (c *Compiler) ifStatement() {
	c.consume(lexer.TokLParen, "expected '(' after if")
	c.expression()
	c.consume(lexer.TokRParen, "expected ')' after condition")

	thenJump := c.emitJump(vm.OpJumpIfFalse)
	c.emit(byte(vm.OpPop))
	c.statement()

	elseJump := c.emitJump(vm.OpJump)
	c.patchJump(thenJump)
	c.emit(byte(vm.OpPop))

	if c.match(lexer.TokElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk.Code)
	c.consume(lexer.TokLParen, "expected '(' after while")
	c.expression()
	c.consume(lexer.TokRParen, "expected ')' after condition")

	exitJump := c.emitJump(vm.OpJumpIfFalse)
	c.emit(byte(vm.OpPop))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emit(byte(vm.OpPop))
}
